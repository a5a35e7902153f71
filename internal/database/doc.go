// Package database provides SQLite-based run history for rootscan.
//
// Every solve run and accuracy sweep is stored with its settings and the
// outcome of each solve, so results can be compared across versions and
// tolerance choices. A sweep also stores the digest of its accuracy log.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver; the whole
// history is a single file in the XDG data directory.
package database
