// Package main provides the entry point for the rootscan CLI.
//
// rootscan locates the real roots of scalar functions: it scans a domain
// for sign changes, refines every bracket with Newton's method and with
// bisection, and logs the error of every iteration for later analysis.
//
// Usage:
//
//	rootscan solve
//	rootscan sweep
//	rootscan brackets -f f3
//
// See --help for all available options.
package main

// main is the entry point for rootscan.
func main() {
	Execute()
}
