package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/solver"
)

// FileName is the database file name inside the database directory.
const FileName = "rootscan.db"

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores solve runs and sweeps.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per solve run or accuracy sweep
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		settings_json TEXT,
		digest TEXT,
		report_json TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		converged INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- One row per solver invocation; NaN values are stored as NULL
	CREATE TABLE IF NOT EXISTS solves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		label TEXT NOT NULL,
		method TEXT NOT NULL,
		tolerance REAL,
		root REAL,
		iterations INTEGER NOT NULL,
		error REAL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_solves_run ON solves(run_id);
	CREATE INDEX IF NOT EXISTS idx_solves_label ON solves(label, method);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SolveRecord is a stored solve.
type SolveRecord struct {
	Label      string
	Method     solver.Method
	Tolerance  float64
	Root       float64
	Iterations int32
	Error      float64
	Status     solver.Status
}

// RunSummary describes a stored run without its solves.
type RunSummary struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Digest    string
	Total     int
	Converged int
}

// Run is a stored run with its solves in execution order.
type Run struct {
	RunSummary

	// SettingsJSON is the settings the run was made with.
	SettingsJSON string

	// ReportJSON is the full report as written by the JSON writer.
	ReportJSON string

	Solves []SolveRecord
}

// SaveRun stores a solve run and all its solves in one transaction.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) error {
	settingsJSON, err := json.Marshal(report.Settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	solves := report.AllSolves()
	records := make([]SolveRecord, 0, len(solves))
	for _, s := range solves {
		records = append(records, SolveRecord{
			Label:      s.Label,
			Method:     s.Method,
			Tolerance:  report.Settings.Tolerance,
			Root:       s.Result.Root,
			Iterations: s.Result.Iterations,
			Error:      s.Result.Error,
			Status:     s.Result.Status,
		})
	}

	return h.save(ctx, RunSummary{
		ID:        report.ID,
		Kind:      model.KindSolve,
		Timestamp: report.StartedAt,
		Total:     len(records),
		Converged: report.ConvergedCount(),
	}, string(settingsJSON), string(reportJSON), records)
}

// SaveSweep stores an accuracy sweep and all its samples.
func (h *HistoryDB) SaveSweep(ctx context.Context, report *model.SweepReport) error {
	settingsJSON, err := json.Marshal(map[string]any{"tolerances": report.Tolerances})
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	records := make([]SolveRecord, 0, len(report.Samples))
	var converged int
	for _, s := range report.Samples {
		if s.Result.Converged {
			converged++
		}
		records = append(records, SolveRecord{
			Label:      s.Label,
			Method:     s.Method,
			Tolerance:  s.Tolerance,
			Root:       s.Result.Root,
			Iterations: s.Result.Iterations,
			Error:      s.Result.Error,
			Status:     s.Result.Status,
		})
	}

	return h.save(ctx, RunSummary{
		ID:        report.ID,
		Kind:      model.KindSweep,
		Timestamp: report.StartedAt,
		Digest:    report.Digest,
		Total:     len(records),
		Converged: converged,
	}, string(settingsJSON), string(reportJSON), records)
}

func (h *HistoryDB) save(ctx context.Context, sum RunSummary, settingsJSON, reportJSON string, records []SolveRecord) (err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, kind, timestamp, settings_json, digest, report_json, total, converged)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sum.ID,
		sum.Kind,
		sum.Timestamp.UTC().Format(time.RFC3339Nano),
		settingsJSON,
		sum.Digest,
		reportJSON,
		sum.Total,
		sum.Converged,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO solves (run_id, seq, label, method, tolerance, root, iterations, error, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare solve insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err = stmt.ExecContext(ctx,
			sum.ID,
			i,
			r.Label,
			r.Method.String(),
			nullable(r.Tolerance),
			nullable(r.Root),
			r.Iterations,
			nullable(r.Error),
			r.Status.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save solve %s: %w", r.Label, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. An empty kind lists every
// kind; a non-positive limit lists all runs.
func (h *HistoryDB) ListRuns(ctx context.Context, kind string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, kind, timestamp, COALESCE(digest, ''), total, converged
	FROM runs
	WHERE (? = '' OR kind = ?)
	ORDER BY timestamp DESC
	`
	args := []any{kind, kind}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			timestamp string
		)
		if err := rows.Scan(&sum.ID, &sum.Kind, &timestamp, &sum.Digest, &sum.Total, &sum.Converged); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.Timestamp = parseTimestamp(timestamp)
		results = append(results, sum)
	}

	return results, rows.Err()
}

// GetRun retrieves a run and its solves by ID.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
	SELECT id, kind, timestamp, COALESCE(digest, ''), total, converged, COALESCE(settings_json, ''), report_json
	FROM runs
	WHERE id = ?
	`

	var (
		run       Run
		timestamp string
	)
	err := h.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Kind, &timestamp, &run.Digest, &run.Total, &run.Converged,
		&run.SettingsJSON, &run.ReportJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Timestamp = parseTimestamp(timestamp)

	rows, err := h.db.QueryContext(ctx, `
	SELECT label, method, tolerance, root, iterations, error, status
	FROM solves
	WHERE run_id = ?
	ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get solves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                   SolveRecord
			method, status        string
			tolerance, root, rerr sql.NullFloat64
		)
		if err := rows.Scan(&rec.Label, &method, &tolerance, &root, &rec.Iterations, &rerr, &status); err != nil {
			return nil, fmt.Errorf("failed to scan solve: %w", err)
		}
		if rec.Method, err = solver.ParseMethod(method); err != nil {
			return nil, err
		}
		st, ok := solver.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q in run %s", status, id)
		}
		rec.Status = st
		rec.Tolerance = fromNullable(tolerance)
		rec.Root = fromNullable(root)
		rec.Error = fromNullable(rerr)
		run.Solves = append(run.Solves, rec)
	}

	return &run, rows.Err()
}

// nullable maps non-finite values to NULL, which SQLite would do anyway
// for NaN but not for infinities.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
