package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wcagscan/internal/model"
)

// FileName is the database file created in the history directory.
const FileName = "wcagscan.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores completed runs and a per-target index of their outcomes.
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

// Open opens or creates a HistoryDB in dbDir.
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
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
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
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store complete run reports as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		tests INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		violations INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Target results index every tested URL of every run
	CREATE TABLE IF NOT EXISTS target_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		violations INTEGER NOT NULL,
		impact_summary TEXT,
		tested_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_targets_url ON target_results(url);
	CREATE INDEX IF NOT EXISTS idx_targets_run ON target_results(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run and one target row per outcome in a single
// transaction. It returns the new run ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, tests, failures, violations, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		len(run.Outcomes),
		run.FailedCount(),
		run.ViolationCount(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, o := range run.Outcomes {
		violations := 0
		impacts := map[string]int{}
		testedAt := run.StartedAt
		if res := run.ResultFor(o.URL); res != nil {
			violations = len(res.Violations)
			for impact, n := range res.CountByImpact() {
				impacts[impact.String()] = n
			}
			testedAt = res.ScannedAt
		}
		impactJSON, _ := json.Marshal(impacts) //nolint:errcheck,errchkjson // map[string]int always marshals

		_, err := tx.ExecContext(ctx, `
		INSERT INTO target_results (run_id, url, status, violations, impact_summary, tested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			runID,
			o.URL,
			string(o.Status),
			violations,
			string(impactJSON),
			formatTimestamp(testedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save target result for %s: %w", o.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunMetadata contains summary information about a stored run.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// Tests is the number of attempted targets.
	Tests int

	// Failures is the number of failed targets.
	Failures int

	// Violations is the total number of violations found.
	Violations int
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, started_at, finished_at, tests, failures, violations
	FROM runs
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started, finished string
		if err := rows.Scan(&meta.ID, &started, &finished, &meta.Tests, &meta.Failures, &meta.Violations); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished)
		runs = append(runs, meta)
	}

	return runs, rows.Err()
}

// GetRun retrieves a stored run by its database ID.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// ListTargets returns every URL that has been tested, sorted.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT url FROM target_results ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// TargetRecord is one tested URL of one stored run.
type TargetRecord struct {
	// RunID is the run the record belongs to.
	RunID int64

	// URL is the tested page.
	URL string

	// Status is the test status.
	Status model.TestStatus

	// Violations is the number of violations found.
	Violations int

	// ImpactSummary counts violations by impact.
	ImpactSummary map[string]int

	// TestedAt is when the page was scanned, or the run start when no scan
	// completed.
	TestedAt time.Time
}

// TargetHistory returns every stored record for url, most recent first.
func (hdb *HistoryDB) TargetHistory(ctx context.Context, url string) ([]TargetRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT run_id, url, status, violations, impact_summary, tested_at
	FROM target_results
	WHERE url = ?
	ORDER BY run_id DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get target history: %w", err)
	}
	defer rows.Close()

	var records []TargetRecord
	for rows.Next() {
		var rec TargetRecord
		var status, testedAt string
		var impactJSON sql.NullString

		if err := rows.Scan(&rec.RunID, &rec.URL, &status, &rec.Violations, &impactJSON, &testedAt); err != nil {
			return nil, fmt.Errorf("failed to scan target record: %w", err)
		}
		rec.Status = model.TestStatus(status)
		rec.TestedAt = parseTimestamp(testedAt)

		rec.ImpactSummary = make(map[string]int)
		if impactJSON.Valid && impactJSON.String != "" {
			if err := json.Unmarshal([]byte(impactJSON.String), &rec.ImpactSummary); err != nil {
				rec.ImpactSummary = make(map[string]int)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
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
