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

	"github.com/nao1215/docscout/internal/model"
)

// FileName is the database file inside the database directory.
const FileName = "docscout.db"

// RunKind tells discovery runs from analysis runs.
type RunKind string

const (
	// RunDiscovery is a sitemap discovery run.
	RunDiscovery RunKind = "discovery"
	// RunAnalysis is a page analysis run.
	RunAnalysis RunKind = "analysis"
)

var (
	// ErrRunNotFound is returned when a run id does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatabaseNotFound is returned by Open when the database file is
	// missing and CreateIfNotExists is off.
	ErrDatabaseNotFound = errors.New("database not found")
)

// HistoryDB records discovery and analysis runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
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
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode+"&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);

	CREATE TABLE IF NOT EXISTS discovery_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		status TEXT NOT NULL,
		url_count INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_discovery_run ON discovery_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_discovery_provider ON discovery_results(provider);

	CREATE TABLE IF NOT EXISTS page_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		content_hash TEXT,
		broken_links INTEGER NOT NULL DEFAULT 0,
		analyzed_at TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON page_reports(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON page_reports(url);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run summarizes one stored run.
type Run struct {
	ID          int64
	Kind        RunKind
	StartedAt   time.Time
	FinishedAt  time.Time
	ItemCount   int
	FailedCount int
}

// SaveDiscoveryRun stores results as one run and returns its id.
func (h *HistoryDB) SaveDiscoveryRun(ctx context.Context, startedAt time.Time, results []*model.CrawlResult) (int64, error) {
	failed := 0
	for _, r := range results {
		if !r.Status.IsSuccess() {
			failed++
		}
	}

	var runID int64
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		runID, err = insertRun(ctx, tx, RunDiscovery, startedAt, len(results), failed)
		if err != nil {
			return err
		}
		for _, r := range results {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to serialize result for %s: %w", r.Provider, err)
			}
			_, err = tx.ExecContext(ctx, `
			INSERT INTO discovery_results (run_id, provider, status, url_count, result_json)
			VALUES (?, ?, ?, ?, ?)`,
				runID, r.Provider, string(r.Status), len(r.URLs), string(data),
			)
			if err != nil {
				return fmt.Errorf("failed to save result for %s: %w", r.Provider, err)
			}
		}
		return nil
	})
	return runID, err
}

// SaveAnalysisRun stores reports as one run and returns its id.
func (h *HistoryDB) SaveAnalysisRun(ctx context.Context, startedAt time.Time, reports []*model.PageReport) (int64, error) {
	failed := 0
	for _, r := range reports {
		if !r.Status.IsSuccess() {
			failed++
		}
	}

	var runID int64
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		runID, err = insertRun(ctx, tx, RunAnalysis, startedAt, len(reports), failed)
		if err != nil {
			return err
		}
		for _, r := range reports {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to serialize report for %s: %w", r.URL, err)
			}
			broken := 0
			if r.LinksSummary != nil {
				broken = r.LinksSummary.BrokenLinks
			}
			_, err = tx.ExecContext(ctx, `
			INSERT INTO page_reports (run_id, url, status, content_hash, broken_links, analyzed_at, report_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, r.URL, string(r.Status), r.ContentHash, broken, formatTimestamp(r.AnalyzedAt), string(data),
			)
			if err != nil {
				return fmt.Errorf("failed to save report for %s: %w", r.URL, err)
			}
		}
		return nil
	})
	return runID, err
}

func insertRun(ctx context.Context, tx *sql.Tx, kind RunKind, startedAt time.Time, items, failed int) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (kind, started_at, finished_at, item_count, failed_count)
	VALUES (?, ?, ?, ?, ?)`,
		string(kind), formatTimestamp(startedAt), formatTimestamp(time.Now()), items, failed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return res.LastInsertId()
}

func (h *HistoryDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs first. kind filters by run kind
// unless empty; limit <= 0 returns all runs.
func (h *HistoryDB) ListRuns(ctx context.Context, kind RunKind, limit int) ([]Run, error) {
	query := `SELECT id, kind, started_at, finished_at, item_count, failed_count FROM runs WHERE 1=1`
	args := make([]any, 0, 2)
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			kindStr           string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &kindStr, &started, &finished, &r.ItemCount, &r.FailedCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Kind = RunKind(kindStr)
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with id.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	var (
		r                 Run
		kindStr           string
		started, finished string
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT id, kind, started_at, finished_at, item_count, failed_count FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &kindStr, &started, &finished, &r.ItemCount, &r.FailedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r.Kind = RunKind(kindStr)
	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)
	return &r, nil
}

// DiscoveryResults returns the provider results of a discovery run in
// the order they were saved.
func (h *HistoryDB) DiscoveryResults(ctx context.Context, runID int64) ([]*model.CrawlResult, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT result_json FROM discovery_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery results: %w", err)
	}
	defer rows.Close()

	var results []*model.CrawlResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan discovery result: %w", err)
		}
		var r model.CrawlResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to parse discovery result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// PageReports returns the reports of an analysis run in the order they
// were saved.
func (h *HistoryDB) PageReports(ctx context.Context, runID int64) ([]*model.PageReport, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT report_json FROM page_reports WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.PageReport
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan page report: %w", err)
		}
		var r model.PageReport
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to parse page report: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

// LatestContentHash returns the content hash recorded by the most recent
// successful analysis of url. ok is false when url was never analyzed.
func (h *HistoryDB) LatestContentHash(ctx context.Context, url string) (hash string, ok bool, err error) {
	var ns sql.NullString
	err = h.db.QueryRowContext(ctx, `
	SELECT content_hash FROM page_reports
	WHERE url = ? AND status = ?
	ORDER BY id DESC
	LIMIT 1`, url, string(model.StatusSuccess)).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get content hash: %w", err)
	}
	return ns.String, true, nil
}

// DeleteRun removes a run and everything recorded with it.
func (h *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats are tried in order when reading timestamps back.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
