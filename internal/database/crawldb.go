package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/commitmine/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "commitmine.db"

// CrawlDB provides SQLite-based storage for crawl runs and their indices.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
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

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
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

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		start_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		aborted INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		stats_json TEXT NOT NULL,
		steps_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- commitsByIssue rows
	CREATE TABLE IF NOT EXISTS commit_issues (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		issue_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		commit_title TEXT NOT NULL,
		UNIQUE(run_id, issue_id, commit_title)
	);

	CREATE INDEX IF NOT EXISTS idx_commit_issues_issue ON commit_issues(run_id, issue_id);

	-- bugFilesIndex and featureFilesIndex rows
	CREATE TABLE IF NOT EXISTS file_issues (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		file_path TEXT NOT NULL,
		position INTEGER NOT NULL,
		issue_id TEXT NOT NULL,
		UNIQUE(run_id, category, file_path, issue_id)
	);

	CREATE INDEX IF NOT EXISTS idx_file_issues_path ON file_issues(run_id, category, file_path);
	CREATE INDEX IF NOT EXISTS idx_file_issues_issue ON file_issues(run_id, category, issue_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is a stored run without its indices.
type RunSummary struct {
	ID         string
	StartURL   string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Aborted    bool
	Error      string
	Stats      model.CrawlStats
}

// SaveRun inserts or replaces a run and its indices in one transaction.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *model.CrawlRun) (err error) {
	if run == nil {
		return ErrNilRun
	}

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}
	stepsJSON, err := json.Marshal(run.PerformedSteps)
	if err != nil {
		return fmt.Errorf("failed to serialize steps: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var finishedAt sql.NullString
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullString{String: formatTimestamp(run.FinishedAt), Valid: true}
	}

	query := `
	INSERT INTO crawl_runs (id, start_url, started_at, finished_at, status, aborted, error, stats_json, steps_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		start_url = excluded.start_url,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		status = excluded.status,
		aborted = excluded.aborted,
		error = excluded.error,
		stats_json = excluded.stats_json,
		steps_json = excluded.steps_json
	`
	if _, err = tx.ExecContext(ctx, query,
		run.ID,
		run.StartURL,
		formatTimestamp(run.StartedAt),
		finishedAt,
		run.Status(),
		run.Aborted,
		run.ErrorMessage,
		string(statsJSON),
		string(stepsJSON),
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM commit_issues WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear commit index: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM file_issues WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear file index: %w", err)
	}

	if run.Indices != nil {
		if err = insertCommitIssues(ctx, tx, run.ID, run.Indices.CommitsByIssue); err != nil {
			return err
		}
		for _, c := range []model.Category{model.CategoryBug, model.CategoryFeature} {
			if err = insertFileIssues(ctx, tx, run.ID, c, run.Indices.FilesFor(c)); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// insertCommitIssues writes the commitsByIssue rows of a run.
func insertCommitIssues(ctx context.Context, tx *sql.Tx, runID string, index map[string][]string) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO commit_issues (run_id, issue_id, position, commit_title) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare commit index insert: %w", err)
	}
	defer stmt.Close()

	for _, issueID := range sortedKeys(index) {
		for pos, title := range index[issueID] {
			if _, err := stmt.ExecContext(ctx, runID, issueID, pos, title); err != nil {
				return fmt.Errorf("failed to insert commit for issue %s: %w", issueID, err)
			}
		}
	}
	return nil
}

// insertFileIssues writes the file index rows of one category.
func insertFileIssues(ctx context.Context, tx *sql.Tx, runID string, c model.Category, index map[string][]string) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO file_issues (run_id, category, file_path, position, issue_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare file index insert: %w", err)
	}
	defer stmt.Close()

	for _, path := range sortedKeys(index) {
		for pos, issueID := range index[path] {
			if _, err := stmt.ExecContext(ctx, runID, c.String(), path, pos, issueID); err != nil {
				return fmt.Errorf("failed to insert %s file %s: %w", c, path, err)
			}
		}
	}
	return nil
}

// GetRun retrieves a run with its indices.
func (cdb *CrawlDB) GetRun(ctx context.Context, id string) (*model.CrawlRun, error) {
	summary, err := cdb.getRunSummary(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return cdb.loadRun(ctx, summary)
}

// GetLatestRun retrieves the most recently started run with its indices.
func (cdb *CrawlDB) GetLatestRun(ctx context.Context) (*model.CrawlRun, error) {
	summary, err := cdb.getRunSummary(ctx, `ORDER BY started_at DESC, created_at DESC LIMIT 1`)
	if err != nil {
		return nil, err
	}
	return cdb.loadRun(ctx, summary)
}

// ListRuns returns the stored runs, newest first. A limit of zero or less
// returns every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := runSummaryQuery + ` ORDER BY started_at DESC, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		summary, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *summary)
	}
	return runs, rows.Err()
}

// CommitsForIssue returns the titles of the commits that resolved issueID
// in run runID, in insertion order.
func (cdb *CrawlDB) CommitsForIssue(ctx context.Context, runID, issueID string) ([]string, error) {
	return cdb.queryStrings(ctx, `
	SELECT commit_title FROM commit_issues
	WHERE run_id = ? AND issue_id = ?
	ORDER BY position
	`, runID, issueID)
}

// IssuesForFile returns the ids of the issues of category c whose commits
// touched path in run runID, in insertion order.
func (cdb *CrawlDB) IssuesForFile(ctx context.Context, runID string, c model.Category, path string) ([]string, error) {
	return cdb.queryStrings(ctx, `
	SELECT issue_id FROM file_issues
	WHERE run_id = ? AND category = ? AND file_path = ?
	ORDER BY position
	`, runID, c.String(), path)
}

// FilesForIssue returns the files touched by the commits of issueID when
// it was classified as category c, ordered by path.
func (cdb *CrawlDB) FilesForIssue(ctx context.Context, runID string, c model.Category, issueID string) ([]string, error) {
	return cdb.queryStrings(ctx, `
	SELECT file_path FROM file_issues
	WHERE run_id = ? AND category = ? AND issue_id = ?
	ORDER BY file_path
	`, runID, c.String(), issueID)
}

// DeleteRun removes a run and its indices.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM commit_issues WHERE run_id = ?`,
		`DELETE FROM file_issues WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete run indices: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM crawl_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return tx.Commit()
}

const runSummaryQuery = `
	SELECT id, start_url, started_at, finished_at, status, aborted, error, stats_json
	FROM crawl_runs`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// getRunSummary loads the first run matching the query suffix.
func (cdb *CrawlDB) getRunSummary(ctx context.Context, suffix string, args ...any) (*RunSummary, error) {
	row := cdb.db.QueryRowContext(ctx, runSummaryQuery+" "+suffix, args...)
	summary, err := scanRunSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return summary, err
}

// scanRunSummary reads one crawl_runs row.
func scanRunSummary(row rowScanner) (*RunSummary, error) {
	var (
		s          RunSummary
		startedAt  string
		finishedAt sql.NullString
		errMsg     sql.NullString
		statsJSON  string
	)
	if err := row.Scan(&s.ID, &s.StartURL, &startedAt, &finishedAt, &s.Status, &s.Aborted, &errMsg, &statsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	s.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		s.FinishedAt = parseTimestamp(finishedAt.String)
	}
	s.Error = errMsg.String
	if err := json.Unmarshal([]byte(statsJSON), &s.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats of run %s: %w", s.ID, err)
	}
	return &s, nil
}

// loadRun rebuilds a full run from its summary and index rows.
func (cdb *CrawlDB) loadRun(ctx context.Context, s *RunSummary) (*model.CrawlRun, error) {
	run := &model.CrawlRun{
		ID:           s.ID,
		StartURL:     s.StartURL,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Stats:        s.Stats,
		Aborted:      s.Aborted,
		ErrorMessage: s.Error,
		Indices:      model.NewIndices(),
	}

	var stepsJSON sql.NullString
	if err := cdb.db.QueryRowContext(ctx, `SELECT steps_json FROM crawl_runs WHERE id = ?`, s.ID).Scan(&stepsJSON); err != nil {
		return nil, fmt.Errorf("failed to read steps of run %s: %w", s.ID, err)
	}
	if stepsJSON.Valid && stepsJSON.String != "" {
		if err := json.Unmarshal([]byte(stepsJSON.String), &run.PerformedSteps); err != nil {
			return nil, fmt.Errorf("failed to parse steps of run %s: %w", s.ID, err)
		}
	}

	if err := cdb.loadCommitIndex(ctx, run); err != nil {
		return nil, err
	}
	if err := cdb.loadFileIndex(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// loadCommitIndex fills run.Indices.CommitsByIssue.
// Rows must be closed before the next query: the pool has one connection.
func (cdb *CrawlDB) loadCommitIndex(ctx context.Context, run *model.CrawlRun) error {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT issue_id, commit_title FROM commit_issues
	WHERE run_id = ?
	ORDER BY issue_id, position
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load commit index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID, title string
		if err := rows.Scan(&issueID, &title); err != nil {
			return fmt.Errorf("failed to read commit index: %w", err)
		}
		run.Indices.CommitsByIssue[issueID] = append(run.Indices.CommitsByIssue[issueID], title)
	}
	return rows.Err()
}

// loadFileIndex fills the bug and feature file indices of run.
func (cdb *CrawlDB) loadFileIndex(ctx context.Context, run *model.CrawlRun) error {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT category, file_path, issue_id FROM file_issues
	WHERE run_id = ?
	ORDER BY category, file_path, position
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load file index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, path, issueID string
		if err := rows.Scan(&category, &path, &issueID); err != nil {
			return fmt.Errorf("failed to read file index: %w", err)
		}
		c, err := model.ParseCategory(category)
		if err != nil {
			return err
		}
		files := run.Indices.FilesFor(c)
		if files == nil {
			continue
		}
		files[path] = append(files[path], issueID)
	}
	return rows.Err()
}

// queryStrings runs a single-column query.
func (cdb *CrawlDB) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// sortedKeys returns the keys of an index in lexical order.
func sortedKeys(index map[string][]string) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// timestampLayout is fixed-width so stored times sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// formatTimestamp stores times in UTC with nanoseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,           // written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
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
