package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
)

// Store manages generation history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history: record not found")

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return openPath(cfg.HistoryDBPath())
}

func openPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a pending record and returns it.
func (s *Store) Create(ctx context.Context, kind Kind, prompt, model string) (*Record, error) {
	now := time.Now().UTC()
	record := &Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusPending,
		Prompt:    prompt,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.execWithRetry(ctx, `
		INSERT INTO requests (id, kind, status, prompt, model, result_json, asset_path, error_category, error_message, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', '', '', '', 0, ?, ?)`,
		record.ID, string(record.Kind), string(record.Status), record.Prompt, record.Model,
		formatTime(record.CreatedAt), formatTime(record.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	return record, nil
}

// MarkRunning transitions a record to running.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	return s.updateStatus(ctx, id, StatusRunning, "UPDATE requests SET status = ?, updated_at = ? WHERE id = ?")
}

// MarkCompleted records the structured result and/or asset path along
// with how long the upstream call took.
func (s *Store) MarkCompleted(ctx context.Context, id, resultJSON, assetPath string, duration time.Duration) error {
	res, err := s.execWithRetry(ctx, `
		UPDATE requests SET status = ?, result_json = ?, asset_path = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?`,
		string(StatusCompleted), resultJSON, assetPath, duration.Milliseconds(), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireRow(res)
}

// MarkFailed records the classified failure and how long the upstream
// call took before it failed.
func (s *Store) MarkFailed(ctx context.Context, id, category, message string, duration time.Duration) error {
	res, err := s.execWithRetry(ctx, `
		UPDATE requests SET status = ?, error_category = ?, error_message = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?`,
		string(StatusFailed), category, message, duration.Milliseconds(), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireRow(res)
}

func (s *Store) updateStatus(ctx context.Context, id string, status Status, query string) error {
	res, err := s.execWithRetry(ctx, query, string(status), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update status to %s: %w", status, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches one record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return record, nil
}

// List returns the most recent records, newest first. A non-positive
// limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + " ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRecords(ctx, query, args...)
}

// ListByStatus returns records in a given lifecycle state, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	return s.queryRecords(ctx, selectColumns+" WHERE status = ? ORDER BY created_at DESC, id DESC", string(status))
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan request: %w", scanErr)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return records, nil
}

// FailPending marks all pending and running records failed with the
// given category and message. Called on daemon shutdown so dropped
// queue items do not linger as pending forever.
func (s *Store) FailPending(ctx context.Context, category, message string) (int64, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE requests SET status = ?, error_category = ?, error_message = ?, updated_at = ?
		WHERE status IN (?, ?)`,
		string(StatusFailed), category, message, formatTime(time.Now().UTC()),
		string(StatusPending), string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("fail pending requests: %w", err)
	}
	return res.RowsAffected()
}

// ClearTerminal deletes completed and failed records and reports how
// many were removed. Pending and running records are kept.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM requests WHERE status IN (?, ?)",
		string(StatusCompleted), string(StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed deletes failed records only.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM requests WHERE status = ?", string(StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("clear failed history: %w", err)
	}
	return res.RowsAffected()
}

// Summarize aggregates record counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM requests GROUP BY status")
	if err != nil {
		return Summary{}, fmt.Errorf("summarize requests: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}

const selectColumns = `
	SELECT id, kind, status, prompt, model, result_json, asset_path, error_category, error_message, duration_ms, created_at, updated_at
	FROM requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record     Record
		kind       string
		status     string
		durationMS int64
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&record.ID, &kind, &status, &record.Prompt, &record.Model,
		&record.ResultJSON, &record.AssetPath, &record.ErrorCategory, &record.ErrorMessage,
		&durationMS, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.Kind = Kind(kind)
	record.Status = Status(status)
	record.Duration = time.Duration(durationMS) * time.Millisecond
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)
	return &record, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
