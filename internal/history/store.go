package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one render run's history row.
type Run struct {
	ID            string
	EditPath      string
	OutputPath    string
	Width         int
	Height        int
	FPS           float64
	Clips         int
	FramesWritten int64
	Status        string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store manages run history backed by SQLite.
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

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
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
	store := &Store{db: db, path: path}
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

// StartRun records a run in the running state.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
		INSERT INTO runs (id, edit_path, output_path, width, height, fps, clips, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.EditPath, run.OutputPath, run.Width, run.Height, run.FPS, run.Clips,
		StatusRunning, formatTime(run.StartedAt),
	)
}

// FinishRun marks a run completed or failed and stores its final frame count.
func (s *Store) FinishRun(ctx context.Context, id string, framesWritten int64, runErr error) error {
	status := StatusCompleted
	message := ""
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	return s.execWithRetry(ctx, `
		UPDATE runs
		SET status = ?, error = ?, frames_written = ?, finished_at = ?
		WHERE id = ?`,
		status, message, framesWritten, formatTime(time.Now().UTC()), id,
	)
}

// Get returns one run by id; found is false when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Find resolves a run by full id or unique id prefix, so operators can paste
// the short form the CLI prints.
func (s *Store) Find(ctx context.Context, idOrPrefix string) (Run, bool, error) {
	if run, found, err := s.Get(ctx, idOrPrefix); err != nil || found {
		return run, found, err
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE id LIKE ? LIMIT 2", idOrPrefix+"%")
	if err != nil {
		return Run{}, false, err
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, false, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, false, err
	}
	switch len(matches) {
	case 0:
		return Run{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return Run{}, false, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const selectColumns = `
	SELECT id, edit_path, output_path, width, height, fps, clips,
	       frames_written, status, error, started_at, finished_at
	FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt, finishedAt string
	err := row.Scan(&run.ID, &run.EditPath, &run.OutputPath, &run.Width, &run.Height,
		&run.FPS, &run.Clips, &run.FramesWritten, &run.Status, &run.Error,
		&startedAt, &finishedAt)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	return run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
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
