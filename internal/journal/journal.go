// Package journal records production and merge history in a SQLite database
// so past runs can be inspected after the console scrolls away. The journal
// is strictly an observer: a failed write is logged and never fails the run
// it describes.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"montage/internal/logging"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Journal persists run history. A nil Journal ignores every call, so callers
// never need to branch on whether journaling is enabled.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
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

	j := &Journal{db: db, path: path, logger: logging.NewComponentLogger(logger, "journal")}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// BeginRun records the start of one invocation and returns its run ID.
func (j *Journal) BeginRun(ctx context.Context, action, selection, projectDir string) string {
	if j == nil {
		return ""
	}
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, action, selection, project_dir, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, action, nullableString(selection), projectDir, StatusRunning, timestamp(),
	)
	if err != nil {
		j.logger.Warn("could not record run start", logging.Error(err))
		return ""
	}
	return id
}

// FinishRun marks a run's terminal status. errMsg is stored for failed runs
// and ignored otherwise.
func (j *Journal) FinishRun(ctx context.Context, runID, status, errMsg string) {
	if j == nil || runID == "" {
		return
	}
	var stored any
	if status == StatusFailed && errMsg != "" {
		stored = errMsg
	}
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		status, timestamp(), stored, runID,
	)
	if err != nil {
		j.logger.Warn("could not record run finish", logging.Error(err))
	}
}

// RecordSegment logs one slot production.
func (j *Journal) RecordSegment(ctx context.Context, runID string, slot int, role, sourceFile, artifact string, cached, blackFallback bool, elapsed time.Duration) {
	if j == nil || runID == "" {
		return
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO segment_events (run_id, slot, role, source_file, artifact, cached, black_fallback, duration_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, slot, role, sourceFile, artifact, boolInt(cached), boolInt(blackFallback), elapsed.Milliseconds(), timestamp(),
	)
	if err != nil {
		j.logger.Warn("could not record segment event", logging.Error(err))
	}
}

// RecordMerge logs one join.
func (j *Journal) RecordMerge(ctx context.Context, runID, outputFile string, segmentCount int, reencoded bool) {
	if j == nil || runID == "" {
		return
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO merge_events (run_id, output_file, segment_count, reencoded, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		runID, outputFile, segmentCount, boolInt(reencoded), timestamp(),
	)
	if err != nil {
		j.logger.Warn("could not record merge event", logging.Error(err))
	}
}

// RunSummary is one row of run history.
type RunSummary struct {
	ID            string
	Action        string
	Selection     string
	ProjectDir    string
	Status        string
	StartedAt     string
	FinishedAt    string
	Error         string
	SegmentCount  int
	CachedCount   int
	MergedOutputs int
}

// Recent returns the most recent runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT r.id, r.action, COALESCE(r.selection, ''), r.project_dir, r.status,
                r.started_at, COALESCE(r.finished_at, ''), COALESCE(r.error, ''),
                (SELECT COUNT(1) FROM segment_events s WHERE s.run_id = r.id),
                (SELECT COUNT(1) FROM segment_events s WHERE s.run_id = r.id AND s.cached = 1),
                (SELECT COUNT(1) FROM merge_events m WHERE m.run_id = r.id)
         FROM runs r
         ORDER BY r.started_at DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Action, &s.Selection, &s.ProjectDir, &s.Status,
			&s.StartedAt, &s.FinishedAt, &s.Error,
			&s.SegmentCount, &s.CachedCount, &s.MergedOutputs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
