package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes. Old databases must be deleted
// rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// clipfeed version.
var ErrSchemaMismatch = errors.New("audit schema version mismatch")

// Store persists audit runs and per-clip results in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// ClipResult is one clip's decode outcome within a run.
type ClipResult struct {
	Path         string
	SourceID     int64
	SegmentID    int64
	Valid        bool
	Reason       string
	AudioSamples int
	DecodeMS     int64
}

// RunSummary describes one audit run. FinishedAt is zero while a run is
// still in flight or was interrupted.
type RunSummary struct {
	ID            string
	CorpusDir     string
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalClips    int
	FailedClips   int
	DegradedClips int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the audit database at path, creating the
// parent directory when needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("audit open: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit open: %w", err)
	}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, corpusDir string, totalClips int) (string, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.execWithRetry(ctx,
		"INSERT INTO audit_runs (id, corpus_dir, started_at, total_clips) VALUES (?, ?, ?, ?)",
		runID, corpusDir, startedAt, totalClips)
	if err != nil {
		return "", fmt.Errorf("insert audit run: %w", err)
	}
	return runID, nil
}

// RecordClip stores one clip's outcome for a run.
func (s *Store) RecordClip(ctx context.Context, runID string, result ClipResult) error {
	err := s.execWithRetry(ctx,
		`INSERT INTO clip_results
            (run_id, path, source_id, segment_id, valid, reason, audio_samples, decode_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Path, result.SourceID, result.SegmentID,
		boolToInt(result.Valid), nullableString(result.Reason),
		result.AudioSamples, result.DecodeMS)
	if err != nil {
		return fmt.Errorf("insert clip result: %w", err)
	}
	return nil
}

// FinishRun closes out a run with its failure counts.
func (s *Store) FinishRun(ctx context.Context, runID string, failed, degraded int) error {
	finishedAt := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.execWithRetry(ctx,
		"UPDATE audit_runs SET finished_at = ?, failed_clips = ?, degraded_clips = ? WHERE id = ?",
		finishedAt, failed, degraded, runID)
	if err != nil {
		return fmt.Errorf("finish audit run: %w", err)
	}
	return nil
}

// Summary returns one run's row.
func (s *Store) Summary(ctx context.Context, runID string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, corpus_dir, started_at, finished_at, total_clips, failed_clips, degraded_clips
         FROM audit_runs WHERE id = ?`, runID)
	summary, err := scanSummary(row)
	if err != nil {
		return RunSummary{}, fmt.Errorf("read audit run %s: %w", runID, err)
	}
	return summary, nil
}

// History returns the most recent runs, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, corpus_dir, started_at, finished_at, total_clips, failed_clips, degraded_clips
         FROM audit_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit run: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	return out, nil
}

// Problems returns a run's failed and degraded clips, worst first.
func (s *Store) Problems(ctx context.Context, runID string, limit int) ([]ClipResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, source_id, segment_id, valid, reason, audio_samples, decode_ms
         FROM clip_results
         WHERE run_id = ? AND (valid = 0 OR reason IS NOT NULL)
         ORDER BY valid ASC, path ASC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("list clip problems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ClipResult
	for rows.Next() {
		var result ClipResult
		var valid int
		var reason sql.NullString
		if err := rows.Scan(&result.Path, &result.SourceID, &result.SegmentID,
			&valid, &reason, &result.AudioSamples, &result.DecodeMS); err != nil {
			return nil, fmt.Errorf("scan clip result: %w", err)
		}
		result.Valid = valid != 0
		result.Reason = reason.String
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clip problems: %w", err)
	}
	return out, nil
}

// ClipCount returns how many clip rows a run recorded.
func (s *Store) ClipCount(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM clip_results WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clip results: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (RunSummary, error) {
	var summary RunSummary
	var startedAt string
	var finishedAt sql.NullString
	if err := row.Scan(&summary.ID, &summary.CorpusDir, &startedAt, &finishedAt,
		&summary.TotalClips, &summary.FailedClips, &summary.DegradedClips); err != nil {
		return RunSummary{}, err
	}
	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("parse started_at: %w", err)
	}
	summary.StartedAt = started
	if finishedAt.Valid && finishedAt.String != "" {
		finished, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return RunSummary{}, fmt.Errorf("parse finished_at: %w", err)
		}
		summary.FinishedAt = finished
	}
	return summary, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
