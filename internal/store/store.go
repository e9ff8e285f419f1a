package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"formcoach/internal/config"
	"formcoach/internal/logging"
	"formcoach/internal/sessionstats"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the formcoach database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open ensures the data directory exists and opens the configured database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath(), logger)
}

// OpenPath opens or creates the database at path and applies migrations.
func OpenPath(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
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

	s := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "store")}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
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

// Get returns the counter stored under key, or zero when unset.
func (s *Store) Get(ctx context.Context, key string) (int, error) {
	var value int
	err := s.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value int) error {
	if value < 0 {
		return fmt.Errorf("counter %s: negative value %d", key, value)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO counters (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("write counter %s: %w", key, err)
	}
	return nil
}

// SaveSession records or replaces a finished session.
func (s *Store) SaveSession(ctx context.Context, snap sessionstats.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (
            id, started_at, duration_seconds, feedback_count, good_form_percentage,
            good_count, warning_count, error_count, mean_confidence, backend, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            duration_seconds = excluded.duration_seconds,
            feedback_count = excluded.feedback_count,
            good_form_percentage = excluded.good_form_percentage,
            good_count = excluded.good_count,
            warning_count = excluded.warning_count,
            error_count = excluded.error_count,
            mean_confidence = excluded.mean_confidence,
            backend = excluded.backend`,
		snap.ID,
		formatTime(snap.StartTimestamp),
		snap.DurationSeconds,
		snap.FeedbackCount,
		snap.GoodFormPercentage,
		snap.GoodCount,
		snap.WarningCount,
		snap.ErrorCount,
		snap.MeanConfidence,
		snap.Backend,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return nil
}

const sessionColumns = `id, started_at, duration_seconds, feedback_count, good_form_percentage,
    good_count, warning_count, error_count, mean_confidence, backend`

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (sessionstats.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	snap, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sessionstats.Snapshot{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return snap, err
}

// ListSessions returns up to limit sessions, newest first. A non-positive
// limit returns every session.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]sessionstats.Snapshot, error) {
	query := "SELECT " + sessionColumns + " FROM sessions ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []sessionstats.Snapshot
	for rows.Next() {
		snap, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (sessionstats.Snapshot, error) {
	var (
		snap    sessionstats.Snapshot
		started string
	)
	err := row.Scan(
		&snap.ID,
		&started,
		&snap.DurationSeconds,
		&snap.FeedbackCount,
		&snap.GoodFormPercentage,
		&snap.GoodCount,
		&snap.WarningCount,
		&snap.ErrorCount,
		&snap.MeanConfidence,
		&snap.Backend,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snap, err
		}
		return snap, fmt.Errorf("scan session: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return snap, fmt.Errorf("parse session start %q: %w", started, err)
	}
	snap.StartTimestamp = ts
	snap.Finalized = true
	return snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
