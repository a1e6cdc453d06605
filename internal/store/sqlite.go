package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/session"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// GetSession returns a user's session or ErrNotFound if no record exists.
func (r *SQLiteRepo) GetSession(ctx context.Context, userID int64) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, state, last_search_at, window_start, window_count, created_at
		FROM sessions
		WHERE user_id = ?`,
		userID,
	)

	var (
		userIDOut    int64
		state        string
		lastSearchAt int64
		windowStart  int64
		windowCount  int
		createdAt    int64
	)

	if err := row.Scan(&userIDOut, &state, &lastSearchAt, &windowStart, &windowCount, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}

	return &session.Session{
		UserID:       userIDOut,
		State:        session.State(state),
		LastSearchAt: fromUnix(lastSearchAt),
		WindowStart:  fromUnix(windowStart),
		WindowCount:  windowCount,
		CreatedAt:    fromUnix(createdAt),
	}, nil
}

// PutSession inserts or updates a user's session. If the user_id exists the
// state and counters are overwritten; otherwise a new row is inserted.
func (r *SQLiteRepo) PutSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("nil session")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			user_id, state, last_search_at, window_start, window_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state          = excluded.state,
			last_search_at = excluded.last_search_at,
			window_start   = excluded.window_start,
			window_count   = excluded.window_count`,
		s.UserID, string(s.State),
		toUnix(s.LastSearchAt), toUnix(s.WindowStart), s.WindowCount,
		toUnix(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session %d: %w", s.UserID, err)
	}
	return nil
}
