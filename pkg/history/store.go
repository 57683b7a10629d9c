// Package history archives completed turns to PostgreSQL. The archive is
// optional and best-effort: persistence failures are logged, never
// surfaced to the user.
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airsift/airsift/pkg/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Turn is one archived exchange.
type Turn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Tokens    int       `json:"tokens"`
	ToolsUsed []string  `json:"tools_used"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the PostgreSQL archive.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects, applies pending migrations, and returns the store.
func NewStore(ctx context.Context, databaseURL string, cfg config.HistoryConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := applyMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("History archive connected")
	return &Store{pool: pool}, nil
}

func applyMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Archive inserts one turn.
func (s *Store) Archive(ctx context.Context, t *Turn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO turns (session_id, user_text, assistant, tokens, tools_used, cached)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.SessionID, t.User, t.Assistant, t.Tokens, t.ToolsUsed, t.Cached)
	if err != nil {
		return fmt.Errorf("failed to archive turn: %w", err)
	}
	return nil
}

// ArchiveAsync persists a turn in the background. Failures are logged.
func (s *Store) ArchiveAsync(t *Turn) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Archive(ctx, t); err != nil {
			slog.Error("Turn archive failed", "session_id", t.SessionID, "error", err)
		}
	}()
}

// ListTurns returns a session's most recent turns, newest first.
func (s *Store) ListTurns(ctx context.Context, sessionID string, limit int) ([]*Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, user_text, assistant, tokens, tools_used, cached, created_at
		 FROM turns WHERE session_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		t := &Turn{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.User, &t.Assistant,
			&t.Tokens, &t.ToolsUsed, &t.Cached, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// CountTurns returns how many turns a session has archived.
func (s *Store) CountTurns(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM turns WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}

// PurgeSession deletes a session's archived turns, returning the count.
func (s *Store) PurgeSession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM turns WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge session turns: %w", err)
	}
	return tag.RowsAffected(), nil
}
