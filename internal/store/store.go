package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Store archives relay traffic for offline inspection: who joined and left,
// and what was said. World state is never written here; the relay runs fully
// in-memory and every call below is off the hot path.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the archive tables if they are missing. Statements
// run one at a time; pgx's extended protocol rejects multi-statement Exec.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_events (
			id          TEXT PRIMARY KEY,
			player_id   TEXT NOT NULL,
			player_name TEXT NOT NULL DEFAULT '',
			event       TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS session_events_player_idx
			ON session_events (player_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id         TEXT PRIMARY KEY,
			player_id  TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS chat_messages_created_idx
			ON chat_messages (created_at)`,
	}
	for _, ddl := range stmts {
		if _, err := s.Pool.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// Session lifecycle events recorded by the archiver.
const (
	EventJoined = "joined"
	EventLeft   = "left"
)

func (s *Store) RecordSessionEvent(ctx context.Context, playerID, playerName, event string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO session_events (id, player_id, player_name, event) VALUES ($1, $2, $3, $4)`,
		NewID(), playerID, playerName, event)
	return err
}

func (s *Store) RecordChatMessage(ctx context.Context, playerID, body string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO chat_messages (id, player_id, body) VALUES ($1, $2, $3)`,
		NewID(), playerID, body)
	return err
}

// SessionHistory lists a player's lifecycle events, newest first.
func (s *Store) SessionHistory(ctx context.Context, playerID string, limit int) ([]SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, player_id, player_name, event, created_at
		 FROM session_events WHERE player_id = $1
		 ORDER BY created_at DESC LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		if err := rows.Scan(&ev.ID, &ev.PlayerID, &ev.PlayerName, &ev.Event, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecentChat lists the latest chat lines, newest first.
func (s *Store) RecentChat(ctx context.Context, limit int) ([]ChatLine, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, player_id, body, created_at
		 FROM chat_messages ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatLine
	for rows.Next() {
		var line ChatLine
		if err := rows.Scan(&line.ID, &line.PlayerID, &line.Body, &line.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
