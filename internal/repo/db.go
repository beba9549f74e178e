package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS events_groups (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	use_llm BOOLEAN NOT NULL DEFAULT FALSE,
	processing_complete BOOLEAN NOT NULL DEFAULT FALSE,
	processing_error TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	group_id UUID NOT NULL REFERENCES events_groups(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	start_datetime TIMESTAMPTZ NOT NULL,
	end_datetime TIMESTAMPTZ,
	location TEXT NOT NULL DEFAULT '',
	venue TEXT NOT NULL DEFAULT '',
	suggestions TEXT NOT NULL DEFAULT '',
	original_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attendees (
	id BIGSERIAL PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS event_notes (
	id BIGSERIAL PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_group ON events(group_id);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_datetime);
`

// DB wraps the Postgres connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB connects to Postgres and ensures the schema exists.
func NewDB(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	log.Info().Msg("Postgres connection established")
	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}
