package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_logs (
    id               BIGSERIAL PRIMARY KEY,
    request_id       TEXT        NOT NULL,
    model            TEXT        NOT NULL,
    code_length      INTEGER     NOT NULL,
    cache_status     TEXT        NOT NULL,
    status_code      INTEGER     NOT NULL,
    response_time_ms INTEGER     NOT NULL,
    client_addr      TEXT        NOT NULL,
    timestamp        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS analysis_logs_timestamp_idx ON analysis_logs (timestamp);
`

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

// Migrate creates the access log table if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}

func (db *DB) Close() {
	db.Pool.Close()
}
