package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool connection pool
type DB struct {
	*pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewPool creates a new database connection pool
func NewPool(ctx context.Context, cfg Config) (*DB, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	} else {
		config.MaxConns = 25
	}

	if cfg.MinConns > 0 {
		config.MinConns = cfg.MinConns
	} else {
		config.MinConns = 5
	}

	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	} else {
		config.MaxConnLifetime = time.Hour
	}

	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	} else {
		config.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// schema is the full DDL for the application. Amount columns are NUMERIC;
// the payer/debtor allocations of an expense and the materialized event
// debts are JSONB maps keyed by member ID.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS groups (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	owner_id UUID NOT NULL REFERENCES users(id),
	simplify_debts BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
	id UUID PRIMARY KEY,
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	user_id UUID REFERENCES users(id),
	display_name TEXT NOT NULL,
	joined_at TIMESTAMPTZ NOT NULL,
	UNIQUE (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	current_debts JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	split_method TEXT NOT NULL,
	payers JSONB NOT NULL,
	debtors JSONB NOT NULL,
	amount_paid NUMERIC(20, 2) NOT NULL DEFAULT 0,
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	from_member TEXT NOT NULL,
	to_member TEXT NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	expense_id UUID REFERENCES expenses(id),
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_members_group ON group_members(group_id);
CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
CREATE INDEX IF NOT EXISTS idx_events_group ON events(group_id);
CREATE INDEX IF NOT EXISTS idx_expenses_event ON expenses(event_id);
CREATE INDEX IF NOT EXISTS idx_expenses_group ON expenses(group_id);
CREATE INDEX IF NOT EXISTS idx_payments_event ON payments(event_id);
CREATE INDEX IF NOT EXISTS idx_payments_group ON payments(group_id);
`

// Migrate applies the schema
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
