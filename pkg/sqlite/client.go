package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SQLite configuration.
type ClientConfig struct {
	Path        string
	BusyTimeout time.Duration
	WAL         bool
}

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.BusyTimeout = d
	}
}

// WithWAL toggles write-ahead logging. Ignored for in-memory databases.
func WithWAL(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.WAL = enabled
	}
}

// Client owns a single-writer SQLite handle (pure Go driver, no cgo).
type Client struct {
	db *sql.DB
}

// NewClient opens or creates the database at path. Use ":memory:" for tests.
func NewClient(path string, opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		WAL:         true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %q: %w", cfg.Path, err)
	}
	// SQLite is single-writer; one connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())}
	if cfg.WAL && !strings.Contains(cfg.Path, ":memory:") {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}

	return &Client{db: db}, nil
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema applies idempotent DDL statements.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
