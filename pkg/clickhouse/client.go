package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config holds ClickHouse connection settings.
type Config struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	UseHTTP      bool
	AsyncInsert  bool
	WaitForAsync bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultChunkSize caps the rows sent in one INSERT.
const DefaultChunkSize = 2000

// Client owns a ClickHouse connection pool.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and pings the server.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("clickhouse: host is required")
	}
	db := clickhouse.OpenDB(options(cfg))
	db.SetConnMaxLifetime(5 * time.Minute)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Host, err)
	}
	return &Client{db: db}, nil
}

func options(cfg Config) *clickhouse.Options {
	port := cfg.Port
	if port == 0 {
		port = 9000
	}
	opts := &clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{net.JoinHostPort(cfg.Host, strconv.Itoa(port))},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		Settings:     clickhouse.Settings{},
	}
	if cfg.UseHTTP {
		opts.Protocol = clickhouse.HTTP
	}
	if cfg.AsyncInsert {
		opts.Settings["async_insert"] = 1
		if cfg.WaitForAsync {
			opts.Settings["wait_for_async_insert"] = 1
		}
	}
	return opts
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// InsertRows writes rows with multi-row VALUES statements of at most DefaultChunkSize rows.
// Every row must have len(columns) values.
func (c *Client) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += DefaultChunkSize {
		end := min(start+DefaultChunkSize, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(columns))
		for i, r := range chunk {
			if len(r) != len(columns) {
				return fmt.Errorf("insert %s: row %d has %d values, want %d", table, start+i, len(r), len(columns))
			}
			args = append(args, r...)
		}
		if _, err := c.db.ExecContext(ctx, insertQuery(table, columns, len(chunk)), args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func insertQuery(table string, columns []string, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), strings.Join(values, ","))
}
