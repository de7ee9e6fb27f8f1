package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	opts := options(Config{
		Host:        "ch.local",
		Database:    "tickpulse",
		User:        "default",
		Password:    "secret",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
	})

	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, clickhouse.Native, opts.Protocol)
	assert.Equal(t, "tickpulse", opts.Auth.Database)
	assert.Equal(t, "default", opts.Auth.Username)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.NotContains(t, opts.Settings, "wait_for_async_insert")
}

func TestOptionsHTTPAndWait(t *testing.T) {
	opts := options(Config{Host: "ch.local", Port: 8123, UseHTTP: true, AsyncInsert: true, WaitForAsync: true})

	assert.Equal(t, []string{"ch.local:8123"}, opts.Addr)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
}

func TestInsertQuery(t *testing.T) {
	q := insertQuery("journal_events", []string{"id", "kind"}, 2)
	assert.Equal(t, "INSERT INTO journal_events (id, kind) VALUES (?, ?),(?, ?)", q)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(Config{Port: 9000})
	assert.Error(t, err)
}
