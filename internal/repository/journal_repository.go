package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TickPulse/internal/domain/models"
	"TickPulse/internal/domain/repository"
	pkgkafka "TickPulse/pkg/kafka"
)

// SQLiteSchema creates the journal table for the local backend.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS journal_events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT '',
		stake REAL NOT NULL DEFAULT 0,
		quote REAL NOT NULL DEFAULT 0,
		short_ema REAL NOT NULL DEFAULT 0,
		long_ema REAL NOT NULL DEFAULT 0,
		z REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_symbol_at ON journal_events(symbol, at)`,
}

// ClickHouseSchema creates the journal table in ClickHouse.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS journal_events (
		id String,
		kind LowCardinality(String),
		symbol LowCardinality(String),
		direction LowCardinality(String),
		stake Float64,
		quote Float64,
		short_ema Float64,
		long_ema Float64,
		z Float64,
		status LowCardinality(String),
		error String,
		at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, at, id)`,
}

var journalColumns = []string{"id", "kind", "symbol", "direction", "stake", "quote", "short_ema", "long_ema", "z", "status", "error", "at"}

func journalArgs(ev *models.JournalEvent) []any {
	return []any{
		ev.ID, string(ev.Kind), ev.Symbol, ev.Direction,
		ev.Stake, ev.Quote, ev.ShortEMA, ev.LongEMA, ev.Z,
		ev.Status, ev.Error, ev.At.UTC(),
	}
}

// SQLiteJournal implements Journal on a local SQLite file.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal creates the journal table if needed.
func NewSQLiteJournal(ctx context.Context, db *sql.DB) (*SQLiteJournal, error) {
	for _, stmt := range SQLiteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("journal schema: %w", err)
		}
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(ctx context.Context, ev *models.JournalEvent) error {
	return j.RecordBatch(ctx, []*models.JournalEvent{ev})
}

// RecordBatch inserts all events in one transaction. Duplicate ids are ignored.
func (j *SQLiteJournal) RecordBatch(ctx context.Context, evs []*models.JournalEvent) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO journal_events ("+strings.Join(journalColumns, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("journal prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range evs {
		if ev == nil {
			continue
		}
		args := journalArgs(ev)
		args[len(args)-1] = ev.At.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("journal insert %s: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}

// Close is a no-op; the database handle belongs to the caller.
func (j *SQLiteJournal) Close() error { return nil }

// RowInserter is the ClickHouse client surface the journal needs.
type RowInserter interface {
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error
}

// ClickHouseJournal implements Journal on a ClickHouse table.
type ClickHouseJournal struct {
	ch    RowInserter
	table string
}

// NewClickHouseJournal creates ClickHouse journal storage. The pool is closed by its owner.
func NewClickHouseJournal(ch RowInserter, table string) *ClickHouseJournal {
	if table == "" {
		table = "journal_events"
	}
	return &ClickHouseJournal{ch: ch, table: table}
}

func (j *ClickHouseJournal) Record(ctx context.Context, ev *models.JournalEvent) error {
	return j.RecordBatch(ctx, []*models.JournalEvent{ev})
}

func (j *ClickHouseJournal) RecordBatch(ctx context.Context, evs []*models.JournalEvent) error {
	rows := make([][]any, 0, len(evs))
	for _, ev := range evs {
		if ev != nil {
			rows = append(rows, journalArgs(ev))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := j.ch.InsertRows(ctx, j.table, journalColumns, rows); err != nil {
		return fmt.Errorf("clickhouse journal: %w", err)
	}
	return nil
}

func (j *ClickHouseJournal) Close() error { return nil }

// BatchPublisher is the producer surface the Kafka journal needs.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaJournal publishes events to a topic keyed by symbol.
type KafkaJournal struct {
	producer BatchPublisher
	topic    string
}

// NewKafkaJournal creates a Kafka journal. The producer is closed with the journal.
func NewKafkaJournal(producer BatchPublisher, topic string) *KafkaJournal {
	return &KafkaJournal{producer: producer, topic: topic}
}

func (j *KafkaJournal) Record(ctx context.Context, ev *models.JournalEvent) error {
	return j.RecordBatch(ctx, []*models.JournalEvent{ev})
}

func (j *KafkaJournal) RecordBatch(ctx context.Context, evs []*models.JournalEvent) error {
	msgs := make([]pkgkafka.Message, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(ev.Symbol), Value: ev})
	}
	return j.producer.PublishBatch(ctx, j.topic, msgs)
}

func (j *KafkaJournal) Close() error {
	return j.producer.Close()
}

// NopJournal discards everything.
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.JournalEvent) error        { return nil }
func (NopJournal) RecordBatch(context.Context, []*models.JournalEvent) error { return nil }
func (NopJournal) Close() error                                              { return nil }

var (
	_ repository.Journal = (*SQLiteJournal)(nil)
	_ repository.Journal = (*ClickHouseJournal)(nil)
	_ repository.Journal = (*KafkaJournal)(nil)
	_ repository.Journal = NopJournal{}
)
