package repository

import (
	"context"
	"time"

	"TickPulse/internal/domain/models"
)

// VenueConn is one websocket conversation with the brokerage venue.
type VenueConn interface {
	Authorize(ctx context.Context, token string) error
	RequestHistory(ctx context.Context, symbol string, count int, subscribe bool) error
	Buy(ctx context.Context, req models.OrderRequest) error
	Next(ctx context.Context) (*models.VenueMessage, error)
	Close() error
}

// VenueDialer opens venue connections. Each call yields an independent connection.
type VenueDialer interface {
	Dial(ctx context.Context) (VenueConn, error)
}

// Notifier pushes a text message to a destination on the messaging relay.
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// CommandSource long-polls the messaging relay for operator commands after cursor.
type CommandSource interface {
	Poll(ctx context.Context, cursor int64, timeout time.Duration) ([]models.Command, error)
}

// Journal persists agent events to a backend.
type Journal interface {
	Record(ctx context.Context, ev *models.JournalEvent) error
	RecordBatch(ctx context.Context, evs []*models.JournalEvent) error
	Close() error
}

// ControlStore persists control snapshots across restarts.
type ControlStore interface {
	Save(ctx context.Context, snap models.ControlSnapshot) error
	Load(ctx context.Context) (models.ControlSnapshot, bool, error)
}

// SettlementTracker is the hook invoked for every sent order. Reconciling P&L is left to implementations.
type SettlementTracker interface {
	Track(ctx context.Context, res models.OrderResult)
}

type Metrics interface {
	RecordTick(symbol string, price float64)
	RecordIndicators(symbol string, ind models.Indicators)
	RecordSignal(symbol string, sig models.Signal)
	RecordOrder(symbol string, status models.OrderStatus)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSessionState(symbol, state string)
}
