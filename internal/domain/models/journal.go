package models

import (
	"time"

	"github.com/google/uuid"
)

type JournalKind string

const (
	JournalSignal       JournalKind = "signal"
	JournalOrder        JournalKind = "order"
	JournalSessionError JournalKind = "session_error"
)

// JournalEvent is an append-only record of what the agent decided or attempted.
type JournalEvent struct {
	ID        string      `json:"id"`
	Kind      JournalKind `json:"kind"`
	Symbol    string      `json:"symbol"`
	Direction string      `json:"direction,omitempty"`
	Stake     float64     `json:"stake,omitempty"`
	Quote     float64     `json:"quote,omitempty"`
	ShortEMA  float64     `json:"short_ema,omitempty"`
	LongEMA   float64     `json:"long_ema,omitempty"`
	Z         float64     `json:"z,omitempty"`
	Status    string      `json:"status,omitempty"`
	Error     string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`
}

// NewJournalEvent stamps a fresh id and time on an event of the given kind.
func NewJournalEvent(kind JournalKind, symbol string) *JournalEvent {
	return &JournalEvent{
		ID:     uuid.NewString(),
		Kind:   kind,
		Symbol: symbol,
		At:     time.Now().UTC(),
	}
}
