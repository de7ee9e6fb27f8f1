// Package control holds the process-wide run/pause flag and daily profit shared by
// every stream session and the command relay.
package control

import (
	"sync"
	"time"

	"TickPulse/internal/domain/models"
	"TickPulse/pkg/util"

	"github.com/shopspring/decimal"
)

// State is safe for concurrent use. Sessions only read it; the command relay and the
// settlement hook mutate it.
type State struct {
	mu      sync.RWMutex
	running bool
	profit  decimal.Decimal
	day     string
	chat    string
	mode    string
	now     func() time.Time
}

type Option func(*State)

// WithClock overrides the time source used for the daily profit rollover.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithChatDestination pre-binds the notification destination.
func WithChatDestination(id string) Option {
	return func(s *State) { s.chat = id }
}

// New returns a running State for the given trading mode.
func New(mode string, opts ...Option) *State {
	s := &State{running: true, mode: mode, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.day = util.DayKey(s.now())
	return s
}

func (s *State) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *State) SetRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

// ProfitToday returns the realized P&L accumulated since midnight UTC.
func (s *State) ProfitToday() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	return s.profit.InexactFloat64()
}

// AddProfit accumulates a realized result into today's profit.
func (s *State) AddProfit(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	s.profit = s.profit.Add(decimal.NewFromFloat(delta))
}

// BindChatDestination sets the destination if none is bound yet. It reports whether
// the call bound it.
func (s *State) BindChatDestination(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat != "" {
		return false
	}
	s.chat = id
	return true
}

func (s *State) ChatDestination() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat, s.chat != ""
}

func (s *State) Mode() string { return s.mode }

// Snapshot copies every field under one lock.
func (s *State) Snapshot() models.ControlSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	return models.ControlSnapshot{
		Running:         s.running,
		ProfitToday:     s.profit.InexactFloat64(),
		ChatDestination: s.chat,
		Mode:            s.mode,
		Day:             s.day,
	}
}

// Restore applies a persisted snapshot. The running flag is not restored: every
// process starts trading. Profit is only carried over when it belongs to today,
// and an already bound destination wins over the stored one.
func (s *State) Restore(snap models.ControlSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Day == util.DayKey(s.now()) {
		s.day = snap.Day
		s.profit = decimal.NewFromFloat(snap.ProfitToday)
	}
	if s.chat == "" {
		s.chat = snap.ChatDestination
	}
}

// rollover resets profit when the UTC day changed. Caller holds the write lock.
func (s *State) rollover() {
	today := util.DayKey(s.now())
	if today != s.day {
		s.day = today
		s.profit = decimal.Zero
	}
}
