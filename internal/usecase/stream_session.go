package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
	"TickPulse/internal/service/control"
	"TickPulse/internal/services/indicators"
	"TickPulse/pkg/logger"
)

type SessionState string

const (
	StateConnecting     SessionState = "connecting"
	StateAuthenticating SessionState = "authenticating"
	StateSeedingHistory SessionState = "seeding_history"
	StateLive           SessionState = "live"
	StateReconnecting   SessionState = "reconnecting"
	StateClosed         SessionState = "closed"
	StateFailed         SessionState = "failed"
)

// OrderPlacer submits one order; StreamSession calls it from its own goroutine.
type OrderPlacer interface {
	Submit(ctx context.Context, symbol string, dir models.Direction) models.OrderResult
}

// SessionConfig parameterises one instrument's stream.
type SessionConfig struct {
	Symbol         string
	Token          string
	HistoryCount   int
	Subscribe      bool
	ShortPeriod    int
	LongPeriod     int
	ZThreshold     float64
	WindowCapacity int
	// ReconnectAttempts of 0 keeps the single-attempt lifecycle: the first error closes the session.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// StreamSession runs the Connecting -> Authenticating -> SeedingHistory -> Live lifecycle
// for one instrument and turns ticks into orders.
type StreamSession struct {
	cfg       SessionConfig
	dialer    drepo.VenueDialer
	control   *control.State
	orders    OrderPlacer
	announcer *Announcer
	journal   drepo.Journal
	metrics   drepo.Metrics
	log       *logger.Logger

	window  *indicators.PriceWindow
	state   atomic.Value
	ticks   atomic.Int64
	winLen  atomic.Int64
	lastErr atomic.Value
	orderWG sync.WaitGroup
}

func NewStreamSession(cfg SessionConfig, dialer drepo.VenueDialer, state *control.State, orders OrderPlacer,
	announcer *Announcer, journal drepo.Journal, metrics drepo.Metrics, log *logger.Logger) *StreamSession {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.HistoryCount <= 0 {
		cfg.HistoryCount = indicators.DefaultWindowCapacity
	}
	s := &StreamSession{
		cfg:       cfg,
		dialer:    dialer,
		control:   state,
		orders:    orders,
		announcer: announcer,
		journal:   journal,
		metrics:   metrics,
		log:       log.With(logger.String("symbol", cfg.Symbol)),
		window:    indicators.NewPriceWindow(cfg.WindowCapacity),
	}
	s.state.Store(StateConnecting)
	return s
}

func (s *StreamSession) Symbol() string { return s.cfg.Symbol }

func (s *StreamSession) State() SessionState { return s.state.Load().(SessionState) }

// Ticks returns how many live ticks the session has processed.
func (s *StreamSession) Ticks() int64 { return s.ticks.Load() }

// LastError returns the error that last ended a connection, if any.
func (s *StreamSession) LastError() string {
	if v, ok := s.lastErr.Load().(string); ok {
		return v
	}
	return ""
}

// WindowLen returns the number of prices currently held. Safe to call while Run is active.
func (s *StreamSession) WindowLen() int { return int(s.winLen.Load()) }

// Run blocks until the session ends. It returns nil on context cancellation and the
// terminating error otherwise. In-flight orders are awaited before returning.
func (s *StreamSession) Run(ctx context.Context) error {
	defer s.orderWG.Wait()

	attempts := 0
	for {
		live, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			s.setState(StateClosed)
			return nil
		}
		if live {
			attempts = 0
		}

		s.reportError(ctx, err)
		if attempts >= s.cfg.ReconnectAttempts {
			if s.cfg.ReconnectAttempts > 0 {
				s.setState(StateFailed)
			} else {
				s.setState(StateClosed)
			}
			return err
		}
		attempts++
		s.setState(StateReconnecting)
		s.log.Warn("reconnecting", logger.Int("attempt", attempts), logger.Duration("delay", s.cfg.ReconnectDelay))

		t := time.NewTimer(s.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			s.setState(StateClosed)
			return nil
		case <-t.C:
		}
	}
}

// runOnce drives one connection. live reports whether it got as far as processing prices.
func (s *StreamSession) runOnce(ctx context.Context) (live bool, err error) {
	s.setState(StateConnecting)
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	s.setState(StateAuthenticating)
	if err := conn.Authorize(ctx, s.cfg.Token); err != nil {
		return false, err
	}

	s.setState(StateSeedingHistory)
	if err := conn.RequestHistory(ctx, s.cfg.Symbol, s.cfg.HistoryCount, s.cfg.Subscribe); err != nil {
		return false, err
	}
	s.log.Info("history requested", logger.Int("count", s.cfg.HistoryCount), logger.Bool("subscribe", s.cfg.Subscribe))

	for {
		msg, err := conn.Next(ctx)
		if err != nil {
			return live, err
		}
		switch msg.Kind {
		case models.VenueHistory:
			s.window.Replace(msg.History)
			s.winLen.Store(int64(s.window.Len()))
			live = true
			s.setState(StateLive)
			s.log.Info("window seeded", logger.Int("prices", len(msg.History)))
		case models.VenueTick:
			if !live {
				live = true
				s.setState(StateLive)
			}
			s.onTick(ctx, msg.Tick)
		case models.VenueError:
			s.metrics.RecordError("venue_" + msg.MsgType)
			s.log.Warn("venue error", logger.String("msg_type", msg.MsgType), logger.String("code", msg.ErrCode), logger.String("message", msg.ErrText))
		}
	}
}

func (s *StreamSession) onTick(ctx context.Context, t models.Tick) {
	s.ticks.Add(1)
	s.window.Push(t.Quote)
	s.winLen.Store(int64(s.window.Len()))
	ind := indicators.Compute(s.window.Values(), s.cfg.ShortPeriod, s.cfg.LongPeriod)
	sig := Evaluate(ind, s.cfg.ZThreshold)

	s.metrics.RecordTick(s.cfg.Symbol, t.Quote)
	s.metrics.RecordIndicators(s.cfg.Symbol, ind)

	dir, ok := sig.Direction()
	if !ok {
		return
	}
	s.metrics.RecordSignal(s.cfg.Symbol, sig)

	running := s.control.IsRunning()
	s.recordSignal(ctx, t.Quote, ind, dir, running)
	if !running {
		s.log.Debug("signal ignored while paused", logger.String("direction", string(dir)))
		return
	}

	s.log.Info("signal", logger.String("direction", string(dir)), logger.Float64("quote", t.Quote), logger.Float64("z", ind.Z))
	s.orderWG.Add(1)
	go func() {
		defer s.orderWG.Done()
		s.orders.Submit(ctx, s.cfg.Symbol, dir)
	}()
}

func (s *StreamSession) recordSignal(ctx context.Context, quote float64, ind models.Indicators, dir models.Direction, running bool) {
	ev := models.NewJournalEvent(models.JournalSignal, s.cfg.Symbol)
	ev.Direction = string(dir)
	ev.Quote = quote
	ev.ShortEMA = ind.ShortEMA
	ev.LongEMA = ind.LongEMA
	ev.Z = ind.Z
	ev.Status = "submitted"
	if !running {
		ev.Status = "paused"
	}
	if err := s.journal.Record(ctx, ev); err != nil {
		s.log.Debug("journal signal event dropped", logger.Error(err))
	}
}

func (s *StreamSession) reportError(ctx context.Context, err error) {
	s.lastErr.Store(err.Error())
	s.metrics.RecordError("stream")
	s.log.Error("session error", logger.Error(err))
	s.announcer.Announce(ctx, fmt.Sprintf("Error on %s: %v", s.cfg.Symbol, err))

	ev := models.NewJournalEvent(models.JournalSessionError, s.cfg.Symbol)
	ev.Error = err.Error()
	if jerr := s.journal.Record(ctx, ev); jerr != nil {
		s.log.Debug("journal session error dropped", logger.Error(jerr))
	}
}

func (s *StreamSession) setState(st SessionState) {
	s.state.Store(st)
	s.metrics.RecordSessionState(s.cfg.Symbol, string(st))
}
