package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
	"TickPulse/pkg/logger"

	"github.com/shopspring/decimal"
)

// OrderConfig holds the fixed parameters of every submission.
type OrderConfig struct {
	Token       string
	Stake       decimal.Decimal
	SettleDelay time.Duration
}

// OrderSubmitter places one order per call over a fresh venue connection.
// The buy confirmation is never awaited, so a sent order is not a filled order.
type OrderSubmitter struct {
	dialer    drepo.VenueDialer
	cfg       OrderConfig
	announcer *Announcer
	journal   drepo.Journal
	tracker   drepo.SettlementTracker
	metrics   drepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewOrderSubmitter(dialer drepo.VenueDialer, cfg OrderConfig, announcer *Announcer, journal drepo.Journal,
	tracker drepo.SettlementTracker, metrics drepo.Metrics, log *logger.Logger) *OrderSubmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderSubmitter{
		dialer:    dialer,
		cfg:       cfg,
		announcer: announcer,
		journal:   journal,
		tracker:   tracker,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Submit never returns an error: failures are announced, journalled and carried in the result.
func (s *OrderSubmitter) Submit(ctx context.Context, symbol string, dir models.Direction) models.OrderResult {
	start := s.now()
	req := models.NewOrderRequest(symbol, dir, s.cfg.Stake)
	res := models.OrderResult{Request: req}

	log := s.log.With(logger.String("symbol", symbol), logger.String("direction", string(dir)), logger.String("order_id", req.ID.String()))

	if err := s.send(ctx, req); err != nil {
		res.Status = models.OrderStatusFailed
		res.Err = err
		log.Error("order failed", logger.Error(err))
		s.announcer.Announce(ctx, fmt.Sprintf("Order failed on %s: %v", symbol, err))
	} else {
		res.Status = models.OrderStatusSent
		res.SentAt = s.now()
		log.Info("order sent", logger.String("contract", req.ContractType), logger.String("stake", req.Stake.String()))
		s.announcer.Announce(ctx, fmt.Sprintf("🚀 Entry: %s | Direction: %s", symbol, dir))
		s.tracker.Track(ctx, res)
	}

	s.metrics.RecordOrder(symbol, res.Status)
	s.metrics.RecordLatency("order_submit", s.now().Sub(start).Seconds())
	s.record(ctx, res)
	return res
}

func (s *OrderSubmitter) send(ctx context.Context, req models.OrderRequest) error {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrConnection) {
			err = fmt.Errorf("%w: %w", models.ErrConnection, err)
		}
		return err
	}
	defer conn.Close()

	if err := conn.Authorize(ctx, s.cfg.Token); err != nil {
		if !errors.Is(err, models.ErrAuth) {
			err = fmt.Errorf("%w: %w", models.ErrAuth, err)
		}
		return err
	}

	if s.cfg.SettleDelay > 0 {
		t := time.NewTimer(s.cfg.SettleDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", models.ErrConnection, ctx.Err())
		case <-t.C:
		}
	}

	if err := conn.Buy(ctx, req); err != nil {
		if errors.Is(err, models.ErrTransport) {
			return fmt.Errorf("%w: buy: %w", models.ErrConnection, err)
		}
		return fmt.Errorf("%w: buy: %w", models.ErrProtocol, err)
	}
	return nil
}

func (s *OrderSubmitter) record(ctx context.Context, res models.OrderResult) {
	ev := models.NewJournalEvent(models.JournalOrder, res.Request.Symbol)
	ev.ID = res.Request.ID.String()
	ev.Direction = string(res.Request.Direction)
	ev.Stake = res.Request.Stake.InexactFloat64()
	ev.Status = string(res.Status)
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := s.journal.Record(ctx, ev); err != nil {
		s.log.Debug("journal order event dropped", logger.Error(err))
	}
}
