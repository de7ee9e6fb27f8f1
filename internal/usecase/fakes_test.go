package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TickPulse/internal/domain/models"
	drepo "TickPulse/internal/domain/repository"
)

type notification struct {
	dest string
	text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, dest, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notification{dest: dest, text: text})
	return nil
}

func (f *fakeNotifier) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.text)
	}
	return out
}

type fakeJournal struct {
	mu     sync.Mutex
	events []*models.JournalEvent
}

func (f *fakeJournal) Record(_ context.Context, ev *models.JournalEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeJournal) RecordBatch(ctx context.Context, evs []*models.JournalEvent) error {
	for _, ev := range evs {
		_ = f.Record(ctx, ev)
	}
	return nil
}

func (f *fakeJournal) Close() error { return nil }

func (f *fakeJournal) byKind(kind models.JournalKind) []*models.JournalEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.JournalEvent
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type step struct {
	msg *models.VenueMessage
	err error
}

// fakeConn replays steps from Next and blocks on ctx once they run out.
type fakeConn struct {
	mu         sync.Mutex
	steps      []step
	authorized []string
	history    []string
	subscribe  []bool
	buys       []models.OrderRequest
	authErr    error
	buyErr     error
	closed     bool
}

func (c *fakeConn) Authorize(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorized = append(c.authorized, token)
	return c.authErr
}

func (c *fakeConn) RequestHistory(_ context.Context, symbol string, _ int, subscribe bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, symbol)
	c.subscribe = append(c.subscribe, subscribe)
	return nil
}

func (c *fakeConn) Buy(_ context.Context, req models.OrderRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buys = append(c.buys, req)
	return c.buyErr
}

func (c *fakeConn) Next(ctx context.Context) (*models.VenueMessage, error) {
	c.mu.Lock()
	if len(c.steps) > 0 {
		st := c.steps[0]
		c.steps = c.steps[1:]
		c.mu.Unlock()
		return st.msg, st.err
	}
	c.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDialer hands out conns in order, then fails with err.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context) (drepo.VenueConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.conns) == 0 {
		if d.err == nil {
			return nil, errors.New("no connection scripted")
		}
		return nil, d.err
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type placed struct {
	symbol string
	dir    models.Direction
}

type fakePlacer struct {
	mu     sync.Mutex
	orders []placed
}

func (p *fakePlacer) Submit(_ context.Context, symbol string, dir models.Direction) models.OrderResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, placed{symbol: symbol, dir: dir})
	return models.OrderResult{Status: models.OrderStatusSent}
}

func (p *fakePlacer) placed() []placed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]placed(nil), p.orders...)
}

type fakeTracker struct {
	mu      sync.Mutex
	tracked []models.OrderResult
}

func (t *fakeTracker) Track(_ context.Context, res models.OrderResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked = append(t.tracked, res)
}

type fakeStore struct {
	mu    sync.Mutex
	snap  models.ControlSnapshot
	saved int
	has   bool
}

func (s *fakeStore) Save(_ context.Context, snap models.ControlSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.saved++
	s.has = true
	return nil
}

func (s *fakeStore) Load(context.Context) (models.ControlSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.has, nil
}

// fakeSource returns one scripted batch per Poll and cancels the run once exhausted.
type fakeSource struct {
	mu      sync.Mutex
	batches [][]models.Command
	errs    []error
	cursors []int64
	cancel  context.CancelFunc
}

func (s *fakeSource) Poll(ctx context.Context, cursor int64, _ time.Duration) ([]models.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors = append(s.cursors, cursor)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(s.batches) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func historyMsg(prices ...float64) step {
	return step{msg: &models.VenueMessage{Kind: models.VenueHistory, MsgType: "history", History: prices}}
}

func tickMsg(quote float64) step {
	return step{msg: &models.VenueMessage{Kind: models.VenueTick, MsgType: "tick", Tick: models.Tick{Quote: quote}}}
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
