package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TickPulse/internal/domain/models"
	domrepo "TickPulse/internal/domain/repository"
	"TickPulse/pkg/logger"
)

var (
	ErrBufferFull     = errors.New("journal buffer full")
	ErrPipelineClosed = errors.New("journal pipeline closed")
)

// JournalPipeline sits between the trading loops and a Journal backend.
// Record never blocks: events are buffered and written in batches by a background
// flusher, with backoff on backend errors and drop-on-full when the backend lags.
type JournalPipeline struct {
	journal       domrepo.Journal
	metrics       domrepo.Metrics
	log           *logger.Logger
	bufSize       int
	batchSize     int
	flushInterval time.Duration
	maxRetries    int
	writeTimeout  time.Duration

	bufCh     chan *models.JournalEvent
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	started   bool
	closeOnce sync.Once
}

type PipelineOption func(*JournalPipeline)

// WithBufferSize sets how many events may wait for the flusher.
func WithBufferSize(n int) PipelineOption {
	return func(p *JournalPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatchSize sets the number of events that triggers an immediate write.
func WithBatchSize(n int) PipelineOption {
	return func(p *JournalPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithFlushInterval sets the maximum time a partial batch waits.
func WithFlushInterval(d time.Duration) PipelineOption {
	return func(p *JournalPipeline) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// WithMaxRetries sets how many times a failed batch is retried before it is dropped.
func WithMaxRetries(n int) PipelineOption {
	return func(p *JournalPipeline) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// NewJournalPipeline wraps journal. Call Start to begin flushing.
func NewJournalPipeline(journal domrepo.Journal, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *JournalPipeline {
	p := &JournalPipeline{
		journal:       journal,
		metrics:       metrics,
		log:           log,
		bufSize:       1024,
		batchSize:     100,
		flushInterval: 2 * time.Second,
		maxRetries:    3,
		writeTimeout:  10 * time.Second,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	p.bufCh = make(chan *models.JournalEvent, p.bufSize)
	return p
}

// Start launches the background flusher. It stops on ctx cancellation or Close,
// writing whatever is still buffered first.
func (p *JournalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Record validates and enqueues ev.
func (p *JournalPipeline) Record(_ context.Context, ev *models.JournalEvent) error {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("journal_validate")
		return err
	}
	select {
	case <-p.stopCh:
		return ErrPipelineClosed
	default:
	}
	select {
	case p.bufCh <- ev:
		return nil
	default:
		p.metrics.RecordError("journal_buffer_full")
		return ErrBufferFull
	}
}

// RecordBatch enqueues every event, returning the first failure.
func (p *JournalPipeline) RecordBatch(ctx context.Context, evs []*models.JournalEvent) error {
	var first error
	for _, ev := range evs {
		if err := p.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close stops the flusher, waits for the final write and closes the backend.
func (p *JournalPipeline) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		started := p.started
		p.mu.Unlock()
		if started {
			<-p.doneCh
		} else {
			p.drain(nil)
		}
	})
	return p.journal.Close()
}

func (p *JournalPipeline) run(ctx context.Context) {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]*models.JournalEvent, 0, p.batchSize)
	for {
		select {
		case ev := <-p.bufCh:
			batch = append(batch, ev)
			if len(batch) >= p.batchSize {
				p.flush(batch)
				batch = make([]*models.JournalEvent, 0, p.batchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = make([]*models.JournalEvent, 0, p.batchSize)
			}
		case <-ctx.Done():
			p.drain(batch)
			return
		case <-p.stopCh:
			p.drain(batch)
			return
		}
	}
}

func (p *JournalPipeline) drain(batch []*models.JournalEvent) {
	for {
		select {
		case ev := <-p.bufCh:
			batch = append(batch, ev)
		default:
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		}
	}
}

// flush writes batch with exponential backoff. It uses its own timeout so a final
// flush still runs after the parent context is cancelled.
func (p *JournalPipeline) flush(batch []*models.JournalEvent) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		err := p.journal.RecordBatch(ctx, batch)
		cancel()
		if err == nil {
			p.metrics.RecordLatency("journal_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("journal_flush")
		if attempt >= p.maxRetries {
			p.log.Error("journal batch dropped",
				logger.Int("events", len(batch)),
				logger.Int("attempts", attempt+1),
				logger.Error(err))
			p.metrics.RecordError("journal_batch_drop")
			return
		}
		p.log.Warn("journal flush failed, retrying", logger.Duration("backoff", backoff), logger.Error(err))
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func validateEvent(ev *models.JournalEvent) error {
	if ev == nil {
		return fmt.Errorf("journal event nil")
	}
	if ev.Kind == "" {
		return fmt.Errorf("journal event kind empty")
	}
	if ev.Symbol == "" {
		return fmt.Errorf("journal event symbol empty")
	}
	if ev.At.IsZero() {
		return fmt.Errorf("journal event time missing")
	}
	return nil
}
