package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creasty/defaults"
)

// Publisher ships a digest payload to a topic. *kafka.Producer satisfies it.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload any) error
}

// DigestConfig tunes error aggregation. Zero fields take the `default` tag.
type DigestConfig struct {
	Interval    time.Duration `default:"30s"`
	MaxDistinct int           `default:"100"`
	Topic       string        `default:"tickpulse.log-digest"`
	Publisher   Publisher     `default:"-"`
}

// DigestEntry is one distinct error line with its repeat count.
type DigestEntry struct {
	Message string         `json:"message"`
	Caller  string         `json:"caller"`
	Fields  map[string]any `json:"fields,omitempty"`
	Count   int            `json:"count"`
	First   time.Time      `json:"first_seen"`
	Last    time.Time      `json:"last_seen"`
}

// Digest folds repeated error lines into counted entries and publishes them on an
// interval, early once MaxDistinct lines are pending, and once more on Close.
type Digest struct {
	cfg     DigestConfig
	mu      sync.Mutex
	pending map[string]*DigestEntry
	ready   chan []DigestEntry
	dropped atomic.Int64
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewDigest starts the publishing loop.
func NewDigest(cfg DigestConfig) *Digest {
	_ = defaults.Set(&cfg)
	d := &Digest{
		cfg:     cfg,
		pending: make(map[string]*DigestEntry),
		ready:   make(chan []DigestEntry, 4),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.loop()
	return d
}

// Record counts one error line.
func (d *Digest) Record(msg, caller string, fields map[string]any) {
	now := time.Now()
	key := entryKey(msg, caller, fields)

	d.mu.Lock()
	e, ok := d.pending[key]
	if !ok {
		e = &DigestEntry{Message: msg, Caller: caller, Fields: fields, First: now}
		d.pending[key] = e
	}
	e.Count++
	e.Last = now
	var full []DigestEntry
	if len(d.pending) >= d.cfg.MaxDistinct {
		full = d.takeLocked()
	}
	d.mu.Unlock()

	if full == nil {
		return
	}
	select {
	case d.ready <- full:
	default:
		d.dropped.Add(int64(len(full)))
	}
}

// Pending is the number of distinct lines not yet handed to the publisher.
func (d *Digest) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Dropped counts entries discarded because the publisher fell behind.
func (d *Digest) Dropped() int64 { return d.dropped.Load() }

// Close publishes everything still pending and stops the loop.
func (d *Digest) Close() {
	d.once.Do(func() { close(d.stop) })
	<-d.done
}

func (d *Digest) loop() {
	defer close(d.done)
	tick := time.NewTicker(d.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case batch := <-d.ready:
			d.publish(batch)
		case <-tick.C:
			d.publish(d.take())
		case <-d.stop:
			d.drain()
			d.publish(d.take())
			return
		}
	}
}

func (d *Digest) drain() {
	for {
		select {
		case batch := <-d.ready:
			d.publish(batch)
		default:
			return
		}
	}
}

func (d *Digest) take() []DigestEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked()
}

func (d *Digest) takeLocked() []DigestEntry {
	if len(d.pending) == 0 {
		return nil
	}
	out := make([]DigestEntry, 0, len(d.pending))
	for _, e := range d.pending {
		out = append(out, *e)
	}
	d.pending = make(map[string]*DigestEntry)
	return out
}

func (d *Digest) publish(batch []DigestEntry) {
	if len(batch) == 0 || d.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.cfg.Publisher.PublishMessage(ctx, d.cfg.Topic, batch); err != nil {
		// The logger cannot log its own sink failure through itself.
		fmt.Fprintf(os.Stderr, "log digest to %s: %v\n", d.cfg.Topic, err)
	}
}

func entryKey(msg, caller string, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	b.WriteByte(0)
	b.WriteString(caller)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%v", k, fields[k])
	}
	return b.String()
}
