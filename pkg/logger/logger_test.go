package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu       sync.Mutex
	topic    string
	payloads []any
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)

	l, err := New(Config{Output: "stderr"})
	require.NoError(t, err)
	l.Info("ok", String("k", "v"), Int("n", 1), Float64("f", 1.5), Bool("b", true), Duration("d", time.Second))
}

func TestDigestFoldsRepeatsAndFlushesOnDetach(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AttachDigest(DigestConfig{Interval: time.Hour, MaxDistinct: 10, Topic: "digest", Publisher: pub})

	for i := 0; i < 5; i++ {
		l.Error("session failed", String("symbol", "boom_1000"), Error(errors.New("eof")))
	}
	l.Error("order failed", String("symbol", "crash_1000"))
	assert.Equal(t, 2, l.digest.get().Pending())

	l.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "digest", pub.topic)
	batch := pub.payloads[0].([]DigestEntry)
	require.Len(t, batch, 2)
	total := 0
	for _, e := range batch {
		total += e.Count
		assert.Contains(t, e.Caller, "logger_test.go:")
	}
	assert.Equal(t, 6, total)
}

func TestDigestPublishesEarlyWhenFull(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxDistinct: 2, Publisher: pub})
	d.Record("a", "x.go:1", nil)
	d.Record("b", "x.go:2", nil)
	assert.Equal(t, 0, d.Pending())

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.payloads) == 1
	}, time.Second, 5*time.Millisecond)

	d.Record("c", "x.go:3", nil)
	d.Close()
	d.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.payloads, 2)
	assert.Equal(t, "tickpulse.log-digest", pub.topic)
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := entryKey("m", "c", map[string]any{"x": 1, "y": "z"})
	b := entryKey("m", "c", map[string]any{"y": "z", "x": 1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("m", "c", map[string]any{"x": 2, "y": "z"}))
}

func TestChildSeesDigestAttachedLater(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	child := l.With(String("component", "relay"))
	l.AttachDigest(DigestConfig{Interval: time.Hour, MaxDistinct: 1, Publisher: pub})
	child.Error("poll failed")
	l.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.payloads, 1)
}
