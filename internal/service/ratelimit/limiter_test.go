package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	l := New(time.Hour, 1)

	assert.True(t, l.Allow("chat-1"))
	assert.False(t, l.Allow("chat-1"))
	assert.True(t, l.Allow("chat-2"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(time.Hour, 1)
	assert.NoError(t, l.Wait(context.Background(), "chat"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "chat"))
}

func TestZeroIntervalDisablesPacing(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("chat"))
	}
}
