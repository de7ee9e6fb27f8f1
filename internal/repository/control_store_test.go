package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickPulse/internal/domain/models"
	"TickPulse/pkg/cache"
)

func TestCacheControlStoreRoundTrip(t *testing.T) {
	mc := cache.NewMemoryCache(cache.MemoryConfig{})
	defer mc.Close()
	store := NewCacheControlStore(mc)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := models.ControlSnapshot{
		Running:         false,
		ProfitToday:     1.25,
		ChatDestination: "42",
		Mode:            "demo",
		Day:             "2024-05-01",
	}
	require.NoError(t, store.Save(ctx, snap))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, snap, got)
}
