package repository

import (
	"context"
	"errors"
	"fmt"

	"TickPulse/internal/domain/models"
	"TickPulse/internal/domain/repository"
	"TickPulse/pkg/cache"
)

const controlKey = "control:snapshot"

// CacheControlStore keeps the control snapshot in a cache backend without expiry.
type CacheControlStore struct {
	cache cache.Service
}

func NewCacheControlStore(c cache.Service) *CacheControlStore {
	return &CacheControlStore{cache: c}
}

func (s *CacheControlStore) Save(ctx context.Context, snap models.ControlSnapshot) error {
	if err := s.cache.Set(ctx, controlKey, snap, 0); err != nil {
		return fmt.Errorf("save control snapshot: %w", err)
	}
	return nil
}

// Load reports false when nothing was saved yet.
func (s *CacheControlStore) Load(ctx context.Context) (models.ControlSnapshot, bool, error) {
	var snap models.ControlSnapshot
	err := s.cache.Get(ctx, controlKey, &snap)
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.ControlSnapshot{}, false, nil
	}
	if err != nil {
		return models.ControlSnapshot{}, false, fmt.Errorf("load control snapshot: %w", err)
	}
	return snap, true, nil
}

var _ repository.ControlStore = (*CacheControlStore)(nil)
