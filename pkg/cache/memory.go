package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig sizes the in-process cache. Zero fields fall back to 1000 entries and a 5m sweep.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

type memoryEntry struct {
	data     []byte
	expireAt time.Time
	usedAt   time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache implements Service in process with least-recently-used eviction.
// It is the fallback store when no Redis address is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go mc.sweep(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}
	e := &memoryEntry{data: data, usedAt: now}
	if expiration > 0 {
		e.expireAt = now.Add(expiration)
	}
	mc.entries[key] = e
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	now := mc.now()
	e, ok := mc.entries[key]
	if ok && e.expired(now) {
		delete(mc.entries, key)
		ok = false
	}
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e.usedAt = now
	data := e.data
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, k := range keys {
		delete(mc.entries, k)
	}
	mc.mu.Unlock()
	return nil
}

// Close stops the sweeper. Stored values stay readable.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

// Len reports how many entries are held, expired ones included until swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}

// evictOldest drops the least recently used entry. Caller holds mu.
func (mc *MemoryCache) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range mc.entries {
		if oldest == "" || e.usedAt.Before(at) {
			oldest, at = k, e.usedAt
		}
	}
	if oldest != "" {
		delete(mc.entries, oldest)
	}
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for k, e := range mc.entries {
				if e.expired(now) {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}
