package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is a bounded, TTL-expiring in-process Provider. It backs the
// historical observation cache: single writer per key, stale-but-valid reads
// are acceptable.
type MemoryProvider struct {
	mu         sync.RWMutex
	data       map[string]memoryItem
	maxEntries int
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
	storedAt  time.Time
}

// NewMemoryProvider creates a provider holding at most maxEntries items.
func NewMemoryProvider(maxEntries int) *MemoryProvider {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryProvider{
		data:       make(map[string]memoryItem),
		maxEntries: maxEntries,
	}
}

// Get retrieves a cached value if present and not expired.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	it, ok := p.data[key]
	p.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		p.mu.Lock()
		delete(p.data, key)
		p.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return it.value, nil
}

// Set stores a value with optional TTL, evicting the oldest entry when full.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.data[key]; !exists && len(p.data) >= p.maxEntries {
		p.evictOldestLocked()
	}

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	p.data[key] = memoryItem{value: value, expiresAt: expires, storedAt: time.Now()}
	return nil
}

// SetNX stores the value only if the key is absent or expired.
func (p *MemoryProvider) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if it, exists := p.data[key]; exists {
		if it.expiresAt.IsZero() || time.Now().Before(it.expiresAt) {
			return false, nil
		}
	}
	if len(p.data) >= p.maxEntries {
		p.evictOldestLocked()
	}

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	p.data[key] = memoryItem{value: value, expiresAt: expires, storedAt: time.Now()}
	return true, nil
}

// Del removes an entry.
func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

// Close is a no-op for the in-memory provider.
func (p *MemoryProvider) Close() error { return nil }

// Len reports the current entry count.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data)
}

func (p *MemoryProvider) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, it := range p.data {
		if oldestKey == "" || it.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = it.storedAt
		}
	}
	if oldestKey != "" {
		delete(p.data, oldestKey)
	}
}
