package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Cache implements ports.SequenceCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]domain.Result
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]domain.Result),
	}
}

// Get retrieves a result from memory.
func (c *Cache) Get(_ context.Context, key string) (domain.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.data[key]
	if !ok {
		return domain.Result{}, domain.ErrCacheMiss
	}
	// Copy on read so callers can't append into stored slices.
	return clone(res), nil
}

// Put stores a copy of the result.
func (c *Cache) Put(_ context.Context, key string, res domain.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = clone(res)
	return nil
}

// Delete removes the result.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Purge drops every stored result.
func (c *Cache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]domain.Result)
	return nil
}

// Bound contexts are immutable, so copying the slices is enough.
func clone(res domain.Result) domain.Result {
	res.Sequence = append([]domain.SequenceEntry{}, res.Sequence...)
	res.Diagnostics.ExecutionLog = append([]domain.LogEntry(nil), res.Diagnostics.ExecutionLog...)
	res.Diagnostics.ErrorLog = append([]*domain.FlowError(nil), res.Diagnostics.ErrorLog...)
	return res
}
