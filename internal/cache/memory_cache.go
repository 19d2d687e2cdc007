package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/epeers/insight/internal/models"
)

// MemoryCache is the in-process L1 quote cache. Entries are never evicted on
// read: an expired entry is still returned by GetStale so callers can fall
// back to it when the provider is unavailable.
type MemoryCache struct {
	mu       sync.RWMutex
	quotes   map[string]quoteEntry
	quoteTTL time.Duration
	staleMax time.Duration
	now      func() time.Time
}

type quoteEntry struct {
	quote     models.Quote
	fetchedAt time.Time
}

// NewMemoryCache creates a cache whose quotes are fresh for quoteTTL and
// usable as a fallback for staleMax. A zero staleMax keeps stale entries
// indefinitely.
func NewMemoryCache(quoteTTL, staleMax time.Duration) *MemoryCache {
	return &MemoryCache{
		quotes:   make(map[string]quoteEntry),
		quoteTTL: quoteTTL,
		staleMax: staleMax,
		now:      time.Now,
	}
}

func quoteKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// GetQuote retrieves a cached quote if it is still fresh
func (c *MemoryCache) GetQuote(symbol string) (*models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.quotes[quoteKey(symbol)]
	if !exists || c.now().Sub(entry.fetchedAt) > c.quoteTTL {
		return nil, false
	}
	q := entry.quote
	return &q, true
}

// GetStale returns the cached quote regardless of TTL, marked stale when it
// has expired. Entries older than staleMax are not returned.
func (c *MemoryCache) GetStale(symbol string) (*models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.quotes[quoteKey(symbol)]
	if !exists {
		return nil, false
	}
	age := c.now().Sub(entry.fetchedAt)
	if c.staleMax > 0 && age > c.staleMax {
		return nil, false
	}
	q := entry.quote
	q.Stale = age > c.quoteTTL
	return &q, true
}

// SetQuote caches a quote under its symbol, keyed by its FetchedAt time.
func (c *MemoryCache) SetQuote(quote *models.Quote) {
	fetchedAt := quote.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q := *quote
	q.Stale = false
	c.quotes[quoteKey(quote.Symbol)] = quoteEntry{
		quote:     q,
		fetchedAt: fetchedAt,
	}
}

// InvalidateQuote removes a quote from the cache
func (c *MemoryCache) InvalidateQuote(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.quotes, quoteKey(symbol))
}

// Symbols returns every cached symbol.
func (c *MemoryCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.quotes))
	for s := range c.quotes {
		out = append(out, s)
	}
	return out
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.quotes = make(map[string]quoteEntry)
	c.mu.Unlock()
}
