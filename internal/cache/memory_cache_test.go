package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/epeers/insight/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl, staleMax time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(ttl, staleMax)
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_FreshThenExpired(t *testing.T) {
	c, clock := newTestCache(5*time.Minute, time.Hour)
	c.SetQuote(&models.Quote{Symbol: "aapl", Price: 190.5, FetchedAt: clock.Now()})

	q, ok := c.GetQuote("AAPL")
	if !ok {
		t.Fatal("expected fresh quote")
	}
	if q.Price != 190.5 || q.Stale {
		t.Errorf("unexpected quote: %+v", q)
	}

	clock.Advance(6 * time.Minute)
	if _, ok := c.GetQuote("AAPL"); ok {
		t.Error("expected quote to be expired after TTL")
	}

	stale, ok := c.GetStale(" aapl ")
	if !ok {
		t.Fatal("expected stale quote to be available")
	}
	if !stale.Stale {
		t.Error("expected stale flag on expired quote")
	}

	clock.Advance(2 * time.Hour)
	if _, ok := c.GetStale("AAPL"); ok {
		t.Error("expected quote older than staleMax to be dropped")
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c, clock := newTestCache(time.Minute, 0)
	c.SetQuote(&models.Quote{Symbol: "MSFT", Price: 400, FetchedAt: clock.Now()})

	q, _ := c.GetQuote("MSFT")
	q.Price = 1

	again, _ := c.GetQuote("MSFT")
	if again.Price != 400 {
		t.Errorf("cache entry was mutated through returned pointer: %v", again.Price)
	}
}

func TestMemoryCache_InvalidateAndClear(t *testing.T) {
	c, clock := newTestCache(time.Minute, 0)
	c.SetQuote(&models.Quote{Symbol: "A", Price: 1, FetchedAt: clock.Now()})
	c.SetQuote(&models.Quote{Symbol: "B", Price: 2, FetchedAt: clock.Now()})

	c.InvalidateQuote("a")
	if _, ok := c.GetStale("A"); ok {
		t.Error("expected A to be invalidated")
	}
	if got := c.Symbols(); len(got) != 1 || got[0] != "B" {
		t.Errorf("expected only B cached, got %v", got)
	}

	c.Clear()
	if got := c.Symbols(); len(got) != 0 {
		t.Errorf("expected empty cache, got %v", got)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c, clock := newTestCache(time.Minute, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.SetQuote(&models.Quote{Symbol: "X", Price: float64(i), FetchedAt: clock.Now()})
		}(i)
		go func() {
			defer wg.Done()
			c.GetQuote("X")
		}()
	}
	wg.Wait()

	if _, ok := c.GetQuote("X"); !ok {
		t.Error("expected X to be cached")
	}
}
