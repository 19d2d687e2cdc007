package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/epeers/insight/internal/alphavantage"
	"github.com/epeers/insight/internal/cache"
	"github.com/epeers/insight/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// defaultQuoteConcurrency bounds parallel provider fetches. The provider's
// own rate limiter does the real throttling.
const defaultQuoteConcurrency = 4

// QuoteProvider fetches live quotes
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*alphavantage.ParsedQuote, error)
}

// QuoteStore is the persistent (L2) quote cache
type QuoteStore interface {
	CacheQuote(ctx context.Context, quote *models.Quote) error
	GetCachedQuote(ctx context.Context, symbol string, maxAge time.Duration) (*models.Quote, error)
	GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// PricingConfig controls cache freshness for the PricingService
type PricingConfig struct {
	QuoteTTL    time.Duration
	StaleMax    time.Duration
	Concurrency int
}

// PricingService serves quotes through an in-memory cache, a Postgres cache
// and finally the quote provider
type PricingService struct {
	memCache *cache.MemoryCache
	store    QuoteStore
	provider QuoteProvider
	cfg      PricingConfig
	now      func() time.Time
}

// NewPricingService creates a new PricingService
func NewPricingService(memCache *cache.MemoryCache, store QuoteStore, provider QuoteProvider, cfg PricingConfig) *PricingService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultQuoteConcurrency
	}
	return &PricingService{
		memCache: memCache,
		store:    store,
		provider: provider,
		cfg:      cfg,
		now:      time.Now,
	}
}

// NormalizeSymbol upper-cases and trims a ticker symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// GetQuote returns the latest quote for symbol. When the provider fails, the
// newest cached quote within the stale window is returned with Stale set and
// a W2001 warning recorded on ctx.
func (s *PricingService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	// L1: in-memory
	if q, ok := s.memCache.GetQuote(symbol); ok {
		return q, nil
	}

	// L2: Postgres
	q, err := s.store.GetCachedQuote(ctx, symbol, s.cfg.QuoteTTL)
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("quote cache lookup failed")
	} else if q != nil {
		s.memCache.SetQuote(q)
		return q, nil
	}

	// L3: provider
	q, err = s.fetch(ctx, symbol)
	if err == nil {
		return q, nil
	}

	stale := s.staleQuote(ctx, symbol)
	if stale == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuoteUnavailable, symbol, err)
	}

	log.WithError(err).WithFields(log.Fields{
		"symbol":     symbol,
		"fetched_at": stale.FetchedAt,
	}).Warn("serving stale quote")
	AddWarning(ctx, models.Warning{
		Code:    models.WarnStaleQuote,
		Message: fmt.Sprintf("%s: quote provider unavailable, using price from %s", symbol, stale.FetchedAt.UTC().Format(time.RFC3339)),
	})
	return stale, nil
}

// GetQuotes fetches quotes for every distinct symbol concurrently. The first
// failure cancels the remaining fetches.
func (s *PricingService) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	defer TrackTime("GetQuotes", time.Now())

	unique := uniqueSymbols(symbols)
	quotes := make(map[string]*models.Quote, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, sym := range unique {
		g.Go(func() error {
			q, err := s.GetQuote(gctx, sym)
			if err != nil {
				return err
			}
			mu.Lock()
			quotes[sym] = q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// Refresh bypasses both caches and fetches every symbol from the provider.
// It returns how many symbols were refreshed along with any failures.
func (s *PricingService) Refresh(ctx context.Context, symbols []string) (int, error) {
	defer TrackTime("Refresh", time.Now())

	unique := uniqueSymbols(symbols)
	var (
		mu        sync.Mutex
		refreshed int
		errs      []error
	)

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, sym := range unique {
		g.Go(func() error {
			_, err := s.fetch(ctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()
	return refreshed, errors.Join(errs...)
}

// fetch calls the provider and writes the result to both caches
func (s *PricingService) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	avQuote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	fetchedAt := avQuote.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}
	q := &models.Quote{
		Symbol:        symbol,
		Price:         avQuote.Price,
		Change:        avQuote.Change,
		ChangePercent: avQuote.ChangePercent,
		FetchedAt:     fetchedAt,
	}

	s.memCache.SetQuote(q)
	if err := s.store.CacheQuote(ctx, q); err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("failed to cache quote")
	}
	return q, nil
}

// staleQuote returns the newest cached quote for symbol that is still within
// the stale window, or nil.
func (s *PricingService) staleQuote(ctx context.Context, symbol string) *models.Quote {
	best, _ := s.memCache.GetStale(symbol)

	stored, err := s.store.GetLatestQuote(ctx, symbol)
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("quote cache lookup failed")
	}
	if stored != nil && (s.cfg.StaleMax <= 0 || s.now().Sub(stored.FetchedAt) <= s.cfg.StaleMax) {
		if best == nil || stored.FetchedAt.After(best.FetchedAt) {
			best = stored
		}
	}

	if best == nil {
		return nil
	}
	best.Stale = true
	return best
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
