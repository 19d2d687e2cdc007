package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// SymbolLister returns every symbol tracked by any portfolio
type SymbolLister interface {
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// QuoteRefresher force-fetches quotes
type QuoteRefresher interface {
	Refresh(ctx context.Context, symbols []string) (int, error)
}

// QuoteRefreshJob warms both quote caches for every tracked symbol
type QuoteRefreshJob struct {
	symbols SymbolLister
	pricing QuoteRefresher
	timeout time.Duration
}

// NewQuoteRefreshJob creates a job that gives each run at most timeout
func NewQuoteRefreshJob(symbols SymbolLister, pricing QuoteRefresher, timeout time.Duration) *QuoteRefreshJob {
	return &QuoteRefreshJob{symbols: symbols, pricing: pricing, timeout: timeout}
}

// Name identifies the job in scheduler logs
func (j *QuoteRefreshJob) Name() string {
	return "quote_refresh"
}

// Run refreshes all tracked symbols
func (j *QuoteRefreshJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	symbols, err := j.symbols.DistinctSymbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}

	refreshed, err := j.pricing.Refresh(ctx, symbols)
	log.WithFields(log.Fields{
		"symbols":   len(symbols),
		"refreshed": refreshed,
	}).Info("quote refresh finished")
	if err != nil {
		return fmt.Errorf("refreshed %d of %d symbols: %w", refreshed, len(symbols), err)
	}
	return nil
}
