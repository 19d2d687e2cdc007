package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuoteCacheRepository is the L2 quote cache backed by Postgres
type QuoteCacheRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteCacheRepository creates a new QuoteCacheRepository
func NewQuoteCacheRepository(pool *pgxpool.Pool) *QuoteCacheRepository {
	return &QuoteCacheRepository{pool: pool}
}

// CacheQuote stores a real-time quote
func (r *QuoteCacheRepository) CacheQuote(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quote_cache (symbol, price, change, change_percent, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE
		SET price = EXCLUDED.price, change = EXCLUDED.change,
		    change_percent = EXCLUDED.change_percent, fetched_at = EXCLUDED.fetched_at
		WHERE quote_cache.fetched_at <= EXCLUDED.fetched_at
	`
	_, err := r.pool.Exec(ctx, query, quote.Symbol, quote.Price, quote.Change, quote.ChangePercent, quote.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to cache quote: %w", err)
	}
	return nil
}

// GetCachedQuote retrieves a cached quote if fresh enough. A miss returns
// nil without error.
func (r *QuoteCacheRepository) GetCachedQuote(ctx context.Context, symbol string, maxAge time.Duration) (*models.Quote, error) {
	query := `
		SELECT symbol, price, change, change_percent, fetched_at
		FROM quote_cache
		WHERE symbol = $1 AND fetched_at > $2
	`
	return r.getQuote(ctx, query, symbol, time.Now().Add(-maxAge))
}

// GetLatestQuote retrieves the cached quote regardless of age
func (r *QuoteCacheRepository) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	query := `
		SELECT symbol, price, change, change_percent, fetched_at
		FROM quote_cache
		WHERE symbol = $1
	`
	return r.getQuote(ctx, query, symbol)
}

func (r *QuoteCacheRepository) getQuote(ctx context.Context, query string, args ...any) (*models.Quote, error) {
	q := &models.Quote{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(&q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &q.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}
	return q, nil
}
