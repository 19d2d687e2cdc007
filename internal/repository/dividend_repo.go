package repository

import (
	"context"
	"fmt"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DividendRepository stores dividend payments
type DividendRepository struct {
	pool *pgxpool.Pool
}

// NewDividendRepository creates a new DividendRepository
func NewDividendRepository(pool *pgxpool.Pool) *DividendRepository {
	return &DividendRepository{pool: pool}
}

// Create records a dividend payment
func (r *DividendRepository) Create(ctx context.Context, d *models.Dividend) error {
	query := `
		INSERT INTO dividend (portfolio_id, asset_id, amount, payment_date, created)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created
	`
	err := r.pool.QueryRow(ctx, query, d.PortfolioID, d.AssetID, d.Amount, d.PaymentDate).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dividend: %w", err)
	}
	return nil
}

// ListByPortfolio returns a portfolio's dividends, newest first
func (r *DividendRepository) ListByPortfolio(ctx context.Context, portfolioID int64) ([]models.Dividend, error) {
	query := `
		SELECT d.id, d.portfolio_id, d.asset_id, a.symbol, d.amount::float8, d.payment_date, d.created
		FROM dividend d
		JOIN asset a ON a.id = d.asset_id
		WHERE d.portfolio_id = $1
		ORDER BY d.payment_date DESC, d.id DESC
	`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	dividends := []models.Dividend{}
	for rows.Next() {
		var d models.Dividend
		if err := rows.Scan(&d.ID, &d.PortfolioID, &d.AssetID, &d.Symbol, &d.Amount, &d.PaymentDate, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}

// TotalsByAsset sums a portfolio's dividends per asset
func (r *DividendRepository) TotalsByAsset(ctx context.Context, portfolioID int64) ([]models.DividendTotal, error) {
	query := `
		SELECT d.asset_id, a.symbol, SUM(d.amount)::float8, COUNT(*)
		FROM dividend d
		JOIN asset a ON a.id = d.asset_id
		WHERE d.portfolio_id = $1
		GROUP BY d.asset_id, a.symbol
		ORDER BY a.symbol
	`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend totals: %w", err)
	}
	defer rows.Close()

	totals := []models.DividendTotal{}
	for rows.Next() {
		var t models.DividendTotal
		if err := rows.Scan(&t.AssetID, &t.Symbol, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan dividend total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
