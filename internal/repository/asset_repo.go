package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssetRepository handles database operations for portfolio assets
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

const assetColumns = `id, portfolio_id, symbol, name, asset_class, created, updated`

func scanAsset(row pgx.Row, a *models.Asset) error {
	return row.Scan(&a.ID, &a.PortfolioID, &a.Symbol, &a.Name, &a.AssetClass, &a.CreatedAt, &a.UpdatedAt)
}

// Create inserts an asset. A duplicate symbol in the same portfolio returns
// ErrConflict.
func (r *AssetRepository) Create(ctx context.Context, tx pgx.Tx, a *models.Asset) error {
	query := `
		INSERT INTO asset (portfolio_id, symbol, name, asset_class, created, updated)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created, updated
	`
	err := tx.QueryRow(ctx, query, a.PortfolioID, a.Symbol, a.Name, a.AssetClass).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", mapConflict(err))
	}
	return nil
}

// GetByID retrieves an asset scoped to its portfolio
func (r *AssetRepository) GetByID(ctx context.Context, portfolioID, assetID int64) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE portfolio_id = $1 AND id = $2`
	a := &models.Asset{}
	err := scanAsset(r.pool.QueryRow(ctx, query, portfolioID, assetID), a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// GetBySymbol retrieves an asset by its symbol within a portfolio
func (r *AssetRepository) GetBySymbol(ctx context.Context, portfolioID int64, symbol string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE portfolio_id = $1 AND symbol = $2`
	a := &models.Asset{}
	err := scanAsset(r.pool.QueryRow(ctx, query, portfolioID, symbol), a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// Update changes an asset's symbol, name and class
func (r *AssetRepository) Update(ctx context.Context, tx pgx.Tx, a *models.Asset) error {
	query := `
		UPDATE asset
		SET symbol = $1, name = $2, asset_class = $3, updated = NOW()
		WHERE portfolio_id = $4 AND id = $5
		RETURNING created, updated
	`
	err := tx.QueryRow(ctx, query, a.Symbol, a.Name, a.AssetClass, a.PortfolioID, a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAssetNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", mapConflict(err))
	}
	return nil
}

// Delete removes an asset together with its position and history
func (r *AssetRepository) Delete(ctx context.Context, tx pgx.Tx, portfolioID, assetID int64) error {
	query := `DELETE FROM asset WHERE portfolio_id = $1 AND id = $2`
	result, err := tx.Exec(ctx, query, portfolioID, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// ListHoldings returns every asset of a portfolio joined with its position.
// Assets that were never traded come back with a zero quantity.
func (r *AssetRepository) ListHoldings(ctx context.Context, portfolioID int64) ([]models.Holding, error) {
	query := `
		SELECT a.id, a.portfolio_id, a.symbol, a.name, a.asset_class, a.created, a.updated,
		       COALESCE(p.quantity, 0)::float8, COALESCE(p.average_price, 0)::float8,
		       COALESCE(p.realized_gain, 0)::float8
		FROM asset a
		LEFT JOIN position p ON p.asset_id = a.id
		WHERE a.portfolio_id = $1
		ORDER BY a.id
	`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(
			&h.ID, &h.PortfolioID, &h.Symbol, &h.Name, &h.AssetClass, &h.CreatedAt, &h.UpdatedAt,
			&h.Quantity, &h.AveragePrice, &h.RealizedGain,
		); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// DistinctSymbols returns every symbol tracked by any portfolio
func (r *AssetRepository) DistinctSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM asset ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	symbols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan symbols: %w", err)
	}
	return symbols, nil
}
