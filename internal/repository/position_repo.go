package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5"
)

// PositionRepository maintains the running position of each asset. All
// methods run inside the caller's transaction.
type PositionRepository struct{}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{}
}

// GetForUpdate locks and returns the position of an asset. A missing row
// yields a zero position.
func (r *PositionRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, assetID int64) (*models.Position, error) {
	query := `
		SELECT asset_id, quantity::float8, average_price::float8, realized_gain::float8, updated
		FROM position
		WHERE asset_id = $1
		FOR UPDATE
	`
	p := &models.Position{}
	err := tx.QueryRow(ctx, query, assetID).Scan(&p.AssetID, &p.Quantity, &p.AveragePrice, &p.RealizedGain, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.Position{AssetID: assetID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return p, nil
}

// Upsert writes the position of an asset
func (r *PositionRepository) Upsert(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	query := `
		INSERT INTO position (asset_id, quantity, average_price, realized_gain, updated)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (asset_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, average_price = EXCLUDED.average_price,
		    realized_gain = EXCLUDED.realized_gain, updated = EXCLUDED.updated
		RETURNING updated
	`
	err := tx.QueryRow(ctx, query, p.AssetID, p.Quantity, p.AveragePrice, p.RealizedGain).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}
