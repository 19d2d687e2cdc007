package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PortfolioRepository handles database operations for portfolios
type PortfolioRepository struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

const portfolioColumns = `id, owner, name, strategy, threshold, comment, created, updated`

func scanPortfolio(row pgx.Row, p *models.Portfolio) error {
	return row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Strategy, &p.Threshold, &p.Comment, &p.CreatedAt, &p.UpdatedAt)
}

// Create creates a new portfolio
func (r *PortfolioRepository) Create(ctx context.Context, tx pgx.Tx, p *models.Portfolio) error {
	query := `
		INSERT INTO portfolio (owner, name, strategy, threshold, comment, created, updated)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created, updated
	`
	err := tx.QueryRow(ctx, query, p.OwnerID, p.Name, p.Strategy, p.Threshold, p.Comment).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", mapConflict(err))
	}
	return nil
}

// GetByID retrieves a portfolio by ID
func (r *PortfolioRepository) GetByID(ctx context.Context, id int64) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE id = $1`
	p := &models.Portfolio{}
	err := scanPortfolio(r.pool.QueryRow(ctx, query, id), p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

// GetByNameAndOwner checks if a portfolio with the same name exists for a user
func (r *PortfolioRepository) GetByNameAndOwner(ctx context.Context, ownerID int64, name string) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE owner = $1 AND name = $2`
	p := &models.Portfolio{}
	err := scanPortfolio(r.pool.QueryRow(ctx, query, ownerID, name), p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check portfolio: %w", err)
	}
	return p, nil
}

// Update updates a portfolio's name, strategy, threshold and comment
func (r *PortfolioRepository) Update(ctx context.Context, tx pgx.Tx, p *models.Portfolio) error {
	query := `
		UPDATE portfolio
		SET name = $1, strategy = $2, threshold = $3, comment = $4, updated = NOW()
		WHERE id = $5
		RETURNING updated
	`
	err := tx.QueryRow(ctx, query, p.Name, p.Strategy, p.Threshold, p.Comment, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPortfolioNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", mapConflict(err))
	}
	return nil
}

// Delete deletes a portfolio. Assets, positions, transactions and dividends
// cascade.
func (r *PortfolioRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `DELETE FROM portfolio WHERE id = $1`
	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// GetByUserID retrieves all portfolios for a user (metadata only)
func (r *PortfolioRepository) GetByUserID(ctx context.Context, userID int64) ([]models.PortfolioListItem, error) {
	query := `
		SELECT id, name, strategy, threshold
		FROM portfolio
		WHERE owner = $1
		ORDER BY created DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []models.PortfolioListItem{}
	for rows.Next() {
		var p models.PortfolioListItem
		if err := rows.Scan(&p.ID, &p.Name, &p.Strategy, &p.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// BeginTx starts a new transaction
func (r *PortfolioRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}
