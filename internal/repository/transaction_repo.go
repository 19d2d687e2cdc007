package repository

import (
	"context"
	"fmt"

	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository stores the trade history of portfolios
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create records a trade
func (r *TransactionRepository) Create(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transaction (portfolio_id, asset_id, type, quantity, price, fees, trade_date, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created
	`
	err := tx.QueryRow(ctx, query, t.PortfolioID, t.AssetID, string(t.Type), t.Quantity, t.Price, t.Fees, t.TradeDate).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByPortfolio returns a portfolio's trades, oldest first
func (r *TransactionRepository) ListByPortfolio(ctx context.Context, portfolioID int64) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.portfolio_id, t.asset_id, a.symbol, t.type,
		       t.quantity::float8, t.price::float8, t.fees::float8, t.trade_date, t.created
		FROM transaction t
		JOIN asset a ON a.id = t.asset_id
		WHERE t.portfolio_id = $1
		ORDER BY t.trade_date, t.id
	`
	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.AssetID, &t.Symbol, &typ,
			&t.Quantity, &t.Price, &t.Fees, &t.TradeDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = models.TransactionType(typ)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
