package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/repository"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDividend = errors.New("invalid dividend")

// TransactionService records trades and dividends and keeps positions in sync
type TransactionService struct {
	portfolioRepo   *repository.PortfolioRepository
	assetRepo       *repository.AssetRepository
	positionRepo    *repository.PositionRepository
	transactionRepo *repository.TransactionRepository
	dividendRepo    *repository.DividendRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	portfolioRepo *repository.PortfolioRepository,
	assetRepo *repository.AssetRepository,
	positionRepo *repository.PositionRepository,
	transactionRepo *repository.TransactionRepository,
	dividendRepo *repository.DividendRepository,
) *TransactionService {
	return &TransactionService{
		portfolioRepo:   portfolioRepo,
		assetRepo:       assetRepo,
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		dividendRepo:    dividendRepo,
	}
}

// RecordTransaction stores a trade and applies it to the asset's position in
// a single database transaction.
func (s *TransactionService) RecordTransaction(ctx context.Context, portfolioID, userID int64, req *models.TransactionRequest) (*models.TransactionResponse, error) {
	if err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	asset, err := s.resolveAsset(ctx, portfolioID, req.AssetID, req.Symbol)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		PortfolioID: portfolioID,
		AssetID:     asset.ID,
		Symbol:      asset.Symbol,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Fees:        req.Fees,
		TradeDate:   req.TradeDate.OrToday(),
	}
	if err := ValidateTransaction(txn); err != nil {
		return nil, err
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pos, err := s.positionRepo.GetForUpdate(ctx, tx, asset.ID)
	if err != nil {
		return nil, err
	}
	updated, err := ApplyTransaction(*pos, txn)
	if err != nil {
		return nil, err
	}
	if err := s.positionRepo.Upsert(ctx, tx, &updated); err != nil {
		return nil, err
	}
	if err := s.transactionRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"portfolio_id": portfolioID,
		"symbol":       asset.Symbol,
		"type":         txn.Type,
		"quantity":     txn.Quantity,
	}).Info("transaction recorded")

	return &models.TransactionResponse{Transaction: *txn, Position: updated}, nil
}

// ListTransactions returns the trade history of a portfolio
func (s *TransactionService) ListTransactions(ctx context.Context, portfolioID int64) ([]models.Transaction, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, mapRepoError(err)
	}
	txns, err := s.transactionRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// RecordDividend stores a dividend payment for an asset
func (s *TransactionService) RecordDividend(ctx context.Context, portfolioID, userID int64, req *models.DividendRequest) (*models.Dividend, error) {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidDividend, req.Amount)
	}
	if err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	asset, err := s.resolveAsset(ctx, portfolioID, req.AssetID, req.Symbol)
	if err != nil {
		return nil, err
	}

	d := &models.Dividend{
		PortfolioID: portfolioID,
		AssetID:     asset.ID,
		Symbol:      asset.Symbol,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate.OrToday(),
	}
	if err := s.dividendRepo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDividends returns a portfolio's dividends with per-asset totals
func (s *TransactionService) ListDividends(ctx context.Context, portfolioID int64) (*models.DividendListResponse, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, mapRepoError(err)
	}

	dividends, err := s.dividendRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividends: %w", err)
	}
	totals, err := s.dividendRepo.TotalsByAsset(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to total dividends: %w", err)
	}

	amounts := make([]float64, len(totals))
	for i, t := range totals {
		amounts[i] = t.Total
	}
	return &models.DividendListResponse{
		Dividends: dividends,
		Totals:    totals,
		Total:     SumAmounts(amounts...),
	}, nil
}

func (s *TransactionService) requireOwner(ctx context.Context, portfolioID, userID int64) error {
	portfolio, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return mapRepoError(err)
	}
	if portfolio.OwnerID != userID {
		return ErrUnauthorized
	}
	return nil
}

// resolveAsset finds the target asset by ID, falling back to its symbol
func (s *TransactionService) resolveAsset(ctx context.Context, portfolioID, assetID int64, symbol string) (*models.Asset, error) {
	var (
		asset *models.Asset
		err   error
	)
	switch {
	case assetID != 0:
		asset, err = s.assetRepo.GetByID(ctx, portfolioID, assetID)
	case NormalizeSymbol(symbol) != "":
		asset, err = s.assetRepo.GetBySymbol(ctx, portfolioID, NormalizeSymbol(symbol))
	default:
		return nil, fmt.Errorf("%w: asset_id or symbol is required", ErrInvalidAsset)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	return asset, nil
}
