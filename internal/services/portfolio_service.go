package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/rebalance"
	"github.com/epeers/insight/internal/repository"
	log "github.com/sirupsen/logrus"
)

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrConflict          = errors.New("resource already exists")
	ErrUnauthorized      = errors.New("not authorized to modify this portfolio")
	ErrInvalidPortfolio  = errors.New("invalid portfolio")
	ErrInvalidAsset      = errors.New("invalid asset")
)

// PortfolioDefaults are applied to new portfolios that omit them
type PortfolioDefaults struct {
	Strategy  string
	Threshold float64
}

// PortfolioService handles portfolio and asset business logic
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	assetRepo     *repository.AssetRepository
	defaults      PortfolioDefaults
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository, assetRepo *repository.AssetRepository, defaults PortfolioDefaults) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		assetRepo:     assetRepo,
		defaults:      defaults,
	}
}

// ValidateThreshold checks that a rebalance threshold is a percentage
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return fmt.Errorf("%w: %v", rebalance.ErrInvalidThreshold, threshold)
	}
	return nil
}

// CreatePortfolio creates a new, empty portfolio
func (s *PortfolioService) CreatePortfolio(ctx context.Context, req *models.CreatePortfolioRequest) (*models.Portfolio, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPortfolio)
	}

	portfolio := &models.Portfolio{
		OwnerID:   req.OwnerID,
		Name:      name,
		Strategy:  strings.TrimSpace(req.Strategy),
		Threshold: s.defaults.Threshold,
		Comment:   req.Comment,
	}
	if portfolio.Strategy == "" {
		portfolio.Strategy = s.defaults.Strategy
	}
	if req.Threshold != nil {
		portfolio.Threshold = *req.Threshold
	}
	if err := ValidateThreshold(portfolio.Threshold); err != nil {
		return nil, err
	}

	// Check for conflict - same name for the same user
	existing, err := s.portfolioRepo.GetByNameAndOwner(ctx, req.OwnerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing portfolio: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.portfolioRepo.Create(ctx, tx, portfolio); err != nil {
		return nil, mapRepoError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{"portfolio_id": portfolio.ID, "owner": portfolio.OwnerID}).Info("portfolio created")
	return portfolio, nil
}

// GetPortfolio retrieves a portfolio with its holdings
func (s *PortfolioService) GetPortfolio(ctx context.Context, id int64) (*models.PortfolioWithHoldings, error) {
	defer TrackTime("GetPortfolio", time.Now())

	portfolio, err := s.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	holdings, err := s.assetRepo.ListHoldings(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	return &models.PortfolioWithHoldings{
		Portfolio: *portfolio,
		Holdings:  holdings,
	}, nil
}

// UpdatePortfolio changes the provided portfolio fields
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, id int64, userID int64, req *models.UpdatePortfolioRequest) (*models.Portfolio, error) {
	portfolio, err := s.requireOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		portfolio.Name = name
	}
	if req.Strategy != nil {
		portfolio.Strategy = strings.TrimSpace(*req.Strategy)
		if portfolio.Strategy == "" {
			portfolio.Strategy = s.defaults.Strategy
		}
	}
	if req.Threshold != nil {
		if err := ValidateThreshold(*req.Threshold); err != nil {
			return nil, err
		}
		portfolio.Threshold = *req.Threshold
	}
	if req.Comment != nil {
		portfolio.Comment = req.Comment
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.portfolioRepo.Update(ctx, tx, portfolio); err != nil {
		return nil, mapRepoError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return portfolio, nil
}

// DeletePortfolio deletes a portfolio along with its assets and history
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id int64, userID int64) error {
	if _, err := s.requireOwner(ctx, id, userID); err != nil {
		return err
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.portfolioRepo.Delete(ctx, tx, id); err != nil {
		return mapRepoError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("portfolio_id", id).Info("portfolio deleted")
	return nil
}

// GetUserPortfolios retrieves all portfolios for a user (metadata only)
func (s *PortfolioService) GetUserPortfolios(ctx context.Context, userID int64) ([]models.PortfolioListItem, error) {
	portfolios, err := s.portfolioRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user portfolios: %w", err)
	}
	return portfolios, nil
}

// ListHoldings returns the assets of a portfolio with their positions
func (s *PortfolioService) ListHoldings(ctx context.Context, portfolioID int64) ([]models.Holding, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, mapRepoError(err)
	}
	holdings, err := s.assetRepo.ListHoldings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	return holdings, nil
}

// AddAsset adds an instrument to a portfolio
func (s *PortfolioService) AddAsset(ctx context.Context, portfolioID, userID int64, req *models.AssetRequest) (*models.Asset, error) {
	if _, err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	asset, err := newAsset(portfolioID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.assetRepo.Create(ctx, tx, asset); err != nil {
		return nil, mapRepoError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return asset, nil
}

// ImportAssets adds many assets in one transaction. Symbols already in the
// portfolio, or repeated within the import, are skipped.
func (s *PortfolioService) ImportAssets(ctx context.Context, portfolioID, userID int64, reqs []models.AssetRequest) (*models.AssetImportResponse, error) {
	defer TrackTime("ImportAssets", time.Now())

	if _, err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return nil, err
	}

	existing, err := s.assetRepo.ListHoldings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(reqs))
	for _, h := range existing {
		seen[h.Symbol] = struct{}{}
	}

	resp := &models.AssetImportResponse{Created: []models.Asset{}}
	var toCreate []*models.Asset
	for i := range reqs {
		asset, err := newAsset(portfolioID, &reqs[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, dup := seen[asset.Symbol]; dup {
			resp.Skipped = append(resp.Skipped, asset.Symbol)
			continue
		}
		seen[asset.Symbol] = struct{}{}
		toCreate = append(toCreate, asset)
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, asset := range toCreate {
		if err := s.assetRepo.Create(ctx, tx, asset); err != nil {
			return nil, mapRepoError(err)
		}
		resp.Created = append(resp.Created, *asset)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"portfolio_id": portfolioID,
		"created":      len(resp.Created),
		"skipped":      len(resp.Skipped),
	}).Info("assets imported")
	return resp, nil
}

// UpdateAsset changes an asset's symbol, name or class
func (s *PortfolioService) UpdateAsset(ctx context.Context, portfolioID, assetID, userID int64, req *models.AssetRequest) (*models.Asset, error) {
	if _, err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	asset, err := newAsset(portfolioID, req)
	if err != nil {
		return nil, err
	}
	asset.ID = assetID

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.assetRepo.Update(ctx, tx, asset); err != nil {
		return nil, mapRepoError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return asset, nil
}

// DeleteAsset removes an asset and its history
func (s *PortfolioService) DeleteAsset(ctx context.Context, portfolioID, assetID, userID int64) error {
	if _, err := s.requireOwner(ctx, portfolioID, userID); err != nil {
		return err
	}

	tx, err := s.portfolioRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.assetRepo.Delete(ctx, tx, portfolioID, assetID); err != nil {
		return mapRepoError(err)
	}
	return tx.Commit(ctx)
}

// requireOwner loads a portfolio and checks that userID owns it
func (s *PortfolioService) requireOwner(ctx context.Context, id, userID int64) (*models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if portfolio.OwnerID != userID {
		return nil, ErrUnauthorized
	}
	return portfolio, nil
}

// newAsset validates an asset request and normalizes symbol and class
func newAsset(portfolioID int64, req *models.AssetRequest) (*models.Asset, error) {
	symbol := NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidAsset)
	}
	class, err := rebalance.ParseAssetClass(req.AssetClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAsset, symbol, err)
	}
	return &models.Asset{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Name:        strings.TrimSpace(req.Name),
		AssetClass:  string(class),
	}, nil
}

// mapRepoError translates repository sentinels into service errors
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPortfolioNotFound):
		return ErrPortfolioNotFound
	case errors.Is(err, repository.ErrAssetNotFound):
		return ErrAssetNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	}
	return err
}
