package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/rebalance"
	log "github.com/sirupsen/logrus"
)

// PortfolioReader loads a stored portfolio with its holdings
type PortfolioReader interface {
	GetPortfolio(ctx context.Context, id int64) (*models.PortfolioWithHoldings, error)
}

// QuoteFetcher prices a set of symbols
type QuoteFetcher interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error)
}

// EvaluateOptions override the stored strategy, threshold and sizing
type EvaluateOptions struct {
	Strategy  string
	Threshold *float64
	Sizing    string
}

// RebalanceService evaluates portfolios against target strategies
type RebalanceService struct {
	portfolios       PortfolioReader
	quotes           QuoteFetcher
	catalog          *rebalance.Catalog
	defaultThreshold float64
}

// NewRebalanceService creates a new RebalanceService
func NewRebalanceService(portfolios PortfolioReader, quotes QuoteFetcher, catalog *rebalance.Catalog, defaultThreshold float64) *RebalanceService {
	return &RebalanceService{
		portfolios:       portfolios,
		quotes:           quotes,
		catalog:          catalog,
		defaultThreshold: defaultThreshold,
	}
}

// Strategies lists the strategy catalog
func (s *RebalanceService) Strategies() models.StrategyListResponse {
	return models.StrategyListResponse{
		Default:    s.catalog.Default().Name,
		Strategies: s.catalog.Strategies(),
	}
}

// EvaluatePortfolio prices a stored portfolio and produces its rebalance
// report. Options take precedence over the portfolio's stored settings.
func (s *RebalanceService) EvaluatePortfolio(ctx context.Context, portfolioID int64, opts EvaluateOptions) (*models.RebalanceResponse, error) {
	defer TrackTime("EvaluatePortfolio", time.Now())

	pwh, err := s.portfolios.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	strategyName := pwh.Portfolio.Strategy
	if opts.Strategy != "" {
		strategyName = opts.Strategy
	}
	threshold := pwh.Portfolio.Threshold
	if opts.Threshold != nil {
		if err := ValidateThreshold(*opts.Threshold); err != nil {
			return nil, err
		}
		threshold = *opts.Threshold
	}

	assets := make([]rebalance.HeldAsset, 0, len(pwh.Holdings))
	symbols := make([]string, 0, len(pwh.Holdings))
	for _, h := range pwh.Holdings {
		class, err := rebalance.ParseAssetClass(h.AssetClass)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", h.Symbol, err)
		}
		assets = append(assets, rebalance.HeldAsset{
			Symbol:       h.Symbol,
			Name:         h.Name,
			AssetClass:   class,
			Quantity:     h.Quantity,
			AveragePrice: h.AveragePrice,
		})
		symbols = append(symbols, h.Symbol)
	}

	// Untraded assets are priced too: a BUY for them still needs a price.
	quotes, err := s.quotes.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if q, ok := quotes[NormalizeSymbol(assets[i].Symbol)]; ok {
			assets[i].CurrentPrice = q.Price
		}
	}

	report, err := s.evaluate(ctx, assets, strategyName, threshold, opts.Sizing)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"portfolio_id": portfolioID,
		"strategy":     report.Strategy.Name,
		"status":       report.Status,
	}).Debug("portfolio evaluated")

	return &models.RebalanceResponse{
		PortfolioID: portfolioID,
		Report:      report,
		Quotes:      sortedQuotes(quotes),
	}, nil
}

// Preview evaluates caller-supplied holdings without touching storage.
// Holdings without a price are priced through the quote service.
func (s *RebalanceService) Preview(ctx context.Context, req *models.PreviewRequest) (*models.RebalanceResponse, error) {
	defer TrackTime("Preview", time.Now())

	threshold := s.defaultThreshold
	if req.Threshold != nil {
		if err := ValidateThreshold(*req.Threshold); err != nil {
			return nil, err
		}
		threshold = *req.Threshold
	}

	assets := make([]rebalance.HeldAsset, len(req.Holdings))
	var toPrice []string
	for i, h := range req.Holdings {
		class, err := rebalance.ParseAssetClass(h.AssetClass)
		if err != nil {
			return nil, fmt.Errorf("holding %s: %w", h.Symbol, err)
		}
		assets[i] = rebalance.HeldAsset{
			Symbol:       NormalizeSymbol(h.Symbol),
			Name:         h.Name,
			AssetClass:   class,
			Quantity:     h.Quantity,
			AveragePrice: h.AveragePrice,
		}
		if h.CurrentPrice != nil {
			assets[i].CurrentPrice = *h.CurrentPrice
		} else {
			toPrice = append(toPrice, assets[i].Symbol)
		}
	}

	var quotes map[string]*models.Quote
	if len(toPrice) > 0 {
		var err error
		quotes, err = s.quotes.GetQuotes(ctx, toPrice)
		if err != nil {
			return nil, err
		}
		for i, h := range req.Holdings {
			if h.CurrentPrice != nil {
				continue
			}
			if q, ok := quotes[assets[i].Symbol]; ok {
				assets[i].CurrentPrice = q.Price
			}
		}
	}

	report, err := s.evaluate(ctx, assets, req.Strategy, threshold, req.Sizing)
	if err != nil {
		return nil, err
	}
	return &models.RebalanceResponse{
		Report: report,
		Quotes: sortedQuotes(quotes),
	}, nil
}

// evaluate resolves the strategy and sizing, runs the engine, and records
// warnings on ctx
func (s *RebalanceService) evaluate(ctx context.Context, assets []rebalance.HeldAsset, strategyName string, threshold float64, sizingName string) (*rebalance.Report, error) {
	sizing, err := rebalance.ParseSizing(sizingName)
	if err != nil {
		return nil, err
	}

	strategy, found := s.catalog.Resolve(strategyName)
	if !found && strategyName != "" {
		AddWarning(ctx, models.Warning{
			Code:    models.WarnUnknownStrategy,
			Message: fmt.Sprintf("strategy %q not found, using %q", strategyName, strategy.Name),
		})
	}

	report, err := rebalance.Evaluate(assets, strategy, threshold, rebalance.WithSizing(sizing))
	if err != nil {
		return nil, err
	}

	if !report.Computable {
		AddWarning(ctx, models.Warning{
			Code:    models.WarnNoAllocation,
			Message: "portfolio has no market value; every position is reported as HOLD",
		})
	}
	if sizing == rebalance.SizingClassWide {
		if shared := sharedClasses(assets); len(shared) > 0 {
			AddWarning(ctx, models.Warning{
				Code:    models.WarnClassWideSizing,
				Message: fmt.Sprintf("classes %v hold several assets; suggested quantities each cover the whole class and must not be summed", shared),
			})
		}
	}
	return report, nil
}

// sharedClasses lists classes held by more than one asset, in canonical order
func sharedClasses(assets []rebalance.HeldAsset) []rebalance.AssetClass {
	counts := make(map[rebalance.AssetClass]int)
	for _, a := range assets {
		counts[a.AssetClass]++
	}
	var out []rebalance.AssetClass
	for _, c := range rebalance.AllAssetClasses {
		if counts[c] > 1 {
			out = append(out, c)
		}
	}
	return out
}

func sortedQuotes(quotes map[string]*models.Quote) []models.Quote {
	if len(quotes) == 0 {
		return nil
	}
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
