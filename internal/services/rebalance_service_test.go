package services

import (
	"context"
	"math"
	"testing"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/rebalance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pwh *models.PortfolioWithHoldings
	err error
}

func (f *fakeReader) GetPortfolio(context.Context, int64) (*models.PortfolioWithHoldings, error) {
	return f.pwh, f.err
}

type fakeFetcher struct {
	prices    map[string]float64
	requested []string
}

func (f *fakeFetcher) GetQuotes(_ context.Context, symbols []string) (map[string]*models.Quote, error) {
	f.requested = append(f.requested, symbols...)
	out := make(map[string]*models.Quote)
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = &models.Quote{Symbol: s, Price: p}
		}
	}
	return out, nil
}

func newTestRebalance(t *testing.T, reader PortfolioReader, fetcher QuoteFetcher) *RebalanceService {
	t.Helper()
	catalog, err := rebalance.DefaultCatalog("")
	require.NoError(t, err)
	return NewRebalanceService(reader, fetcher, catalog, 5)
}

func holding(symbol, class string, qty float64) models.Holding {
	return models.Holding{Asset: models.Asset{Symbol: symbol, AssetClass: class}, Quantity: qty}
}

func TestEvaluatePortfolio_UsesStoredSettings(t *testing.T) {
	reader := &fakeReader{pwh: &models.PortfolioWithHoldings{
		Portfolio: models.Portfolio{ID: 3, Strategy: rebalance.StrategyBuyAndHold, Threshold: 5},
		Holdings: []models.Holding{
			holding("AAPL", "stock", 10),
			holding("BND", "fixed_income", 10),
			holding("NEW", "crypto", 0),
		},
	}}
	fetcher := &fakeFetcher{prices: map[string]float64{"AAPL": 100, "BND": 100, "NEW": 50}}
	svc := newTestRebalance(t, reader, fetcher)

	ctx, wc := NewWarningContext(context.Background())
	resp, err := svc.EvaluatePortfolio(ctx, 3, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.PortfolioID)
	assert.Equal(t, rebalance.StrategyBuyAndHold, resp.Report.Strategy.Name)
	assert.Equal(t, 2000.0, resp.Report.TotalValue)
	assert.ElementsMatch(t, []string{"AAPL", "BND", "NEW"}, fetcher.requested)
	assert.Len(t, resp.Quotes, 3)
	assert.Empty(t, wc.GetWarnings())

	// Stock 50% vs 60% target, fixed income 50% vs 10%, crypto untargeted.
	require.Len(t, resp.Report.Actions, 3)
	assert.Equal(t, rebalance.ActionBuy, resp.Report.Actions[0].Action)
	assert.Equal(t, int64(2), resp.Report.Actions[0].SuggestedQuantity)
	assert.Equal(t, rebalance.ActionSell, resp.Report.Actions[1].Action)
	assert.Equal(t, int64(8), resp.Report.Actions[1].SuggestedQuantity)
	assert.Equal(t, rebalance.ActionHold, resp.Report.Actions[2].Action)
	assert.Equal(t, rebalance.StatusCritical, resp.Report.Status)
}

func TestEvaluatePortfolio_OverridesAndWarnings(t *testing.T) {
	reader := &fakeReader{pwh: &models.PortfolioWithHoldings{
		Portfolio: models.Portfolio{ID: 1, Strategy: "Legacy Mix", Threshold: 5},
		Holdings: []models.Holding{
			holding("AAPL", "stock", 1),
			holding("MSFT", "stock", 1),
		},
	}}
	fetcher := &fakeFetcher{prices: map[string]float64{"AAPL": 100, "MSFT": 100}}
	svc := newTestRebalance(t, reader, fetcher)

	threshold := 100.0
	ctx, wc := NewWarningContext(context.Background())
	resp, err := svc.EvaluatePortfolio(ctx, 1, EvaluateOptions{Threshold: &threshold})
	require.NoError(t, err)

	assert.Equal(t, rebalance.StrategyBalancedAI, resp.Report.Strategy.Name)
	assert.Equal(t, 100.0, resp.Report.Threshold)
	assert.Equal(t, rebalance.StatusGood, resp.Report.Status)

	codes := warningCodes(wc.GetWarnings())
	assert.Contains(t, codes, models.WarnUnknownStrategy)
	assert.Contains(t, codes, models.WarnClassWideSizing)
}

func TestEvaluatePortfolio_InvalidSizing(t *testing.T) {
	reader := &fakeReader{pwh: &models.PortfolioWithHoldings{Portfolio: models.Portfolio{Threshold: 5}}}
	svc := newTestRebalance(t, reader, &fakeFetcher{})

	_, err := svc.EvaluatePortfolio(context.Background(), 1, EvaluateOptions{Sizing: "weighted"})
	assert.ErrorIs(t, err, rebalance.ErrInvalidSizing)
}

func TestEvaluatePortfolio_NotFound(t *testing.T) {
	svc := newTestRebalance(t, &fakeReader{err: ErrPortfolioNotFound}, &fakeFetcher{})
	_, err := svc.EvaluatePortfolio(context.Background(), 9, EvaluateOptions{})
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestThresholdOverridesAreValidated(t *testing.T) {
	reader := &fakeReader{pwh: &models.PortfolioWithHoldings{
		Portfolio: models.Portfolio{ID: 1, Threshold: 5},
		Holdings:  []models.Holding{holding("AAPL", "stock", 1)},
	}}

	for _, v := range []float64{-1, 100.5, 250, math.NaN()} {
		fetcher := &fakeFetcher{prices: map[string]float64{"AAPL": 100}}
		svc := newTestRebalance(t, reader, fetcher)
		threshold := v

		_, err := svc.EvaluatePortfolio(context.Background(), 1, EvaluateOptions{Threshold: &threshold})
		assert.ErrorIs(t, err, rebalance.ErrInvalidThreshold, "threshold %v", v)
		assert.Empty(t, fetcher.requested, "no quotes fetched for threshold %v", v)

		_, err = svc.Preview(context.Background(), &models.PreviewRequest{
			Threshold: &threshold,
			Holdings:  []models.PreviewHolding{{Symbol: "AAPL", AssetClass: "stock", Quantity: 1}},
		})
		assert.ErrorIs(t, err, rebalance.ErrInvalidThreshold, "threshold %v", v)
		assert.Empty(t, fetcher.requested)
	}
}

func TestPreview_MixedPricing(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 1000}}
	svc := newTestRebalance(t, &fakeReader{}, fetcher)

	price := 100.0
	ctx, wc := NewWarningContext(context.Background())
	resp, err := svc.Preview(ctx, &models.PreviewRequest{
		Strategy: rebalance.StrategyDayTrading,
		Sizing:   "pro_rata",
		Holdings: []models.PreviewHolding{
			{Symbol: "aapl", AssetClass: "stocks", Quantity: 9, CurrentPrice: &price},
			{Symbol: "btc", AssetClass: "crypto", Quantity: 0.1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC"}, fetcher.requested)
	assert.Equal(t, 1000.0, resp.Report.TotalValue)
	assert.Equal(t, 5.0, resp.Report.Threshold)
	assert.Equal(t, rebalance.SizingProRata, resp.Report.Sizing)
	assert.Zero(t, resp.PortfolioID)
	assert.Empty(t, wc.GetWarnings())
}

func TestPreview_EmptyAndInvalid(t *testing.T) {
	svc := newTestRebalance(t, &fakeReader{}, &fakeFetcher{})

	ctx, wc := NewWarningContext(context.Background())
	resp, err := svc.Preview(ctx, &models.PreviewRequest{})
	require.NoError(t, err)
	assert.Equal(t, rebalance.StatusGood, resp.Report.Status)
	assert.Empty(t, resp.Report.Actions)
	assert.Contains(t, warningCodes(wc.GetWarnings()), models.WarnNoAllocation)

	zero := 0.0
	_, err = svc.Preview(context.Background(), &models.PreviewRequest{Holdings: []models.PreviewHolding{
		{Symbol: "A", AssetClass: "stock", Quantity: 1, CurrentPrice: &zero},
		{Symbol: "B", AssetClass: "crypto", Quantity: 1, CurrentPrice: func() *float64 { v := 5.0; return &v }()},
	}})
	assert.ErrorIs(t, err, rebalance.ErrInvalidPrice)

	_, err = svc.Preview(context.Background(), &models.PreviewRequest{Holdings: []models.PreviewHolding{
		{Symbol: "G", AssetClass: "gold", Quantity: 1},
	}})
	assert.ErrorIs(t, err, rebalance.ErrInvalidAssetClass)
}

func TestStrategies(t *testing.T) {
	svc := newTestRebalance(t, &fakeReader{}, &fakeFetcher{})
	list := svc.Strategies()
	assert.Equal(t, rebalance.StrategyBalancedAI, list.Default)
	assert.Len(t, list.Strategies, 5)
}

func warningCodes(ws []models.Warning) []models.WarningCode {
	out := make([]models.WarningCode, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}
