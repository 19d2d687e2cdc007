package rebalance

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sixtyThirtyTen() Strategy {
	return Strategy{Name: "60/30/10", Targets: map[AssetClass]float64{
		Stock: 60, RealEstateFund: 30, FixedIncome: 10,
	}}
}

func TestEvaluate_OverAndUnderAllocated(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 100, CurrentPrice: 10},
		{Symbol: "B", AssetClass: RealEstateFund, Quantity: 50, CurrentPrice: 20},
	}

	report, err := Evaluate(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, report.TotalValue)
	assert.True(t, report.Computable)
	require.Len(t, report.Actions, 2)

	a := report.Actions[0]
	assert.Equal(t, ActionBuy, a.Action)
	assert.InDelta(t, 50, a.CurrentAllocation, 1e-9)
	assert.InDelta(t, 60, a.TargetAllocation, 1e-9)
	assert.InDelta(t, 10, a.Deviation, 1e-9)
	assert.Equal(t, int64(20), a.SuggestedQuantity)
	assert.Contains(t, a.Message, "A")
	assert.Contains(t, a.Message, "20")

	b := report.Actions[1]
	assert.Equal(t, ActionSell, b.Action)
	assert.InDelta(t, 20, b.Deviation, 1e-9)
	assert.Equal(t, int64(20), b.SuggestedQuantity)
	assert.Contains(t, b.Message, "B")

	assert.InDelta(t, 20, report.MaxDeviation, 1e-9)
	assert.Equal(t, StatusCritical, report.Status)
}

func TestEvaluate_ExactTargetsAllHold(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "STK", AssetClass: Stock, Quantity: 60, CurrentPrice: 10},
		{Symbol: "FII", AssetClass: RealEstateFund, Quantity: 30, CurrentPrice: 10},
		{Symbol: "BND", AssetClass: FixedIncome, Quantity: 10, CurrentPrice: 10},
	}

	report, err := Evaluate(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	for _, a := range report.Actions {
		assert.Equal(t, ActionHold, a.Action, a.Symbol)
		assert.Equal(t, holdMessage, a.Message)
		assert.Zero(t, a.SuggestedQuantity)
	}
	assert.Equal(t, StatusGood, report.Status)
}

func TestEvaluate_EmptyPortfolio(t *testing.T) {
	report, err := Evaluate(nil, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	assert.Zero(t, report.TotalValue)
	assert.False(t, report.Computable)
	assert.Empty(t, report.Actions)
	assert.Equal(t, StatusGood, report.Status)
}

func TestEvaluate_AllZeroPricesIsDegenerate(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 10, CurrentPrice: 0},
		{Symbol: "B", AssetClass: Crypto, Quantity: 3, CurrentPrice: 0},
	}

	report, err := Evaluate(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	assert.False(t, report.Computable)
	assert.Equal(t, StatusGood, report.Status)
	for _, a := range report.Actions {
		assert.Equal(t, ActionHold, a.Action)
		assert.Zero(t, a.CurrentAllocation)
		assert.Zero(t, a.Deviation)
		assert.False(t, math.IsNaN(a.CurrentAllocation))
	}
	for _, c := range report.Classes {
		assert.Zero(t, c.Current)
		assert.Zero(t, c.Deviation)
	}
}

func TestResolveActions_ZeroPriceFails(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 10, CurrentPrice: 25},
		{Symbol: "ZERO", AssetClass: Stock, Quantity: 10, CurrentPrice: 0},
	}

	actions, err := ResolveActions(assets, sixtyThirtyTen(), 5)
	require.ErrorIs(t, err, ErrInvalidPrice)
	assert.Nil(t, actions)
	assert.Contains(t, err.Error(), "ZERO")
}

func TestResolveActions_InvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		assets    []HeldAsset
		threshold float64
		wantErr   error
	}{
		{
			name:      "negative price",
			assets:    []HeldAsset{{Symbol: "A", AssetClass: Stock, Quantity: 1, CurrentPrice: -1}},
			threshold: 5,
			wantErr:   ErrInvalidPrice,
		},
		{
			name:      "NaN price",
			assets:    []HeldAsset{{Symbol: "A", AssetClass: Stock, Quantity: 1, CurrentPrice: math.NaN()}},
			threshold: 5,
			wantErr:   ErrInvalidPrice,
		},
		{
			name:      "negative quantity",
			assets:    []HeldAsset{{Symbol: "A", AssetClass: Stock, Quantity: -3, CurrentPrice: 10}},
			threshold: 5,
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "negative threshold",
			assets:    []HeldAsset{{Symbol: "A", AssetClass: Stock, Quantity: 1, CurrentPrice: 10}},
			threshold: -1,
			wantErr:   ErrInvalidThreshold,
		},
		{
			name:      "unknown class",
			assets:    []HeldAsset{{Symbol: "A", AssetClass: "gold", Quantity: 1, CurrentPrice: 10}},
			threshold: 5,
			wantErr:   ErrInvalidAssetClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveActions(tt.assets, sixtyThirtyTen(), tt.threshold)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveActions_ValueOverflow(t *testing.T) {
	tests := []struct {
		name   string
		assets []HeldAsset
	}{
		{
			name: "quantity beyond int64",
			assets: []HeldAsset{
				{Symbol: "BIG", AssetClass: Stock, Quantity: 1e12, CurrentPrice: 1},
				{Symbol: "DUST", AssetClass: FixedIncome, Quantity: 1, CurrentPrice: 1e-9},
			},
		},
		{
			name: "market value overflows",
			assets: []HeldAsset{
				{Symbol: "A", AssetClass: Stock, Quantity: 1e200, CurrentPrice: 1e200},
				{Symbol: "B", AssetClass: FixedIncome, Quantity: 1, CurrentPrice: 1},
			},
		},
		{
			name: "total overflows",
			assets: []HeldAsset{
				{Symbol: "A", AssetClass: Stock, Quantity: 1e308, CurrentPrice: 1},
				{Symbol: "B", AssetClass: RealEstateFund, Quantity: 1e308, CurrentPrice: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, err := ResolveActions(tt.assets, sixtyThirtyTen(), 5)
			assert.ErrorIs(t, err, ErrValueOverflow)
			assert.Nil(t, actions)

			report, err := Evaluate(tt.assets, sixtyThirtyTen(), 5)
			assert.ErrorIs(t, err, ErrValueOverflow)
			assert.Nil(t, report)
		})
	}
}

func TestResolveActions_SmallPriceStaysInRange(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "BIG", AssetClass: Stock, Quantity: 1000, CurrentPrice: 1},
		{Symbol: "DUST", AssetClass: FixedIncome, Quantity: 1, CurrentPrice: 1e-6},
	}

	report, err := Evaluate(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	dust := report.Actions[1]
	assert.Equal(t, ActionBuy, dust.Action)
	assert.Positive(t, dust.SuggestedQuantity)
	assert.Positive(t, dust.SuggestedValue)

	_, err = json.Marshal(report)
	assert.NoError(t, err)
}

func TestResolveActions_HoldIffWithinThreshold(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 55, CurrentPrice: 10},
		{Symbol: "B", AssetClass: RealEstateFund, Quantity: 35, CurrentPrice: 10},
		{Symbol: "C", AssetClass: FixedIncome, Quantity: 10, CurrentPrice: 10},
		{Symbol: "D", AssetClass: Stock, Quantity: 0, CurrentPrice: 10},
	}

	for _, threshold := range []float64{0, 5, 100} {
		actions, err := ResolveActions(assets, sixtyThirtyTen(), threshold)
		require.NoError(t, err)
		for _, a := range actions {
			if a.Deviation <= threshold {
				assert.Equal(t, ActionHold, a.Action, "threshold %v symbol %s", threshold, a.Symbol)
			} else {
				assert.NotEqual(t, ActionHold, a.Action, "threshold %v symbol %s", threshold, a.Symbol)
			}
		}
	}
}

func TestResolveActions_ClassMissingFromStrategyIsOverAllocated(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "STK", AssetClass: Stock, Quantity: 90, CurrentPrice: 10},
		{Symbol: "BTC", AssetClass: Crypto, Quantity: 1, CurrentPrice: 100},
	}

	actions, err := ResolveActions(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)

	btc := actions[1]
	assert.Equal(t, ActionSell, btc.Action)
	assert.Zero(t, btc.TargetAllocation)
	assert.InDelta(t, 10, btc.CurrentAllocation, 1e-9)
	assert.Equal(t, int64(1), btc.SuggestedQuantity)
}

func TestResolveActions_SingleAssetAtFullTarget(t *testing.T) {
	strategy := Strategy{Name: "all in", Targets: map[AssetClass]float64{Stock: 100}}
	assets := []HeldAsset{{Symbol: "ONLY", AssetClass: Stock, Quantity: 7, CurrentPrice: 13.37}}

	for _, threshold := range []float64{0, 5, 100} {
		actions, err := ResolveActions(assets, strategy, threshold)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Zero(t, actions[0].Deviation)
		assert.Equal(t, ActionHold, actions[0].Action)
	}
}

func TestResolveActions_Idempotent(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 12.5, CurrentPrice: 31.2},
		{Symbol: "B", AssetClass: FixedIncome, Quantity: 400, CurrentPrice: 1.07},
		{Symbol: "C", AssetClass: Crypto, Quantity: 0.3, CurrentPrice: 61000},
	}
	strategy := sixtyThirtyTen()

	first, err := ResolveActions(assets, strategy, 5)
	require.NoError(t, err)
	second, err := ResolveActions(assets, strategy, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveActions_DuplicateSymbolsAreIndependentLines(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "DUP", AssetClass: Stock, Quantity: 10, CurrentPrice: 10},
		{Symbol: "DUP", AssetClass: Stock, Quantity: 30, CurrentPrice: 10},
	}

	alloc := ComputeAllocations(assets)
	assert.InDelta(t, 25, alloc.ByAsset[0], 1e-9)
	assert.InDelta(t, 75, alloc.ByAsset[1], 1e-9)

	actions, err := ResolveActions(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestResolveActions_Sizing(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 100, CurrentPrice: 10},
		{Symbol: "C", AssetClass: Stock, Quantity: 50, CurrentPrice: 20},
		{Symbol: "B", AssetClass: RealEstateFund, Quantity: 100, CurrentPrice: 20},
	}

	classWide, err := ResolveActions(assets, sixtyThirtyTen(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(40), classWide[0].SuggestedQuantity)
	assert.Equal(t, int64(20), classWide[1].SuggestedQuantity)
	assert.Equal(t, int64(40), classWide[2].SuggestedQuantity)

	proRata, err := ResolveActions(assets, sixtyThirtyTen(), 5, WithSizing(SizingProRata))
	require.NoError(t, err)
	assert.Equal(t, int64(20), proRata[0].SuggestedQuantity)
	assert.Equal(t, int64(10), proRata[1].SuggestedQuantity)
	assert.Equal(t, int64(40), proRata[2].SuggestedQuantity)
	assert.InDelta(t, 400, proRata[0].SuggestedValue+proRata[1].SuggestedValue, 1e-9)
}

func TestResolveActions_ProRataZeroValueClassSplitsEvenly(t *testing.T) {
	strategy := Strategy{Name: "half", Targets: map[AssetClass]float64{Stock: 50, FixedIncome: 50}}
	assets := []HeldAsset{
		{Symbol: "S", AssetClass: Stock, Quantity: 100, CurrentPrice: 10},
		{Symbol: "B1", AssetClass: FixedIncome, Quantity: 0, CurrentPrice: 10},
		{Symbol: "B2", AssetClass: FixedIncome, Quantity: 0, CurrentPrice: 10},
	}

	actions, err := ResolveActions(assets, strategy, 5, WithSizing(SizingProRata))
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, actions[1].Action)
	assert.Equal(t, int64(25), actions[1].SuggestedQuantity)
	assert.Equal(t, int64(25), actions[2].SuggestedQuantity)
}

func TestResolveActions_InvalidSizing(t *testing.T) {
	_, err := ResolveActions(nil, sixtyThirtyTen(), 5, WithSizing("greedy"))
	assert.ErrorIs(t, err, ErrInvalidSizing)
}

func TestParseSizing(t *testing.T) {
	s, err := ParseSizing("")
	require.NoError(t, err)
	assert.Equal(t, SizingClassWide, s)

	s, err = ParseSizing(" PRO_RATA ")
	require.NoError(t, err)
	assert.Equal(t, SizingProRata, s)

	_, err = ParseSizing("weighted")
	assert.ErrorIs(t, err, ErrInvalidSizing)
}

func TestComputeAllocations_ClassesSumToHundred(t *testing.T) {
	portfolios := [][]HeldAsset{
		{
			{Symbol: "A", AssetClass: Stock, Quantity: 3, CurrentPrice: 17.31},
			{Symbol: "B", AssetClass: RealEstateFund, Quantity: 11, CurrentPrice: 98.2},
			{Symbol: "C", AssetClass: FixedIncome, Quantity: 1000, CurrentPrice: 1.0013},
			{Symbol: "D", AssetClass: Crypto, Quantity: 0.0042, CurrentPrice: 64321.5},
		},
		{
			{Symbol: "X", AssetClass: Crypto, Quantity: 1, CurrentPrice: 1},
		},
		{
			{Symbol: "Y", AssetClass: Stock, Quantity: 1e6, CurrentPrice: 0.0001},
			{Symbol: "Z", AssetClass: Stock, Quantity: 0, CurrentPrice: 5},
		},
	}

	for i, assets := range portfolios {
		alloc := ComputeAllocations(assets)
		require.True(t, alloc.Computable, "portfolio %d", i)
		var sum float64
		for _, pct := range alloc.ByClass {
			sum += pct
		}
		assert.InDelta(t, 100, sum, 1e-9, "portfolio %d", i)
	}
}

func TestComputeAllocations_MonotonicInOwnPrice(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", AssetClass: Stock, Quantity: 10, CurrentPrice: 1},
		{Symbol: "B", AssetClass: FixedIncome, Quantity: 25, CurrentPrice: 4},
		{Symbol: "C", AssetClass: Stock, Quantity: 2, CurrentPrice: 9},
	}

	prev := -1.0
	for price := 1.0; price <= 1000; price *= 1.7 {
		assets[0].CurrentPrice = price
		got := ComputeAllocations(assets).ByClass[Stock]
		assert.GreaterOrEqual(t, got, prev, "price %v", price)
		prev = got
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name       string
		deviations []float64
		threshold  float64
		want       Status
	}{
		{"empty", nil, 5, StatusGood},
		{"at threshold", []float64{1, 5}, 5, StatusGood},
		{"just over", []float64{5.01}, 5, StatusWarning},
		{"at double", []float64{10}, 5, StatusWarning},
		{"over double", []float64{2, 10.5}, 5, StatusCritical},
		{"zero threshold exact", []float64{0, 0}, 0, StatusGood},
		{"zero threshold drift", []float64{0.1}, 0, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := make([]RebalanceAction, len(tt.deviations))
			for i, d := range tt.deviations {
				actions[i].Deviation = d
			}
			assert.Equal(t, tt.want, AggregateStatus(actions, tt.threshold))
		})
	}
}

func TestReport_ClassesAndJSON(t *testing.T) {
	assets := []HeldAsset{
		{Symbol: "A", Name: "Alpha", AssetClass: Stock, Quantity: 100, CurrentPrice: 10, AveragePrice: 8},
		{Symbol: "B", AssetClass: RealEstateFund, Quantity: 50, CurrentPrice: 20},
	}

	report, err := Evaluate(assets, sixtyThirtyTen(), 5, WithSizing(SizingProRata))
	require.NoError(t, err)
	assert.Equal(t, SizingProRata, report.Sizing)

	require.Len(t, report.Classes, 3)
	assert.Equal(t, Stock, report.Classes[0].AssetClass)
	assert.Equal(t, RealEstateFund, report.Classes[1].AssetClass)
	assert.Equal(t, FixedIncome, report.Classes[2].AssetClass)
	assert.InDelta(t, 10, report.Classes[2].Deviation, 1e-9)
	assert.Zero(t, report.Classes[2].Value)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"critical"`)
	assert.Contains(t, string(raw), `"action":"BUY"`)
}
