package rebalance

import (
	"gonum.org/v1/gonum/floats"
)

// HeldAsset is one portfolio line as seen by the engine. The engine only
// reads it.
type HeldAsset struct {
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	AssetClass   AssetClass `json:"asset_class"`
	Quantity     float64    `json:"quantity"`
	AveragePrice float64    `json:"average_price"` // presentation only
	CurrentPrice float64    `json:"current_price"`
}

// MarketValue is quantity times current price.
func (a HeldAsset) MarketValue() float64 {
	return a.Quantity * a.CurrentPrice
}

// Allocation holds the current percentages (0-100) of a set of assets.
// ByAsset is index-aligned with the input slice, so duplicate symbols stay
// independent lines.
type Allocation struct {
	TotalValue float64                `json:"total_value"`
	ByClass    map[AssetClass]float64 `json:"by_class"`
	ByAsset    []float64              `json:"by_asset"`
	// Computable is false when TotalValue is zero; every percentage is then 0.
	Computable bool `json:"computable"`
}

// ComputeAllocations derives total market value and per-class / per-asset
// allocation percentages. No rounding is applied.
func ComputeAllocations(assets []HeldAsset) Allocation {
	values := make([]float64, len(assets))
	for i, a := range assets {
		values[i] = a.MarketValue()
	}

	alloc := Allocation{
		ByClass: make(map[AssetClass]float64),
		ByAsset: make([]float64, len(assets)),
	}
	if len(values) > 0 {
		alloc.TotalValue = floats.Sum(values)
	}
	if alloc.TotalValue == 0 {
		for _, a := range assets {
			alloc.ByClass[a.AssetClass] = 0
		}
		return alloc
	}

	alloc.Computable = true
	for i, a := range assets {
		pct := values[i] / alloc.TotalValue * 100
		alloc.ByAsset[i] = pct
		alloc.ByClass[a.AssetClass] += pct
	}
	return alloc
}

// classValues sums market value per class.
func classValues(assets []HeldAsset) map[AssetClass]float64 {
	out := make(map[AssetClass]float64)
	for _, a := range assets {
		out[a.AssetClass] += a.MarketValue()
	}
	return out
}

func classMembers(assets []HeldAsset) map[AssetClass]int {
	out := make(map[AssetClass]int)
	for _, a := range assets {
		out[a.AssetClass]++
	}
	return out
}
