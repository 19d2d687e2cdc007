package rebalance

import "math"

// ClassAllocation is the current-vs-target view of one asset class.
type ClassAllocation struct {
	AssetClass AssetClass `json:"asset_class"`
	Current    float64    `json:"current"`
	Target     float64    `json:"target"`
	Deviation  float64    `json:"deviation"`
	Value      float64    `json:"value"`
}

// Report is the full result of one evaluation. It holds only plain data.
type Report struct {
	Strategy     Strategy          `json:"strategy"`
	Threshold    float64           `json:"threshold"`
	Sizing       Sizing            `json:"sizing"`
	TotalValue   float64           `json:"total_value"`
	Computable   bool              `json:"computable"`
	Classes      []ClassAllocation `json:"classes"`
	Actions      []RebalanceAction `json:"actions"`
	MaxDeviation float64           `json:"max_deviation"`
	Status       Status            `json:"status"`
}

// Evaluate runs allocation, action resolution and status aggregation over a
// single snapshot of holdings.
func Evaluate(assets []HeldAsset, strategy Strategy, threshold float64, opts ...Option) (*Report, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	snap, err := evaluateSnapshot(assets, strategy, threshold, o)
	if err != nil {
		return nil, err
	}
	alloc, values, actions := snap.alloc, snap.values, snap.actions
	maxDev := MaxDeviation(actions)

	report := &Report{
		Strategy:     strategy,
		Threshold:    threshold,
		Sizing:       o.sizing,
		TotalValue:   alloc.TotalValue,
		Computable:   alloc.Computable,
		Actions:      actions,
		MaxDeviation: maxDev,
		Status:       classify(maxDev, threshold),
	}

	for _, class := range AllAssetClasses {
		_, targeted := strategy.Targets[class]
		_, held := alloc.ByClass[class]
		if !targeted && !held {
			continue
		}
		ca := ClassAllocation{
			AssetClass: class,
			Current:    alloc.ByClass[class],
			Target:     strategy.Target(class),
			Value:      values[class],
		}
		if alloc.Computable {
			ca.Deviation = math.Abs(ca.Current - ca.Target)
		}
		report.Classes = append(report.Classes, ca)
	}
	return report, nil
}
