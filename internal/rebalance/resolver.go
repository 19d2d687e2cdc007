package rebalance

import (
	"fmt"
	"math"
	"strings"
)

// Action is the recommended trade direction for an asset.
type Action string

const (
	ActionSell Action = "SELL"
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
)

// Sizing selects how a class-level imbalance turns into per-asset quantities.
type Sizing string

const (
	// SizingClassWide gives every asset in a class the full class excess or
	// shortfall. Suggestions for assets sharing a class must not be summed.
	SizingClassWide Sizing = "class_wide"
	// SizingProRata splits the class imbalance across its assets by current
	// market value, evenly when the class has no value.
	SizingProRata Sizing = "pro_rata"
)

const (
	holdMessage         = "position within target allocation"
	noAllocationMessage = "portfolio has no market value; nothing to rebalance"
)

// ParseSizing maps a query value to a Sizing. Empty selects SizingClassWide.
func ParseSizing(s string) (Sizing, error) {
	switch Sizing(strings.ToLower(strings.TrimSpace(s))) {
	case "", SizingClassWide:
		return SizingClassWide, nil
	case SizingProRata:
		return SizingProRata, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSizing, s)
}

// RebalanceAction is the per-asset result. Allocations and deviation are
// percentages of the whole portfolio and refer to the asset's class.
type RebalanceAction struct {
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name"`
	AssetClass        AssetClass `json:"asset_class"`
	Action            Action     `json:"action"`
	Message           string     `json:"message"`
	TargetAllocation  float64    `json:"target_allocation"`
	CurrentAllocation float64    `json:"current_allocation"`
	Deviation         float64    `json:"deviation"`
	SuggestedQuantity int64      `json:"suggested_quantity"`
	SuggestedValue    float64    `json:"suggested_value"`
}

// Option configures ResolveActions and Evaluate.
type Option func(*options)

type options struct {
	sizing Sizing
}

// WithSizing selects the sizing mode.
func WithSizing(s Sizing) Option {
	return func(o *options) {
		o.sizing = s
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{sizing: SizingClassWide}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sizing != SizingClassWide && o.sizing != SizingProRata {
		return o, fmt.Errorf("%w: %q", ErrInvalidSizing, o.sizing)
	}
	return o, nil
}

// ResolveActions compares each asset's class allocation with the strategy
// target and returns one action per asset, in input order.
//
// A portfolio with zero total value is not an error: every asset is held with
// zero allocation and zero deviation. Otherwise any asset whose price is not
// positive fails the whole call with ErrInvalidPrice and no output.
func ResolveActions(assets []HeldAsset, strategy Strategy, threshold float64, opts ...Option) ([]RebalanceAction, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	snap, err := evaluateSnapshot(assets, strategy, threshold, o)
	if err != nil {
		return nil, err
	}
	return snap.actions, nil
}

// snapshot is one validated pass over a set of holdings.
type snapshot struct {
	alloc   Allocation
	values  map[AssetClass]float64
	actions []RebalanceAction
}

func evaluateSnapshot(assets []HeldAsset, strategy Strategy, threshold float64, o options) (*snapshot, error) {
	if err := validateInputs(assets, threshold); err != nil {
		return nil, err
	}
	alloc := ComputeAllocations(assets)
	if err := validateValues(assets, alloc); err != nil {
		return nil, err
	}
	if alloc.Computable {
		if err := validatePrices(assets); err != nil {
			return nil, err
		}
	}
	values := classValues(assets)
	actions, err := resolve(assets, alloc, values, strategy, threshold, o)
	if err != nil {
		return nil, err
	}
	return &snapshot{alloc: alloc, values: values, actions: actions}, nil
}

func validateInputs(assets []HeldAsset, threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	for i, a := range assets {
		if !a.AssetClass.Valid() {
			return fmt.Errorf("%w: asset[%d] %s has class %q", ErrInvalidAssetClass, i, a.Symbol, a.AssetClass)
		}
		if math.IsNaN(a.Quantity) || math.IsInf(a.Quantity, 0) || a.Quantity < 0 {
			return fmt.Errorf("%w: asset[%d] %s has quantity %v", ErrInvalidQuantity, i, a.Symbol, a.Quantity)
		}
		if math.IsNaN(a.CurrentPrice) || math.IsInf(a.CurrentPrice, 0) || a.CurrentPrice < 0 {
			return fmt.Errorf("%w: asset[%d] %s has price %v", ErrInvalidPrice, i, a.Symbol, a.CurrentPrice)
		}
	}
	return nil
}

// validateValues rejects holdings whose market values overflow float64.
// Values are non-negative, so a finite total bounds every class sum.
func validateValues(assets []HeldAsset, alloc Allocation) error {
	for i, a := range assets {
		if v := a.MarketValue(); math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%w: asset[%d] %s has market value %v", ErrValueOverflow, i, a.Symbol, v)
		}
	}
	if math.IsInf(alloc.TotalValue, 0) || math.IsNaN(alloc.TotalValue) {
		return fmt.Errorf("%w: total market value %v", ErrValueOverflow, alloc.TotalValue)
	}
	return nil
}

func validatePrices(assets []HeldAsset) error {
	for i, a := range assets {
		if a.CurrentPrice <= 0 {
			return fmt.Errorf("%w: asset[%d] %s has price %v", ErrInvalidPrice, i, a.Symbol, a.CurrentPrice)
		}
	}
	return nil
}

func resolve(assets []HeldAsset, alloc Allocation, values map[AssetClass]float64, strategy Strategy, threshold float64, o options) ([]RebalanceAction, error) {
	actions := make([]RebalanceAction, 0, len(assets))

	if !alloc.Computable {
		for _, a := range assets {
			actions = append(actions, RebalanceAction{
				Symbol:           a.Symbol,
				Name:             a.Name,
				AssetClass:       a.AssetClass,
				Action:           ActionHold,
				Message:          noAllocationMessage,
				TargetAllocation: strategy.Target(a.AssetClass),
			})
		}
		return actions, nil
	}

	members := classMembers(assets)

	for _, a := range assets {
		target := strategy.Target(a.AssetClass)
		current := alloc.ByClass[a.AssetClass]
		deviation := math.Abs(current - target)

		ra := RebalanceAction{
			Symbol:            a.Symbol,
			Name:              a.Name,
			AssetClass:        a.AssetClass,
			TargetAllocation:  target,
			CurrentAllocation: current,
			Deviation:         deviation,
		}

		var imbalance float64
		switch {
		case deviation <= threshold:
			ra.Action = ActionHold
			ra.Message = holdMessage
			actions = append(actions, ra)
			continue
		case current > target:
			ra.Action = ActionSell
			imbalance = (current - target) / 100 * alloc.TotalValue
		default:
			ra.Action = ActionBuy
			imbalance = (target - current) / 100 * alloc.TotalValue
		}

		if o.sizing == SizingProRata {
			if cv := values[a.AssetClass]; cv > 0 {
				imbalance *= a.MarketValue() / cv
			} else {
				imbalance /= float64(members[a.AssetClass])
			}
		}

		// float64(math.MaxInt64) rounds up to 2^63, the first value int64 cannot hold.
		qty := math.Floor(imbalance / a.CurrentPrice)
		if qty >= float64(math.MaxInt64) {
			return nil, fmt.Errorf("%w: %s needs %v units at price %v", ErrValueOverflow, a.Symbol, qty, a.CurrentPrice)
		}
		ra.SuggestedQuantity = int64(qty)
		ra.SuggestedValue = float64(ra.SuggestedQuantity) * a.CurrentPrice
		ra.Message = actionMessage(ra)
		actions = append(actions, ra)
	}
	return actions, nil
}

func actionMessage(ra RebalanceAction) string {
	verb := "buy"
	if ra.Action == ActionSell {
		verb = "sell"
	}
	return fmt.Sprintf("%s %d units of %s: %s at %.2f%% against a %.2f%% target",
		verb, ra.SuggestedQuantity, ra.Symbol, ra.AssetClass.Label(), ra.CurrentAllocation, ra.TargetAllocation)
}
