package rebalance

import (
	"errors"
	"fmt"
	"math"
)

// Strategy names shipped with the default catalog.
const (
	StrategyBalancedAI   = "Balanced AI"
	StrategyPersonalized = "Personalized"
	StrategyBuyAndHold   = "Buy & Hold"
	StrategyDayTrading   = "Day Trading"
	StrategySwingTrading = "Swing Trading"
)

// targetTolerance is how far a strategy's targets may drift from 100 in total.
const targetTolerance = 0.01

var ErrInvalidStrategy = errors.New("invalid strategy")

// Strategy maps asset classes to target allocation percentages (0-100).
type Strategy struct {
	Name    string                 `json:"name"`
	Targets map[AssetClass]float64 `json:"targets"`
}

// Target returns the target percentage for class. A class the strategy does
// not mention has an implicit target of 0.
func (s Strategy) Target(class AssetClass) float64 {
	return s.Targets[class]
}

// Total returns the sum of all targets.
func (s Strategy) Total() float64 {
	var total float64
	for _, c := range AllAssetClasses {
		total += s.Targets[c]
	}
	return total
}

func (s Strategy) clone() Strategy {
	targets := make(map[AssetClass]float64, len(s.Targets))
	for class, pct := range s.Targets {
		targets[class] = pct
	}
	return Strategy{Name: s.Name, Targets: targets}
}

// Validate checks that the strategy has a name, only known classes, targets
// within [0, 100], and targets that add up to 100.
func (s Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidStrategy)
	}
	for class, pct := range s.Targets {
		if !class.Valid() {
			return fmt.Errorf("%w: %s targets unknown class %q", ErrInvalidStrategy, s.Name, class)
		}
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			return fmt.Errorf("%w: %s target for %s is %.4f", ErrInvalidStrategy, s.Name, class, pct)
		}
	}
	if total := s.Total(); math.Abs(total-100) > targetTolerance {
		return fmt.Errorf("%w: %s targets sum to %.4f, want 100", ErrInvalidStrategy, s.Name, total)
	}
	return nil
}

// Catalog is an immutable set of named strategies with a fallback default.
type Catalog struct {
	strategies  map[string]Strategy
	order       []string
	defaultName string
}

// NewCatalog validates every strategy and returns a catalog that falls back to
// defaultName for unknown lookups.
func NewCatalog(defaultName string, strategies ...Strategy) (*Catalog, error) {
	c := &Catalog{
		strategies:  make(map[string]Strategy, len(strategies)),
		defaultName: defaultName,
	}
	for _, s := range strategies {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.strategies[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate strategy %q", ErrInvalidStrategy, s.Name)
		}
		c.strategies[s.Name] = s.clone()
		c.order = append(c.order, s.Name)
	}
	if _, ok := c.strategies[defaultName]; !ok {
		return nil, fmt.Errorf("%w: default strategy %q is not in the catalog", ErrInvalidStrategy, defaultName)
	}
	return c, nil
}

// DefaultStrategies returns the built-in strategy table.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyBalancedAI, Targets: map[AssetClass]float64{Stock: 40, RealEstateFund: 30, FixedIncome: 20, Crypto: 10}},
		{Name: StrategyPersonalized, Targets: map[AssetClass]float64{Stock: 50, RealEstateFund: 25, FixedIncome: 25}},
		{Name: StrategyBuyAndHold, Targets: map[AssetClass]float64{Stock: 60, RealEstateFund: 30, FixedIncome: 10}},
		{Name: StrategyDayTrading, Targets: map[AssetClass]float64{Stock: 70, FixedIncome: 10, Crypto: 20}},
		{Name: StrategySwingTrading, Targets: map[AssetClass]float64{Stock: 60, RealEstateFund: 15, FixedIncome: 10, Crypto: 15}},
	}
}

// DefaultCatalog returns the built-in catalog with defaultName as fallback.
// An empty defaultName selects "Balanced AI".
func DefaultCatalog(defaultName string) (*Catalog, error) {
	if defaultName == "" {
		defaultName = StrategyBalancedAI
	}
	return NewCatalog(defaultName, DefaultStrategies()...)
}

// Resolve looks up name. Unknown names resolve to the default strategy and
// found is false; this is not an error.
func (c *Catalog) Resolve(name string) (s Strategy, found bool) {
	if st, ok := c.strategies[name]; ok {
		return st.clone(), true
	}
	return c.strategies[c.defaultName].clone(), false
}

// Default returns the fallback strategy.
func (c *Catalog) Default() Strategy {
	return c.strategies[c.defaultName].clone()
}

// Names returns strategy names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Strategies returns every strategy in registration order.
func (c *Catalog) Strategies() []Strategy {
	out := make([]Strategy, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.strategies[name].clone())
	}
	return out
}
