package rebalance

import (
	"errors"
	"fmt"
	"strings"
)

// AssetClass is the allocation bucket an asset belongs to.
type AssetClass string

const (
	Stock          AssetClass = "stock"
	RealEstateFund AssetClass = "real_estate_fund"
	FixedIncome    AssetClass = "fixed_income"
	Crypto         AssetClass = "crypto"
)

// AllAssetClasses lists every class in display order. Strategies and reports
// iterate this slice so output ordering never depends on map iteration.
var AllAssetClasses = []AssetClass{Stock, RealEstateFund, FixedIncome, Crypto}

var ErrInvalidAssetClass = errors.New("invalid asset class")

var assetClassAliases = map[string]AssetClass{
	"stock":            Stock,
	"stocks":           Stock,
	"acao":             Stock,
	"real_estate_fund": RealEstateFund,
	"fii":              RealEstateFund,
	"reit":             RealEstateFund,
	"fixed_income":     FixedIncome,
	"bond":             FixedIncome,
	"renda_fixa":       FixedIncome,
	"crypto":           Crypto,
}

// Valid reports whether c is one of the known classes.
func (c AssetClass) Valid() bool {
	switch c {
	case Stock, RealEstateFund, FixedIncome, Crypto:
		return true
	}
	return false
}

// Label returns a human readable name for messages.
func (c AssetClass) Label() string {
	switch c {
	case Stock:
		return "stocks"
	case RealEstateFund:
		return "real estate funds"
	case FixedIncome:
		return "fixed income"
	case Crypto:
		return "crypto"
	}
	return string(c)
}

// ParseAssetClass resolves a wire value or a known alias to an AssetClass.
// Matching is case-insensitive and ignores surrounding whitespace; dashes and
// spaces are treated as underscores.
func ParseAssetClass(s string) (AssetClass, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if c, ok := assetClassAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssetClass, s)
}
