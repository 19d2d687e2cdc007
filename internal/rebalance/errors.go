package rebalance

import "errors"

var (
	// ErrInvalidPrice is returned when an asset's current price is not a
	// positive finite number in a portfolio with a computable allocation.
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidSizing    = errors.New("invalid sizing mode")
	// ErrValueOverflow is returned when a market value or suggested quantity
	// does not fit the numeric range of the result.
	ErrValueOverflow = errors.New("value out of range")
)
