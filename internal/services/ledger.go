package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/epeers/insight/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// ledgerPlaces matches the NUMERIC scale used for positions.
const ledgerPlaces = 8

// ValidateTransaction checks the side and the amounts of a trade
func ValidateTransaction(t *models.Transaction) error {
	switch t.Type {
	case models.TransactionBuy, models.TransactionSell:
	default:
		return fmt.Errorf("%w: type must be BUY or SELL, got %q", ErrInvalidTransaction, t.Type)
	}
	if !positiveFinite(t.Quantity) {
		return fmt.Errorf("%w: quantity must be positive, got %v", ErrInvalidTransaction, t.Quantity)
	}
	if !positiveFinite(t.Price) {
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidTransaction, t.Price)
	}
	if math.IsNaN(t.Fees) || math.IsInf(t.Fees, 0) || t.Fees < 0 {
		return fmt.Errorf("%w: fees must not be negative, got %v", ErrInvalidTransaction, t.Fees)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// ApplyTransaction returns the position that results from applying t to pos.
//
// A BUY folds the trade and its fees into the weighted-average cost. A SELL
// reduces the quantity at the existing average cost and books the realized
// gain net of fees; selling more than is held fails with
// ErrInsufficientQuantity.
func ApplyTransaction(pos models.Position, t *models.Transaction) (models.Position, error) {
	if err := ValidateTransaction(t); err != nil {
		return pos, err
	}

	held := decimal.NewFromFloat(pos.Quantity)
	avg := decimal.NewFromFloat(pos.AveragePrice)
	realized := decimal.NewFromFloat(pos.RealizedGain)
	qty := decimal.NewFromFloat(t.Quantity)
	price := decimal.NewFromFloat(t.Price)
	fees := decimal.NewFromFloat(t.Fees)

	switch t.Type {
	case models.TransactionBuy:
		newQty := held.Add(qty)
		cost := held.Mul(avg).Add(qty.Mul(price)).Add(fees)
		avg = cost.Div(newQty)
		held = newQty
	case models.TransactionSell:
		if qty.GreaterThan(held) {
			return pos, fmt.Errorf("%w: selling %s with %s held", ErrInsufficientQuantity, qty, held)
		}
		gain := price.Sub(avg).Mul(qty).Sub(fees)
		realized = realized.Add(gain)
		held = held.Sub(qty)
	}

	out := pos
	out.Quantity = held.Round(ledgerPlaces).InexactFloat64()
	out.AveragePrice = avg.Round(ledgerPlaces).InexactFloat64()
	out.RealizedGain = realized.Round(ledgerPlaces).InexactFloat64()
	return out, nil
}

// SumAmounts adds monetary amounts without float drift
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(ledgerPlaces).InexactFloat64()
}
