package rebalance

import (
	"gonum.org/v1/gonum/floats"
)

// Status is the portfolio-wide rebalance severity.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// MaxDeviation returns the largest deviation among actions, or 0 when empty.
func MaxDeviation(actions []RebalanceAction) float64 {
	if len(actions) == 0 {
		return 0
	}
	devs := make([]float64, len(actions))
	for i, a := range actions {
		devs[i] = a.Deviation
	}
	return floats.Max(devs)
}

// AggregateStatus classifies the worst deviation against threshold:
// up to threshold is good, up to twice the threshold is a warning, anything
// above is critical.
func AggregateStatus(actions []RebalanceAction, threshold float64) Status {
	return classify(MaxDeviation(actions), threshold)
}

func classify(maxDeviation, threshold float64) Status {
	switch {
	case maxDeviation <= threshold:
		return StatusGood
	case maxDeviation <= 2*threshold:
		return StatusWarning
	default:
		return StatusCritical
	}
}
