package services

import (
	"context"
	"sync"

	"github.com/epeers/insight/internal/models"
)

type warningContextKey struct{}

// WarningCollector gathers the non-fatal warnings raised while serving one
// request. Identical warnings are recorded once.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []models.Warning
	seen     map[models.Warning]struct{}
}

// NewWarningContext attaches a fresh collector to ctx and returns both.
func NewWarningContext(ctx context.Context) (context.Context, *WarningCollector) {
	wc := &WarningCollector{seen: make(map[models.Warning]struct{})}
	return context.WithValue(ctx, warningContextKey{}, wc), wc
}

// AddWarning records w on the collector carried by ctx, if any.
func AddWarning(ctx context.Context, w models.Warning) {
	wc, ok := ctx.Value(warningContextKey{}).(*WarningCollector)
	if !ok || wc == nil {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if _, dup := wc.seen[w]; dup {
		return
	}
	wc.seen[w] = struct{}{}
	wc.warnings = append(wc.warnings, w)
}

// GetWarnings returns the collected warnings in the order they were raised.
func (wc *WarningCollector) GetWarnings() []models.Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if len(wc.warnings) == 0 {
		return nil
	}
	out := make([]models.Warning, len(wc.warnings))
	copy(out, wc.warnings)
	return out
}
