package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/epeers/insight/internal/models"
)

func TestWarningCollector_BasicUsage(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())

	AddWarning(ctx, models.Warning{Code: models.WarnStaleQuote, Message: "AAPL is stale"})
	AddWarning(ctx, models.Warning{Code: models.WarnUnknownStrategy, Message: "unknown strategy"})

	warnings := wc.GetWarnings()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].Code != models.WarnStaleQuote {
		t.Errorf("expected code %s, got %s", models.WarnStaleQuote, warnings[0].Code)
	}
	if warnings[1].Code != models.WarnUnknownStrategy {
		t.Errorf("expected code %s, got %s", models.WarnUnknownStrategy, warnings[1].Code)
	}
}

func TestWarningCollector_Dedupes(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())

	w := models.Warning{Code: models.WarnStaleQuote, Message: "AAPL is stale"}
	AddWarning(ctx, w)
	AddWarning(ctx, w)
	AddWarning(ctx, models.Warning{Code: models.WarnStaleQuote, Message: "MSFT is stale"})

	if got := len(wc.GetWarnings()); got != 2 {
		t.Errorf("expected 2 distinct warnings, got %d", got)
	}
}

func TestWarningCollector_NoCollector(t *testing.T) {
	// Must not panic.
	AddWarning(context.Background(), models.Warning{Code: models.WarnNoAllocation, Message: "dropped"})
}

func TestWarningCollector_EmptyByDefault(t *testing.T) {
	_, wc := NewWarningContext(context.Background())
	if warnings := wc.GetWarnings(); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %d", len(warnings))
	}
}

func TestWarningCollector_Concurrent(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			AddWarning(ctx, models.Warning{Code: models.WarnStaleQuote, Message: fmt.Sprintf("symbol %d", i)})
		}(i)
	}
	wg.Wait()

	if got := len(wc.GetWarnings()); got != 100 {
		t.Errorf("expected 100 warnings, got %d", got)
	}
}
