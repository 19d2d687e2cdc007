package models

import "time"

// Quote is the latest known price for a symbol. Stale is set when the quote is
// older than the cache TTL and was served because the provider failed.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	FetchedAt     time.Time `json:"fetched_at"`
	Stale         bool      `json:"stale,omitempty"`
}
