package models

// WarningCode categorizes warnings by subsystem.
// W2xxx = pricing, W3xxx = rebalancing.
type WarningCode string

const (
	WarnStaleQuote      WarningCode = "W2001" // quote older than the TTL served after a provider failure
	WarnUnknownStrategy WarningCode = "W3001" // strategy name not in the catalog; default used
	WarnNoAllocation    WarningCode = "W3002" // portfolio has zero market value
	WarnClassWideSizing WarningCode = "W3003" // several assets share a class; quantities are not additive
)

// Warning represents a non-fatal issue encountered during processing.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}
