package models

import (
	"github.com/epeers/insight/internal/rebalance"
)

// CreatePortfolioRequest represents the request body for creating a portfolio
type CreatePortfolioRequest struct {
	Name      string   `json:"name" binding:"required"`
	OwnerID   int64    `json:"owner_id" binding:"required"`
	Strategy  string   `json:"strategy"`
	Threshold *float64 `json:"threshold"`
	Comment   *string  `json:"comment"`
}

// UpdatePortfolioRequest represents the request body for updating a portfolio.
// Nil fields are left unchanged.
type UpdatePortfolioRequest struct {
	Name      string   `json:"name"`
	Strategy  *string  `json:"strategy"`
	Threshold *float64 `json:"threshold"`
	Comment   *string  `json:"comment"`
}

// PortfolioWithHoldings combines a portfolio with its holdings
type PortfolioWithHoldings struct {
	Portfolio Portfolio `json:"portfolio"`
	Holdings  []Holding `json:"holdings"`
}

// PortfolioListItem represents a portfolio in a list (metadata only)
type PortfolioListItem struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Strategy  string  `json:"strategy"`
	Threshold float64 `json:"threshold"`
}

// AssetRequest is the body for adding or updating an asset.
type AssetRequest struct {
	Symbol     string `json:"symbol" binding:"required"`
	Name       string `json:"name"`
	AssetClass string `json:"asset_class" binding:"required"`
}

// AssetImportResponse reports the outcome of a CSV asset import.
type AssetImportResponse struct {
	Created []Asset  `json:"created"`
	Skipped []string `json:"skipped,omitempty"`
}

// TransactionRequest is the body for recording a trade.
type TransactionRequest struct {
	AssetID   int64           `json:"asset_id"`
	Symbol    string          `json:"symbol"`
	Type      TransactionType `json:"type" binding:"required"`
	Quantity  float64         `json:"quantity" binding:"required"`
	Price     float64         `json:"price" binding:"required"`
	Fees      float64         `json:"fees"`
	TradeDate FlexibleDate    `json:"trade_date"`
}

// TransactionResponse returns the stored trade and the resulting position.
type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
	Position    Position    `json:"position"`
}

// DividendRequest is the body for recording a dividend.
type DividendRequest struct {
	AssetID     int64        `json:"asset_id"`
	Symbol      string       `json:"symbol"`
	Amount      float64      `json:"amount" binding:"required"`
	PaymentDate FlexibleDate `json:"payment_date"`
}

// DividendListResponse lists dividends with per-asset totals.
type DividendListResponse struct {
	Dividends []Dividend      `json:"dividends"`
	Totals    []DividendTotal `json:"totals"`
	Total     float64         `json:"total"`
}

// RebalanceRequest carries optional overrides for a stored portfolio.
type RebalanceRequest struct {
	Strategy  string   `form:"strategy"`
	Threshold *float64 `form:"threshold"`
	Sizing    string   `form:"sizing"`
}

// PreviewHolding is a caller-supplied holding for a preview evaluation.
type PreviewHolding struct {
	Symbol       string   `json:"symbol" binding:"required"`
	Name         string   `json:"name"`
	AssetClass   string   `json:"asset_class" binding:"required"`
	Quantity     float64  `json:"quantity"`
	AveragePrice float64  `json:"average_price"`
	CurrentPrice *float64 `json:"current_price"`
}

// PreviewRequest evaluates holdings that are not persisted. Holdings without
// a current price are priced through the quote service.
type PreviewRequest struct {
	Strategy  string           `json:"strategy"`
	Threshold *float64         `json:"threshold"`
	Sizing    string           `json:"sizing"`
	Holdings  []PreviewHolding `json:"holdings"`
}

// RebalanceResponse is the evaluation result returned by the API.
type RebalanceResponse struct {
	PortfolioID int64             `json:"portfolio_id,omitempty"`
	Report      *rebalance.Report `json:"report"`
	Quotes      []Quote           `json:"quotes,omitempty"`
	Warnings    []Warning         `json:"warnings,omitempty"`
}

// StrategyListResponse lists the strategy catalog.
type StrategyListResponse struct {
	Default    string               `json:"default"`
	Strategies []rebalance.Strategy `json:"strategies"`
}

// QuoteResponse wraps a quote with any warnings raised while fetching it.
type QuoteResponse struct {
	Quote    *Quote    `json:"quote"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
