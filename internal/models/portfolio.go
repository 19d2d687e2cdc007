package models

import (
	"time"
)

// Portfolio is a named set of holdings owned by one user. Strategy is stored
// as free text; unknown names fall back to the default strategy when the
// portfolio is evaluated.
type Portfolio struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Strategy  string    `json:"strategy"`
	Threshold float64   `json:"threshold"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Asset is an instrument tracked inside a portfolio. Symbol is unique per
// portfolio.
type Asset struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	AssetClass  string    `json:"asset_class"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Position is the running quantity and cost basis of an asset, maintained
// from its transactions.
type Position struct {
	AssetID      int64     `json:"asset_id"`
	Quantity     float64   `json:"quantity"`
	AveragePrice float64   `json:"average_price"`
	RealizedGain float64   `json:"realized_gain"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Holding joins an asset with its position. Assets without transactions have
// a zero position.
type Holding struct {
	Asset
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	RealizedGain float64 `json:"realized_gain"`
}

// TransactionType is the side of a trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is a recorded trade.
type Transaction struct {
	ID          int64           `json:"id"`
	PortfolioID int64           `json:"portfolio_id"`
	AssetID     int64           `json:"asset_id"`
	Symbol      string          `json:"symbol,omitempty"`
	Type        TransactionType `json:"type"`
	Quantity    float64         `json:"quantity"`
	Price       float64         `json:"price"`
	Fees        float64         `json:"fees"`
	TradeDate   time.Time       `json:"trade_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Dividend is a cash distribution received for an asset.
type Dividend struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	AssetID     int64     `json:"asset_id"`
	Symbol      string    `json:"symbol,omitempty"`
	Amount      float64   `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// DividendTotal is the sum of dividends received for one asset.
type DividendTotal struct {
	AssetID int64   `json:"asset_id"`
	Symbol  string  `json:"symbol"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}
