package alphavantage

import "time"

// GlobalQuoteResponse represents the AlphaVantage GLOBAL_QUOTE response.
// Throttled or rejected calls come back with status 200 and only one of
// Note, Information or ErrorMessage populated.
type GlobalQuoteResponse struct {
	GlobalQuote  GlobalQuote `json:"Global Quote"`
	Note         string      `json:"Note"`
	Information  string      `json:"Information"`
	ErrorMessage string      `json:"Error Message"`
}

// GlobalQuote holds the quote fields, all encoded as strings
type GlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// ParsedQuote represents a parsed real-time quote
type ParsedQuote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	FetchedAt     time.Time
}
