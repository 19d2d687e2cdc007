package handlers

import (
	"net/http"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// QuoteHandler serves cached real-time quotes
type QuoteHandler struct {
	pricingSvc *services.PricingService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(pricingSvc *services.PricingService) *QuoteHandler {
	return &QuoteHandler{pricingSvc: pricingSvc}
}

// Get handles GET /quotes/:symbol
// @Summary Get a quote
// @Description Latest price for a symbol. A stale cached price is returned with warning W2001 when the provider is unavailable.
// @Tags quotes
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} models.QuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /quotes/{symbol} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	ctx, wc := services.NewWarningContext(c.Request.Context())
	quote, err := h.pricingSvc.GetQuote(ctx, c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.QuoteResponse{
		Quote:    quote,
		Warnings: wc.GetWarnings(),
	})
}
