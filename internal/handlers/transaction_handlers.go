package handlers

import (
	"net/http"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles trades and dividends
type TransactionHandler struct {
	transactionSvc *services.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionSvc *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionSvc: transactionSvc}
}

// Record handles POST /portfolios/:id/transactions
// @Summary Record a trade
// @Description Record a BUY or SELL and update the asset's position. trade_date accepts YYYY-MM-DD or RFC3339 and defaults to today.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param transaction body models.TransactionRequest true "Trade"
// @Success 201 {object} models.TransactionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/transactions [post]
func (h *TransactionHandler) Record(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.transactionSvc.RecordTransaction(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List handles GET /portfolios/:id/transactions
// @Summary List trades
// @Tags transactions
// @Produce json
// @Param id path int true "Portfolio ID"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}

	txns, err := h.transactionSvc.ListTransactions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// RecordDividend handles POST /portfolios/:id/dividends
// @Summary Record a dividend
// @Tags dividends
// @Accept json
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param dividend body models.DividendRequest true "Dividend"
// @Success 201 {object} models.Dividend
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/dividends [post]
func (h *TransactionHandler) RecordDividend(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.DividendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	d, err := h.transactionSvc.RecordDividend(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ListDividends handles GET /portfolios/:id/dividends
// @Summary List dividends
// @Description List dividends with per-asset and overall totals
// @Tags dividends
// @Produce json
// @Param id path int true "Portfolio ID"
// @Success 200 {object} models.DividendListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/dividends [get]
func (h *TransactionHandler) ListDividends(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}

	resp, err := h.transactionSvc.ListDividends(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
