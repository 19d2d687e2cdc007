package handlers

import (
	"net/http"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// PortfolioHandler handles portfolio CRUD endpoints
type PortfolioHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioSvc *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioSvc: portfolioSvc,
	}
}

// Create handles POST /portfolios
// @Summary Create a portfolio
// @Description Create an empty portfolio. Strategy and threshold default from configuration.
// @Tags portfolios
// @Accept json
// @Produce json
// @Param portfolio body models.CreatePortfolioRequest true "Portfolio"
// @Success 201 {object} models.Portfolio
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios [post]
func (h *PortfolioHandler) Create(c *gin.Context) {
	var req models.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	portfolio, err := h.portfolioSvc.CreatePortfolio(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, portfolio)
}

// Get handles GET /portfolios/:id
// @Summary Get a portfolio
// @Description Get a portfolio with its holdings
// @Tags portfolios
// @Produce json
// @Param id path int true "Portfolio ID"
// @Success 200 {object} models.PortfolioWithHoldings
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id} [get]
func (h *PortfolioHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}

	portfolio, err := h.portfolioSvc.GetPortfolio(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// Update handles PUT /portfolios/:id
// @Summary Update a portfolio
// @Description Update name, strategy, threshold or comment. Omitted fields are unchanged.
// @Tags portfolios
// @Accept json
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param portfolio body models.UpdatePortfolioRequest true "Fields to update"
// @Success 200 {object} models.Portfolio
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id} [put]
func (h *PortfolioHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	portfolio, err := h.portfolioSvc.UpdatePortfolio(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// Delete handles DELETE /portfolios/:id
// @Summary Delete a portfolio
// @Description Delete a portfolio with its assets, transactions and dividends
// @Tags portfolios
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id} [delete]
func (h *PortfolioHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.portfolioSvc.DeletePortfolio(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "portfolio deleted"})
}
