package handlers

import (
	"net/http"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// RebalanceHandler serves strategy listings and rebalance evaluations
type RebalanceHandler struct {
	rebalanceSvc *services.RebalanceService
}

// NewRebalanceHandler creates a new RebalanceHandler
func NewRebalanceHandler(rebalanceSvc *services.RebalanceService) *RebalanceHandler {
	return &RebalanceHandler{rebalanceSvc: rebalanceSvc}
}

// Strategies handles GET /strategies
// @Summary List strategies
// @Description List the target allocation strategies and the default used for unknown names
// @Tags rebalance
// @Produce json
// @Success 200 {object} models.StrategyListResponse
// @Router /strategies [get]
func (h *RebalanceHandler) Strategies(c *gin.Context) {
	c.JSON(http.StatusOK, h.rebalanceSvc.Strategies())
}

// Rebalance handles GET /portfolios/:id/rebalance
// @Summary Evaluate a portfolio
// @Description Price a stored portfolio and compare it with its strategy. Query parameters override the stored strategy and threshold.
// @Tags rebalance
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param strategy query string false "Strategy name"
// @Param threshold query number false "Deviation threshold in percentage points"
// @Param sizing query string false "class_wide (default) or pro_rata"
// @Success 200 {object} models.RebalanceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/rebalance [get]
func (h *RebalanceHandler) Rebalance(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}

	var req models.RebalanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, wc := services.NewWarningContext(c.Request.Context())
	resp, err := h.rebalanceSvc.EvaluatePortfolio(ctx, id, services.EvaluateOptions{
		Strategy:  req.Strategy,
		Threshold: req.Threshold,
		Sizing:    req.Sizing,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp.Warnings = wc.GetWarnings()
	c.JSON(http.StatusOK, resp)
}

// Preview handles POST /rebalance/preview
// @Summary Evaluate holdings without storing them
// @Description Evaluate caller-supplied holdings. Holdings without current_price are priced through the quote service.
// @Tags rebalance
// @Accept json
// @Produce json
// @Param request body models.PreviewRequest true "Holdings and overrides"
// @Success 200 {object} models.RebalanceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rebalance/preview [post]
func (h *RebalanceHandler) Preview(c *gin.Context) {
	var req models.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, wc := services.NewWarningContext(c.Request.Context())
	resp, err := h.rebalanceSvc.Preview(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	resp.Warnings = wc.GetWarnings()
	c.JSON(http.StatusOK, resp)
}
