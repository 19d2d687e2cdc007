package handlers

import (
	"net/http"

	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(portfolioSvc *services.PortfolioService) *UserHandler {
	return &UserHandler{
		portfolioSvc: portfolioSvc,
	}
}

// ListPortfolios handles GET /users/:user_id/portfolios
// @Summary List user's portfolios
// @Description Get all portfolios belonging to a user
// @Tags users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} models.PortfolioListItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/{user_id}/portfolios [get]
func (h *UserHandler) ListPortfolios(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id", "user ID")
	if !ok {
		return
	}

	portfolios, err := h.portfolioSvc.GetUserPortfolios(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolios)
}
