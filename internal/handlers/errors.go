package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/epeers/insight/internal/alphavantage"
	"github.com/epeers/insight/internal/middleware"
	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/rebalance"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// classifyError maps a service error to an HTTP status and error code.
// Order matters: input errors wrap core sentinels and must win.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrPortfolioNotFound),
		errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, alphavantage.ErrSymbolNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrInvalidPortfolio),
		errors.Is(err, services.ErrInvalidAsset),
		errors.Is(err, services.ErrInvalidTransaction),
		errors.Is(err, services.ErrInvalidDividend),
		errors.Is(err, services.ErrInvalidSymbol),
		errors.Is(err, rebalance.ErrInvalidSizing):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, services.ErrInsufficientQuantity):
		return http.StatusUnprocessableEntity, "insufficient_quantity"
	case errors.Is(err, rebalance.ErrInvalidPrice),
		errors.Is(err, rebalance.ErrInvalidQuantity),
		errors.Is(err, rebalance.ErrInvalidThreshold),
		errors.Is(err, rebalance.ErrValueOverflow),
		errors.Is(err, rebalance.ErrInvalidAssetClass),
		errors.Is(err, rebalance.ErrInvalidStrategy):
		return http.StatusUnprocessableEntity, "unprocessable_entity"
	case errors.Is(err, services.ErrQuoteUnavailable):
		return http.StatusBadGateway, "quote_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondError writes err as an ErrorResponse
func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":       c.FullPath(),
			"request_id": middleware.GetRequestID(c),
		}).Error("request failed")
	}
	c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// parseIDParam reads a positive int64 path parameter
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+label)
		return 0, false
	}
	return id, true
}

// requireUser reads the authenticated user or answers 401
func requireUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return 0, false
	}
	return userID, true
}
