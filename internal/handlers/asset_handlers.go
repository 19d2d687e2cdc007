package handlers

import (
	"io"
	"net/http"

	"github.com/epeers/insight/internal/models"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
)

// AssetHandler handles the assets of a portfolio
type AssetHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(portfolioSvc *services.PortfolioService) *AssetHandler {
	return &AssetHandler{portfolioSvc: portfolioSvc}
}

// List handles GET /portfolios/:id/assets
// @Summary List portfolio assets
// @Description List assets with their current positions
// @Tags assets
// @Produce json
// @Param id path int true "Portfolio ID"
// @Success 200 {array} models.Holding
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}

	holdings, err := h.portfolioSvc.ListHoldings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holdings)
}

// Add handles POST /portfolios/:id/assets
// @Summary Add an asset
// @Description Add an instrument to a portfolio. Symbols are unique per portfolio.
// @Tags assets
// @Accept json
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param asset body models.AssetRequest true "Asset"
// @Success 201 {object} models.Asset
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/assets [post]
func (h *AssetHandler) Add(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	asset, err := h.portfolioSvc.AddAsset(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// Import handles POST /portfolios/:id/assets/import
// @Summary Import assets from CSV
// @Description Upload a CSV with columns symbol, name, asset_class as multipart field "file" or as a text/csv body. Symbols already present are skipped.
// @Tags assets
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param file formData file false "CSV file"
// @Success 201 {object} models.AssetImportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/assets/import [post]
func (h *AssetHandler) Import(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var body io.Reader = c.Request.Body
	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "file is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "failed to open uploaded file")
			return
		}
		defer f.Close()
		body = f
	}

	reqs, err := ParseAssetCSV(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.portfolioSvc.ImportAssets(c.Request.Context(), id, userID, reqs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update handles PUT /portfolios/:id/assets/:asset_id
// @Summary Update an asset
// @Tags assets
// @Accept json
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param asset_id path int true "Asset ID"
// @Param X-User-ID header int true "Owner user ID"
// @Param asset body models.AssetRequest true "Asset"
// @Success 200 {object} models.Asset
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/assets/{asset_id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	assetID, ok := parseIDParam(c, "asset_id", "asset ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	asset, err := h.portfolioSvc.UpdateAsset(c.Request.Context(), id, assetID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// Delete handles DELETE /portfolios/:id/assets/:asset_id
// @Summary Delete an asset
// @Description Remove an asset with its position and history
// @Tags assets
// @Produce json
// @Param id path int true "Portfolio ID"
// @Param asset_id path int true "Asset ID"
// @Param X-User-ID header int true "Owner user ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /portfolios/{id}/assets/{asset_id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "portfolio ID")
	if !ok {
		return
	}
	assetID, ok := parseIDParam(c, "asset_id", "asset ID")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.portfolioSvc.DeleteAsset(c.Request.Context(), id, assetID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "asset deleted"})
}
