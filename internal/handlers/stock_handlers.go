package handlers

import (
	"errors"
	"net/http"

	"plate_depot_backend/internal/services"
	"plate_depot_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockHandler holds the stock service.
type StockHandler struct {
	stockService services.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(ss services.StockService) *StockHandler {
	return &StockHandler{stockService: ss}
}

// GetStock returns the full plate catalogue with quantities and rates.
func (h *StockHandler) GetStock(c *gin.Context) {
	items, err := h.stockService.GetStock()
	if err != nil {
		utils.LogError(err, "GetStock: Error from stockService.GetStock")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// UpsertStock sets the total quantity and daily rate for one plate size.
func (h *StockHandler) UpsertStock(c *gin.Context) {
	var req services.UpsertStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpsertStock: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.stockService.UpsertStock(req)
	if err != nil {
		utils.LogError(err, "UpsertStock: Error from stockService.UpsertStock")
		if errors.Is(err, services.ErrUnknownPlateSize) || errors.Is(err, services.ErrStockValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update stock.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}
