package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/services"
	"plate_depot_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ChallanHandler holds the challan and receipt services.
type ChallanHandler struct {
	challanService services.ChallanService
	receiptService services.ReceiptService
}

// NewChallanHandler creates a new ChallanHandler.
func NewChallanHandler(cs services.ChallanService, rs services.ReceiptService) *ChallanHandler {
	return &ChallanHandler{challanService: cs, receiptService: rs}
}

// CreateChallan handles creating an issue challan with its line items.
func (h *ChallanHandler) CreateChallan(c *gin.Context) {
	var req services.CreateChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateChallan: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	challan, err := h.challanService.CreateChallan(req)
	if err != nil {
		utils.LogError(err, "CreateChallan: Error from challanService.CreateChallan")
		if errors.Is(err, services.ErrChallanNumberExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Challan number already exists.", err.Error()))
		} else if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Client not found.", err.Error()))
		} else if errors.Is(err, services.ErrChallanValidation) || errors.Is(err, services.ErrChallanDateFormat) || errors.Is(err, services.ErrUnknownPlateSize) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, challan)
}

// GetChallans handles listing challans with filters and pagination.
func (h *ChallanHandler) GetChallans(c *gin.Context) {
	var filters models.ChallanFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	challans, totalCount, err := h.challanService.GetChallans(filters)
	if err != nil {
		utils.LogError(err, "GetChallans: Error from challanService.GetChallans")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch challans.", "Internal error"))
		return
	}

	if challans == nil {
		challans = []models.Challan{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  challans,
		"total": totalCount,
	})
}

// GetChallanByID handles fetching a single challan.
func (h *ChallanHandler) GetChallanByID(c *gin.Context) {
	idStr := c.Param("id")
	challanID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid challan ID format.", err.Error()))
		return
	}

	challan, err := h.challanService.GetChallanByID(challanID)
	if err != nil {
		utils.LogError(err, "GetChallanByID: Error from challanService.GetChallanByID for ID "+idStr)
		if errors.Is(err, services.ErrChallanNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Challan not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, challan)
}

// DeleteChallan handles deleting a challan and reversing its stock movement.
func (h *ChallanHandler) DeleteChallan(c *gin.Context) {
	idStr := c.Param("id")
	challanID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid challan ID format.", err.Error()))
		return
	}

	if err := h.challanService.DeleteChallan(challanID); err != nil {
		utils.LogError(err, "DeleteChallan: Error from challanService.DeleteChallan for ID "+idStr)
		if errors.Is(err, services.ErrChallanNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Challan not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Challan deleted successfully"})
}

// GetNextChallanNumber suggests the next challan number.
func (h *ChallanHandler) GetNextChallanNumber(c *gin.Context) {
	next, err := h.challanService.SuggestNextNumber()
	if err != nil {
		utils.LogError(err, "GetNextChallanNumber: Error from challanService.SuggestNextNumber")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to suggest next challan number.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_challan_number": next})
}

// GetChallanReceipt streams the printable receipt JPEG for a challan.
func (h *ChallanHandler) GetChallanReceipt(c *gin.Context) {
	idStr := c.Param("id")
	challanID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid challan ID format.", err.Error()))
		return
	}

	img, filename, err := h.receiptService.ChallanReceipt(challanID)
	if err != nil {
		utils.LogError(err, "GetChallanReceipt: Error from receiptService.ChallanReceipt for ID "+idStr)
		if errors.Is(err, services.ErrChallanNotFound) || errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Challan not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate receipt.", "Internal error"))
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "image/jpeg", img)
}
