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

// ReturnHandler holds the return and receipt services.
type ReturnHandler struct {
	returnService  services.ReturnService
	receiptService services.ReceiptService
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(rs services.ReturnService, recs services.ReceiptService) *ReturnHandler {
	return &ReturnHandler{returnService: rs, receiptService: recs}
}

// CreateReturn handles creating a return challan with its line items.
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req services.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateReturn: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ret, err := h.returnService.CreateReturn(req)
	if err != nil {
		utils.LogError(err, "CreateReturn: Error from returnService.CreateReturn")
		if errors.Is(err, services.ErrReturnNumberExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Return challan number already exists.", err.Error()))
		} else if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Client not found.", err.Error()))
		} else if errors.Is(err, services.ErrReturnValidation) || errors.Is(err, services.ErrChallanDateFormat) || errors.Is(err, services.ErrUnknownPlateSize) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create return challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, ret)
}

// GetReturns handles listing return challans with filters and pagination.
func (h *ReturnHandler) GetReturns(c *gin.Context) {
	var filters models.ReturnFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	returns, totalCount, err := h.returnService.GetReturns(filters)
	if err != nil {
		utils.LogError(err, "GetReturns: Error from returnService.GetReturns")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch return challans.", "Internal error"))
		return
	}

	if returns == nil {
		returns = []models.ReturnChallan{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  returns,
		"total": totalCount,
	})
}

// GetReturnByID handles fetching a single return challan.
func (h *ReturnHandler) GetReturnByID(c *gin.Context) {
	idStr := c.Param("id")
	returnID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid return challan ID format.", err.Error()))
		return
	}

	ret, err := h.returnService.GetReturnByID(returnID)
	if err != nil {
		utils.LogError(err, "GetReturnByID: Error from returnService.GetReturnByID for ID "+idStr)
		if errors.Is(err, services.ErrReturnNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Return challan not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch return challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, ret)
}

// DeleteReturn handles deleting a return challan and reversing its effects.
func (h *ReturnHandler) DeleteReturn(c *gin.Context) {
	idStr := c.Param("id")
	returnID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid return challan ID format.", err.Error()))
		return
	}

	if err := h.returnService.DeleteReturn(returnID); err != nil {
		utils.LogError(err, "DeleteReturn: Error from returnService.DeleteReturn for ID "+idStr)
		if errors.Is(err, services.ErrReturnNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Return challan not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete return challan.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Return challan deleted successfully"})
}

// GetNextReturnNumber suggests the next return challan number.
func (h *ReturnHandler) GetNextReturnNumber(c *gin.Context) {
	next, err := h.returnService.SuggestNextNumber()
	if err != nil {
		utils.LogError(err, "GetNextReturnNumber: Error from returnService.SuggestNextNumber")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to suggest next return challan number.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_return_challan_number": next})
}

// GetReturnReceipt streams the printable receipt JPEG for a return challan.
func (h *ReturnHandler) GetReturnReceipt(c *gin.Context) {
	idStr := c.Param("id")
	returnID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid return challan ID format.", err.Error()))
		return
	}

	img, filename, err := h.receiptService.ReturnReceipt(returnID)
	if err != nil {
		utils.LogError(err, "GetReturnReceipt: Error from receiptService.ReturnReceipt for ID "+idStr)
		if errors.Is(err, services.ErrReturnNotFound) || errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Return challan not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate receipt.", "Internal error"))
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "image/jpeg", img)
}
