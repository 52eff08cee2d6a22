package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/services"
	"plate_depot_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BillingHandler holds the billing service.
type BillingHandler struct {
	billingService services.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// CalculateBilling runs the period-wise billing calculator without persisting.
func (h *BillingHandler) CalculateBilling(c *gin.Context) {
	var req services.CalculateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CalculateBilling: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	breakdown, err := h.billingService.CalculateBilling(req)
	if err != nil {
		utils.LogError(err, "CalculateBilling: Error from billingService.CalculateBilling")
		if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidPeriod) || errors.Is(err, services.ErrChallanDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to calculate billing.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// CreateBill persists a calculated or manual bill.
func (h *BillingHandler) CreateBill(c *gin.Context) {
	var req services.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateBill: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billingService.CreateBill(req)
	if err != nil {
		utils.LogError(err, "CreateBill: Error from billingService.CreateBill")
		if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Client not found.", err.Error()))
		} else if errors.Is(err, services.ErrBillValidation) || errors.Is(err, services.ErrInvalidPeriod) || errors.Is(err, services.ErrChallanDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// GetBills lists bills, optionally filtered by client.
func (h *BillingHandler) GetBills(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var pClientID *string
	if clientID := c.Query("client_id"); clientID != "" {
		pClientID = &clientID
	}

	bills, totalCount, err := h.billingService.GetBills(pClientID, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetBills: Error from billingService.GetBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", "Internal error"))
		return
	}

	if bills == nil {
		bills = []models.Bill{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  bills,
		"total": totalCount,
	})
}

// GetBillByID fetches a single bill.
func (h *BillingHandler) GetBillByID(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	bill, err := h.billingService.GetBillByID(billID)
	if err != nil {
		utils.LogError(err, "GetBillByID: Error from billingService.GetBillByID for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, bill)
}

// UpdateBillStatus changes a bill's payment status.
func (h *BillingHandler) UpdateBillStatus(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	var req services.UpdateBillStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateBillStatus: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billingService.UpdateBillStatus(billID, req)
	if err != nil {
		utils.LogError(err, "UpdateBillStatus: Error from billingService.UpdateBillStatus for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidBillStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update bill status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, bill)
}

// DeleteBill removes a bill.
func (h *BillingHandler) DeleteBill(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	if err := h.billingService.DeleteBill(billID); err != nil {
		utils.LogError(err, "DeleteBill: Error from billingService.DeleteBill for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
}

// GetBillDocument streams the printable PDF for a bill.
func (h *BillingHandler) GetBillDocument(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	doc, filename, err := h.billingService.BillDocument(billID)
	if err != nil {
		utils.LogError(err, "GetBillDocument: Error from billingService.BillDocument for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate bill document.", "Internal error"))
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", doc)
}
