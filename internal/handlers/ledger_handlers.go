package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/services"
	"plate_depot_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// LedgerHandler holds the ledger service.
type LedgerHandler struct {
	ledgerService services.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ls services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ls}
}

// GetLedgers returns the outstanding-balance view for every client.
func (h *LedgerHandler) GetLedgers(c *gin.Context) {
	searchTerm := c.Query("search")
	var pSearchTerm *string
	if searchTerm != "" {
		pSearchTerm = &searchTerm
	}

	ledgers, err := h.ledgerService.GetClientLedgers(pSearchTerm)
	if err != nil {
		utils.LogError(err, "GetLedgers: Error from ledgerService.GetClientLedgers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch ledgers.", "Internal error"))
		return
	}

	if ledgers == nil {
		ledgers = []models.ClientLedger{}
	}
	c.JSON(http.StatusOK, gin.H{"data": ledgers})
}

// GetLedgerByClient returns one client's outstanding-balance view.
func (h *LedgerHandler) GetLedgerByClient(c *gin.Context) {
	clientID := c.Param("client_id")

	ledger, err := h.ledgerService.GetClientLedger(clientID)
	if err != nil {
		utils.LogError(err, "GetLedgerByClient: Error from ledgerService.GetClientLedger for ID "+clientID)
		if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch ledger.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// ExportLedgerCSV streams the full ledger as a CSV backup file.
func (h *LedgerHandler) ExportLedgerCSV(c *gin.Context) {
	data, err := h.ledgerService.ExportLedgerCSV()
	if err != nil {
		utils.LogError(err, "ExportLedgerCSV: Error from ledgerService.ExportLedgerCSV")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to export ledger.", "Internal error"))
		return
	}

	filename := fmt.Sprintf("ledger-backup-%s-%s.csv", time.Now().Format("2006-01-02"), ulid.Make().String())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
