package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"
)

// --- LedgerService Interface ---
type LedgerService interface {
	GetClientLedgers(searchTerm *string) ([]models.ClientLedger, error)
	GetClientLedger(clientID string) (*models.ClientLedger, error)
	ExportLedgerCSV() ([]byte, error)
}

type ledgerService struct {
	clientRepo  repositories.ClientRepository
	challanRepo repositories.ChallanRepository
	returnRepo  repositories.ReturnRepository
	cfg         *config.Config
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	clr repositories.ClientRepository,
	cr repositories.ChallanRepository,
	rr repositories.ReturnRepository,
	cfg *config.Config,
) LedgerService {
	return &ledgerService{
		clientRepo:  clr,
		challanRepo: cr,
		returnRepo:  rr,
		cfg:         cfg,
	}
}

// BuildClientLedger reduces one client's challans and returns into per-plate-
// size outstanding balances. The result always carries one balance per
// configured plate size, in catalogue order, with sizes that saw no activity
// zeroed. Outstanding is signed: an over-return produces a negative balance,
// which is displayed, not rejected. Rows referencing a missing counterparty
// simply contribute zero; no reconciliation error is raised.
func BuildClientLedger(
	client models.Client,
	challans []models.Challan,
	returns []models.ReturnChallan,
	plateSizes []string,
) models.ClientLedger {
	borrowed := map[string]int{}
	returned := map[string]int{}
	var lastActivity *time.Time

	bump := func(t time.Time) {
		if lastActivity == nil || t.After(*lastActivity) {
			activity := t
			lastActivity = &activity
		}
	}

	for _, ch := range challans {
		for _, item := range ch.Items {
			borrowed[item.PlateSize] += item.BorrowedQuantity
		}
		bump(ch.ChallanDate)
	}
	for _, ret := range returns {
		for _, item := range ret.Items {
			returned[item.PlateSize] += item.ReturnedQuantity
		}
		bump(ret.ReturnDate)
	}

	balances := make([]models.PlateBalance, 0, len(plateSizes))
	totalOutstanding := 0
	for _, size := range plateSizes {
		balance := models.PlateBalance{
			PlateSize:     size,
			TotalBorrowed: borrowed[size],
			TotalReturned: returned[size],
			Outstanding:   borrowed[size] - returned[size],
		}
		totalOutstanding += balance.Outstanding
		balances = append(balances, balance)
	}

	transactionCount := len(challans) + len(returns)
	return models.ClientLedger{
		Client:           client,
		PlateBalances:    balances,
		TotalOutstanding: totalOutstanding,
		TransactionCount: transactionCount,
		LastActivity:     lastActivity,
		HasActivity:      transactionCount > 0,
	}
}

// GetClientLedgers recomputes every client's ledger from the full transaction
// set. There is no incremental maintenance: the view is rebuilt on each load.
func (s *ledgerService) GetClientLedgers(searchTerm *string) ([]models.ClientLedger, error) {
	clients, err := s.clientRepo.GetAllClients()
	if err != nil {
		return nil, fmt.Errorf("failed to get clients for ledger: %w", err)
	}
	challans, err := s.challanRepo.GetAllChallans()
	if err != nil {
		return nil, fmt.Errorf("failed to get challans for ledger: %w", err)
	}
	returns, err := s.returnRepo.GetAllReturns()
	if err != nil {
		return nil, fmt.Errorf("failed to get returns for ledger: %w", err)
	}

	challansByClient := map[string][]models.Challan{}
	for _, ch := range challans {
		challansByClient[ch.ClientID] = append(challansByClient[ch.ClientID], ch)
	}
	returnsByClient := map[string][]models.ReturnChallan{}
	for _, ret := range returns {
		returnsByClient[ret.ClientID] = append(returnsByClient[ret.ClientID], ret)
	}

	ledgers := make([]models.ClientLedger, 0, len(clients))
	for _, client := range clients {
		if searchTerm != nil && *searchTerm != "" && !clientMatches(client, *searchTerm) {
			continue
		}
		ledgers = append(ledgers, BuildClientLedger(
			client,
			challansByClient[client.ID],
			returnsByClient[client.ID],
			s.cfg.PlateSizes,
		))
	}
	return ledgers, nil
}

func clientMatches(client models.Client, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(client.Name), term) ||
		strings.Contains(strings.ToLower(client.ID), term) ||
		strings.Contains(strings.ToLower(client.Site), term)
}

func (s *ledgerService) GetClientLedger(clientID string) (*models.ClientLedger, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client for ledger: %w", err)
	}

	challans, err := s.challanRepo.GetChallansByClient(clientID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get challans for ledger: %w", err)
	}
	returns, err := s.returnRepo.GetReturnsByClient(clientID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get returns for ledger: %w", err)
	}

	ledger := BuildClientLedger(*client, challans, returns, s.cfg.PlateSizes)
	return &ledger, nil
}

var ledgerCSVHeader = []string{
	"Client ID", "Client Name", "Site", "Mobile Number", "Total Outstanding Plates",
	"Plate Size", "Total Issued", "Total Returned", "Current Balance",
	"Total Transactions", "Last Activity Date",
}

// BuildLedgerCSV renders the ledger backup: one row per plate size for every
// client with activity, and a single "No Activity" row for clients without
// any transactions. Dates use dd/mm/yyyy.
func BuildLedgerCSV(ledgers []models.ClientLedger) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ledgerCSVHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, ledger := range ledgers {
		if !ledger.HasActivity {
			row := []string{
				ledger.Client.ID, ledger.Client.Name, ledger.Client.Site,
				ledger.Client.MobileNumber, "0", "No Activity", "0", "0", "0", "0", "Never",
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("writing CSV row: %w", err)
			}
			continue
		}

		lastActivity := "Never"
		if ledger.LastActivity != nil {
			lastActivity = ledger.LastActivity.Format("02/01/2006")
		}
		for _, balance := range ledger.PlateBalances {
			row := []string{
				ledger.Client.ID, ledger.Client.Name, ledger.Client.Site,
				ledger.Client.MobileNumber, strconv.Itoa(ledger.TotalOutstanding),
				balance.PlateSize, strconv.Itoa(balance.TotalBorrowed),
				strconv.Itoa(balance.TotalReturned), strconv.Itoa(balance.Outstanding),
				strconv.Itoa(ledger.TransactionCount), lastActivity,
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("writing CSV row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportLedgerCSV produces the downloadable ledger backup for all clients.
func (s *ledgerService) ExportLedgerCSV() ([]byte, error) {
	ledgers, err := s.GetClientLedgers(nil)
	if err != nil {
		return nil, err
	}
	return BuildLedgerCSV(ledgers)
}
