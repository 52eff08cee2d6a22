package services

import (
	"fmt"

	"plate_depot_backend/internal/repositories"
)

// DashboardSummary is the headline figures shown on the app's landing screen.
type DashboardSummary struct {
	TotalClients     int     `json:"total_clients"`
	ActiveChallans   int     `json:"active_challans"`
	PlatesOnRent     int     `json:"plates_on_rent"`
	PendingBillTotal float64 `json:"pending_bill_total"`
}

// --- DashboardService Interface ---
type DashboardService interface {
	GetSummary() (*DashboardSummary, error)
}

type dashboardService struct {
	clientRepo  repositories.ClientRepository
	challanRepo repositories.ChallanRepository
	stockRepo   repositories.StockRepository
	billRepo    repositories.BillRepository
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(
	clr repositories.ClientRepository,
	cr repositories.ChallanRepository,
	sr repositories.StockRepository,
	br repositories.BillRepository,
) DashboardService {
	return &dashboardService{
		clientRepo:  clr,
		challanRepo: cr,
		stockRepo:   sr,
		billRepo:    br,
	}
}

func (s *dashboardService) GetSummary() (*DashboardSummary, error) {
	totalClients, err := s.clientRepo.CountClients()
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	activeChallans, err := s.challanRepo.CountOpenChallans()
	if err != nil {
		return nil, fmt.Errorf("failed to count open challans: %w", err)
	}

	stock, err := s.stockRepo.GetStockItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock for dashboard: %w", err)
	}
	platesOnRent := 0
	for _, item := range stock {
		platesOnRent += item.OnRentQuantity
	}

	pendingTotal, err := s.billRepo.GetPendingTotal()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bill total: %w", err)
	}

	return &DashboardSummary{
		TotalClients:     totalClients,
		ActiveChallans:   activeChallans,
		PlatesOnRent:     platesOnRent,
		PendingBillTotal: RoundMoney(pendingTotal),
	}, nil
}
