package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Billing ---
var (
	ErrBillNotFound      = errors.New("bill not found")
	ErrBillValidation    = errors.New("bill data validation error")
	ErrInvalidBillStatus = errors.New("invalid bill payment status")
	ErrInvalidPeriod     = errors.New("billing period end must not precede period start")
)

// Transaction types in the billing walk.
const (
	TxnIssue  = "udhar"
	TxnReturn = "jama"
)

// TransactionItem is one plate-size movement inside a billing transaction.
type TransactionItem struct {
	PlateSize string `json:"plate_size"`
	Quantity  int    `json:"quantity"`
}

// TransactionRecord is one issue or return event in chronological order.
type TransactionRecord struct {
	Date   time.Time         `json:"date"`
	Type   string            `json:"type"`
	Number string            `json:"number"`
	Items  []TransactionItem `json:"items"`
}

// RateTable maps plate sizes to daily rates with a fallback for sizes that
// have no configured rate.
type RateTable struct {
	Rates   map[string]float64
	Default float64
}

// Rate returns the daily rate for a plate size. A missing or zero rate falls
// back to the default.
func (t RateTable) Rate(plateSize string) float64 {
	if r, ok := t.Rates[plateSize]; ok && r > 0 {
		return r
	}
	return t.Default
}

// PeriodCalculation is one sub-period of constant balances between two
// consecutive transactions (or a period boundary).
type PeriodCalculation struct {
	StartDate         time.Time          `json:"start_date"`
	EndDate           time.Time          `json:"end_date"`
	Days              int                `json:"days"`
	PlateBalances     map[string]int     `json:"plate_balances"`
	PeriodCharges     map[string]float64 `json:"period_charges"`
	TotalPeriodCharge float64            `json:"total_period_charge"`
}

// BillingBreakdown is the full result of the billing calculator for one
// client and period.
type BillingBreakdown struct {
	Client            models.Client       `json:"client"`
	PeriodStart       time.Time           `json:"period_start"`
	PeriodEnd         time.Time           `json:"period_end"`
	Transactions      []TransactionRecord `json:"transactions"`
	Periods           []PeriodCalculation `json:"period_calculations"`
	TotalRentalCharge float64             `json:"total_rental_charge"`
	ServiceCharge     float64             `json:"service_charge"`
	PreviousBalance   float64             `json:"previous_balance"`
	PaymentsReceived  float64             `json:"payments_received"`
	TotalBillAmount   float64             `json:"total_bill_amount"`
	NetDue            float64             `json:"net_due"`
}

// RoundMoney rounds a monetary amount half away from zero to two decimal
// places. Every amount that leaves the service boundary goes through this;
// the internal walk stays in float64.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// ComputePeriodCharges walks a client's transactions in chronological order,
// maintaining a running per-plate-size balance and accruing
// balance x daily_rate x days for every gap in which the balance was held,
// plus the final stretch from the last transaction to the period end.
// Returns inside the walk clamp a size's balance at zero: billing never
// charges a negative holding. It returns the sub-period breakdown, the total
// rental charge, and the total quantity issued inside the period (the basis
// of the service charge).
func ComputePeriodCharges(
	transactions []TransactionRecord,
	rates RateTable,
	periodStart, periodEnd time.Time,
) ([]PeriodCalculation, float64, int) {
	sorted := make([]TransactionRecord, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	periods := []PeriodCalculation{}
	balances := map[string]int{}
	totalRental := 0.0
	totalBorrowed := 0

	accrue := func(from, to time.Time) {
		days := daysBetween(from, to)
		if days <= 0 || len(balances) == 0 {
			return
		}
		charges := map[string]float64{}
		periodTotal := 0.0
		for plateSize, quantity := range balances {
			if quantity <= 0 {
				continue
			}
			charge := float64(quantity) * rates.Rate(plateSize) * float64(days)
			charges[plateSize] = charge
			periodTotal += charge
		}
		if periodTotal <= 0 {
			return
		}
		snapshot := make(map[string]int, len(balances))
		for k, v := range balances {
			snapshot[k] = v
		}
		periods = append(periods, PeriodCalculation{
			StartDate:         from,
			EndDate:           to,
			Days:              days,
			PlateBalances:     snapshot,
			PeriodCharges:     charges,
			TotalPeriodCharge: periodTotal,
		})
		totalRental += periodTotal
	}

	lastDate := periodStart
	for _, txn := range sorted {
		accrue(lastDate, txn.Date)

		for _, item := range txn.Items {
			current := balances[item.PlateSize]
			if txn.Type == TxnIssue {
				balances[item.PlateSize] = current + item.Quantity
				totalBorrowed += item.Quantity
			} else {
				next := current - item.Quantity
				if next < 0 {
					next = 0
				}
				balances[item.PlateSize] = next
			}
		}
		lastDate = txn.Date
	}
	accrue(lastDate, periodEnd)

	return periods, totalRental, totalBorrowed
}

// ComputeServiceCharge applies the configured service rate (percent) to the
// total borrowed quantity, valued at the per-plate service amount.
func ComputeServiceCharge(totalBorrowed int, serviceRatePct, perPlate float64) float64 {
	return float64(totalBorrowed) * serviceRatePct / 100 * perPlate
}

// --- Billing DTOs ---

type CalculateBillingRequest struct {
	ClientID    string   `json:"client_id" binding:"required"`
	PeriodStart string   `json:"period_start" binding:"required"` // YYYY-MM-DD
	PeriodEnd   string   `json:"period_end" binding:"required"`   // YYYY-MM-DD
	ServiceRate *float64 `json:"service_rate"`                    // percent; defaults from config
}

// CreateBillRequest persists a bill. When Manual is false the amounts are
// recomputed server-side from the period; a manual bill takes the posted
// total at face value.
type CreateBillRequest struct {
	ClientID    string   `json:"client_id" binding:"required"`
	PeriodStart string   `json:"period_start" binding:"required"`
	PeriodEnd   string   `json:"period_end" binding:"required"`
	Manual      bool     `json:"manual"`
	TotalAmount *float64 `json:"total_amount"` // required for manual bills
	ServiceRate *float64 `json:"service_rate"`
}

type UpdateBillStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// --- BillingService Interface ---
type BillingService interface {
	CalculateBilling(req CalculateBillingRequest) (*BillingBreakdown, error)
	CreateBill(req CreateBillRequest) (*models.Bill, error)
	GetBillByID(billID int64) (*models.Bill, error)
	GetBills(clientID *string, page, pageSize int) ([]models.Bill, int, error)
	UpdateBillStatus(billID int64, req UpdateBillStatusRequest) (*models.Bill, error)
	DeleteBill(billID int64) error
	BillDocument(billID int64) ([]byte, string, error)
}

type billingService struct {
	billRepo    repositories.BillRepository
	clientRepo  repositories.ClientRepository
	challanRepo repositories.ChallanRepository
	returnRepo  repositories.ReturnRepository
	stockRepo   repositories.StockRepository
	db          *sql.DB
	cfg         *config.Config
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(
	br repositories.BillRepository,
	clr repositories.ClientRepository,
	cr repositories.ChallanRepository,
	rr repositories.ReturnRepository,
	sr repositories.StockRepository,
	db *sql.DB,
	cfg *config.Config,
) BillingService {
	return &billingService{
		billRepo:    br,
		clientRepo:  clr,
		challanRepo: cr,
		returnRepo:  rr,
		stockRepo:   sr,
		db:          db,
		cfg:         cfg,
	}
}

// fetchTransactions merges a client's issue and return challans inside the
// period into one time-sorted event list.
func (s *billingService) fetchTransactions(clientID string, from, to time.Time) ([]TransactionRecord, error) {
	challans, err := s.challanRepo.GetChallansByClient(clientID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to get challans for billing: %w", err)
	}
	returns, err := s.returnRepo.GetReturnsByClient(clientID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to get returns for billing: %w", err)
	}

	transactions := make([]TransactionRecord, 0, len(challans)+len(returns))
	for _, ch := range challans {
		txn := TransactionRecord{Date: ch.ChallanDate, Type: TxnIssue, Number: ch.ChallanNumber}
		for _, item := range ch.Items {
			txn.Items = append(txn.Items, TransactionItem{PlateSize: item.PlateSize, Quantity: item.BorrowedQuantity})
		}
		transactions = append(transactions, txn)
	}
	for _, ret := range returns {
		txn := TransactionRecord{Date: ret.ReturnDate, Type: TxnReturn, Number: ret.ReturnChallanNumber}
		for _, item := range ret.Items {
			txn.Items = append(txn.Items, TransactionItem{PlateSize: item.PlateSize, Quantity: item.ReturnedQuantity})
		}
		transactions = append(transactions, txn)
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})
	return transactions, nil
}

// CalculateBilling runs the period-wise calculator for one client without
// persisting anything.
func (s *billingService) CalculateBilling(req CalculateBillingRequest) (*BillingBreakdown, error) {
	client, err := s.clientRepo.GetClientByID(req.ClientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client for billing: %w", err)
	}

	periodStart, err := parseDocumentDate(req.PeriodStart)
	if err != nil {
		return nil, err
	}
	periodEnd, err := parseDocumentDate(req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if periodEnd.Before(periodStart) {
		return nil, ErrInvalidPeriod
	}

	serviceRate := s.cfg.ServiceChargeRate
	if req.ServiceRate != nil {
		serviceRate = *req.ServiceRate
	}

	transactions, err := s.fetchTransactions(req.ClientID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	dailyRates, err := s.stockRepo.GetDailyRates()
	if err != nil {
		return nil, fmt.Errorf("failed to get daily rates for billing: %w", err)
	}
	rates := RateTable{Rates: dailyRates, Default: s.cfg.DefaultDailyRate}

	periods, totalRental, totalBorrowed := ComputePeriodCharges(transactions, rates, periodStart, periodEnd)
	serviceCharge := ComputeServiceCharge(totalBorrowed, serviceRate, s.cfg.ServiceChargePerPlate)

	priorBills, err := s.billRepo.GetPriorBills(req.ClientID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get prior bills: %w", err)
	}
	previousBalance := 0.0
	paymentsReceived := 0.0
	for _, bill := range priorBills {
		switch bill.PaymentStatus {
		case models.BillStatusPending, models.BillStatusOverdue:
			previousBalance += bill.TotalAmount
		case models.BillStatusPaid:
			paymentsReceived += bill.TotalAmount
		}
	}

	totalBill := totalRental + serviceCharge
	netDue := totalBill + previousBalance - paymentsReceived

	return &BillingBreakdown{
		Client:            *client,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		Transactions:      transactions,
		Periods:           periods,
		TotalRentalCharge: RoundMoney(totalRental),
		ServiceCharge:     RoundMoney(serviceCharge),
		PreviousBalance:   RoundMoney(previousBalance),
		PaymentsReceived:  RoundMoney(paymentsReceived),
		TotalBillAmount:   RoundMoney(totalBill),
		NetDue:            RoundMoney(netDue),
	}, nil
}

// CreateBill persists a bill for the period. Calculated bills are recomputed
// server-side so the stored amounts always match the calculator; manual bills
// store the posted total with zero component charges.
func (s *billingService) CreateBill(req CreateBillRequest) (*models.Bill, error) {
	periodStart, err := parseDocumentDate(req.PeriodStart)
	if err != nil {
		return nil, err
	}
	periodEnd, err := parseDocumentDate(req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if periodEnd.Before(periodStart) {
		return nil, ErrInvalidPeriod
	}

	bill := &models.Bill{
		ClientID:      req.ClientID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		PaymentStatus: models.BillStatusPending,
	}

	if req.Manual {
		if req.TotalAmount == nil {
			return nil, fmt.Errorf("%w: manual bill requires total_amount", ErrBillValidation)
		}
		if *req.TotalAmount < 0 {
			return nil, fmt.Errorf("%w: total amount cannot be negative", ErrBillValidation)
		}
		if _, err := s.clientRepo.GetClientByID(req.ClientID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, fmt.Errorf("failed to check client: %w", err)
		}
		bill.TotalAmount = RoundMoney(*req.TotalAmount)
	} else {
		breakdown, err := s.CalculateBilling(CalculateBillingRequest{
			ClientID:    req.ClientID,
			PeriodStart: req.PeriodStart,
			PeriodEnd:   req.PeriodEnd,
			ServiceRate: req.ServiceRate,
		})
		if err != nil {
			return nil, err
		}
		bill.RentalCharge = breakdown.TotalRentalCharge
		bill.ServiceCharge = breakdown.ServiceCharge
		bill.TotalAmount = breakdown.TotalBillAmount
	}

	if _, err := s.billRepo.CreateBill(s.db, bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	return s.billRepo.GetBillByID(bill.ID)
}

func (s *billingService) GetBillByID(billID int64) (*models.Bill, error) {
	bill, err := s.billRepo.GetBillByID(billID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to get bill by ID: %w", err)
	}
	return bill, nil
}

func (s *billingService) GetBills(clientID *string, page, pageSize int) ([]models.Bill, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	bills, totalCount, err := s.billRepo.GetBills(clientID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get bills: %w", err)
	}
	return bills, totalCount, nil
}

func (s *billingService) UpdateBillStatus(billID int64, req UpdateBillStatusRequest) (*models.Bill, error) {
	if !models.ValidBillStatus(req.PaymentStatus) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBillStatus, req.PaymentStatus)
	}
	if err := s.billRepo.UpdateBillStatus(s.db, billID, req.PaymentStatus); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to update bill status: %w", err)
	}
	return s.billRepo.GetBillByID(billID)
}

func (s *billingService) DeleteBill(billID int64) error {
	if err := s.billRepo.DeleteBill(s.db, billID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBillNotFound
		}
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return nil
}

// BillDocument renders the downloadable PDF for a stored bill, recomputing
// the period breakdown so the document shows the sub-period detail.
func (s *billingService) BillDocument(billID int64) ([]byte, string, error) {
	bill, err := s.GetBillByID(billID)
	if err != nil {
		return nil, "", err
	}

	breakdown, err := s.CalculateBilling(CalculateBillingRequest{
		ClientID:    bill.ClientID,
		PeriodStart: bill.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   bill.PeriodEnd.Format("2006-01-02"),
	})
	if err != nil {
		return nil, "", err
	}

	data, err := GenerateBillPDF(bill, breakdown)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render bill document: %w", err)
	}
	filename := fmt.Sprintf("bill-%d-%s.pdf", bill.ID, bill.ClientID)
	return data, filename, nil
}
