package services

import (
	"testing"
	"time"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func flatRates(rate float64) RateTable {
	return RateTable{Rates: map[string]float64{}, Default: rate}
}

func TestComputePeriodChargesEmptyPeriod(t *testing.T) {
	periods, total, borrowed := ComputePeriodCharges(nil, flatRates(10), day(0), day(30))
	assert.Empty(t, periods)
	assert.Zero(t, total)
	assert.Zero(t, borrowed)
}

func TestComputePeriodChargesSingleIssue(t *testing.T) {
	txns := []TransactionRecord{
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 10},
		}},
	}

	// 10 plates x rate 10 x 5 days.
	periods, total, borrowed := ComputePeriodCharges(txns, flatRates(10), day(0), day(5))
	require.Len(t, periods, 1)
	assert.Equal(t, 5, periods[0].Days)
	assert.InDelta(t, 500, total, 1e-9)
	assert.Equal(t, 10, borrowed)
}

func TestComputePeriodChargesPartialReturnSplitsPeriods(t *testing.T) {
	txns := []TransactionRecord{
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 5},
		}},
		{Date: day(5), Type: TxnReturn, Number: "R1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 2},
		}},
	}

	// 5 plates for 5 days, then 3 plates for 5 days: 250 + 150.
	periods, total, borrowed := ComputePeriodCharges(txns, flatRates(10), day(0), day(10))
	require.Len(t, periods, 2)
	assert.InDelta(t, 250, periods[0].TotalPeriodCharge, 1e-9)
	assert.InDelta(t, 150, periods[1].TotalPeriodCharge, 1e-9)
	assert.InDelta(t, 400, total, 1e-9)
	assert.Equal(t, 5, borrowed)
}

func TestComputePeriodChargesClampsOverReturn(t *testing.T) {
	txns := []TransactionRecord{
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 5},
		}},
		{Date: day(5), Type: TxnReturn, Number: "R1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 8},
		}},
	}

	// After the over-return the balance is clamped to zero, never negative,
	// so the second stretch accrues nothing.
	periods, total, _ := ComputePeriodCharges(txns, flatRates(10), day(0), day(10))
	require.Len(t, periods, 1)
	assert.InDelta(t, 250, total, 1e-9)
}

func TestComputePeriodChargesUnsortedInput(t *testing.T) {
	txns := []TransactionRecord{
		{Date: day(5), Type: TxnReturn, Number: "R1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 2},
		}},
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 5},
		}},
	}

	_, total, _ := ComputePeriodCharges(txns, flatRates(10), day(0), day(10))
	assert.InDelta(t, 400, total, 1e-9)
}

func TestComputePeriodChargesPerSizeRates(t *testing.T) {
	rates := RateTable{Rates: map[string]float64{"2 X 3": 12}, Default: 10}
	txns := []TransactionRecord{
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 1},
			{PlateSize: "9 X 3", Quantity: 1},
		}},
	}

	// One plate at 12/day plus one at the default 10/day for 2 days.
	_, total, _ := ComputePeriodCharges(txns, rates, day(0), day(2))
	assert.InDelta(t, 44, total, 1e-9)
}

func TestComputePeriodChargesSameDayIssueAndReturn(t *testing.T) {
	txns := []TransactionRecord{
		{Date: day(0), Type: TxnIssue, Number: "1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 10},
		}},
		{Date: day(0), Type: TxnReturn, Number: "R1", Items: []TransactionItem{
			{PlateSize: "2 X 3", Quantity: 10},
		}},
	}

	// Zero days held means zero rental.
	periods, total, _ := ComputePeriodCharges(txns, flatRates(10), day(0), day(10))
	assert.Empty(t, periods)
	assert.Zero(t, total)
}

func TestComputeServiceCharge(t *testing.T) {
	// 100 plates at 5% of the 50-per-plate service value.
	assert.InDelta(t, 250, ComputeServiceCharge(100, 5, 50), 1e-9)
	assert.Zero(t, ComputeServiceCharge(0, 5, 50))
	assert.Zero(t, ComputeServiceCharge(100, 0, 50))
}

func TestRateTableFallsBackToDefault(t *testing.T) {
	rates := RateTable{Rates: map[string]float64{"2 X 3": 15, "9 X 3": 0}, Default: 10}
	assert.Equal(t, 15.0, rates.Rate("2 X 3"))
	assert.Equal(t, 10.0, rates.Rate("9 X 3"))
	assert.Equal(t, 10.0, rates.Rate("પતરા"))
}

type stubBillingClientRepo struct {
	repositories.ClientRepository
	client models.Client
}

func (s *stubBillingClientRepo) GetClientByID(id string) (*models.Client, error) {
	if id != s.client.ID {
		return nil, repositories.ErrNotFound
	}
	c := s.client
	return &c, nil
}

type stubBillingChallanRepo struct {
	repositories.ChallanRepository
	challans []models.Challan
}

func (s *stubBillingChallanRepo) GetChallansByClient(clientID string, from, to *time.Time) ([]models.Challan, error) {
	return s.challans, nil
}

type stubBillingReturnRepo struct {
	repositories.ReturnRepository
	returns []models.ReturnChallan
}

func (s *stubBillingReturnRepo) GetReturnsByClient(clientID string, from, to *time.Time) ([]models.ReturnChallan, error) {
	return s.returns, nil
}

type stubBillingStockRepo struct {
	repositories.StockRepository
	rates map[string]float64
}

func (s *stubBillingStockRepo) GetDailyRates() (map[string]float64, error) {
	return s.rates, nil
}

type stubBillingBillRepo struct {
	repositories.BillRepository
	priorBills []models.Bill
}

func (s *stubBillingBillRepo) GetPriorBills(clientID string, before time.Time) ([]models.Bill, error) {
	return s.priorBills, nil
}

func TestCalculateBillingCarriesForwardPriorBills(t *testing.T) {
	svc := NewBillingService(
		&stubBillingBillRepo{priorBills: []models.Bill{
			{TotalAmount: 200, PaymentStatus: models.BillStatusPending},
			{TotalAmount: 100, PaymentStatus: models.BillStatusOverdue},
			{TotalAmount: 150, PaymentStatus: models.BillStatusPaid},
		}},
		&stubBillingClientRepo{client: models.Client{ID: "KO", Name: "Kiran Builders"}},
		&stubBillingChallanRepo{challans: []models.Challan{{
			ChallanNumber: "KO001",
			ChallanDate:   day(0),
			Items: []models.ChallanItem{
				{PlateSize: "2 X 3", BorrowedQuantity: 10},
			},
		}}},
		&stubBillingReturnRepo{},
		&stubBillingStockRepo{rates: map[string]float64{}},
		nil,
		config.Default(),
	)

	breakdown, err := svc.CalculateBilling(CalculateBillingRequest{
		ClientID:    "KO",
		PeriodStart: day(0).Format("2006-01-02"),
		PeriodEnd:   day(10).Format("2006-01-02"),
	})
	require.NoError(t, err)

	// 10 plates x default rate 10 x 10 days.
	assert.InDelta(t, 1000, breakdown.TotalRentalCharge, 1e-9)
	// 10 borrowed x 5% x 50 per plate.
	assert.InDelta(t, 25, breakdown.ServiceCharge, 1e-9)
	// Pending and overdue prior bills sum into the previous balance;
	// paid ones sum into payments received.
	assert.InDelta(t, 300, breakdown.PreviousBalance, 1e-9)
	assert.InDelta(t, 150, breakdown.PaymentsReceived, 1e-9)
	assert.InDelta(t, 1025, breakdown.TotalBillAmount, 1e-9)
	assert.InDelta(t, 1175, breakdown.NetDue, 1e-9)
	// net due = bill total + previous balance - payments received.
	assert.InDelta(t,
		breakdown.TotalBillAmount+breakdown.PreviousBalance-breakdown.PaymentsReceived,
		breakdown.NetDue, 1e-9)
}

func TestCalculateBillingNoPriorBills(t *testing.T) {
	svc := NewBillingService(
		&stubBillingBillRepo{},
		&stubBillingClientRepo{client: models.Client{ID: "KO", Name: "Kiran Builders"}},
		&stubBillingChallanRepo{},
		&stubBillingReturnRepo{},
		&stubBillingStockRepo{rates: map[string]float64{}},
		nil,
		config.Default(),
	)

	breakdown, err := svc.CalculateBilling(CalculateBillingRequest{
		ClientID:    "KO",
		PeriodStart: day(0).Format("2006-01-02"),
		PeriodEnd:   day(10).Format("2006-01-02"),
	})
	require.NoError(t, err)

	assert.Zero(t, breakdown.PreviousBalance)
	assert.Zero(t, breakdown.PaymentsReceived)
	assert.Zero(t, breakdown.TotalBillAmount)
	assert.Zero(t, breakdown.NetDue)
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.01, RoundMoney(10.005))
	assert.Equal(t, 10.0, RoundMoney(10.004))
	assert.Equal(t, 0.0, RoundMoney(0))
	assert.Equal(t, -10.01, RoundMoney(-10.005))
}
