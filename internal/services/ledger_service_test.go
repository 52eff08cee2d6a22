package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() models.Client {
	return models.Client{
		ID:           "KO",
		Name:         "Kiran Builders",
		Site:         "Ring Road Site",
		MobileNumber: "+91 98765 43210",
	}
}

func TestBuildClientLedgerNoActivity(t *testing.T) {
	ledger := BuildClientLedger(testClient(), nil, nil, config.DefaultPlateSizes)

	assert.False(t, ledger.HasActivity)
	assert.Zero(t, ledger.TotalOutstanding)
	assert.Zero(t, ledger.TransactionCount)
	assert.Nil(t, ledger.LastActivity)
	// One zeroed balance per configured size, in catalogue order.
	require.Len(t, ledger.PlateBalances, len(config.DefaultPlateSizes))
	for i, balance := range ledger.PlateBalances {
		assert.Equal(t, config.DefaultPlateSizes[i], balance.PlateSize)
		assert.Zero(t, balance.Outstanding)
	}
}

func TestBuildClientLedgerSignedOutstanding(t *testing.T) {
	challans := []models.Challan{
		{ChallanDate: day(0), Items: []models.ChallanItem{
			{PlateSize: "2 X 3", BorrowedQuantity: 100},
			{PlateSize: "9 X 3", BorrowedQuantity: 20},
		}},
	}
	returns := []models.ReturnChallan{
		{ReturnDate: day(5), Items: []models.ReturnLineItem{
			{PlateSize: "2 X 3", ReturnedQuantity: 40},
			{PlateSize: "9 X 3", ReturnedQuantity: 30},
		}},
	}

	ledger := BuildClientLedger(testClient(), challans, returns, config.DefaultPlateSizes)

	bySize := map[string]models.PlateBalance{}
	for _, b := range ledger.PlateBalances {
		bySize[b.PlateSize] = b
	}

	assert.Equal(t, 60, bySize["2 X 3"].Outstanding)
	// Over-return shows as a negative balance, not an error.
	assert.Equal(t, -10, bySize["9 X 3"].Outstanding)
	assert.Equal(t, 50, ledger.TotalOutstanding)
	assert.Equal(t, 2, ledger.TransactionCount)
	require.NotNil(t, ledger.LastActivity)
	assert.True(t, ledger.LastActivity.Equal(day(5)))
}

func TestBuildClientLedgerLastActivityIsMaxDate(t *testing.T) {
	challans := []models.Challan{
		{ChallanDate: day(10), Items: []models.ChallanItem{{PlateSize: "2 X 3", BorrowedQuantity: 5}}},
		{ChallanDate: day(3), Items: []models.ChallanItem{{PlateSize: "2 X 3", BorrowedQuantity: 5}}},
	}
	returns := []models.ReturnChallan{
		{ReturnDate: day(7), Items: []models.ReturnLineItem{{PlateSize: "2 X 3", ReturnedQuantity: 5}}},
	}

	ledger := BuildClientLedger(testClient(), challans, returns, config.DefaultPlateSizes)
	require.NotNil(t, ledger.LastActivity)
	assert.True(t, ledger.LastActivity.Equal(day(10)))
}

func TestBuildLedgerCSVRowShapes(t *testing.T) {
	active := BuildClientLedger(testClient(), []models.Challan{
		{ChallanDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), Items: []models.ChallanItem{
			{PlateSize: "2 X 3", BorrowedQuantity: 10},
		}},
	}, nil, config.DefaultPlateSizes)

	idle := BuildClientLedger(models.Client{
		ID: "XY", Name: "Idle Co", Site: "Nowhere", MobileNumber: "000",
	}, nil, nil, config.DefaultPlateSizes)

	data, err := BuildLedgerCSV([]models.ClientLedger{active, idle})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)

	// Header + one row per size for the active client + one "No Activity" row.
	require.Len(t, records, 1+len(config.DefaultPlateSizes)+1)
	assert.Equal(t, ledgerCSVHeader, records[0])

	firstRow := records[1]
	assert.Equal(t, "KO", firstRow[0])
	assert.Equal(t, "2 X 3", firstRow[5])
	assert.Equal(t, "10", firstRow[6])
	assert.Equal(t, "15/03/2025", firstRow[10])

	idleRow := records[len(records)-1]
	assert.Equal(t, "XY", idleRow[0])
	assert.Equal(t, "No Activity", idleRow[5])
	assert.Equal(t, "Never", idleRow[10])
}

func TestBuildLedgerCSVQuotesEmbeddedCommas(t *testing.T) {
	client := models.Client{ID: "AB", Name: "Shah, Mehta & Sons", Site: "Site", MobileNumber: "123"}
	ledger := BuildClientLedger(client, nil, nil, config.DefaultPlateSizes)

	data, err := BuildLedgerCSV([]models.ClientLedger{ledger})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Shah, Mehta & Sons", records[1][1])
}
