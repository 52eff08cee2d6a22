package services

import (
	"fmt"
	"testing"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallanStatus(t *testing.T) {
	tests := []struct {
		name     string
		borrowed int
		returned int
		want     string
	}{
		{"nothing returned", 100, 0, StatusActive},
		{"negative returned treated as active", 100, -5, StatusActive},
		{"partially returned", 100, 40, StatusPartial},
		{"one plate short", 100, 99, StatusPartial},
		{"fully returned", 100, 100, StatusCompleted},
		{"over-returned", 100, 120, StatusCompleted},
		{"zero borrowed zero returned", 0, 0, StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChallanStatus(tt.borrowed, tt.returned))
		})
	}
}

func TestStatusOfTotalsAcrossItems(t *testing.T) {
	challan := &models.Challan{
		Items: []models.ChallanItem{
			{PlateSize: "2 X 3", BorrowedQuantity: 50, ReturnedQuantity: 50},
			{PlateSize: "9 X 3", BorrowedQuantity: 30, ReturnedQuantity: 0},
		},
	}
	// 80 borrowed, 50 returned across all lines.
	assert.Equal(t, StatusPartial, StatusOf(challan))

	challan.Items[1].ReturnedQuantity = 30
	assert.Equal(t, StatusCompleted, StatusOf(challan))
}

func TestNextDocumentNumber(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "1"},
		{"KO007", "KO008"},
		{"007", "008"},
		{"12", "13"},
		{"ABC", "ABC1"},
		{"CH-99", "CH-100"},
		{"KO009", "KO010"},
		{"A1B2", "A1B3"},
	}
	for _, tt := range tests {
		t.Run(tt.last, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDocumentNumber(tt.last))
		})
	}
}

type stubChallanRepo struct {
	repositories.ChallanRepository
	challans []models.Challan
}

func (s *stubChallanRepo) GetChallans(filters models.ChallanFilters) ([]models.Challan, int, error) {
	out := make([]models.Challan, len(s.challans))
	copy(out, s.challans)
	return out, len(out), nil
}

func TestGetChallansStatusFilterPaginates(t *testing.T) {
	repo := &stubChallanRepo{}
	for i := 1; i <= 5; i++ {
		repo.challans = append(repo.challans, models.Challan{
			ID:            int64(i),
			ChallanNumber: fmt.Sprintf("KO%03d", i),
			Items: []models.ChallanItem{
				{PlateSize: "2 X 3", BorrowedQuantity: 10},
			},
		})
	}
	svc := NewChallanService(repo, nil, nil, nil, config.Default())

	status := StatusActive
	challans, total, err := svc.GetChallans(models.ChallanFilters{Status: &status, Page: 1, PageSize: 2})
	require.NoError(t, err)
	// The page honors the requested size; the total is the full filtered count.
	assert.Equal(t, 5, total)
	require.Len(t, challans, 2)
	assert.Equal(t, "KO001", challans[0].ChallanNumber)
	assert.Equal(t, "KO002", challans[1].ChallanNumber)

	challans, total, err = svc.GetChallans(models.ChallanFilters{Status: &status, Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, challans, 1)
	assert.Equal(t, "KO005", challans[0].ChallanNumber)

	challans, total, err = svc.GetChallans(models.ChallanFilters{Status: &status, Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, challans)
}

func TestGetChallansStatusFilterExcludesOtherStatuses(t *testing.T) {
	repo := &stubChallanRepo{challans: []models.Challan{
		{ID: 1, ChallanNumber: "KO001", Items: []models.ChallanItem{
			{PlateSize: "2 X 3", BorrowedQuantity: 10, ReturnedQuantity: 10},
		}},
		{ID: 2, ChallanNumber: "KO002", Items: []models.ChallanItem{
			{PlateSize: "2 X 3", BorrowedQuantity: 10},
		}},
	}}
	svc := NewChallanService(repo, nil, nil, nil, config.Default())

	status := StatusCompleted
	challans, total, err := svc.GetChallans(models.ChallanFilters{Status: &status, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, challans, 1)
	assert.Equal(t, "KO001", challans[0].ChallanNumber)
}

func TestNextDocumentNumberStrictlyIncreases(t *testing.T) {
	// Repeated application never repeats a suggestion.
	seen := map[string]bool{}
	number := "KO001"
	for i := 0; i < 200; i++ {
		assert.False(t, seen[number], "number %s suggested twice", number)
		seen[number] = true
		number = NextDocumentNumber(number)
	}
}
