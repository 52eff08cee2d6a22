package services

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"
	"plate_depot_backend/pkg/utils"
)

// --- Custom Service Errors for Challans ---
var (
	ErrChallanNotFound     = errors.New("challan not found")
	ErrChallanNumberExists = errors.New("challan number already exists")
	ErrChallanValidation   = errors.New("challan data validation error")
	ErrChallanDateFormat   = errors.New("invalid date format, please use YYYY-MM-DD")
)

// Challan statuses, derived from line items and never stored.
const (
	StatusActive    = "active"
	StatusPartial   = "partial"
	StatusCompleted = "completed"
)

// ChallanStatus is the single authoritative status function: every view
// derives a challan's state from it rather than computing its own.
func ChallanStatus(borrowed, returned int) string {
	switch {
	case returned <= 0:
		return StatusActive
	case returned < borrowed:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// StatusOf derives a whole challan's status by totalling its line items.
func StatusOf(challan *models.Challan) string {
	var borrowed, returned int
	for _, item := range challan.Items {
		borrowed += item.BorrowedQuantity
		returned += item.ReturnedQuantity
	}
	return ChallanStatus(borrowed, returned)
}

var trailingDigits = regexp.MustCompile(`^(.*?)(\d+)$`)

// NextDocumentNumber suggests the number following the most recent one. The
// number is split into a prefix and a trailing numeric suffix; the suffix is
// incremented preserving its zero-padding width and the prefix reattached
// ("KO007" becomes "KO008"). A number with no trailing digits gets "1"
// appended; an empty history starts at "1". The suggestion is advisory only;
// the database unique constraint is the real duplicate guard.
func NextDocumentNumber(last string) string {
	if last == "" {
		return "1"
	}
	m := trailingDigits.FindStringSubmatch(last)
	if m == nil {
		return last + "1"
	}
	prefix, digits := m[1], m[2]
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return last + "1"
	}
	next := strconv.FormatInt(n+1, 10)
	if len(next) < len(digits) {
		next = strings.Repeat("0", len(digits)-len(next)) + next
	}
	return prefix + next
}

// --- Challan DTOs ---

type CreateChallanItemRequest struct {
	PlateSize        string `json:"plate_size" binding:"required"`
	BorrowedQuantity int    `json:"borrowed_quantity" binding:"required,gt=0"`
	Notes            string `json:"notes"`
}

type CreateChallanRequest struct {
	ChallanNumber string                     `json:"challan_number" binding:"required"`
	ClientID      string                     `json:"client_id" binding:"required"`
	ChallanDate   string                     `json:"challan_date" binding:"required"` // YYYY-MM-DD
	Items         []CreateChallanItemRequest `json:"items" binding:"required,dive"`
}

// --- ChallanService Interface ---
type ChallanService interface {
	CreateChallan(req CreateChallanRequest) (*models.Challan, error)
	GetChallanByID(challanID int64) (*models.Challan, error)
	GetChallans(filters models.ChallanFilters) ([]models.Challan, int, error)
	DeleteChallan(challanID int64) error
	SuggestNextNumber() (string, error)
}

type challanService struct {
	challanRepo repositories.ChallanRepository
	clientRepo  repositories.ClientRepository
	stockRepo   repositories.StockRepository
	db          *sql.DB
	cfg         *config.Config
}

// NewChallanService creates a new instance of ChallanService.
func NewChallanService(
	cr repositories.ChallanRepository,
	clr repositories.ClientRepository,
	sr repositories.StockRepository,
	db *sql.DB,
	cfg *config.Config,
) ChallanService {
	return &challanService{
		challanRepo: cr,
		clientRepo:  clr,
		stockRepo:   sr,
		db:          db,
		cfg:         cfg,
	}
}

func parseDocumentDate(dateStr string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, ErrChallanDateFormat
	}
	return date, nil
}

// CreateChallan inserts a challan, its line items and the matching stock
// adjustment in one transaction, so a failed step never leaves an orphaned
// parent record behind.
func (s *challanService) CreateChallan(req CreateChallanRequest) (*models.Challan, error) {
	if strings.TrimSpace(req.ChallanNumber) == "" {
		return nil, fmt.Errorf("%w: challan number cannot be empty", ErrChallanValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: challan needs at least one line item", ErrChallanValidation)
	}

	date, err := parseDocumentDate(req.ChallanDate)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if !s.cfg.KnownPlateSize(item.PlateSize) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlateSize, item.PlateSize)
		}
		if item.BorrowedQuantity <= 0 {
			return nil, fmt.Errorf("%w: borrowed quantity for %s must be positive", ErrChallanValidation, item.PlateSize)
		}
	}

	if _, err := s.clientRepo.GetClientByID(req.ClientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to check client: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	challan := models.Challan{
		ChallanNumber: strings.TrimSpace(req.ChallanNumber),
		ClientID:      req.ClientID,
		ChallanDate:   date,
	}
	challanID, err := s.challanRepo.CreateChallan(tx, &challan)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrChallanNumberExists
		}
		return nil, fmt.Errorf("failed to create challan record: %w", err)
	}

	for _, itemReq := range req.Items {
		item := models.ChallanItem{
			ChallanID:        challanID,
			PlateSize:        itemReq.PlateSize,
			BorrowedQuantity: itemReq.BorrowedQuantity,
			Notes:            utils.NewNullString(strings.TrimSpace(itemReq.Notes)),
		}
		if _, err := s.challanRepo.CreateChallanItem(tx, &item); err != nil {
			return nil, fmt.Errorf("failed to create challan item for %s: %w", itemReq.PlateSize, err)
		}
		if err := s.stockRepo.AdjustOnRent(tx, itemReq.PlateSize, itemReq.BorrowedQuantity); err != nil {
			return nil, fmt.Errorf("failed to adjust stock for %s: %w", itemReq.PlateSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit challan transaction: %w", err)
	}
	return s.GetChallanByID(challanID)
}

func (s *challanService) GetChallanByID(challanID int64) (*models.Challan, error) {
	challan, err := s.challanRepo.GetChallanByID(challanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrChallanNotFound
		}
		return nil, fmt.Errorf("failed to get challan by ID: %w", err)
	}
	challan.Status = StatusOf(challan)
	return challan, nil
}

// GetChallans lists challans with the derived status attached. The status
// filter is applied after fetching because status is computed, not stored.
func (s *challanService) GetChallans(filters models.ChallanFilters) ([]models.Challan, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	page := filters.Page
	pageSize := filters.PageSize

	statusFilter := ""
	if filters.Status != nil && *filters.Status != "" {
		statusFilter = *filters.Status
		// Fetch everything matching the other filters; paginate in memory
		// once the computed status has been applied.
		filters.Page = 0
		filters.PageSize = 0
	}

	challans, totalCount, err := s.challanRepo.GetChallans(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get challans: %w", err)
	}
	for i := range challans {
		challans[i].Status = StatusOf(&challans[i])
	}

	if statusFilter == "" {
		return challans, totalCount, nil
	}

	filtered := make([]models.Challan, 0, len(challans))
	for _, ch := range challans {
		if ch.Status == statusFilter {
			filtered = append(filtered, ch)
		}
	}

	// The caller's page is carved out of the filtered list; the total stays
	// the full filtered count so pagination controls render correctly.
	total := len(filtered)
	start := (page - 1) * pageSize
	if start >= total {
		return []models.Challan{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

// DeleteChallan removes a challan and reverses its stock adjustment in one
// transaction.
func (s *challanService) DeleteChallan(challanID int64) error {
	challan, err := s.challanRepo.GetChallanByID(challanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrChallanNotFound
		}
		return fmt.Errorf("failed to find challan for deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range challan.Items {
		if err := s.stockRepo.AdjustOnRent(tx, item.PlateSize, -item.BorrowedQuantity); err != nil {
			return fmt.Errorf("failed to reverse stock for %s: %w", item.PlateSize, err)
		}
	}
	if err := s.challanRepo.DeleteChallan(tx, challanID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrChallanNotFound
		}
		return fmt.Errorf("failed to delete challan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit challan deletion: %w", err)
	}
	return nil
}

// SuggestNextNumber proposes the next challan number from the most recently
// created one.
func (s *challanService) SuggestNextNumber() (string, error) {
	last, err := s.challanRepo.GetLatestChallanNumber()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NextDocumentNumber(""), nil
		}
		return "", fmt.Errorf("failed to get latest challan number: %w", err)
	}
	return NextDocumentNumber(last), nil
}
