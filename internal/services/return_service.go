package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"
	"plate_depot_backend/pkg/utils"
)

// --- Custom Service Errors for Returns ---
var (
	ErrReturnNotFound     = errors.New("return challan not found")
	ErrReturnNumberExists = errors.New("return challan number already exists")
	ErrReturnValidation   = errors.New("return challan data validation error")
)

// --- Return DTOs ---

type CreateReturnItemRequest struct {
	PlateSize        string `json:"plate_size" binding:"required"`
	ReturnedQuantity int    `json:"returned_quantity" binding:"required,gt=0"`
	DamageNotes      string `json:"damage_notes"`
}

type CreateReturnRequest struct {
	ReturnChallanNumber string                    `json:"return_challan_number" binding:"required"`
	ClientID            string                    `json:"client_id" binding:"required"`
	ReturnDate          string                    `json:"return_date" binding:"required"` // YYYY-MM-DD
	Items               []CreateReturnItemRequest `json:"items" binding:"required,dive"`
}

// --- ReturnService Interface ---
type ReturnService interface {
	CreateReturn(req CreateReturnRequest) (*models.ReturnChallan, error)
	GetReturnByID(returnID int64) (*models.ReturnChallan, error)
	GetReturns(filters models.ReturnFilters) ([]models.ReturnChallan, int, error)
	DeleteReturn(returnID int64) error
	SuggestNextNumber() (string, error)
}

type returnService struct {
	returnRepo  repositories.ReturnRepository
	challanRepo repositories.ChallanRepository
	clientRepo  repositories.ClientRepository
	stockRepo   repositories.StockRepository
	db          *sql.DB
	cfg         *config.Config
}

// NewReturnService creates a new instance of ReturnService.
func NewReturnService(
	rr repositories.ReturnRepository,
	cr repositories.ChallanRepository,
	clr repositories.ClientRepository,
	sr repositories.StockRepository,
	db *sql.DB,
	cfg *config.Config,
) ReturnService {
	return &returnService{
		returnRepo:  rr,
		challanRepo: cr,
		clientRepo:  clr,
		stockRepo:   sr,
		db:          db,
		cfg:         cfg,
	}
}

// CreateReturn inserts the return challan with its line items, moves the
// returned quantity off rent, and allocates it against the client's open
// challan items oldest-first, all in one transaction. Returning more than is
// outstanding is allowed; the surplus simply stays unallocated and the ledger
// shows a negative outstanding.
func (s *returnService) CreateReturn(req CreateReturnRequest) (*models.ReturnChallan, error) {
	if strings.TrimSpace(req.ReturnChallanNumber) == "" {
		return nil, fmt.Errorf("%w: return challan number cannot be empty", ErrReturnValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: return challan needs at least one line item", ErrReturnValidation)
	}

	date, err := parseDocumentDate(req.ReturnDate)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if !s.cfg.KnownPlateSize(item.PlateSize) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlateSize, item.PlateSize)
		}
		if item.ReturnedQuantity <= 0 {
			return nil, fmt.Errorf("%w: returned quantity for %s must be positive", ErrReturnValidation, item.PlateSize)
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

	ret := models.ReturnChallan{
		ReturnChallanNumber: strings.TrimSpace(req.ReturnChallanNumber),
		ClientID:            req.ClientID,
		ReturnDate:          date,
	}
	returnID, err := s.returnRepo.CreateReturn(tx, &ret)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrReturnNumberExists
		}
		return nil, fmt.Errorf("failed to create return challan record: %w", err)
	}

	for _, itemReq := range req.Items {
		item := models.ReturnLineItem{
			ReturnID:         returnID,
			PlateSize:        itemReq.PlateSize,
			ReturnedQuantity: itemReq.ReturnedQuantity,
			DamageNotes:      utils.NewNullString(strings.TrimSpace(itemReq.DamageNotes)),
		}
		if _, err := s.returnRepo.CreateReturnLineItem(tx, &item); err != nil {
			return nil, fmt.Errorf("failed to create return line item for %s: %w", itemReq.PlateSize, err)
		}
		if err := s.stockRepo.AdjustOnRent(tx, itemReq.PlateSize, -itemReq.ReturnedQuantity); err != nil {
			return nil, fmt.Errorf("failed to adjust stock for %s: %w", itemReq.PlateSize, err)
		}
		if err := s.challanRepo.AllocateReturn(tx, req.ClientID, itemReq.PlateSize, itemReq.ReturnedQuantity); err != nil {
			return nil, fmt.Errorf("failed to allocate return for %s: %w", itemReq.PlateSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return transaction: %w", err)
	}
	return s.GetReturnByID(returnID)
}

func (s *returnService) GetReturnByID(returnID int64) (*models.ReturnChallan, error) {
	ret, err := s.returnRepo.GetReturnByID(returnID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to get return challan by ID: %w", err)
	}
	return ret, nil
}

func (s *returnService) GetReturns(filters models.ReturnFilters) ([]models.ReturnChallan, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}

	returns, totalCount, err := s.returnRepo.GetReturns(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get return challans: %w", err)
	}
	return returns, totalCount, nil
}

// DeleteReturn removes a return challan and reverses both the stock
// adjustment and the oldest-first allocation in one transaction.
func (s *returnService) DeleteReturn(returnID int64) error {
	ret, err := s.returnRepo.GetReturnByID(returnID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrReturnNotFound
		}
		return fmt.Errorf("failed to find return challan for deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range ret.Items {
		if err := s.stockRepo.AdjustOnRent(tx, item.PlateSize, item.ReturnedQuantity); err != nil {
			return fmt.Errorf("failed to reverse stock for %s: %w", item.PlateSize, err)
		}
		if err := s.challanRepo.DeallocateReturn(tx, ret.ClientID, item.PlateSize, item.ReturnedQuantity); err != nil {
			return fmt.Errorf("failed to deallocate return for %s: %w", item.PlateSize, err)
		}
	}
	if err := s.returnRepo.DeleteReturn(tx, returnID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrReturnNotFound
		}
		return fmt.Errorf("failed to delete return challan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit return deletion: %w", err)
	}
	return nil
}

// SuggestNextNumber proposes the next return challan number from the most
// recently created one, using the same numbering policy as issue challans.
func (s *returnService) SuggestNextNumber() (string, error) {
	last, err := s.returnRepo.GetLatestReturnNumber()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NextDocumentNumber(""), nil
		}
		return "", fmt.Errorf("failed to get latest return challan number: %w", err)
	}
	return NextDocumentNumber(last), nil
}
