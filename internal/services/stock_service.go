package services

import (
	"database/sql"
	"errors"
	"fmt"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"
)

// --- Custom Service Errors for Stock ---
var (
	ErrUnknownPlateSize = errors.New("unknown plate size")
	ErrStockValidation  = errors.New("stock data validation error")
)

// --- Stock DTOs ---

// UpsertStockRequest carries the manually edited totals for one plate size.
// Available quantity is never set directly: it is recomputed from the new
// total and the current on-rent quantity.
type UpsertStockRequest struct {
	PlateSize     string  `json:"plate_size" binding:"required"`
	TotalQuantity int     `json:"total_quantity"`
	DailyRate     float64 `json:"daily_rate"`
}

// --- StockService Interface ---
type StockService interface {
	GetStock() ([]models.StockItem, error)
	UpsertStock(req UpsertStockRequest) (*models.StockItem, error)
}

type stockService struct {
	stockRepo repositories.StockRepository
	db        *sql.DB
	cfg       *config.Config
}

// NewStockService creates a new instance of StockService.
func NewStockService(repo repositories.StockRepository, db *sql.DB, cfg *config.Config) StockService {
	return &stockService{
		stockRepo: repo,
		db:        db,
		cfg:       cfg,
	}
}

// GetStock returns one row per configured plate size in catalogue order.
// Sizes without a database row yet come back zeroed, so the stock table
// always renders the full catalogue.
func (s *stockService) GetStock() ([]models.StockItem, error) {
	stored, err := s.stockRepo.GetStockItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	bySize := make(map[string]models.StockItem, len(stored))
	for _, item := range stored {
		bySize[item.PlateSize] = item
	}

	items := make([]models.StockItem, 0, len(s.cfg.PlateSizes))
	for _, size := range s.cfg.PlateSizes {
		if item, ok := bySize[size]; ok {
			items = append(items, item)
		} else {
			items = append(items, models.StockItem{
				PlateSize: size,
				DailyRate: s.cfg.DefaultDailyRate,
			})
		}
	}
	return items, nil
}

func (s *stockService) UpsertStock(req UpsertStockRequest) (*models.StockItem, error) {
	if !s.cfg.KnownPlateSize(req.PlateSize) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlateSize, req.PlateSize)
	}
	if req.TotalQuantity < 0 {
		return nil, fmt.Errorf("%w: total quantity cannot be negative", ErrStockValidation)
	}
	if req.DailyRate < 0 {
		return nil, fmt.Errorf("%w: daily rate cannot be negative", ErrStockValidation)
	}

	item := &models.StockItem{
		PlateSize:     req.PlateSize,
		TotalQuantity: req.TotalQuantity,
		DailyRate:     req.DailyRate,
	}
	if err := s.stockRepo.UpsertStockItem(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to upsert stock: %w", err)
	}
	return s.stockRepo.GetStockItemBySize(req.PlateSize)
}
