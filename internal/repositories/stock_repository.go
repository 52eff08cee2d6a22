package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plate_depot_backend/internal/models"

	"github.com/lib/pq"
)

// StockRepository defines the interface for stock-level database operations.
// AdjustOnRent is the single write path that keeps available_quantity equal to
// total_quantity - on_rent_quantity while challans are issued and returned.
type StockRepository interface {
	GetStockItems() ([]models.StockItem, error)
	GetStockItemBySize(plateSize string) (*models.StockItem, error)
	UpsertStockItem(executor SQLExecutor, item *models.StockItem) error
	AdjustOnRent(executor SQLExecutor, plateSize string, delta int) error
	GetDailyRates() (map[string]float64, error)
}

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new instance of StockRepository.
func NewStockRepository(db *sql.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetStockItems() ([]models.StockItem, error) {
	items := []models.StockItem{}
	query := `SELECT id, plate_size, total_quantity, available_quantity, on_rent_quantity, daily_rate, updated_at
	          FROM stock ORDER BY id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.StockItem
		if err := rows.Scan(
			&item.ID, &item.PlateSize, &item.TotalQuantity, &item.AvailableQuantity,
			&item.OnRentQuantity, &item.DailyRate, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning stock item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *stockRepository) GetStockItemBySize(plateSize string) (*models.StockItem, error) {
	item := &models.StockItem{}
	query := `SELECT id, plate_size, total_quantity, available_quantity, on_rent_quantity, daily_rate, updated_at
	          FROM stock WHERE plate_size = $1`

	err := r.db.QueryRow(query, plateSize).Scan(
		&item.ID, &item.PlateSize, &item.TotalQuantity, &item.AvailableQuantity,
		&item.OnRentQuantity, &item.DailyRate, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting stock for plate size %s: %v", ErrDatabaseError, plateSize, err)
	}
	return item, nil
}

// UpsertStockItem writes the manually edited totals for one plate size.
// available_quantity is recomputed from the new total and the current on-rent
// quantity, which manual edits never touch.
func (r *stockRepository) UpsertStockItem(executor SQLExecutor, item *models.StockItem) error {
	query := `INSERT INTO stock (plate_size, total_quantity, available_quantity, on_rent_quantity, daily_rate, updated_at)
	          VALUES ($1, $2, $2, 0, $3, $4)
	          ON CONFLICT (plate_size) DO UPDATE
	          SET total_quantity = EXCLUDED.total_quantity,
	              available_quantity = EXCLUDED.total_quantity - stock.on_rent_quantity,
	              daily_rate = EXCLUDED.daily_rate,
	              updated_at = EXCLUDED.updated_at`

	item.UpdatedAt = time.Now()
	_, err := executor.Exec(query, item.PlateSize, item.TotalQuantity, item.DailyRate, item.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return fmt.Errorf("%w: upserting stock for plate size %s: %v", ErrDatabaseError, item.PlateSize, err)
	}
	return nil
}

// AdjustOnRent shifts the on-rent quantity for one plate size by delta
// (positive on issue, negative on return) and keeps available_quantity in
// sync. A plate size with no stock row yet gets one with zero totals, so an
// issue against unrecorded stock shows up as a negative availability instead
// of being silently dropped.
func (r *stockRepository) AdjustOnRent(executor SQLExecutor, plateSize string, delta int) error {
	query := `INSERT INTO stock (plate_size, total_quantity, available_quantity, on_rent_quantity, daily_rate, updated_at)
	          VALUES ($1, 0, $2, $3, 0, $4)
	          ON CONFLICT (plate_size) DO UPDATE
	          SET on_rent_quantity = stock.on_rent_quantity + EXCLUDED.on_rent_quantity,
	              available_quantity = stock.total_quantity - (stock.on_rent_quantity + EXCLUDED.on_rent_quantity),
	              updated_at = EXCLUDED.updated_at`

	_, err := executor.Exec(query, plateSize, -delta, delta, time.Now())
	if err != nil {
		return fmt.Errorf("%w: adjusting on-rent quantity for plate size %s by %d: %v", ErrDatabaseError, plateSize, delta, err)
	}
	return nil
}

// GetDailyRates returns the rate table used by the billing calculator, keyed
// by plate size. Sizes without a stock row simply have no entry; callers fall
// back to the configured default rate.
func (r *stockRepository) GetDailyRates() (map[string]float64, error) {
	rates := map[string]float64{}
	rows, err := r.db.Query(`SELECT plate_size, daily_rate FROM stock`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily rates: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var size string
		var rate float64
		if err := rows.Scan(&size, &rate); err != nil {
			return nil, fmt.Errorf("%w: scanning daily rate: %v", ErrDatabaseError, err)
		}
		rates[size] = rate
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rate rows: %v", ErrDatabaseError, err)
	}
	return rates, nil
}
