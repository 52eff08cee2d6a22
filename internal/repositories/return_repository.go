package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"plate_depot_backend/internal/models"

	"github.com/lib/pq"
)

// ReturnRepository defines the interface for return challan ("Jama") database
// operations.
type ReturnRepository interface {
	CreateReturn(executor SQLExecutor, ret *models.ReturnChallan) (int64, error)
	CreateReturnLineItem(executor SQLExecutor, item *models.ReturnLineItem) (int64, error)
	GetReturnByID(id int64) (*models.ReturnChallan, error)
	GetReturns(filters models.ReturnFilters) ([]models.ReturnChallan, int, error)
	GetReturnsByClient(clientID string, from, to *time.Time) ([]models.ReturnChallan, error)
	GetAllReturns() ([]models.ReturnChallan, error)
	GetLatestReturnNumber() (string, error)
	DeleteReturn(executor SQLExecutor, id int64) error
}

type returnRepository struct {
	db *sql.DB
}

// NewReturnRepository creates a new instance of ReturnRepository.
func NewReturnRepository(db *sql.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) CreateReturn(executor SQLExecutor, ret *models.ReturnChallan) (int64, error) {
	query := `INSERT INTO returns (return_challan_number, client_id, return_date, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		ret.ReturnChallanNumber, ret.ClientID, ret.ReturnDate, ret.CreatedAt,
	).Scan(&ret.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating return challan: %v", ErrDatabaseError, err)
	}
	return ret.ID, nil
}

func (r *returnRepository) CreateReturnLineItem(executor SQLExecutor, item *models.ReturnLineItem) (int64, error) {
	query := `INSERT INTO return_line_items (return_id, plate_size, returned_quantity, damage_notes, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.ReturnID, item.PlateSize, item.ReturnedQuantity, item.DamageNotes, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating return line item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *returnRepository) GetReturnByID(id int64) (*models.ReturnChallan, error) {
	ret := &models.ReturnChallan{}
	var clientName string
	query := `SELECT rt.id, rt.return_challan_number, rt.client_id, c.name, rt.return_date, rt.created_at
	          FROM returns rt
	          JOIN clients c ON c.id = rt.client_id
	          WHERE rt.id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&ret.ID, &ret.ReturnChallanNumber, &ret.ClientID, &clientName,
		&ret.ReturnDate, &ret.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting return challan by ID %d: %v", ErrDatabaseError, id, err)
	}
	ret.ClientName = &clientName

	items, err := r.loadItems([]int64{ret.ID})
	if err != nil {
		return nil, err
	}
	ret.Items = items[ret.ID]
	return ret, nil
}

// GetReturns retrieves return challans matching the filters, newest first,
// with line items attached.
func (r *returnRepository) GetReturns(filters models.ReturnFilters) ([]models.ReturnChallan, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT rt.id, rt.return_challan_number, rt.client_id, c.name, rt.return_date, rt.created_at, COUNT(*) OVER() as total_count
	                          FROM returns rt
	                          JOIN clients c ON c.id = rt.client_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ClientID != nil && *filters.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("rt.client_id = $%d", argCount))
		args = append(args, *filters.ClientID)
		argCount++
	}
	if filters.DateFrom != nil && *filters.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("rt.return_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("rt.return_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY rt.return_date DESC, rt.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying return challans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	returns := []models.ReturnChallan{}
	totalCount := 0
	ids := []int64{}
	for rows.Next() {
		var ret models.ReturnChallan
		var clientName string
		if err := rows.Scan(
			&ret.ID, &ret.ReturnChallanNumber, &ret.ClientID, &clientName,
			&ret.ReturnDate, &ret.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning return challan: %v", ErrDatabaseError, err)
		}
		ret.ClientName = &clientName
		returns = append(returns, ret)
		ids = append(ids, ret.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating return challan rows: %v", ErrDatabaseError, err)
	}

	itemsByID, err := r.loadItems(ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range returns {
		returns[i].Items = itemsByID[returns[i].ID]
	}
	return returns, totalCount, nil
}

// GetReturnsByClient retrieves a client's return challans in chronological
// order, optionally restricted to a date range.
func (r *returnRepository) GetReturnsByClient(clientID string, from, to *time.Time) ([]models.ReturnChallan, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, return_challan_number, client_id, return_date, created_at
	                          FROM returns WHERE client_id = $1`)
	args := []interface{}{clientID}
	argCount := 2

	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND return_date >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND return_date <= $%d", argCount))
		args = append(args, *to)
	}
	queryBuilder.WriteString(" ORDER BY return_date ASC, id ASC")

	return r.queryReturns(queryBuilder.String(), args...)
}

// GetAllReturns retrieves every return challan with items, chronologically.
func (r *returnRepository) GetAllReturns() ([]models.ReturnChallan, error) {
	query := `SELECT id, return_challan_number, client_id, return_date, created_at
	          FROM returns ORDER BY return_date ASC, id ASC`
	return r.queryReturns(query)
}

func (r *returnRepository) queryReturns(query string, args ...interface{}) ([]models.ReturnChallan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying return challans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	returns := []models.ReturnChallan{}
	ids := []int64{}
	for rows.Next() {
		var ret models.ReturnChallan
		if err := rows.Scan(
			&ret.ID, &ret.ReturnChallanNumber, &ret.ClientID,
			&ret.ReturnDate, &ret.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning return challan: %v", ErrDatabaseError, err)
		}
		returns = append(returns, ret)
		ids = append(ids, ret.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating return challan rows: %v", ErrDatabaseError, err)
	}

	itemsByID, err := r.loadItems(ids)
	if err != nil {
		return nil, err
	}
	for i := range returns {
		returns[i].Items = itemsByID[returns[i].ID]
	}
	return returns, nil
}

func (r *returnRepository) loadItems(returnIDs []int64) (map[int64][]models.ReturnLineItem, error) {
	itemsByID := map[int64][]models.ReturnLineItem{}
	if len(returnIDs) == 0 {
		return itemsByID, nil
	}

	query := `SELECT id, return_id, plate_size, returned_quantity, damage_notes, created_at
	          FROM return_line_items WHERE return_id = ANY($1) ORDER BY return_id, id`
	rows, err := r.db.Query(query, pq.Array(returnIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying return line items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ReturnLineItem
		if err := rows.Scan(
			&item.ID, &item.ReturnID, &item.PlateSize, &item.ReturnedQuantity,
			&item.DamageNotes, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning return line item: %v", ErrDatabaseError, err)
		}
		itemsByID[item.ReturnID] = append(itemsByID[item.ReturnID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating return line item rows: %v", ErrDatabaseError, err)
	}
	return itemsByID, nil
}

// GetLatestReturnNumber returns the number of the most recently created
// return challan, or ErrNotFound when none exist.
func (r *returnRepository) GetLatestReturnNumber() (string, error) {
	var number string
	err := r.db.QueryRow(`SELECT return_challan_number FROM returns ORDER BY id DESC LIMIT 1`).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: getting latest return challan number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

// DeleteReturn removes a return challan; its line items cascade.
func (r *returnRepository) DeleteReturn(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM returns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting return challan ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting return challan ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
