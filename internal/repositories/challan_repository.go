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

// ChallanRepository defines the interface for issue challan ("Udhar")
// database operations.
type ChallanRepository interface {
	CreateChallan(executor SQLExecutor, challan *models.Challan) (int64, error)
	CreateChallanItem(executor SQLExecutor, item *models.ChallanItem) (int64, error)
	GetChallanByID(id int64) (*models.Challan, error)
	GetChallans(filters models.ChallanFilters) ([]models.Challan, int, error)
	GetChallansByClient(clientID string, from, to *time.Time) ([]models.Challan, error)
	GetAllChallans() ([]models.Challan, error)
	GetLatestChallanNumber() (string, error)
	DeleteChallan(executor SQLExecutor, id int64) error
	CountOpenChallans() (int, error)
	AllocateReturn(executor SQLExecutor, clientID, plateSize string, quantity int) error
	DeallocateReturn(executor SQLExecutor, clientID, plateSize string, quantity int) error
}

type challanRepository struct {
	db *sql.DB
}

// NewChallanRepository creates a new instance of ChallanRepository.
func NewChallanRepository(db *sql.DB) ChallanRepository {
	return &challanRepository{db: db}
}

func (r *challanRepository) CreateChallan(executor SQLExecutor, challan *models.Challan) (int64, error) {
	query := `INSERT INTO challans (challan_number, client_id, challan_date, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if challan.CreatedAt.IsZero() {
		challan.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		challan.ChallanNumber, challan.ClientID, challan.ChallanDate, challan.CreatedAt,
	).Scan(&challan.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating challan: %v", ErrDatabaseError, err)
	}
	return challan.ID, nil
}

func (r *challanRepository) CreateChallanItem(executor SQLExecutor, item *models.ChallanItem) (int64, error) {
	query := `INSERT INTO challan_items (challan_id, plate_size, borrowed_quantity, returned_quantity, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.ChallanID, item.PlateSize, item.BorrowedQuantity, item.ReturnedQuantity,
		item.Notes, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating challan item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *challanRepository) GetChallanByID(id int64) (*models.Challan, error) {
	challan := &models.Challan{}
	var clientName string
	query := `SELECT ch.id, ch.challan_number, ch.client_id, c.name, ch.challan_date, ch.created_at
	          FROM challans ch
	          JOIN clients c ON c.id = ch.client_id
	          WHERE ch.id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&challan.ID, &challan.ChallanNumber, &challan.ClientID, &clientName,
		&challan.ChallanDate, &challan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting challan by ID %d: %v", ErrDatabaseError, id, err)
	}
	challan.ClientName = &clientName

	items, err := r.loadItems([]int64{challan.ID})
	if err != nil {
		return nil, err
	}
	challan.Items = items[challan.ID]
	return challan, nil
}

// GetChallans retrieves challans matching the filters, newest first, with
// their line items attached. Status is derived in the service layer and is
// not a repository concern.
func (r *challanRepository) GetChallans(filters models.ChallanFilters) ([]models.Challan, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ch.id, ch.challan_number, ch.client_id, c.name, ch.challan_date, ch.created_at, COUNT(*) OVER() as total_count
	                          FROM challans ch
	                          JOIN clients c ON c.id = ch.client_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ClientID != nil && *filters.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("ch.client_id = $%d", argCount))
		args = append(args, *filters.ClientID)
		argCount++
	}
	if filters.DateFrom != nil && *filters.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("ch.challan_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("ch.challan_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY ch.challan_date DESC, ch.id DESC")

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
		return nil, 0, fmt.Errorf("%w: querying challans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	challans := []models.Challan{}
	totalCount := 0
	ids := []int64{}
	for rows.Next() {
		var challan models.Challan
		var clientName string
		if err := rows.Scan(
			&challan.ID, &challan.ChallanNumber, &challan.ClientID, &clientName,
			&challan.ChallanDate, &challan.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning challan: %v", ErrDatabaseError, err)
		}
		challan.ClientName = &clientName
		challans = append(challans, challan)
		ids = append(ids, challan.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating challan rows: %v", ErrDatabaseError, err)
	}

	itemsByID, err := r.loadItems(ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range challans {
		challans[i].Items = itemsByID[challans[i].ID]
	}
	return challans, totalCount, nil
}

// GetChallansByClient retrieves a client's challans in chronological order,
// optionally restricted to a date range. Used by the ledger aggregation and
// the billing calculator.
func (r *challanRepository) GetChallansByClient(clientID string, from, to *time.Time) ([]models.Challan, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, challan_number, client_id, challan_date, created_at
	                          FROM challans WHERE client_id = $1`)
	args := []interface{}{clientID}
	argCount := 2

	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND challan_date >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND challan_date <= $%d", argCount))
		args = append(args, *to)
	}
	queryBuilder.WriteString(" ORDER BY challan_date ASC, id ASC")

	return r.queryChallans(queryBuilder.String(), args...)
}

// GetAllChallans retrieves every challan with items, chronologically. The
// ledger view reduces over the full transaction set on each load.
func (r *challanRepository) GetAllChallans() ([]models.Challan, error) {
	query := `SELECT id, challan_number, client_id, challan_date, created_at
	          FROM challans ORDER BY challan_date ASC, id ASC`
	return r.queryChallans(query)
}

func (r *challanRepository) queryChallans(query string, args ...interface{}) ([]models.Challan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying challans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	challans := []models.Challan{}
	ids := []int64{}
	for rows.Next() {
		var challan models.Challan
		if err := rows.Scan(
			&challan.ID, &challan.ChallanNumber, &challan.ClientID,
			&challan.ChallanDate, &challan.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning challan: %v", ErrDatabaseError, err)
		}
		challans = append(challans, challan)
		ids = append(ids, challan.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating challan rows: %v", ErrDatabaseError, err)
	}

	itemsByID, err := r.loadItems(ids)
	if err != nil {
		return nil, err
	}
	for i := range challans {
		challans[i].Items = itemsByID[challans[i].ID]
	}
	return challans, nil
}

func (r *challanRepository) loadItems(challanIDs []int64) (map[int64][]models.ChallanItem, error) {
	itemsByID := map[int64][]models.ChallanItem{}
	if len(challanIDs) == 0 {
		return itemsByID, nil
	}

	query := `SELECT id, challan_id, plate_size, borrowed_quantity, returned_quantity, notes, created_at
	          FROM challan_items WHERE challan_id = ANY($1) ORDER BY challan_id, id`
	rows, err := r.db.Query(query, pq.Array(challanIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying challan items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ChallanItem
		if err := rows.Scan(
			&item.ID, &item.ChallanID, &item.PlateSize, &item.BorrowedQuantity,
			&item.ReturnedQuantity, &item.Notes, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning challan item: %v", ErrDatabaseError, err)
		}
		itemsByID[item.ChallanID] = append(itemsByID[item.ChallanID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating challan item rows: %v", ErrDatabaseError, err)
	}
	return itemsByID, nil
}

// GetLatestChallanNumber returns the number of the most recently created
// challan, or ErrNotFound when no challans exist.
func (r *challanRepository) GetLatestChallanNumber() (string, error) {
	var number string
	err := r.db.QueryRow(`SELECT challan_number FROM challans ORDER BY id DESC LIMIT 1`).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: getting latest challan number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

// DeleteChallan removes a challan; its items cascade at the database level.
func (r *challanRepository) DeleteChallan(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM challans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting challan ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting challan ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpenChallans counts challans that still have unreturned quantity on at
// least one line item.
func (r *challanRepository) CountOpenChallans() (int, error) {
	var count int
	query := `SELECT COUNT(DISTINCT ch.id)
	          FROM challans ch
	          JOIN challan_items ci ON ci.challan_id = ch.id
	          WHERE ci.borrowed_quantity > ci.returned_quantity`
	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting open challans: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// AllocateReturn distributes a returned quantity across the client's open
// challan items for that plate size, oldest challan first. Quantity beyond
// what is open is left unallocated; the ledger tolerates over-returns.
func (r *challanRepository) AllocateReturn(executor SQLExecutor, clientID, plateSize string, quantity int) error {
	query := `SELECT ci.id, ci.borrowed_quantity, ci.returned_quantity
	          FROM challan_items ci
	          JOIN challans ch ON ch.id = ci.challan_id
	          WHERE ch.client_id = $1 AND ci.plate_size = $2 AND ci.borrowed_quantity > ci.returned_quantity
	          ORDER BY ch.challan_date ASC, ci.id ASC`

	rows, err := executor.Query(query, clientID, plateSize)
	if err != nil {
		return fmt.Errorf("%w: querying open challan items: %v", ErrDatabaseError, err)
	}

	type allocation struct {
		itemID int64
		amount int
	}
	var allocations []allocation
	remaining := quantity
	for rows.Next() {
		if remaining <= 0 {
			break
		}
		var itemID int64
		var borrowed, returned int
		if err := rows.Scan(&itemID, &borrowed, &returned); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scanning open challan item: %v", ErrDatabaseError, err)
		}
		open := borrowed - returned
		take := open
		if remaining < open {
			take = remaining
		}
		allocations = append(allocations, allocation{itemID: itemID, amount: take})
		remaining -= take
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("%w: iterating open challan items: %v", ErrDatabaseError, err)
	}
	rows.Close()

	for _, alloc := range allocations {
		_, err := executor.Exec(
			`UPDATE challan_items SET returned_quantity = returned_quantity + $1 WHERE id = $2`,
			alloc.amount, alloc.itemID,
		)
		if err != nil {
			return fmt.Errorf("%w: allocating return to challan item %d: %v", ErrDatabaseError, alloc.itemID, err)
		}
	}
	return nil
}

// DeallocateReturn reverses AllocateReturn when a return challan is deleted,
// taking allocation back from the newest allocated items first.
func (r *challanRepository) DeallocateReturn(executor SQLExecutor, clientID, plateSize string, quantity int) error {
	query := `SELECT ci.id, ci.returned_quantity
	          FROM challan_items ci
	          JOIN challans ch ON ch.id = ci.challan_id
	          WHERE ch.client_id = $1 AND ci.plate_size = $2 AND ci.returned_quantity > 0
	          ORDER BY ch.challan_date DESC, ci.id DESC`

	rows, err := executor.Query(query, clientID, plateSize)
	if err != nil {
		return fmt.Errorf("%w: querying allocated challan items: %v", ErrDatabaseError, err)
	}

	type allocation struct {
		itemID int64
		amount int
	}
	var allocations []allocation
	remaining := quantity
	for rows.Next() {
		if remaining <= 0 {
			break
		}
		var itemID int64
		var returned int
		if err := rows.Scan(&itemID, &returned); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scanning allocated challan item: %v", ErrDatabaseError, err)
		}
		take := returned
		if remaining < returned {
			take = remaining
		}
		allocations = append(allocations, allocation{itemID: itemID, amount: take})
		remaining -= take
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("%w: iterating allocated challan items: %v", ErrDatabaseError, err)
	}
	rows.Close()

	for _, alloc := range allocations {
		_, err := executor.Exec(
			`UPDATE challan_items SET returned_quantity = returned_quantity - $1 WHERE id = $2`,
			alloc.amount, alloc.itemID,
		)
		if err != nil {
			return fmt.Errorf("%w: deallocating return from challan item %d: %v", ErrDatabaseError, alloc.itemID, err)
		}
	}
	return nil
}
