package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"plate_depot_backend/internal/models"
)

// BillRepository defines the interface for bill database operations.
type BillRepository interface {
	CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error)
	GetBillByID(id int64) (*models.Bill, error)
	GetBills(clientID *string, page, pageSize int) ([]models.Bill, int, error)
	GetPriorBills(clientID string, before time.Time) ([]models.Bill, error)
	UpdateBillStatus(executor SQLExecutor, id int64, status string) error
	DeleteBill(executor SQLExecutor, id int64) error
	GetPendingTotal() (float64, error)
}

type billRepository struct {
	db *sql.DB
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(db *sql.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error) {
	query := `INSERT INTO bills (client_id, period_start, period_end, rental_charge, service_charge, total_amount, payment_status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	if bill.PaymentStatus == "" {
		bill.PaymentStatus = models.BillStatusPending
	}

	err := executor.QueryRow(query,
		bill.ClientID, bill.PeriodStart, bill.PeriodEnd,
		bill.RentalCharge, bill.ServiceCharge, bill.TotalAmount,
		bill.PaymentStatus, bill.CreatedAt,
	).Scan(&bill.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating bill: %v", ErrDatabaseError, err)
	}
	return bill.ID, nil
}

func (r *billRepository) GetBillByID(id int64) (*models.Bill, error) {
	bill := &models.Bill{}
	var clientName string
	query := `SELECT b.id, b.client_id, c.name, b.period_start, b.period_end,
	                 b.rental_charge, b.service_charge, b.total_amount, b.payment_status, b.created_at
	          FROM bills b
	          JOIN clients c ON c.id = b.client_id
	          WHERE b.id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&bill.ID, &bill.ClientID, &clientName, &bill.PeriodStart, &bill.PeriodEnd,
		&bill.RentalCharge, &bill.ServiceCharge, &bill.TotalAmount, &bill.PaymentStatus, &bill.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting bill by ID %d: %v", ErrDatabaseError, id, err)
	}
	bill.ClientName = &clientName
	return bill, nil
}

func (r *billRepository) GetBills(clientID *string, page, pageSize int) ([]models.Bill, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT b.id, b.client_id, c.name, b.period_start, b.period_end,
	                                 b.rental_charge, b.service_charge, b.total_amount, b.payment_status, b.created_at,
	                                 COUNT(*) OVER() as total_count
	                          FROM bills b
	                          JOIN clients c ON c.id = b.client_id`)

	var args []interface{}
	argCount := 1
	if clientID != nil && *clientID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE b.client_id = $%d", argCount))
		args = append(args, *clientID)
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY b.period_end DESC, b.id DESC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (page-1)*pageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying bills: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	bills := []models.Bill{}
	totalCount := 0
	for rows.Next() {
		var bill models.Bill
		var clientName string
		if err := rows.Scan(
			&bill.ID, &bill.ClientID, &clientName, &bill.PeriodStart, &bill.PeriodEnd,
			&bill.RentalCharge, &bill.ServiceCharge, &bill.TotalAmount, &bill.PaymentStatus,
			&bill.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning bill: %v", ErrDatabaseError, err)
		}
		bill.ClientName = &clientName
		bills = append(bills, bill)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating bill rows: %v", ErrDatabaseError, err)
	}
	return bills, totalCount, nil
}

// GetPriorBills retrieves a client's bills whose period ended before the
// given date. The billing calculator uses them to carry forward unpaid
// balances and credit received payments.
func (r *billRepository) GetPriorBills(clientID string, before time.Time) ([]models.Bill, error) {
	query := `SELECT id, client_id, period_start, period_end, rental_charge, service_charge, total_amount, payment_status, created_at
	          FROM bills WHERE client_id = $1 AND period_end < $2
	          ORDER BY period_end ASC`

	rows, err := r.db.Query(query, clientID, before)
	if err != nil {
		return nil, fmt.Errorf("%w: querying prior bills: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	bills := []models.Bill{}
	for rows.Next() {
		var bill models.Bill
		if err := rows.Scan(
			&bill.ID, &bill.ClientID, &bill.PeriodStart, &bill.PeriodEnd,
			&bill.RentalCharge, &bill.ServiceCharge, &bill.TotalAmount, &bill.PaymentStatus, &bill.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning prior bill: %v", ErrDatabaseError, err)
		}
		bills = append(bills, bill)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating prior bill rows: %v", ErrDatabaseError, err)
	}
	return bills, nil
}

func (r *billRepository) UpdateBillStatus(executor SQLExecutor, id int64, status string) error {
	result, err := executor.Exec(`UPDATE bills SET payment_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%w: updating status for bill ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for bill ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *billRepository) DeleteBill(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting bill ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting bill ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPendingTotal sums the amounts of all unpaid bills for the dashboard.
func (r *billRepository) GetPendingTotal() (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM bills WHERE payment_status = $1`
	if err := r.db.QueryRow(query, models.BillStatusPending).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing pending bills: %v", ErrDatabaseError, err)
	}
	return total, nil
}
