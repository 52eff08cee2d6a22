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

// ClientRepository defines the interface for client-related database
// operations. Client IDs are user-chosen strings and immutable.
type ClientRepository interface {
	CreateClient(executor SQLExecutor, client *models.Client) error
	GetClientByID(id string) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error)
	GetAllClients() ([]models.Client, error)
	UpdateClient(executor SQLExecutor, client *models.Client) error
	DeleteClient(executor SQLExecutor, id string) error
	CountClients() (int, error)
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) CreateClient(executor SQLExecutor, client *models.Client) error {
	query := `INSERT INTO clients (id, name, site, mobile_number, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}

	_, err := executor.Exec(query,
		client.ID, client.Name, client.Site, client.MobileNumber, client.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating client: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *clientRepository) GetClientByID(id string) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT id, name, site, mobile_number, created_at FROM clients WHERE id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&client.ID, &client.Name, &client.Site, &client.MobileNumber, &client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %s: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClients retrieves a page of clients with optional search across id,
// name, site and mobile number.
func (r *clientRepository) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, site, mobile_number, created_at, COUNT(*) OVER() as total_count
	                          FROM clients`)

	var args []interface{}
	argCount := 1

	if searchTerm != nil && *searchTerm != "" {
		searchPattern := "%" + strings.ToLower(*searchTerm) + "%"
		queryBuilder.WriteString(fmt.Sprintf(
			" WHERE (LOWER(id) LIKE $%d OR LOWER(name) LIKE $%d OR LOWER(site) LIKE $%d OR mobile_number LIKE $%d)",
			argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY name ASC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			offset := (page - 1) * pageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var client models.Client
		if err := rows.Scan(
			&client.ID, &client.Name, &client.Site, &client.MobileNumber, &client.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}

	return clients, totalCount, nil
}

// GetAllClients retrieves every client ordered by name. Used by the ledger
// aggregation and the CSV export, which always cover the full client list.
func (r *clientRepository) GetAllClients() ([]models.Client, error) {
	clients := []models.Client{}
	query := `SELECT id, name, site, mobile_number, created_at FROM clients ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying all clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var client models.Client
		if err := rows.Scan(
			&client.ID, &client.Name, &client.Site, &client.MobileNumber, &client.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, nil
}

// UpdateClient updates a client's mutable fields. The ID never changes.
func (r *clientRepository) UpdateClient(executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET name = $1, site = $2, mobile_number = $3 WHERE id = $4`

	result, err := executor.Exec(query,
		client.Name, client.Site, client.MobileNumber, client.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating client ID %s: %v", ErrDatabaseError, client.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating client ID %s: %v", ErrDatabaseError, client.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) DeleteClient(executor SQLExecutor, id string) error {
	query := `DELETE FROM clients WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: client ID %s is referenced by challans, returns or bills (constraint: %s)", ErrForeignKeyViolation, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting client ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting client ID %s: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) CountClients() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting clients: %v", ErrDatabaseError, err)
	}
	return count, nil
}
