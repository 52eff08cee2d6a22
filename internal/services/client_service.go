package services

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound   = errors.New("client not found")
	ErrClientIDExists   = errors.New("client ID already exists")
	ErrClientValidation = errors.New("client data validation error")
	ErrClientInUse      = errors.New("client cannot be deleted as they are referenced in other records")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	ID           string `json:"id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Site         string `json:"site"`
	MobileNumber string `json:"mobile_number"`
}

// UpdateClientRequest carries the mutable fields. The client ID is immutable
// after creation.
type UpdateClientRequest struct {
	Name         *string `json:"name"`
	Site         *string `json:"site"`
	MobileNumber *string `json:"mobile_number"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(req CreateClientRequest) (*models.Client, error)
	GetClientByID(clientID string) (*models.Client, error)
	GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error)
	UpdateClient(clientID string, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(clientID string) error
}

type clientService struct {
	clientRepo repositories.ClientRepository
	db         *sql.DB
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository, db *sql.DB) ClientService {
	return &clientService{
		clientRepo: repo,
		db:         db,
	}
}

var mobileRegex = regexp.MustCompile(`^\+?[0-9\s\-]{7,15}$`)

func validateMobileNumber(mobile string) error {
	if mobile == "" {
		return nil
	}
	if !mobileRegex.MatchString(mobile) {
		return fmt.Errorf("%w: mobile number format is invalid", ErrClientValidation)
	}
	return nil
}

func (s *clientService) CreateClient(req CreateClientRequest) (*models.Client, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: client ID cannot be empty", ErrClientValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: client name cannot be empty", ErrClientValidation)
	}
	if err := validateMobileNumber(strings.TrimSpace(req.MobileNumber)); err != nil {
		return nil, err
	}

	client := &models.Client{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Site:         strings.TrimSpace(req.Site),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
	}

	if err := s.clientRepo.CreateClient(s.db, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrClientIDExists
		}
		return nil, fmt.Errorf("failed to create client in repository: %w", err)
	}
	return s.clientRepo.GetClientByID(client.ID)
}

func (s *clientService) GetClientByID(clientID string) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	clients, totalCount, err := s.clientRepo.GetClients(page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, totalCount, nil
}

func (s *clientService) UpdateClient(clientID string, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: client name cannot be empty", ErrClientValidation)
		}
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.Site != nil {
		client.Site = strings.TrimSpace(*req.Site)
	}
	if req.MobileNumber != nil {
		mobile := strings.TrimSpace(*req.MobileNumber)
		if err := validateMobileNumber(mobile); err != nil {
			return nil, err
		}
		client.MobileNumber = mobile
	}

	if err := s.clientRepo.UpdateClient(s.db, client); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client in repository: %w", err)
	}
	return s.clientRepo.GetClientByID(clientID)
}

func (s *clientService) DeleteClient(clientID string) error {
	if _, err := s.clientRepo.GetClientByID(clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to find client for deletion: %w", err)
	}

	if err := s.clientRepo.DeleteClient(s.db, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return ErrClientInUse
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
