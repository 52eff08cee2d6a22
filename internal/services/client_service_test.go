package services

import (
	"fmt"
	"testing"

	"plate_depot_backend/internal/models"
	"plate_depot_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
)

type stubClientRepo struct {
	repositories.ClientRepository
	deleteErr error
}

func (s *stubClientRepo) GetClientByID(id string) (*models.Client, error) {
	return &models.Client{ID: id, Name: "Kiran Builders"}, nil
}

func (s *stubClientRepo) DeleteClient(executor repositories.SQLExecutor, id string) error {
	return s.deleteErr
}

func TestDeleteClientMapsForeignKeyViolation(t *testing.T) {
	repo := &stubClientRepo{deleteErr: fmt.Errorf(
		"%w: client ID KO is referenced by challans, returns or bills (constraint: challans_client_id_fkey)",
		repositories.ErrForeignKeyViolation,
	)}
	svc := NewClientService(repo, nil)

	err := svc.DeleteClient("KO")
	assert.ErrorIs(t, err, ErrClientInUse)
}

func TestDeleteClientMapsNotFound(t *testing.T) {
	repo := &stubClientRepo{deleteErr: repositories.ErrNotFound}
	svc := NewClientService(repo, nil)

	err := svc.DeleteClient("KO")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestDeleteClientSucceeds(t *testing.T) {
	svc := NewClientService(&stubClientRepo{}, nil)
	assert.NoError(t, svc.DeleteClient("KO"))
}

func TestValidateMobileNumber(t *testing.T) {
	assert.NoError(t, validateMobileNumber(""))
	assert.NoError(t, validateMobileNumber("+91 98765 43210"))
	assert.NoError(t, validateMobileNumber("079-2657"))
	assert.ErrorIs(t, validateMobileNumber("not-a-number"), ErrClientValidation)
	assert.ErrorIs(t, validateMobileNumber("123"), ErrClientValidation)
}
