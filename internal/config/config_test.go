package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "nilkanthplatdepo@gmail.com", cfg.AdminEmail)
	assert.Len(t, cfg.PlateSizes, 9)
	assert.Equal(t, 10.0, cfg.DefaultDailyRate)
	assert.Equal(t, 5.0, cfg.ServiceChargeRate)
	assert.Equal(t, 50.0, cfg.ServiceChargePerPlate)
	assert.Equal(t, 130.0, cfg.Receipt.Issue.RowHeight)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default().AdminEmail, cfg.AdminEmail)
}

func TestLoadOverridesSelectively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_daily_rate: 12\nadmin_email: boss@example.com\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.DefaultDailyRate)
	assert.Equal(t, "boss@example.com", cfg.AdminEmail)
	// Untouched keys keep their defaults.
	assert.Len(t, cfg.PlateSizes, 9)
	assert.Equal(t, 5.0, cfg.ServiceChargeRate)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plate_sizes: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRoleFor(t *testing.T) {
	cfg := Default()

	assert.Equal(t, RoleAdmin, cfg.RoleFor("nilkanthplatdepo@gmail.com"))
	// Case-insensitive match.
	assert.Equal(t, RoleAdmin, cfg.RoleFor("NilkanthPlatDepo@Gmail.com"))
	assert.Equal(t, RoleViewer, cfg.RoleFor("someone@example.com"))
	assert.Equal(t, RoleViewer, cfg.RoleFor(""))
}

func TestKnownPlateSize(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.KnownPlateSize("2 X 3"))
	assert.True(t, cfg.KnownPlateSize("પતરા"))
	assert.False(t, cfg.KnownPlateSize("4 X 4"))
	assert.False(t, cfg.KnownPlateSize(""))
}
