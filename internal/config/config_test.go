package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("MES_DERIVE_QUANTITATIVE_RESULT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.True(t, cfg.Inspection.DeriveQuantitativeResult)
	assert.Empty(t, cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	base := Config{
		Database: DatabaseConfig{Driver: "postgres"},
		Storage:  StorageConfig{Provider: "local"},
		JWT:      JWTConfig{Secret: "x"},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Database.Driver = "mysql"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Storage.Provider = "minio"
	assert.Error(t, bad.Validate(), "minio without endpoint")

	bad = base
	bad.JWT.Secret = ""
	assert.Error(t, bad.Validate())
}
