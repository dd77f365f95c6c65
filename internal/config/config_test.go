package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herd-census/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HERDCENSUS_CONFIG", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "drop", cfg.Engine.UnresolvedPolicy)
	assert.Equal(t, 3, cfg.Engine.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.RetryBaseDelay)
	assert.Equal(t, 10000, cfg.Engine.MaxQuantity)
	assert.Equal(t, "csv", cfg.Records.Driver)
	assert.Equal(t, "dir", cfg.Invoices.Driver)
	assert.Equal(t, "us-east-1", cfg.Invoices.S3.Region)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "census.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
engine:
  retry_base_delay: 250ms
  max_quantity: 500
invoices:
  driver: s3
  s3:
    bucket: herd-invoices
    path_style: true
database:
  dialect: postgres
`), 0o600))

	t.Setenv("HERDCENSUS_ENGINE_UNRESOLVED_POLICY", "global")
	t.Setenv("HERDCENSUS_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.RetryBaseDelay)
	assert.Equal(t, 500, cfg.Engine.MaxQuantity)
	assert.Equal(t, "global", cfg.Engine.UnresolvedPolicy)
	assert.Equal(t, "s3", cfg.Invoices.Driver)
	assert.Equal(t, "herd-invoices", cfg.Invoices.S3.Bucket)
	assert.True(t, cfg.Invoices.S3.PathStyle)
	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
