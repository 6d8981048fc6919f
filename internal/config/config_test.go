package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearPipelineEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "membership_meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, "pipeline.yaml", cfg.PipelineFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2.0, cfg.CRMRateRPS)
	assert.Equal(t, 5, cfg.CRMRateBurst)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.HasS3Config())
	assert.False(t, cfg.HasAzureConfig())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("META_DB_PATH", "/tmp/meta.sqlite")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CRM_API_URL", "https://api.example.org/v2")
	t.Setenv("CRM_API_KEY", "secret")
	t.Setenv("CRM_RATE_LIMIT_RPS", "0.5")
	t.Setenv("CRM_RATE_LIMIT_BURST", "2")
	t.Setenv("KEY_ID", "AK")
	t.Setenv("SECRET", "SK")
	t.Setenv("REGION", "eu-central-1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 0.5, cfg.CRMRateRPS)
	assert.Equal(t, 2, cfg.CRMRateBurst)
	assert.True(t, cfg.HasS3Config())
}

func TestLoadFromEnv_CRMKeyMissing(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("CRM_API_URL", "https://api.example.org/v2")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "CRM_API_KEY")

	// Fatal in production.
	t.Setenv("ENV", "production")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRM_API_KEY")
}

func TestLoadFromEnv_BadRateLimitsWarn(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("CRM_RATE_LIMIT_RPS", "fast")
	t.Setenv("CRM_RATE_LIMIT_BURST", "2.5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	// Defaults apply, but the operator is told their override was ignored.
	assert.Equal(t, 2.0, cfg.CRMRateRPS)
	assert.Equal(t, 5, cfg.CRMRateBurst)
	require.Len(t, cfg.Warnings, 2)
	assert.Contains(t, cfg.Warnings[0], "CRM_RATE_LIMIT_RPS")
	assert.Contains(t, cfg.Warnings[1], "CRM_RATE_LIMIT_BURST")
}

func TestLoadFromEnv_PartialS3(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("KEY_ID", "AK")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY_ID and SECRET")
}

func TestLoadDotEnv(t *testing.T) {
	clearPipelineEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nMETA_DB_PATH=/from/file.sqlite\nCRM_API_KEY=\"quoted\"\nBROKEN LINE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Pre-set vars win over the file.
	t.Setenv("META_DB_PATH", "/from/env.sqlite")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "/from/env.sqlite", os.Getenv("META_DB_PATH"))
	assert.Equal(t, "quoted", os.Getenv("CRM_API_KEY"))

	// Missing file is not an error.
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

// clearPipelineEnv unsets every variable LoadFromEnv reads so tests see a
// clean environment regardless of the host shell.
func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"META_DB_PATH", "PIPELINE_FILE", "LOG_LEVEL", "ENV",
		"CRM_API_URL", "CRM_API_KEY", "CRM_RATE_LIMIT_RPS", "CRM_RATE_LIMIT_BURST",
		"KEY_ID", "SECRET", "ENDPOINT", "REGION",
		"GCS_KEY_FILE", "AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
