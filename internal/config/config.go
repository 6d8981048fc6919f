// Package config handles environment configuration and the operator-edited
// pipeline definition file.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds environment-scoped configuration: credentials, infrastructure
// paths, and logging. The pipeline definition itself (sources, tiers,
// artifact path) lives in the YAML file loaded by LoadPipelineFile.
type Config struct {
	MetaDBPath   string // path to the SQLite metastore (run history)
	PipelineFile string // path to the pipeline definition YAML
	LogLevel     string // debug, info, warn, error (default "info")
	Env          string // "development" (default) or "production"

	// CRM API access (Little Green Light-style REST endpoint).
	CRMAPIURL    string
	CRMAPIKey    string
	CRMRateRPS   float64 // sustained requests per second against the CRM API
	CRMRateBurst int

	// S3 mirror credentials — nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string // custom endpoint for S3-compatible storage (optional)
	S3Region   *string

	// GCS mirror credentials.
	GCSKeyFile string // service account key file; empty → application default credentials

	// Azure mirror credentials.
	AzureAccountName string
	AzureAccountKey  string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if all required S3 mirror fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil && c.S3Region != nil
}

// HasAzureConfig returns true if Azure shared-key credentials are set.
func (c *Config) HasAzureConfig() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// LoadFromEnv loads configuration from environment variables. Mirror
// credentials are optional — the pipeline can run without any mirrors.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:       os.Getenv("META_DB_PATH"),
		PipelineFile:     os.Getenv("PIPELINE_FILE"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Env:              os.Getenv("ENV"),
		CRMAPIURL:        os.Getenv("CRM_API_URL"),
		CRMAPIKey:        os.Getenv("CRM_API_KEY"),
		GCSKeyFile:       os.Getenv("GCS_KEY_FILE"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	if v := os.Getenv("CRM_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CRMRateRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("CRM_RATE_LIMIT_RPS %q is not a number — using the default", v))
		}
	}
	if v := os.Getenv("CRM_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CRMRateBurst = n
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("CRM_RATE_LIMIT_BURST %q is not an integer — using the default", v))
		}
	}

	// S3 fields are optional — only set if present.
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// Defaults.
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "membership_meta.sqlite"
	}
	if cfg.PipelineFile == "" {
		cfg.PipelineFile = "pipeline.yaml"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.CRMRateRPS == 0 {
		cfg.CRMRateRPS = 2
	}
	if cfg.CRMRateBurst == 0 {
		cfg.CRMRateBurst = 5
	}

	if cfg.CRMAPIURL != "" && cfg.CRMAPIKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("CRM_API_KEY must be set when CRM_API_URL is set (ENV=production)")
		}
		cfg.Warnings = append(cfg.Warnings, "CRM_API_URL is set without CRM_API_KEY — the CLI will prompt for it")
	}
	if (cfg.S3KeyID != nil) != (cfg.S3Secret != nil) {
		return nil, fmt.Errorf("KEY_ID and SECRET must be set together")
	}
	if cfg.AzureAccountName != "" && cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("AZURE_ACCOUNT_KEY must be set when AZURE_ACCOUNT_NAME is set")
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already set take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
