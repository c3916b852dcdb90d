// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultStoreFile is the store file name inside the workspace.
const DefaultStoreFile = "catalog.sqlite"

// insecureKey is the fallback secret key used when CATGRAPH_ENCRYPTION_KEY is unset.
const insecureKey = "0000000000000000000000000000000000000000000000000000000000000000"

// Config holds the process-level configuration of catgraph.
type Config struct {
	Workspace     string // directory holding the store, histories and config.yaml (default "data")
	StorePath     string // path of the SQLite triple store (default <workspace>/catalog.sqlite)
	LogLevel      string // log level: debug, info, warn, error (default "info")
	LogFormat     string // "text" (default) or "json"
	EncryptionKey string // 64-char hex string (32-byte AES key) for the stored catalog password
	HistorySize   int    // capacity of the query and import histories (default 100)
	TemplatesFile string // optional queries.csv replacing the built-in reconstruction queries

	// Catalog connection overrides. Empty values fall back to config.yaml.
	CatalogHost     string
	CatalogTenant   string
	CatalogUser     string
	CatalogPassword string
	CatalogAPIPath  string

	// Catalog client tuning.
	CatalogTimeout     time.Duration
	CatalogMaxRetries  int
	CatalogRPS         float64
	CatalogConcurrency int
	SkipTags           bool
	SkipLineage        bool

	// Export sink credentials. S3 fields are optional, nil when not configured.
	S3KeyID            *string
	S3Secret           *string
	S3Endpoint         *string
	S3Region           *string
	GCSCredentialsFile string
	AzureAccount       string
	AzureKey           string

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

// HasS3Config returns true if the static S3 credentials are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil && c.S3Region != nil
}

// WorkspaceFile returns the path of name inside the workspace directory.
func (c *Config) WorkspaceFile(name string) string {
	return filepath.Join(c.Workspace, name)
}

// LoadFromEnv loads configuration from CATGRAPH_* environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Workspace:          os.Getenv("CATGRAPH_WORKSPACE"),
		StorePath:          os.Getenv("CATGRAPH_STORE"),
		LogLevel:           os.Getenv("CATGRAPH_LOG_LEVEL"),
		LogFormat:          strings.ToLower(os.Getenv("CATGRAPH_LOG_FORMAT")),
		EncryptionKey:      os.Getenv("CATGRAPH_ENCRYPTION_KEY"),
		TemplatesFile:      os.Getenv("CATGRAPH_TEMPLATES"),
		CatalogHost:        os.Getenv("CATGRAPH_CATALOG_HOST"),
		CatalogTenant:      os.Getenv("CATGRAPH_CATALOG_TENANT"),
		CatalogUser:        os.Getenv("CATGRAPH_CATALOG_USER"),
		CatalogPassword:    os.Getenv("CATGRAPH_CATALOG_PASSWORD"),
		CatalogAPIPath:     os.Getenv("CATGRAPH_CATALOG_API_PATH"),
		SkipTags:           parseBoolEnvDefault("CATGRAPH_SKIP_TAGS", false),
		SkipLineage:        parseBoolEnvDefault("CATGRAPH_SKIP_LINEAGE", false),
		GCSCredentialsFile: os.Getenv("CATGRAPH_GCS_CREDENTIALS_FILE"),
		AzureAccount:       os.Getenv("CATGRAPH_AZURE_ACCOUNT"),
		AzureKey:           os.Getenv("CATGRAPH_AZURE_KEY"),
		CatalogMaxRetries:  2,
	}

	if v := os.Getenv("CATGRAPH_HISTORY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("CATGRAPH_HISTORY_SIZE must be a positive integer, got %q", v)
		}
		cfg.HistorySize = n
	}
	if v := os.Getenv("CATGRAPH_CATALOG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse CATGRAPH_CATALOG_TIMEOUT: %w", err)
		}
		cfg.CatalogTimeout = d
	}
	if v := os.Getenv("CATGRAPH_CATALOG_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CatalogMaxRetries = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid CATGRAPH_CATALOG_RETRIES %q", v))
		}
	}
	if v := os.Getenv("CATGRAPH_CATALOG_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CatalogRPS = f
		}
	}
	if v := os.Getenv("CATGRAPH_CATALOG_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CatalogConcurrency = n
		}
	}

	// S3 fields are optional, only set if present
	if v := os.Getenv("CATGRAPH_S3_KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("CATGRAPH_S3_SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("CATGRAPH_S3_ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("CATGRAPH_S3_REGION"); v != "" {
		cfg.S3Region = &v
	}

	// Defaults
	if cfg.Workspace == "" {
		cfg.Workspace = "data"
	}
	if cfg.StorePath == "" {
		cfg.StorePath = cfg.WorkspaceFile(DefaultStoreFile)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("CATGRAPH_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 100
	}
	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = insecureKey
		cfg.Warnings = append(cfg.Warnings, "CATGRAPH_ENCRYPTION_KEY not set, stored catalog passwords use an insecure default key")
	}
	if (cfg.AzureAccount == "") != (cfg.AzureKey == "") {
		cfg.Warnings = append(cfg.Warnings, "CATGRAPH_AZURE_ACCOUNT and CATGRAPH_AZURE_KEY must be set together, az:// exports are disabled")
		cfg.AzureAccount, cfg.AzureKey = "", ""
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
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
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// env vars take precedence
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
