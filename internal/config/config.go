// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration for the query service.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Language model
	GeminiAPIKey string
	GeminiModel  string // empty means the client default

	// Google API credentials (service account JSON) shared by the
	// analytics and spreadsheet clients.
	CredentialsFile string

	// SEO dataset source
	SpreadsheetURL string // Google Sheets URL or bare spreadsheet ID
	SheetName      string // empty means the first sheet
	CSVExportURL   string // optional published-CSV fallback source

	// Snapshot cache
	SnapshotTTL     time.Duration // staleness window (default 5m)
	RefreshSchedule string        // cron spec for pre-warming, empty disables

	// Timeouts
	LLMTimeout     time.Duration // per model call (default 20s)
	BackendTimeout time.Duration // per backend call (default 30s)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 10)
	RateLimitBurst int     // burst capacity (default 20)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

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

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasSheetSource returns true when at least one SEO dataset source is
// configured.
func (c *Config) HasSheetSource() bool {
	return c.SpreadsheetURL != "" || c.CSVExportURL != ""
}

// LoadFromEnv loads configuration from environment variables and applies
// defaults. Misconfigurations that only degrade functionality become
// warnings; production-mode insecure defaults are fatal.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Env:             os.Getenv("ENV"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		SpreadsheetURL:  os.Getenv("SEO_SPREADSHEET_URL"),
		SheetName:       os.Getenv("SEO_SHEET_NAME"),
		CSVExportURL:    os.Getenv("SEO_CSV_EXPORT_URL"),
		RefreshSchedule: os.Getenv("SNAPSHOT_REFRESH_CRON"),
	}

	if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SnapshotTTL = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid SNAPSHOT_TTL %q, using default", v))
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLMTimeout = d
		}
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BackendTimeout = d
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SnapshotTTL == 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 20 * time.Second
	}
	if cfg.BackendTimeout == 0 {
		cfg.BackendTimeout = 30 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.GeminiAPIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "GEMINI_API_KEY not set; query planning will fall back to default plans")
	}
	if cfg.CredentialsFile == "" {
		cfg.Warnings = append(cfg.Warnings, "GOOGLE_APPLICATION_CREDENTIALS not set; analytics and Sheets access disabled")
	}
	if !cfg.HasSheetSource() {
		cfg.Warnings = append(cfg.Warnings, "no SEO dataset source configured; set SEO_SPREADSHEET_URL or SEO_CSV_EXPORT_URL")
	}

	// Production mode: insecure or crippled defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY must be set in production (ENV=production)")
		}
		if !cfg.HasSheetSource() {
			return nil, fmt.Errorf("an SEO dataset source must be configured in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
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
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
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
