package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken    string
	PollTimeout time.Duration

	// Authorization
	AdminIDs      []int64
	AdminCacheTTL time.Duration

	// HTTP Server
	Port string

	// Ledger storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string
	Timezone     string
	CatalogFile  string

	// Sessions
	SessionBackend string
	RedisURL       string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Transport
	MaxConcurrentUpdates int

	LogLevel string

	// invalidAdminIDs keeps ADMIN_IDS entries that failed to parse so
	// Validate can report them.
	invalidAdminIDs []string
}

func Load() *Config {
	cfg := &Config{
		BotToken:    getEnv("BOT_TOKEN", ""),
		PollTimeout: getEnvDuration("POLL_TIMEOUT", 60*time.Second),

		AdminCacheTTL: getEnvDuration("ADMIN_CACHE_TTL", time.Minute),

		Port: getEnv("PORT", "10000"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fines.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		Timezone:     getEnv("TIMEZONE", "UTC"),
		CatalogFile:  getEnv("CATALOG_FILE", ""),

		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		RedisURL:       getEnv("REDIS_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fines"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fine_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Fines"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		MaxConcurrentUpdates: getEnvInt("MAX_CONCURRENT_UPDATES", 16),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	cfg.AdminIDs, cfg.invalidAdminIDs = parseAdminIDs(os.Getenv("ADMIN_IDS"))

	return cfg
}

// parseAdminIDs splits a comma separated list, skipping blanks.
func parseAdminIDs(raw string) (ids []int64, invalid []string) {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, part)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

// Location resolves Timezone. Validate reports an unknown zone, so callers
// that validated first can ignore the error.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration shared by every binary and returns an
// error listing every problem found.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, bad := range c.invalidAdminIDs {
		errors = append(errors, fmt.Sprintf("invalid admin id '%s': must be a positive integer", bad))
	}

	// Validate data backend
	validBackends := []string{"memory", "postgres", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.CatalogFile != "" {
		if _, err := os.Stat(c.CatalogFile); err != nil {
			errors = append(errors, fmt.Sprintf("catalog file is not readable: %s", c.CatalogFile))
		}
	}

	// Validate session backend
	validSessions := []string{"memory", "redis"}
	if !slices.Contains(validSessions, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validSessions))
	}
	if c.SessionBackend == "redis" {
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when using redis session backend")
		} else if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': scheme must be 'redis' or 'rediss'", c.RedisURL))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AdminCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid admin cache TTL %v: must not be negative", c.AdminCacheTTL))
	}

	if c.MaxConcurrentUpdates < 1 {
		errors = append(errors, fmt.Sprintf("invalid max concurrent updates %d: must be at least 1", c.MaxConcurrentUpdates))
	}

	if c.PollTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll timeout %v: must be at least 1 second", c.PollTimeout))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateBot adds the checks only the chat bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BotToken == "" {
		return fmt.Errorf("configuration validation failed:\n- BOT_TOKEN is required")
	}
	return nil
}

// ValidateWorker adds the checks only the export worker needs.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}

	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the export worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// MaskedBotToken returns the token prefix suitable for startup logs.
func (c *Config) MaskedBotToken() string {
	if len(c.BotToken) <= 10 {
		return strings.Repeat("*", len(c.BotToken))
	}
	return c.BotToken[:10] + "..."
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
