package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"moneymanager/internal/core"
)

// Data backends selectable through DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendREST   = "rest"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendREST, BackendSheets}

type Config struct {
	// HTTP Server
	Port      string
	RateLimit int

	// Logging
	LogLevel  string
	LogFormat string

	// Record source
	DataBackend string
	APIBaseURL  string
	APIToken    string
	APITimeout  time.Duration
	SeedFile    string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleIncomeSheet   string
	GoogleExpenseSheet  string

	// Snapshot store; empty disables it
	SnapshotDBPath string

	// AMQP; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshInterval time.Duration

	// Reports
	DisplayCurrency string
	TopN            int

	// Filter sessions
	SessionTTL time.Duration
	SessionMax int
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8081"),
		RateLimit: getEnvInt("RATE_LIMIT", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		APIBaseURL:  getEnv("API_BASE_URL", ""),
		APIToken:    getEnv("API_TOKEN", ""),
		APITimeout:  getEnvDuration("API_TIMEOUT", 10*time.Second),
		SeedFile:    getEnv("SEED_FILE", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleIncomeSheet:   getEnv("GOOGLE_INCOME_SHEET", "Income"),
		GoogleExpenseSheet:  getEnv("GOOGLE_EXPENSE_SHEET", "Expenses"),

		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", "./data/moneymanager.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneymanager"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_records"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),

		DisplayCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", "USD")),
		TopN:            getEnvInt("TOP_N", 5),

		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax: getEnvInt("SESSION_MAX", 1000),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimit))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendREST {
		if c.APIBaseURL == "" {
			errors = append(errors, "API base URL is required when using rest backend")
		} else if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http or https URL", c.APIBaseURL))
		}
		if c.APITimeout <= 0 || c.APITimeout > 5*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 0 and 5 minutes", c.APITimeout))
		}
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleIncomeSheet == "" || c.GoogleExpenseSheet == "" {
			errors = append(errors, "Google income and expense sheet names cannot be empty")
		}
	}

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

	// zero disables scheduled refreshes
	if c.RefreshInterval != 0 {
		if c.RefreshInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
		} else if c.RefreshInterval > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
		}
	}

	if !core.IsKnownCurrency(c.DisplayCurrency) {
		errors = append(errors, fmt.Sprintf("unknown display currency '%s'", c.DisplayCurrency))
	}
	if c.TopN < 1 || c.TopN > 100 {
		errors = append(errors, fmt.Sprintf("invalid top N %d: must be between 1 and 100", c.TopN))
	}

	if c.SessionTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 second", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
