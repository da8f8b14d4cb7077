package backend

import (
	"context"
	"time"

	"moneymanager/internal/source"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the record source and an optional cleanup function.
// Backend may also implement source.Filterer.
type BackendResult struct {
	Backend source.Fetcher
	Cleanup CleanupFunc
}

// Factory creates record sources based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// REST specific
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleIncomeSheet   string
	GoogleExpenseSheet  string

	// Memory specific; empty uses the built-in sample data
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
