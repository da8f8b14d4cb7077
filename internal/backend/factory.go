package backend

import (
	"context"
	"fmt"
	"time"

	"moneymanager/internal/log"
	gsource "moneymanager/internal/source/google"
	"moneymanager/internal/source/memory"
	"moneymanager/internal/source/rest"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		now:    time.Now,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client := rest.NewClient(config.APIBaseURL, config.APIToken, config.APITimeout)

	f.logger.InfoContext(ctx, "Initialized REST backend",
		"base_url", config.APIBaseURL,
		"token_configured", config.APIToken != "")

	return &BackendResult{Backend: client}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsource.New(ctx, gsource.Options{
		SpreadsheetID: config.GoogleSpreadsheetID,
		IncomeSheet:   config.GoogleIncomeSheet,
		ExpenseSheet:  config.GoogleExpenseSheet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile, f.now())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{Backend: store}, nil
}
