// Package google reads income and expense records from a Google Sheets
// spreadsheet, one sheet per kind.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"moneymanager/internal/core"
	"moneymanager/internal/source"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ensure interface conformance
var _ source.Fetcher = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	incomeSheet   string
	expenseSheet  string
}

// Options configures the spreadsheet layout.
type Options struct {
	SpreadsheetID string
	IncomeSheet   string
	ExpenseSheet  string
}

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	income := strings.TrimSpace(opts.IncomeSheet)
	if income == "" {
		income = "Income"
	}
	expense := strings.TrimSpace(opts.ExpenseSheet)
	if expense == "" {
		expense = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		incomeSheet:   income,
		expenseSheet:  expense,
	}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credsFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credsJSON != "":
		raw = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(raw),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// FetchRecords implements source.Fetcher.
func (c *Client) FetchRecords(ctx context.Context, kind core.Kind) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	var sheet string
	switch kind {
	case core.Income:
		sheet = c.incomeSheet
	case core.Expense:
		sheet = c.expenseSheet
	default:
		return nil, core.ErrInvalidKind
	}
	rng := fmt.Sprintf("%s!A:Z", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, classify(err))
	}
	return core.IngestAll(parseRows(resp.Values), kind), nil
}

// classify maps Sheets API failures onto the source error kinds.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return fmt.Errorf("%w: %w", source.ErrAuth, err)
	}
	return fmt.Errorf("%w: %w", source.ErrNetwork, err)
}
