// Package source declares the ports through which income and expense records
// reach the reporting pipeline.
package source

import (
	"context"
	"errors"

	"moneymanager/internal/core"
)

var (
	// ErrNetwork marks transport failures and unexpected upstream responses.
	ErrNetwork = errors.New("record source unreachable")
	// ErrAuth marks a missing, expired or rejected credential.
	ErrAuth = errors.New("record source rejected credentials")
)

// Ports for outbound adapters.
type (
	// Fetcher returns every record of one kind, already ingested.
	Fetcher interface {
		FetchRecords(ctx context.Context, kind core.Kind) ([]core.Record, error)
	}

	// Filterer lets the upstream narrow a record set before the local filter
	// runs. Criteria.Kind selects the collection.
	Filterer interface {
		ApplyFilter(ctx context.Context, criteria core.FilterCriteria) ([]core.Record, error)
	}
)

// IsAuth reports whether err was caused by rejected credentials.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }
