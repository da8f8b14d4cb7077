// Package cache holds the size- and time-bounded stores used for per-client
// state.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a string-keyed store with expiry.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	// GetOrCreate returns the live entry for key, storing create() when there
	// is none. It is atomic with respect to other calls.
	GetOrCreate(key string, create func() T) T
	Delete(key string)
	Len() int
}

// Cleaner is implemented by caches that can drop expired entries eagerly.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps expired entries out of registered caches.
type Janitor struct {
	caches []Cleaner
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{caches: caches, logger: logger}
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		}
	}
}

// Sweep runs one cleanup pass and returns how many entries were removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
