package services

import (
	"context"
	"errors"
	"log/slog"

	"moneymanager/internal/cache"
	"moneymanager/internal/core"
	"moneymanager/internal/log"
	"moneymanager/internal/search"
	"moneymanager/internal/source"
)

// FilterService runs filter submissions through a per-client search session.
type FilterService struct {
	fetcher  source.Fetcher
	filterer source.Filterer
	sessions cache.Cache[*search.Session]
	logger   *log.Logger
}

// NewFilterService creates a filter service. When src also implements
// source.Filterer the upstream narrows the set before the local filter runs.
func NewFilterService(src source.Fetcher, sessions cache.Cache[*search.Session], logger *log.Logger) *FilterService {
	if logger == nil {
		logger = log.Discard()
	}
	f := &FilterService{
		fetcher:  src,
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentFilter),
	}
	if fl, ok := src.(source.Filterer); ok {
		f.filterer = fl
	}
	return f
}

// Search validates c and runs it for clientID. Source failures resolve the
// session as Failed and are not returned. The error is non-nil only for
// invalid criteria, search.ErrBusy when a search of this client is already in
// flight and supersede is false, or search.ErrStale when a newer submission
// overtook this one.
func (f *FilterService) Search(ctx context.Context, clientID string, c core.FilterCriteria, supersede bool) (search.Outcome, error) {
	if !c.Kind.IsValid() {
		return search.Outcome{}, core.ErrInvalidKind
	}
	if err := c.Validate(); err != nil {
		return search.Outcome{}, err
	}

	session := f.sessions.GetOrCreate(clientID, search.NewSession)
	var ticket search.Ticket
	if supersede {
		ticket = session.Supersede()
	} else {
		t, err := session.Begin()
		if err != nil {
			return session.Last(), err
		}
		ticket = t
	}

	recs, err := f.run(ctx, c)
	out, rerr := session.Resolve(ticket, recs, err)
	if errors.Is(rerr, search.ErrStale) {
		f.logger.DebugContext(ctx, "Discarded stale search response",
			log.FieldClientID, clientID, log.FieldSeq, ticket.Seq)
		return search.Outcome{}, rerr
	}

	fields := log.NewFields().
		With(log.FieldClientID, clientID).
		With(log.FieldSeq, out.Seq).
		With(log.FieldState, out.State.String()).
		With(log.FieldRecords, len(out.Records)).
		WithKind(c.Kind.String()).
		WithOperation(log.OpFilter)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
		fields.WithError(err, log.ErrorTypeNetwork)
	}
	f.logger.Event(ctx, level, "Search resolved", fields)
	return out, nil
}

// State returns the current session state of clientID without creating one.
func (f *FilterService) State(clientID string) (search.Outcome, bool) {
	s, ok := f.sessions.Get(clientID)
	if !ok {
		return search.Outcome{}, false
	}
	return s.Last(), true
}

// Reset returns the session of clientID to idle and reports its state
// afterwards. A search still in flight is left alone.
func (f *FilterService) Reset(clientID string) (search.Outcome, bool) {
	s, ok := f.sessions.Get(clientID)
	if !ok {
		return search.Outcome{}, false
	}
	s.Reset()
	return s.Last(), true
}

func (f *FilterService) run(ctx context.Context, c core.FilterCriteria) ([]core.Record, error) {
	var (
		recs []core.Record
		err  error
	)
	if f.filterer != nil {
		recs, err = f.filterer.ApplyFilter(ctx, c)
	} else {
		recs, err = f.fetcher.FetchRecords(ctx, c.Kind)
	}
	if err != nil {
		return nil, err
	}
	return core.FilterAndSort(recs, c), nil
}
