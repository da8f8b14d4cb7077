package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneymanager/internal/core"
	"moneymanager/internal/log"
	"moneymanager/internal/source"
	"moneymanager/internal/storage"
)

const (
	// DefaultTopN is the ranking size used when callers ask for n <= 0.
	DefaultTopN = 5
	// RecentCount is the length of the dashboard's recent transactions list.
	RecentCount = 5
)

// SnapshotStore persists the last successful fetch per kind.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, kind core.Kind, records []core.Record, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context, kind core.Kind) (storage.Snapshot, error)
}

// Status describes how trustworthy a report's data is. Reports never fail:
// a failed fetch yields an empty or snapshot dataset with HasError set.
type Status struct {
	HasError   bool
	AuthFailed bool
	// Stale is set when the data came from a stored snapshot.
	Stale     bool
	FetchedAt time.Time
}

func (s Status) merge(o Status) Status {
	out := Status{
		HasError:   s.HasError || o.HasError,
		AuthFailed: s.AuthFailed || o.AuthFailed,
		Stale:      s.Stale || o.Stale,
		FetchedAt:  s.FetchedAt,
	}
	if out.FetchedAt.IsZero() || (!o.FetchedAt.IsZero() && o.FetchedAt.Before(out.FetchedAt)) {
		out.FetchedAt = o.FetchedAt
	}
	return out
}

type (
	KindReport struct {
		Kind       core.Kind
		Year       int
		Month      int
		Totals     core.Totals
		Series     []core.DateBucket
		Top        []core.Record
		ByCategory []core.CategoryAmount
		Status
	}

	SeriesReport struct {
		Kind    core.Kind
		Buckets []core.DateBucket
		Status
	}

	TopReport struct {
		Kind    core.Kind
		Records []core.Record
		Status
	}

	// Window is a rolling period ending now.
	Window struct {
		Days    int
		Total   decimal.Decimal
		Records []core.Record
		Series  []core.DateBucket
	}

	DashboardReport struct {
		Year    int
		Month   int
		Income  core.Totals
		Expense core.Totals
		Balance decimal.Decimal
		Recent  []core.Record
		// Expense30 covers the last 30 days of expenses, Income60 the last 60
		// days of income.
		Expense30         Window
		Income60          Window
		ExpenseByCategory []core.CategoryAmount
		Status
	}
)

// ReportService builds the derived views from a record source.
type ReportService struct {
	source    source.Fetcher
	snapshots SnapshotStore
	logger    *log.Logger
	now       func() time.Time
}

// NewReportService creates a report service. snapshots may be nil.
func NewReportService(src source.Fetcher, snapshots SnapshotStore, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportService{
		source:    src,
		snapshots: snapshots,
		logger:    logger.WithComponent(log.ComponentReport),
		now:       time.Now,
	}
}

// Records returns every record of kind, failing soft.
func (s *ReportService) Records(ctx context.Context, kind core.Kind) ([]core.Record, Status) {
	return s.fetch(ctx, kind)
}

// Refresh fetches kind and stores a snapshot. Unlike the report methods it
// returns the fetch error.
func (s *ReportService) Refresh(ctx context.Context, kind core.Kind) (int, error) {
	recs, err := s.source.FetchRecords(ctx, kind)
	if err != nil {
		return 0, err
	}
	s.warnMismatches(ctx, kind, recs)
	s.save(ctx, kind, recs)
	return len(recs), nil
}

// Summary reports one kind for the given month.
func (s *ReportService) Summary(ctx context.Context, kind core.Kind, year, month, topN int) KindReport {
	topN = rankSize(topN)
	recs, st := s.fetch(ctx, kind)
	return KindReport{
		Kind:       kind,
		Year:       year,
		Month:      month,
		Totals:     core.Aggregate(recs, year, month),
		Series:     core.GroupByDate(recs, core.ShortDayLabel, s.now()),
		Top:        core.TopN(recs, topN),
		ByCategory: core.Overview(recs, year, month).ByCategory,
		Status:     st,
	}
}

func (s *ReportService) Series(ctx context.Context, kind core.Kind, label core.LabelFunc) SeriesReport {
	recs, st := s.fetch(ctx, kind)
	return SeriesReport{Kind: kind, Buckets: core.GroupByDate(recs, label, s.now()), Status: st}
}

// Top ranks the n largest records of kind. n <= 0 means DefaultTopN, as for
// Summary.
func (s *ReportService) Top(ctx context.Context, kind core.Kind, n int) TopReport {
	recs, st := s.fetch(ctx, kind)
	return TopReport{Kind: kind, Records: core.TopN(recs, rankSize(n)), Status: st}
}

func rankSize(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	return n
}

// Dashboard fetches both kinds concurrently and combines them.
func (s *ReportService) Dashboard(ctx context.Context, year, month int) DashboardReport {
	var (
		income, expense     []core.Record
		incomeSt, expenseSt Status
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		income, incomeSt = s.fetch(gctx, core.Income)
		return nil
	})
	g.Go(func() error {
		expense, expenseSt = s.fetch(gctx, core.Expense)
		return nil
	})
	_ = g.Wait()

	now := s.now()
	incTotals := core.Aggregate(income, year, month)
	expTotals := core.Aggregate(expense, year, month)

	all := make([]core.Record, 0, len(income)+len(expense))
	all = append(all, income...)
	all = append(all, expense...)

	return DashboardReport{
		Year:              year,
		Month:             month,
		Income:            incTotals,
		Expense:           expTotals,
		Balance:           core.Balance(incTotals, expTotals),
		Recent:            core.MostRecent(all, RecentCount),
		Expense30:         window(expense, 30, now),
		Income60:          window(income, 60, now),
		ExpenseByCategory: core.Overview(expense, year, month).ByCategory,
		Status:            incomeSt.merge(expenseSt),
	}
}

func window(recs []core.Record, days int, now time.Time) Window {
	total, in := core.SumSince(recs, now.AddDate(0, 0, -days))
	return Window{
		Days:    days,
		Total:   total,
		Records: core.MostRecent(in, len(in)),
		Series:  core.GroupByDate(in, core.ShortDayLabel, now),
	}
}

// fetch never fails: on error it falls back to the stored snapshot, or to an
// empty set when there is none.
func (s *ReportService) fetch(ctx context.Context, kind core.Kind) ([]core.Record, Status) {
	recs, err := s.source.FetchRecords(ctx, kind)
	if err == nil {
		s.warnMismatches(ctx, kind, recs)
		s.save(ctx, kind, recs)
		return recs, Status{FetchedAt: s.now()}
	}

	errType := log.ErrorTypeNetwork
	if source.IsAuth(err) {
		errType = log.ErrorTypeAuth
	}
	s.logger.Event(ctx, slog.LevelWarn, "Record fetch failed", log.NewFields().
		WithKind(kind.String()).
		WithOperation(log.OpFetch).
		WithError(err, errType))

	st := Status{HasError: true, AuthFailed: source.IsAuth(err)}
	if s.snapshots == nil {
		return []core.Record{}, st
	}
	snap, serr := s.snapshots.LoadSnapshot(ctx, kind)
	if serr != nil {
		if !errors.Is(serr, storage.ErrNoSnapshot) {
			s.logger.WarnContext(ctx, "Snapshot load failed", log.FieldKind, kind, log.FieldError, serr)
		}
		return []core.Record{}, st
	}
	st.Stale = true
	st.FetchedAt = snap.FetchedAt
	return snap.Records, st
}

func (s *ReportService) save(ctx context.Context, kind core.Kind, recs []core.Record) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, kind, recs, s.now()); err != nil {
		s.logger.Event(ctx, slog.LevelWarn, "Snapshot save failed", log.NewFields().
			WithKind(kind.String()).
			WithOperation(log.OpSnapshot).
			WithError(err, log.ErrorTypeDatabase))
	}
}

func (s *ReportService) warnMismatches(ctx context.Context, kind core.Kind, recs []core.Record) {
	n := 0
	for _, r := range recs {
		if r.CategoryMismatch() {
			n++
		}
	}
	if n > 0 {
		s.logger.WarnContext(ctx, "Records reference a category of the other kind",
			log.FieldKind, kind, log.FieldRecords, n)
	}
}
