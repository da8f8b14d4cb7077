package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneymanager/internal/cache"
	"moneymanager/internal/core"
	"moneymanager/internal/search"
	"moneymanager/internal/source"
)

// filteringSource records the criteria it was asked to apply.
type filteringSource struct {
	*fakeSource
	applied []core.FilterCriteria
}

func (f *filteringSource) ApplyFilter(ctx context.Context, c core.FilterCriteria) ([]core.Record, error) {
	f.applied = append(f.applied, c)
	return f.FetchRecords(ctx, c.Kind)
}

// gatedSource blocks each fetch until the test sends records on the channel
// the fetch published through started.
type gatedSource struct {
	started chan chan []core.Record
}

func (g *gatedSource) FetchRecords(ctx context.Context, _ core.Kind) ([]core.Record, error) {
	release := make(chan []core.Record)
	g.started <- release
	select {
	case recs := <-release:
		return recs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newSessions() *cache.LRUCache[*search.Session] {
	return cache.NewLRUCache[*search.Session](16, time.Minute)
}

func TestSearchFiltersAndSorts(t *testing.T) {
	svc := NewFilterService(sampleSource(), newSessions(), nil)
	out, err := svc.Search(context.Background(), "client-1", core.FilterCriteria{
		Kind:      core.Expense,
		SortField: core.SortByAmount,
		SortOrder: core.Desc,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != search.Results || out.HasError {
		t.Fatalf("unexpected outcome %+v", out)
	}
	want := []string{"rent", "trip", "cash", "coffee"}
	for i, id := range want {
		if out.Records[i].ID != id {
			t.Fatalf("record %d = %s, want %s", i, out.Records[i].ID, id)
		}
	}
	if last, ok := svc.State("client-1"); !ok || last.Seq != out.Seq {
		t.Fatalf("session state not kept: %+v %v", last, ok)
	}
	if _, ok := svc.State("someone-else"); ok {
		t.Fatalf("unexpected session for unknown client")
	}
}

func TestResetSession(t *testing.T) {
	svc := NewFilterService(sampleSource(), newSessions(), nil)
	if _, ok := svc.Reset("c"); ok {
		t.Fatalf("reset of unknown client must report no session")
	}
	if _, err := svc.Search(context.Background(), "c", core.FilterCriteria{Kind: core.Expense}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := svc.Reset("c")
	if !ok || out.State != search.Idle || len(out.Records) != 0 {
		t.Fatalf("expected idle session, got %+v %v", out, ok)
	}
	if last, _ := svc.State("c"); last.State != search.Idle {
		t.Fatalf("reset not kept: %+v", last)
	}
}

func TestSearchEmptyAndFailed(t *testing.T) {
	svc := NewFilterService(sampleSource(), newSessions(), nil)
	out, err := svc.Search(context.Background(), "c", core.FilterCriteria{
		Kind:      core.Income,
		StartDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, false)
	if err != nil || out.State != search.Empty || out.HasError || len(out.Records) != 0 {
		t.Fatalf("expected empty outcome, got %+v err=%v", out, err)
	}

	broken := &fakeSource{errs: map[core.Kind]error{core.Income: source.ErrNetwork}}
	svc = NewFilterService(broken, newSessions(), nil)
	out, err = svc.Search(context.Background(), "c", core.FilterCriteria{Kind: core.Income}, false)
	if err != nil {
		t.Fatalf("source failure must not be returned, got %v", err)
	}
	if out.State != search.Failed || !out.HasError || out.Records == nil || len(out.Records) != 0 {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
	// no automatic retry: exactly one fetch
	if broken.calls != 1 {
		t.Fatalf("expected one fetch, got %d", broken.calls)
	}
}

func TestSearchValidation(t *testing.T) {
	svc := NewFilterService(sampleSource(), newSessions(), nil)
	cases := []struct {
		c    core.FilterCriteria
		want error
	}{
		{core.FilterCriteria{}, core.ErrInvalidKind},
		{core.FilterCriteria{Kind: core.Income, SortField: "name"}, core.ErrInvalidSortField},
		{core.FilterCriteria{Kind: core.Income, SortOrder: "sideways"}, core.ErrInvalidSortOrder},
	}
	for _, tc := range cases {
		if _, err := svc.Search(context.Background(), "c", tc.c, false); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
}

func TestSearchUsesUpstreamFilter(t *testing.T) {
	src := &filteringSource{fakeSource: sampleSource()}
	svc := NewFilterService(src, newSessions(), nil)
	c := core.FilterCriteria{Kind: core.Expense, Keyword: "rent"}
	out, err := svc.Search(context.Background(), "c", c, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.applied) != 1 || src.applied[0].Keyword != "rent" {
		t.Fatalf("expected upstream filter call, got %+v", src.applied)
	}
	// local filtering still applies on top of the upstream result
	if len(out.Records) != 1 || out.Records[0].ID != "rent" {
		t.Fatalf("unexpected records %+v", out.Records)
	}
}

func TestSearchBusyAndSupersede(t *testing.T) {
	src := &gatedSource{started: make(chan chan []core.Record)}
	svc := NewFilterService(src, newSessions(), nil)
	c := core.FilterCriteria{Kind: core.Expense}

	type result struct {
		out search.Outcome
		err error
	}
	first := make(chan result, 1)
	go func() {
		out, err := svc.Search(context.Background(), "c", c, false)
		first <- result{out, err}
	}()
	firstRelease := <-src.started

	if _, err := svc.Search(context.Background(), "c", c, false); !errors.Is(err, search.ErrBusy) {
		t.Fatalf("expected ErrBusy while searching, got %v", err)
	}
	// other clients are independent
	other := make(chan result, 1)
	go func() {
		out, err := svc.Search(context.Background(), "other", c, false)
		other <- result{out, err}
	}()
	(<-src.started) <- []core.Record{{ID: "x"}}
	if r := <-other; r.err != nil || r.out.State != search.Results {
		t.Fatalf("other client search failed: %+v", r)
	}

	second := make(chan result, 1)
	go func() {
		out, err := svc.Search(context.Background(), "c", c, true)
		second <- result{out, err}
	}()
	secondRelease := <-src.started

	// the newer request resolves first, then the old one arrives
	secondRelease <- []core.Record{{ID: "new"}}
	if r := <-second; r.err != nil || r.out.Records[0].ID != "new" {
		t.Fatalf("superseding search failed: %+v", r)
	}
	firstRelease <- []core.Record{{ID: "old"}}
	if r := <-first; !errors.Is(r.err, search.ErrStale) {
		t.Fatalf("expected stale first response, got %+v", r)
	}
	if last, _ := svc.State("c"); last.Records[0].ID != "new" {
		t.Fatalf("stale response was applied: %+v", last)
	}
}
