package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"moneymanager/internal/amqp"
	"moneymanager/internal/core"
	"moneymanager/internal/source"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []core.Kind
	errs  map[core.Kind]error
}

func (f *fakeRefresher) Refresh(_ context.Context, kind core.Kind) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	if err := f.errs[kind]; err != nil {
		return 0, err
	}
	return 3, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestWorker(r Refresher, now time.Time) *RefreshWorker {
	w := NewRefreshWorker(r, time.Minute, nil)
	w.now = func() time.Time { return now }
	return w
}

func TestHandleRefreshMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &fakeRefresher{}
	w := newTestWorker(r, now)

	if err := w.HandleRefreshMessage(context.Background(), &amqp.RefreshMessage{Kind: core.Expense}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.calls) != 1 || r.calls[0] != core.Expense {
		t.Fatalf("unexpected calls %v", r.calls)
	}
	// a request issued before the last refresh is already satisfied
	old := &amqp.RefreshMessage{Kind: core.Expense, RequestedAt: now.Add(-time.Minute)}
	_ = w.HandleRefreshMessage(context.Background(), old)
	if len(r.calls) != 1 {
		t.Fatalf("expected satisfied request to be skipped, calls=%v", r.calls)
	}

	// both kinds when no kind is given
	_ = w.HandleRefreshMessage(context.Background(), &amqp.RefreshMessage{RequestedAt: now.Add(time.Second)})
	if len(r.calls) != 3 {
		t.Fatalf("expected refresh of both kinds, calls=%v", r.calls)
	}
}

func TestHandleRefreshMessageFailureIsNotReturned(t *testing.T) {
	r := &fakeRefresher{errs: map[core.Kind]error{core.Income: source.ErrAuth}}
	w := newTestWorker(r, time.Now())
	if err := w.HandleRefreshMessage(context.Background(), &amqp.RefreshMessage{Kind: core.Income}); err != nil {
		t.Fatalf("failures must not requeue the message, got %v", err)
	}
	// a failed refresh records nothing, so an older request still runs
	old := &amqp.RefreshMessage{Kind: core.Income, RequestedAt: time.Now().Add(-time.Hour)}
	_ = w.HandleRefreshMessage(context.Background(), old)
	if r.count() != 2 {
		t.Fatalf("expected retry after failure, calls=%v", r.calls)
	}
}

func TestRunRefreshesImmediatelyAndStops(t *testing.T) {
	r := &fakeRefresher{errs: map[core.Kind]error{core.Income: errors.New("boom")}}
	w := NewRefreshWorker(r, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for r.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected initial refresh of both kinds, got %d calls", r.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunWithoutIntervalReturns(t *testing.T) {
	r := &fakeRefresher{}
	w := NewRefreshWorker(r, 0, nil)
	w.Run(context.Background())
	if r.count() != 2 {
		t.Fatalf("expected one pass over both kinds, got %d", r.count())
	}
}
