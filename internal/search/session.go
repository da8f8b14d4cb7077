// Package search mediates filter submissions for one client: it guards
// against overlapping requests and drops responses that arrive after a newer
// request was issued.
package search

import (
	"errors"
	"sync"

	"moneymanager/internal/core"
)

// State of a filter session.
type State int

const (
	Idle State = iota
	Searching
	Results
	Empty
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Results:
		return "results"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrBusy is returned by Begin while a search is in flight.
	ErrBusy = errors.New("search already in progress")
	// ErrStale is returned by Resolve for a ticket that is no longer the latest.
	ErrStale = errors.New("stale search response")
)

// Ticket identifies one submitted search.
type Ticket struct {
	Seq uint64
}

// Outcome is what a resolved search displays. Failed searches display as
// empty with HasError set.
type Outcome struct {
	Seq      uint64
	State    State
	Records  []core.Record
	HasError bool
}

// Session is safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	state State
	seq   uint64
	last  Outcome
}

func NewSession() *Session {
	return &Session{last: Outcome{State: Idle, Records: []core.Record{}}}
}

// Begin starts a search. It fails with ErrBusy while another one is in flight.
func (s *Session) Begin() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Searching {
		return Ticket{}, ErrBusy
	}
	return s.issue(), nil
}

// Supersede starts a search even when one is in flight; the in-flight
// response will be rejected as stale.
func (s *Session) Supersede() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue()
}

func (s *Session) issue() Ticket {
	s.seq++
	s.state = Searching
	return Ticket{Seq: s.seq}
}

// Resolve applies the response of ticket. Only the latest ticket may change
// the session; older ones get ErrStale and leave it untouched.
func (s *Session) Resolve(t Ticket, records []core.Record, fetchErr error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.seq || s.state != Searching {
		return Outcome{}, ErrStale
	}
	out := Outcome{Seq: t.Seq, Records: []core.Record{}}
	switch {
	case fetchErr != nil:
		out.State = Failed
		out.HasError = true
	case len(records) == 0:
		out.State = Empty
	default:
		out.State = Results
		out.Records = records
	}
	s.state = out.State
	s.last = out
	return out, nil
}

// Reset returns a resolved session to Idle. It has no effect while searching.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Searching {
		return
	}
	s.state = Idle
	s.last = Outcome{State: Idle, Records: []core.Record{}}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the most recently applied outcome.
func (s *Session) Last() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
