package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneymanager/internal/core"
	"moneymanager/internal/log"
	"moneymanager/internal/search"
	"moneymanager/internal/services"
)

// ErrRefreshUnavailable is returned when no refresh publisher is configured.
var ErrRefreshUnavailable = errors.New("refresh publishing not configured")

type (
	AmountJSON struct {
		Value   string `json:"value"`
		Display string `json:"display"`
	}

	RecordJSON struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		Amount     AmountJSON `json:"amount"`
		Date       *time.Time `json:"date,omitempty"`
		Icon       string     `json:"icon"`
		Kind       core.Kind  `json:"kind"`
		CategoryID string     `json:"categoryId,omitempty"`
		Category   string     `json:"category,omitempty"`
	}

	TotalsJSON struct {
		Count        int        `json:"count"`
		Total        AmountJSON `json:"total"`
		MonthlyTotal AmountJSON `json:"monthlyTotal"`
		Average      AmountJSON `json:"average"`
	}

	BucketJSON struct {
		Label string     `json:"label"`
		Date  time.Time  `json:"date"`
		Total AmountJSON `json:"total"`
		Count int        `json:"count"`
	}

	CategoryJSON struct {
		Name   string     `json:"name"`
		Amount AmountJSON `json:"amount"`
		Count  int        `json:"count"`
	}

	StatusJSON struct {
		HasError   bool       `json:"hasError"`
		AuthFailed bool       `json:"authFailed"`
		Stale      bool       `json:"stale"`
		FetchedAt  *time.Time `json:"fetchedAt,omitempty"`
	}

	WindowJSON struct {
		Days    int          `json:"days"`
		Total   AmountJSON   `json:"total"`
		Records []RecordJSON `json:"records"`
		Series  []BucketJSON `json:"series"`
	}

	DashboardJSON struct {
		Year              int            `json:"year"`
		Month             int            `json:"month"`
		Income            TotalsJSON     `json:"income"`
		Expense           TotalsJSON     `json:"expense"`
		Balance           AmountJSON     `json:"balance"`
		Recent            []RecordJSON   `json:"recent"`
		Expense30         WindowJSON     `json:"expenseLast30Days"`
		Income60          WindowJSON     `json:"incomeLast60Days"`
		ExpenseByCategory []CategoryJSON `json:"expenseByCategory"`
		Status            StatusJSON     `json:"status"`
	}

	SummaryJSON struct {
		Kind       core.Kind      `json:"kind"`
		Year       int            `json:"year"`
		Month      int            `json:"month"`
		Totals     TotalsJSON     `json:"totals"`
		Series     []BucketJSON   `json:"series"`
		Top        []RecordJSON   `json:"top"`
		ByCategory []CategoryJSON `json:"byCategory"`
		Status     StatusJSON     `json:"status"`
	}

	SeriesJSON struct {
		Kind    core.Kind    `json:"kind"`
		Buckets []BucketJSON `json:"buckets"`
		Status  StatusJSON   `json:"status"`
	}

	TopJSON struct {
		Kind    core.Kind    `json:"kind"`
		Records []RecordJSON `json:"records"`
		Status  StatusJSON   `json:"status"`
	}

	SearchJSON struct {
		Seq      uint64       `json:"seq"`
		State    string       `json:"state"`
		Records  []RecordJSON `json:"records"`
		HasError bool         `json:"hasError"`
	}

	ErrorJSON struct {
		Error string `json:"error"`
	}
)

// presenter renders domain values for the API in one display currency.
type presenter struct {
	currency string
}

func (p presenter) amount(d decimal.Decimal) AmountJSON {
	return AmountJSON{Value: d.StringFixed(2), Display: core.FormatAmount(d, p.currency)}
}

func (p presenter) record(r core.Record) RecordJSON {
	out := RecordJSON{
		ID:         r.ID,
		Name:       r.Name,
		Amount:     p.amount(r.Amount),
		Icon:       r.Icon,
		Kind:       r.Kind,
		CategoryID: r.CategoryID,
		Category:   r.CategoryName(),
	}
	if r.HasDate() {
		d := r.Date
		out.Date = &d
	}
	return out
}

func (p presenter) records(recs []core.Record) []RecordJSON {
	out := make([]RecordJSON, 0, len(recs))
	for _, r := range recs {
		out = append(out, p.record(r))
	}
	return out
}

func (p presenter) totals(t core.Totals) TotalsJSON {
	return TotalsJSON{
		Count:        t.Count,
		Total:        p.amount(t.Total),
		MonthlyTotal: p.amount(t.MonthlyTotal),
		Average:      p.amount(t.Average),
	}
}

func (p presenter) buckets(bs []core.DateBucket) []BucketJSON {
	out := make([]BucketJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, BucketJSON{Label: b.Label, Date: b.Date, Total: p.amount(b.Total), Count: len(b.Records)})
	}
	return out
}

func (p presenter) categories(cs []core.CategoryAmount) []CategoryJSON {
	out := make([]CategoryJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryJSON{Name: c.Name, Amount: p.amount(c.Amount), Count: c.Count})
	}
	return out
}

func (p presenter) window(w services.Window) WindowJSON {
	return WindowJSON{Days: w.Days, Total: p.amount(w.Total), Records: p.records(w.Records), Series: p.buckets(w.Series)}
}

func status(s services.Status) StatusJSON {
	out := StatusJSON{HasError: s.HasError, AuthFailed: s.AuthFailed, Stale: s.Stale}
	if !s.FetchedAt.IsZero() {
		at := s.FetchedAt
		out.FetchedAt = &at
	}
	return out
}

func (p presenter) dashboard(d services.DashboardReport) DashboardJSON {
	return DashboardJSON{
		Year:              d.Year,
		Month:             d.Month,
		Income:            p.totals(d.Income),
		Expense:           p.totals(d.Expense),
		Balance:           p.amount(d.Balance),
		Recent:            p.records(d.Recent),
		Expense30:         p.window(d.Expense30),
		Income60:          p.window(d.Income60),
		ExpenseByCategory: p.categories(d.ExpenseByCategory),
		Status:            status(d.Status),
	}
}

func (p presenter) summary(k services.KindReport) SummaryJSON {
	return SummaryJSON{
		Kind:       k.Kind,
		Year:       k.Year,
		Month:      k.Month,
		Totals:     p.totals(k.Totals),
		Series:     p.buckets(k.Series),
		Top:        p.records(k.Top),
		ByCategory: p.categories(k.ByCategory),
		Status:     status(k.Status),
	}
}

func (p presenter) outcome(o search.Outcome) SearchJSON {
	return SearchJSON{Seq: o.Seq, State: o.State.String(), Records: p.records(o.Records), HasError: o.HasError}
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidSortField),
		errors.Is(err, core.ErrInvalidSortOrder),
		errors.Is(err, core.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrBusy), errors.Is(err, search.ErrStale):
		return http.StatusConflict
	case errors.Is(err, ErrRefreshUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON error body. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		msg = http.StatusText(code)
	}
	writeJSON(w, code, ErrorJSON{Error: msg})
}
