package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LabelFunc formats a date into a bucket label.
type LabelFunc func(time.Time) string

// ShortDayLabel formats dates like "Jan 5".
func ShortDayLabel(t time.Time) string { return t.Format("Jan 2") }

// MonthLabel formats dates like "Jan 2025".
func MonthLabel(t time.Time) string { return t.Format("Jan 2006") }

// DateBucket groups the records sharing one formatted date label.
type DateBucket struct {
	Label   string
	Date    time.Time // date of the first contributing record
	Total   decimal.Decimal
	Records []Record
}

// GroupByDate buckets records by label(date). Buckets are ordered by the full
// date of their first record, never by the label text, so labels that collide
// across years still sort correctly. Records with unknown dates are treated as
// dated now; callers pass the read time.
func GroupByDate(records []Record, label LabelFunc, now time.Time) []DateBucket {
	if len(records) == 0 {
		return []DateBucket{}
	}
	if label == nil {
		label = ShortDayLabel
	}
	idx := map[string]int{}
	buckets := make([]DateBucket, 0)
	for _, r := range records {
		d := r.dateOr(now)
		l := label(d)
		i, ok := idx[l]
		if !ok {
			i = len(buckets)
			idx[l] = i
			buckets = append(buckets, DateBucket{Label: l, Date: d, Total: decimal.Zero})
		}
		buckets[i].Total = buckets[i].Total.Add(r.Amount)
		buckets[i].Records = append(buckets[i].Records, r)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}
