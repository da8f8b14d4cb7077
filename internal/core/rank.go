package core

import "sort"

// TopN returns the n largest records by amount. Equal amounts keep their
// input order. The input slice is not modified.
func TopN(records []Record, n int) []Record {
	if n <= 0 || len(records) == 0 {
		return []Record{}
	}
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// MostRecent returns the n newest records. Records with unknown dates sort
// last; ties keep input order.
func MostRecent(records []Record, n int) []Record {
	if n <= 0 || len(records) == 0 {
		return []Record{}
	}
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HasDate() != out[j].HasDate() {
			return out[i].HasDate()
		}
		return out[i].Date.After(out[j].Date)
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
