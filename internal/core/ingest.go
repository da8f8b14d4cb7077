package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnknownName labels records that arrive without any name.
const UnknownName = "Unknown"

// RawRecord is the loose wire shape of a record as served by the upstream API.
// Every field is optional and accepts any JSON type, so one oddly typed field
// never fails the decode of a whole batch; Ingest turns it into a Record.
type RawRecord struct {
	ID          any          `json:"_id,omitempty"`
	AltID       any          `json:"id,omitempty"`
	Name        any          `json:"name,omitempty"`
	Description any          `json:"description,omitempty"`
	Source      any          `json:"source,omitempty"`
	Amount      any          `json:"amount,omitempty"`
	Date        any          `json:"date,omitempty"`
	CreatedAt   any          `json:"createdAt,omitempty"`
	Icon        any          `json:"icon,omitempty"`
	Category    *RawCategory `json:"category,omitempty"`
	Type        any          `json:"type,omitempty"`
}

// RawCategory accepts either a bare category id or an embedded category object.
type RawCategory struct {
	ID   string
	Name string
	Icon string
	Type string
}

// UnmarshalJSON never fails: a category that cannot be decoded is dropped.
func (c *RawCategory) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		c.ID = strings.TrimSpace(id)
		return nil
	}
	var obj struct {
		ID    any `json:"_id"`
		AltID any `json:"id"`
		Name  any `json:"name"`
		Icon  any `json:"icon"`
		Type  any `json:"type"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil
	}
	c.ID = firstNonEmpty(stringOf(obj.ID), stringOf(obj.AltID))
	c.Name = stringOf(obj.Name)
	c.Icon = stringOf(obj.Icon)
	c.Type = stringOf(obj.Type)
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats seen on the wire. The boolean is false
// for empty or unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateValue accepts a date string in any ParseDate layout, a time.Time,
// or a number of milliseconds since the Unix epoch.
func ParseDateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case string:
		return ParseDate(t)
	case time.Time:
		return t, !t.IsZero()
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// DefaultIcon is the display token used when a record carries none.
func DefaultIcon(k Kind) string {
	if k == Income {
		return "💰"
	}
	return "🧾"
}

// Ingest applies all defaulting for one raw record. It never fails:
// malformed amounts become zero, unknown dates stay zero, missing names become
// UnknownName. The kind comes from the collection the record was fetched from.
func Ingest(raw RawRecord, kind Kind) Record {
	rec := Record{
		ID:     firstNonEmpty(stringOf(raw.ID), stringOf(raw.AltID)),
		Name:   firstNonEmpty(stringOf(raw.Name), stringOf(raw.Description), stringOf(raw.Source), UnknownName),
		Amount: CoerceAmount(raw.Amount),
		Icon:   stringOf(raw.Icon),
		Kind:   kind,
	}
	if t, ok := ParseDateValue(raw.Date); ok {
		rec.Date = t
	} else if t, ok := ParseDateValue(raw.CreatedAt); ok {
		rec.Date = t
	}
	if raw.Category != nil {
		rec.CategoryID = raw.Category.ID
		if raw.Category.Name != "" {
			cat := &Category{
				ID:   raw.Category.ID,
				Name: raw.Category.Name,
				Icon: raw.Category.Icon,
			}
			if k, err := ParseKind(raw.Category.Type); err == nil {
				cat.Type = k
			}
			rec.Category = cat
		}
	}
	if rec.Icon == "" && rec.Category != nil {
		rec.Icon = rec.Category.Icon
	}
	if rec.Icon == "" {
		rec.Icon = DefaultIcon(kind)
	}
	return rec
}

// IngestAll ingests a slice of raw records of the same kind.
func IngestAll(raws []RawRecord, kind Kind) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Ingest(raw, kind))
	}
	return out
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
