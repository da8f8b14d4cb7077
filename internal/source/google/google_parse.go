package google

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"moneymanager/internal/core"
)

// Accepted header spellings per column, compared case-insensitively.
var (
	idHeaders       = []string{"ID", "Id"}
	nameHeaders     = []string{"Name", "Description", "Source"}
	amountHeaders   = []string{"Amount", "Value"}
	dateHeaders     = []string{"Date", "Day"}
	categoryHeaders = []string{"Category", "Primary"}
	iconHeaders     = []string{"Icon", "Emoji"}
)

// parseRows turns a values matrix whose first row is a header into raw
// records. Rows with neither a name nor an amount are skipped. A sheet without
// an Amount column yields no records.
func parseRows(values [][]any) []core.RawRecord {
	out := []core.RawRecord{}
	if len(values) == 0 {
		return out
	}
	headers := toStrings(values[0])
	colAmount := indexOfAny(headers, amountHeaders)
	if colAmount == -1 {
		return out
	}
	colID := indexOfAny(headers, idHeaders)
	colName := indexOfAny(headers, nameHeaders)
	colDate := indexOfAny(headers, dateHeaders)
	colCategory := indexOfAny(headers, categoryHeaders)
	colIcon := indexOfAny(headers, iconHeaders)

	for i := 1; i < len(values); i++ {
		row := values[i]
		name := cell(row, colName)
		amount := rawCell(row, colAmount)
		if name == "" && cell(row, colAmount) == "" {
			continue
		}
		raw := core.RawRecord{
			ID:     cell(row, colID),
			Name:   name,
			Amount: amount,
			Date:   dateCell(row, colDate),
			Icon:   cell(row, colIcon),
		}
		if cat := cell(row, colCategory); cat != "" {
			raw.Category = &core.RawCategory{Name: cat}
		}
		out = append(out, raw)
	}
	return out
}

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// dateCell returns a time.Time for serial-number cells (whole days since
// serialEpoch, fraction is time of day) and the trimmed text otherwise.
func dateCell(row []any, idx int) any {
	switch v := rawCell(row, idx).(type) {
	case float64:
		return serialToTime(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return ""
		}
		return serialToTime(f)
	}
	return cell(row, idx)
}

func serialToTime(days float64) time.Time {
	whole := math.Floor(days)
	secs := math.Round((days - whole) * 86400)
	return serialEpoch.AddDate(0, 0, int(whole)).Add(time.Duration(secs) * time.Second)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOfAny(headers []string, names []string) int {
	for _, n := range names {
		for i, h := range headers {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func rawCell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cell(row []any, idx int) string {
	v := rawCell(row, idx)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
