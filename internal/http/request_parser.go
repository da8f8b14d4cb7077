// Package http serves the reporting JSON API.
//
// This file holds the request parsing and validation helpers shared by the
// handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"moneymanager/internal/core"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

// ErrInvalidRequest marks malformed query parameters or bodies.
var ErrInvalidRequest = errors.New("invalid request")

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using now
// as the default. Unparseable or out of range values fall back to the default.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// ParseIntParam reads an integer query parameter, returning def when absent.
func ParseIntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidRequest, key)
	}
	return n, nil
}

// ParseCountParam is ParseIntParam for ranking sizes: values below 1 are
// rejected.
func ParseCountParam(query url.Values, key string, def int) (int, error) {
	n, err := ParseIntParam(query, key, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %s must be at least 1", ErrInvalidRequest, key)
	}
	return n, nil
}

// ParseLabel maps the series label parameter to a bucket label function.
func ParseLabel(v string) (core.LabelFunc, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "day":
		return core.ShortDayLabel, nil
	case "month":
		return core.MonthLabel, nil
	}
	return nil, fmt.Errorf("%w: label must be day or month", ErrInvalidRequest)
}

// SearchRequest is the body of a filter submission.
type SearchRequest struct {
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Keyword   string `json:"keyword" validate:"max=200"`
	SortField string `json:"sortField" validate:"omitempty,oneof=date amount category"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	// Supersede abandons a search of the same client that is still running.
	Supersede bool `json:"supersede"`
}

// DecodeSearchRequest reads and validates a search body. An empty body is a
// search without filters.
func DecodeSearchRequest(w http.ResponseWriter, r *http.Request) (SearchRequest, error) {
	var req SearchRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("%w: malformed JSON body", ErrInvalidRequest)
		}
	}
	req.Keyword = sanitizeInput(req.Keyword)
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}
	return req, nil
}

// Criteria converts the request into filter criteria for kind.
func (req SearchRequest) Criteria(kind core.Kind) (core.FilterCriteria, error) {
	c := core.FilterCriteria{
		Kind:      kind,
		Keyword:   req.Keyword,
		SortField: core.SortField(req.SortField),
		SortOrder: core.SortOrder(req.SortOrder),
	}
	var err error
	if req.StartDate != "" {
		if c.StartDate, err = time.Parse(dateLayout, req.StartDate); err != nil {
			return c, fmt.Errorf("%w: startDate", ErrInvalidRequest)
		}
	}
	if req.EndDate != "" {
		if c.EndDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
			return c, fmt.Errorf("%w: endDate", ErrInvalidRequest)
		}
	}
	return c, c.Validate()
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// sanitizeInput removes control characters. Whitespace is part of the
// keyword and is kept.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
