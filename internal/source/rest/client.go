// Package rest provides a record source backed by the money manager REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moneymanager/internal/core"
	"moneymanager/internal/source"
)

// Default collection paths on the upstream API.
const (
	DefaultIncomePath  = "/api/v1/income/get"
	DefaultExpensePath = "/api/v1/expense/get"
	DefaultFilterPath  = "/api/v1/%s/filter"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Ensure interface conformance
var (
	_ source.Fetcher  = (*Client)(nil)
	_ source.Filterer = (*Client)(nil)
)

// Client fetches records from the upstream API. The bearer token is passed in
// at construction; the client never reads ambient session state.
type Client struct {
	baseURL     string
	token       string
	incomePath  string
	expensePath string
	filterPath  string
	httpClient  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithPaths overrides the collection and filter paths. The filter path is a
// printf pattern receiving the kind.
func WithPaths(income, expense, filter string) Option {
	return func(c *Client) {
		if income != "" {
			c.incomePath = income
		}
		if expense != "" {
			c.expensePath = expense
		}
		if filter != "" {
			c.filterPath = filter
		}
	}
}

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new REST record source.
func NewClient(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       strings.TrimSpace(token),
		incomePath:  DefaultIncomePath,
		expensePath: DefaultExpensePath,
		filterPath:  DefaultFilterPath,
		httpClient:  NewHTTPClient(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient creates an HTTP client with connection pooling and the given
// overall request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// FetchRecords implements source.Fetcher.
func (c *Client) FetchRecords(ctx context.Context, kind core.Kind) ([]core.Record, error) {
	var path string
	switch kind {
	case core.Income:
		path = c.incomePath
	case core.Expense:
		path = c.expensePath
	default:
		return nil, fmt.Errorf("fetch records: %w", core.ErrInvalidKind)
	}
	raws, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	return core.IngestAll(raws, kind), nil
}

// ApplyFilter implements source.Filterer.
func (c *Client) ApplyFilter(ctx context.Context, criteria core.FilterCriteria) ([]core.Record, error) {
	if !criteria.Kind.IsValid() {
		return nil, fmt.Errorf("apply filter: %w", core.ErrInvalidKind)
	}
	q := url.Values{}
	q.Set("type", criteria.Kind.String())
	if !criteria.StartDate.IsZero() {
		q.Set("startDate", criteria.StartDate.Format("2006-01-02"))
	}
	if !criteria.EndDate.IsZero() {
		q.Set("endDate", criteria.EndDate.Format("2006-01-02"))
	}
	if criteria.Keyword != "" {
		q.Set("keyword", criteria.Keyword)
	}
	if criteria.SortField != core.SortByNone {
		q.Set("sortField", string(criteria.SortField))
	}
	if criteria.SortOrder != "" {
		q.Set("sortOrder", string(criteria.SortOrder))
	}
	raws, err := c.get(ctx, fmt.Sprintf(c.filterPath, criteria.Kind), q)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", criteria.Kind, err)
	}
	return core.IngestAll(raws, criteria.Kind), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]core.RawRecord, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.DebugContext(ctx, "Upstream request completed",
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", source.ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", source.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", source.ErrNetwork, err)
	}
	raws, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding body: %w", source.ErrNetwork, err)
	}
	return raws, nil
}

// envelopeKeys are the object keys under which the upstream may wrap a
// record list.
var envelopeKeys = []string{"data", "records", "transactions", "income", "incomes", "expense", "expenses"}

// decodeRecords accepts a bare JSON array or an object wrapping one.
func decodeRecords(body []byte) ([]core.RawRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] == '[' {
		return decodeArray(body)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	for _, k := range envelopeKeys {
		if v, ok := obj[k]; ok {
			return decodeArray(v)
		}
	}
	return nil, fmt.Errorf("no record list in response")
}

// decodeArray decodes each element on its own. Elements that are not JSON
// objects are skipped rather than failing the batch.
func decodeArray(b []byte) ([]core.RawRecord, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil, err
	}
	raws := make([]core.RawRecord, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		dec := json.NewDecoder(bytes.NewReader(e))
		dec.UseNumber()
		var raw core.RawRecord
		if err := dec.Decode(&raw); err != nil {
			skipped++
			continue
		}
		raws = append(raws, raw)
	}
	if skipped > 0 {
		slog.Warn("Skipped malformed upstream records", "skipped", skipped, "kept", len(raws))
	}
	return raws, nil
}
