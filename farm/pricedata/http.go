package pricedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultLimit = 10

// HTTPSource queries the public market price API. Each record field arrives
// as a string or number in JSON; values are normalized to strings.
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPSourceOptions configure an HTTPSource.
type HTTPSourceOptions struct {
	Client *http.Client
}

// NewHTTPSource creates a source for the given API endpoint and key.
func NewHTTPSource(baseURL, apiKey string, optFns ...func(o *HTTPSourceOptions)) *HTTPSource {
	opts := HTTPSourceOptions{
		Client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HTTPSource{baseURL: baseURL, apiKey: apiKey, client: opts.Client}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, f Filters) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.buildURL(f), nil)
	if err != nil {
		return nil, fmt.Errorf("price api request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price api fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("price api status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Records []map[string]any `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("price api decode: %w", err)
	}

	records := make([]Record, 0, len(payload.Records))
	for _, raw := range payload.Records {
		rec := make(Record, len(raw))
		for k, v := range raw {
			rec[k] = stringify(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildURL assembles the query: api-key, format=json, paging and one
// filters[field]=value pair per non-empty filter.
func (s *HTTPSource) buildURL(f Filters) string {
	q := url.Values{}
	q.Set("api-key", s.apiKey)
	q.Set("format", "json")
	q.Set("offset", strconv.Itoa(f.Offset))
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	for field, value := range f.fieldFilters() {
		q.Set(fmt.Sprintf("filters[%s]", field), value)
	}
	return s.baseURL + "?" + q.Encode()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
