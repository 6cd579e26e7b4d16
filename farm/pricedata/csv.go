package pricedata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource serves price records from a local CSV snapshot of the market
// dataset. Used for offline development and tests. Filters match
// case-insensitively on substrings, mirroring how farmers type market names.
type CSVSource struct {
	records []Record
}

// NewCSVSource loads the snapshot file. The first row must be a header.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("price csv open: %w", err)
	}
	defer f.Close()
	return NewCSVSourceFromReader(f)
}

// NewCSVSourceFromReader parses CSV price data from r.
func NewCSVSourceFromReader(r io.Reader) (*CSVSource, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("price csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("price csv row: %w", err)
		}
		rec := make(Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, rec)
	}

	return &CSVSource{records: records}, nil
}

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context, f Filters) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filters := f.fieldFilters()
	var matched []Record
	for _, rec := range s.records {
		if matches(rec, filters) {
			matched = append(matched, rec)
		}
	}

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func matches(rec Record, filters map[string]string) bool {
	for field, want := range filters {
		have, ok := rec[field]
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(have), strings.ToLower(want)) {
			return false
		}
	}
	return true
}
