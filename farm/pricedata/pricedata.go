// Package pricedata fetches commodity market price records for the crop
// price delegate. Sources return raw records; narration is the capability's
// job.
package pricedata

import "context"

// Record is one market price row. Canonical fields follow the upstream
// dataset: state, district, market, commodity, variety, grade, arrival_date,
// min_price, max_price, modal_price.
type Record map[string]string

// Filters narrows a price query. Empty fields are unconstrained. Commodity
// is the canonical crop name; Variety refines it when the caller knows one.
type Filters struct {
	State     string
	District  string
	Market    string
	Commodity string
	Variety   string
	Grade     string
	Offset    int
	Limit     int
}

// Source retrieves market price records.
type Source interface {
	Fetch(ctx context.Context, f Filters) ([]Record, error)
}

// fieldFilters returns the field-name keyed view of the non-empty filters.
func (f Filters) fieldFilters() map[string]string {
	out := make(map[string]string, 6)
	put := func(field, value string) {
		if value != "" {
			out[field] = value
		}
	}
	put("state", f.State)
	put("district", f.District)
	put("market", f.Market)
	put("commodity", f.Commodity)
	put("variety", f.Variety)
	put("grade", f.Grade)
	return out
}
