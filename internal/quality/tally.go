// Package quality tracks data-quality issue counts across a pipeline run and
// produces the final quality report.
package quality

import "math"

// Issue names one data-quality issue category. The set is fixed; unknown
// names are ignored by Add so rule typos cannot invent counters.
type Issue string

const (
	DuplicateOrders      Issue = "duplicate_orders"
	InvalidQuantity      Issue = "invalid_quantity"
	InvalidPrice         Issue = "invalid_price"
	InvalidDiscount      Issue = "invalid_discount"
	InvalidDate          Issue = "invalid_date"
	MissingValues        Issue = "missing_values"
	NormalizedRegions    Issue = "normalized_regions"
	NormalizedCategories Issue = "normalized_categories"
	RowsProcessed        Issue = "total_rows_processed"
	RowsCleaned          Issue = "total_rows_cleaned"
)

// Issues is the fixed category set in report order.
var Issues = []Issue{
	DuplicateOrders,
	InvalidQuantity,
	InvalidPrice,
	InvalidDiscount,
	InvalidDate,
	MissingValues,
	NormalizedRegions,
	NormalizedCategories,
	RowsProcessed,
	RowsCleaned,
}

// Tally is a monotonically increasing counter set over the fixed issue
// categories. It is owned by the cleaner and never reset mid-run. Not safe
// for concurrent use; the pipeline is single-threaded by design.
type Tally struct {
	counts map[Issue]int64
}

// NewTally returns a tally with every category at zero.
func NewTally() *Tally {
	t := &Tally{counts: make(map[Issue]int64, len(Issues))}
	for _, is := range Issues {
		t.counts[is] = 0
	}
	return t
}

// Add increments an issue counter. Non-positive deltas and unknown issues
// are ignored, keeping every counter non-negative and monotone.
func (t *Tally) Add(issue Issue, delta int64) {
	if delta <= 0 {
		return
	}
	if _, ok := t.counts[issue]; !ok {
		return
	}
	t.counts[issue] += delta
}

// Count returns the current value of one counter.
func (t *Tally) Count(issue Issue) int64 { return t.counts[issue] }

// Report is the final flat quality report, including the derived fields.
type Report struct {
	DuplicateOrders      int64   `json:"duplicate_orders"`
	InvalidQuantity      int64   `json:"invalid_quantity"`
	InvalidPrice         int64   `json:"invalid_price"`
	InvalidDiscount      int64   `json:"invalid_discount"`
	InvalidDate          int64   `json:"invalid_date"`
	MissingValues        int64   `json:"missing_values"`
	NormalizedRegions    int64   `json:"normalized_regions"`
	NormalizedCategories int64   `json:"normalized_categories"`
	TotalRowsProcessed   int64   `json:"total_rows_processed"`
	TotalRowsCleaned     int64   `json:"total_rows_cleaned"`
	RowsRemoved          int64   `json:"rows_removed"`
	QualityScore         float64 `json:"quality_score"`
}

// Snapshot renders the point-in-time report. The quality score is
// cleaned/processed as a percentage rounded to 2 decimals, and exactly 0
// when nothing was processed.
func (t *Tally) Snapshot() Report {
	processed := t.counts[RowsProcessed]
	cleaned := t.counts[RowsCleaned]
	score := 0.0
	if processed > 0 {
		score = math.Round(float64(cleaned)/float64(processed)*100*100) / 100
	}
	return Report{
		DuplicateOrders:      t.counts[DuplicateOrders],
		InvalidQuantity:      t.counts[InvalidQuantity],
		InvalidPrice:         t.counts[InvalidPrice],
		InvalidDiscount:      t.counts[InvalidDiscount],
		InvalidDate:          t.counts[InvalidDate],
		MissingValues:        t.counts[MissingValues],
		NormalizedRegions:    t.counts[NormalizedRegions],
		NormalizedCategories: t.counts[NormalizedCategories],
		TotalRowsProcessed:   processed,
		TotalRowsCleaned:     cleaned,
		RowsRemoved:          processed - cleaned,
		QualityScore:         score,
	}
}
