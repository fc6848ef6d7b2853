// Package cleaner repairs and validates raw sales rows. Cleaning is an
// ordered chain of rules; each rule repairs values in place, marks them
// unresolved (nil), or filters rows, and records what it did in the quality
// tally. Bad data is never fatal; only a missing column in the batch schema
// is.
package cleaner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Rule is one cleaning step. Apply may mutate rows in place and may return a
// shorter slice; tally receives counts for whatever the rule altered or
// rejected. Rules must not keep state across calls so that cleaning stays
// pure per batch.
type Rule interface {
	Name() string
	Apply(batch []records.Raw, tally *quality.Tally) []records.Raw
}

// Chain is an ordered list of rules. Order matters: later rules depend on
// earlier repairs (revenue derivation needs cleaned quantity, price, and
// discount).
type Chain []Rule

// Apply runs every rule in sequence.
func (c Chain) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	out := batch
	for _, r := range c {
		out = r.Apply(out, tally)
	}
	return out
}

// Cleaner owns the quality tally and applies the rule chain batch by batch.
type Cleaner struct {
	chain Chain
	tally *quality.Tally
}

// New builds a cleaner with the standard rule chain for the given bounds and
// synonym tables.
func New(cfg config.Cleaning) *Cleaner {
	return NewWithChain(DefaultChain(cfg))
}

// NewWithChain builds a cleaner around a custom rule chain. Extra rules are
// composed here rather than by subclassing anything.
func NewWithChain(chain Chain) *Cleaner {
	return &Cleaner{chain: chain, tally: quality.NewTally()}
}

// DefaultChain returns the standard cleaning rules in their required order.
func DefaultChain(cfg config.Cleaning) Chain {
	return Chain{
		DeDup{},
		QuantityRange{Min: cfg.MinQuantity, Max: cfg.MaxQuantity},
		PriceRange{Min: cfg.MinPrice, Max: cfg.MaxPrice},
		DiscountRange{Min: cfg.MinDiscount, Max: cfg.MaxDiscount},
		DateParse{Layouts: cfg.DateLayouts},
		NormalizeLabel{Field: records.ColRegion, Synonyms: cfg.RegionSynonyms, Counter: quality.NormalizedRegions},
		NormalizeLabel{Field: records.ColCategory, Synonyms: cfg.CategorySynonyms, Counter: quality.NormalizedCategories},
		DeriveRevenue{},
		RequireResolved{Fields: []string{
			records.ColOrderID,
			records.ColQuantity,
			records.ColUnitPrice,
			records.ColSaleDate,
		}},
	}
}

// Tally exposes the cleaner-owned quality tally for the final report.
func (c *Cleaner) Tally() *quality.Tally { return c.tally }

// Clean applies the rule chain to one batch and returns the surviving rows
// as typed sale records. A batch whose rows lack a required column is a
// structural defect and fails the run.
func (c *Cleaner) Clean(batch []records.Raw) ([]records.Sale, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	for _, col := range records.Required {
		if _, ok := batch[0][col]; !ok {
			return nil, fmt.Errorf("clean: batch schema missing required column %q", col)
		}
	}

	c.tally.Add(quality.RowsProcessed, int64(len(batch)))
	out := c.chain.Apply(batch, c.tally)
	c.tally.Add(quality.RowsCleaned, int64(len(out)))

	sales := make([]records.Sale, 0, len(out))
	for _, r := range out {
		sales = append(sales, records.Sale{
			OrderID:         asString(r[records.ColOrderID]),
			ProductName:     asString(r[records.ColProductName]),
			Category:        asString(r[records.ColCategory]),
			Quantity:        mustFloat(r[records.ColQuantity]),
			UnitPrice:       mustFloat(r[records.ColUnitPrice]),
			DiscountPercent: mustFloat(r[records.ColDiscountPercent]),
			Region:          asString(r[records.ColRegion]),
			SaleDate:        mustTime(r[records.ColSaleDate]),
			Revenue:         mustFloat(r[records.ColRevenue]),
		})
	}
	return sales, nil
}

// --- value coercion helpers ----------------------------------------------

// asFloat converts a raw cell to float64. Rules run on both fresh string
// values and already-typed values (re-cleaning clean data must be a no-op),
// so all numeric shapes are accepted. NaN and infinities are never ok:
// strconv parses "NaN" happily, but a non-finite value slips past every
// min/max comparison and cannot be aggregated.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, isFinite(t)
	case float32:
		return float64(t), isFinite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func mustFloat(v any) float64 {
	f, _ := asFloat(v)
	return f
}

func mustTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
