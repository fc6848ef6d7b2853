package cleaner

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// DeDup drops records whose order_id was already seen earlier in the same
// batch, keeping the first occurrence. The seen set is built per Apply call,
// so duplicates spanning two batches are not detected; that is a documented
// limitation of chunked processing, not something this rule tries to fix.
type DeDup struct{}

func (DeDup) Name() string { return "dedup" }

func (DeDup) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	// 64-bit hash keys keep the per-batch seen set small at 100k-row chunks.
	seen := make(map[uint64]struct{}, len(batch))
	out := batch[:0]
	var dropped int64
	for _, r := range batch {
		id := asString(r[records.ColOrderID])
		if id == "" {
			// Unresolved ids are not part of the dedup domain; the
			// critical-field rule handles them.
			out = append(out, r)
			continue
		}
		k := xxh3.HashString(id)
		if _, dup := seen[k]; dup {
			dropped++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	tally.Add(quality.DuplicateOrders, dropped)
	return out
}

// QuantityRange coerces quantity to a number and marks values outside
// [Min, Max] unresolved. Unresolved quantities cause the record to be
// dropped later by RequireResolved.
type QuantityRange struct {
	Min, Max float64
}

func (QuantityRange) Name() string { return "quantity" }

func (q QuantityRange) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	var invalid int64
	for _, r := range batch {
		v, ok := asFloat(r[records.ColQuantity])
		if !ok || v < q.Min || v > q.Max {
			r[records.ColQuantity] = nil
			invalid++
			continue
		}
		r[records.ColQuantity] = v
	}
	tally.Add(quality.InvalidQuantity, invalid)
	return batch
}

// PriceRange coerces unit_price and marks out-of-range values unresolved.
type PriceRange struct {
	Min, Max float64
}

func (PriceRange) Name() string { return "price" }

func (p PriceRange) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	var invalid int64
	for _, r := range batch {
		v, ok := asFloat(r[records.ColUnitPrice])
		if !ok || v < p.Min || v > p.Max {
			r[records.ColUnitPrice] = nil
			invalid++
			continue
		}
		r[records.ColUnitPrice] = v
	}
	tally.Add(quality.InvalidPrice, invalid)
	return batch
}

// DiscountRange coerces discount_percent. Missing or out-of-range values are
// repaired to 0; a bad discount never drops a record.
type DiscountRange struct {
	Min, Max float64
}

func (DiscountRange) Name() string { return "discount" }

func (d DiscountRange) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	var repaired int64
	for _, r := range batch {
		v, ok := asFloat(r[records.ColDiscountPercent])
		if !ok || v < d.Min || v > d.Max {
			r[records.ColDiscountPercent] = float64(0)
			repaired++
			continue
		}
		r[records.ColDiscountPercent] = v
	}
	tally.Add(quality.InvalidDiscount, repaired)
	return batch
}

// DateParse resolves sale_date by trying each layout in priority order; the
// first successful parse wins. Values that no layout accepts stay
// unresolved.
type DateParse struct {
	Layouts []string
}

func (DateParse) Name() string { return "date" }

func (d DateParse) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	var invalid int64
	for _, r := range batch {
		switch v := r[records.ColSaleDate].(type) {
		case time.Time:
			// already parsed
		case string:
			if t, ok := d.parse(strings.TrimSpace(v)); ok {
				r[records.ColSaleDate] = t
			} else {
				r[records.ColSaleDate] = nil
				invalid++
			}
		default:
			r[records.ColSaleDate] = nil
			invalid++
		}
	}
	tally.Add(quality.InvalidDate, invalid)
	return batch
}

func (d DateParse) parse(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range d.Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeLabel replaces known spellings of a label field with the
// canonical label from the synonym table. Lookup keys are folded (trimmed,
// lowercased, diacritics stripped); misses leave the original value
// untouched and are never a drop cause.
type NormalizeLabel struct {
	Field    string
	Synonyms map[string]string
	Counter  quality.Issue
}

func (n NormalizeLabel) Name() string { return "normalize_" + n.Field }

func (n NormalizeLabel) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	var normalized int64
	for _, r := range batch {
		s, ok := r[n.Field].(string)
		if !ok || s == "" {
			continue
		}
		canonical, hit := n.Synonyms[foldLabel(s)]
		if !hit {
			continue
		}
		if canonical != s {
			r[n.Field] = canonical
			normalized++
		}
	}
	tally.Add(n.Counter, normalized)
	return batch
}

var labelFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldLabel builds the synonym lookup key: trim, strip combining marks,
// lowercase.
func foldLabel(s string) string {
	folded, _, err := transform.String(labelFolder, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}

// DeriveRevenue recomputes revenue from the cleaned quantity, price, and
// discount, rounded to 2 decimals. Input revenue values are never trusted.
// Rows with unresolved quantity or price are skipped; they are dropped by
// RequireResolved anyway.
type DeriveRevenue struct{}

func (DeriveRevenue) Name() string { return "revenue" }

func (DeriveRevenue) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	hundred := decimal.NewFromInt(100)
	for _, r := range batch {
		q, qok := asFloat(r[records.ColQuantity])
		p, pok := asFloat(r[records.ColUnitPrice])
		if !qok || !pok {
			continue
		}
		d, _ := asFloat(r[records.ColDiscountPercent])
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(d).Div(hundred))
		rev := decimal.NewFromFloat(q).Mul(decimal.NewFromFloat(p)).Mul(factor).Round(2)
		f, _ := rev.Float64()
		r[records.ColRevenue] = f
	}
	return batch
}

// RequireResolved drops records whose critical fields are still unresolved
// after all repairs. This is the only rule that removes records for
// missing values.
type RequireResolved struct {
	Fields []string
}

func (RequireResolved) Name() string { return "require" }

func (rr RequireResolved) Apply(batch []records.Raw, tally *quality.Tally) []records.Raw {
	out := batch[:0]
	var dropped int64
	for _, r := range batch {
		ok := true
		for _, f := range rr.Fields {
			v := r[f]
			if v == nil || (isString(v) && v.(string) == "") {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		} else {
			dropped++
		}
	}
	tally.Add(quality.MissingValues, dropped)
	return out
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
