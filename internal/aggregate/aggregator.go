// Package aggregate maintains the streaming analytical accumulators. An
// Aggregator absorbs cleaned batches one at a time; its finalizers produce
// results equivalent to aggregating the whole cleaned dataset at once (the
// anomaly report is the one documented approximation, see Anomalies).
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// MonthlySales is one row of the monthly summary report.
type MonthlySales struct {
	Month         string  // YYYY-MM
	TotalRevenue  float64 // rounded to 2 decimals
	TotalQuantity int64
	AvgDiscount   float64 // rounded to 2 decimals
}

// ProductRank is one row of the top-products report. RankBy records which
// ranking ("revenue" or "units") put the product into the report.
type ProductRank struct {
	ProductName    string
	TotalRevenue   float64
	TotalUnitsSold int64
	RankBy         string
}

// RegionSales is one row of the per-region summary report.
type RegionSales struct {
	Region        string
	TotalRevenue  float64
	TotalQuantity int64
}

type monthAccum struct {
	revenue     float64
	quantity    float64
	discountSum float64
	rows        int64
}

type productAccum struct {
	name    string
	revenue float64
	units   float64
}

type regionAccum struct {
	region   string
	revenue  float64
	quantity float64
}

// Aggregator owns all partial result structures for the lifetime of a run.
// It is not safe for concurrent use; the pipeline feeds it from a single
// goroutine by design.
type Aggregator struct {
	months map[string]*monthAccum

	// products keeps first-seen order so equal-revenue ranking ties break
	// deterministically (first seen wins under the stable sort).
	products     map[string]*productAccum
	productOrder []string

	regions     map[string]*regionAccum
	regionOrder []string

	// candidates is the bounded pool of high-revenue records: top-K per
	// absorbed batch, re-truncated to K whenever it outgrows 4*K so the pool
	// cannot grow linearly with the number of batches.
	candidates []records.Sale
	batchTopK  int
}

// New builds an aggregator with the given per-batch candidate retention.
func New(cfg config.Aggregate) *Aggregator {
	return &Aggregator{
		months:    make(map[string]*monthAccum),
		products:  make(map[string]*productAccum),
		regions:   make(map[string]*regionAccum),
		batchTopK: cfg.BatchTopK,
	}
}

// Absorb merges one cleaned batch into the running accumulators. Batches
// must arrive in order, one at a time; an empty batch is a no-op.
func (a *Aggregator) Absorb(batch []records.Sale) {
	if len(batch) == 0 {
		return
	}
	for i := range batch {
		rec := &batch[i]

		month := rec.SaleDate.Format("2006-01")
		m := a.months[month]
		if m == nil {
			m = &monthAccum{}
			a.months[month] = m
		}
		m.revenue += rec.Revenue
		m.quantity += rec.Quantity
		m.discountSum += rec.DiscountPercent
		m.rows++

		p := a.products[rec.ProductName]
		if p == nil {
			p = &productAccum{name: rec.ProductName}
			a.products[rec.ProductName] = p
			a.productOrder = append(a.productOrder, rec.ProductName)
		}
		p.revenue += rec.Revenue
		p.units += rec.Quantity

		g := a.regions[rec.Region]
		if g == nil {
			g = &regionAccum{region: rec.Region}
			a.regions[rec.Region] = g
			a.regionOrder = append(a.regionOrder, rec.Region)
		}
		g.revenue += rec.Revenue
		g.quantity += rec.Quantity
	}

	a.absorbCandidates(batch)
}

func (a *Aggregator) absorbCandidates(batch []records.Sale) {
	local := make([]records.Sale, len(batch))
	copy(local, batch)
	sort.SliceStable(local, func(i, j int) bool { return local[i].Revenue > local[j].Revenue })
	if len(local) > a.batchTopK {
		local = local[:a.batchTopK]
	}
	a.candidates = append(a.candidates, local...)

	if len(a.candidates) > 4*a.batchTopK {
		sort.SliceStable(a.candidates, func(i, j int) bool {
			return a.candidates[i].Revenue > a.candidates[j].Revenue
		})
		a.candidates = a.candidates[:a.batchTopK]
	}
}

// MonthlySummary merges the per-month partials into one row per month,
// ascending by month key. The average discount is derived from the running
// (sum, count) pair, so the result is exact regardless of how the input was
// chunked. Returns an empty slice when nothing was absorbed.
func (a *Aggregator) MonthlySummary() []MonthlySales {
	out := make([]MonthlySales, 0, len(a.months))
	for month, m := range a.months {
		out = append(out, MonthlySales{
			Month:         month,
			TotalRevenue:  round2(m.revenue),
			TotalQuantity: int64(m.quantity),
			AvgDiscount:   round2(m.discountSum / float64(m.rows)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopProducts unions the top-n products by revenue with the top-n by units,
// de-duplicated keeping the revenue-ranked occurrence, sorted descending by
// revenue. Equal values keep first-seen product order. Returns an empty
// slice when nothing was absorbed.
func (a *Aggregator) TopProducts(n int) []ProductRank {
	if len(a.products) == 0 || n <= 0 {
		return []ProductRank{}
	}

	byRevenue := make([]*productAccum, 0, len(a.productOrder))
	for _, name := range a.productOrder {
		byRevenue = append(byRevenue, a.products[name])
	}
	byUnits := make([]*productAccum, len(byRevenue))
	copy(byUnits, byRevenue)

	sort.SliceStable(byRevenue, func(i, j int) bool { return byRevenue[i].revenue > byRevenue[j].revenue })
	sort.SliceStable(byUnits, func(i, j int) bool { return byUnits[i].units > byUnits[j].units })

	if len(byRevenue) > n {
		byRevenue = byRevenue[:n]
	}
	if len(byUnits) > n {
		byUnits = byUnits[:n]
	}

	picked := make(map[string]struct{}, 2*n)
	out := make([]ProductRank, 0, 2*n)
	add := func(p *productAccum, rankBy string) {
		if _, dup := picked[p.name]; dup {
			return
		}
		picked[p.name] = struct{}{}
		out = append(out, ProductRank{
			ProductName:    p.name,
			TotalRevenue:   round2(p.revenue),
			TotalUnitsSold: int64(p.units),
			RankBy:         rankBy,
		})
	}
	for _, p := range byRevenue {
		add(p, "revenue")
	}
	for _, p := range byUnits {
		add(p, "units")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out
}

// Anomalies returns the global top-n records by revenue from the candidate
// pool. Because the pool holds only the top-K of each batch, the result is
// exact as long as n <= K and no single batch contained more than K of the
// eventual global winners; with batch sizes far above K this holds in
// practice but is not guaranteed against adversarial input. Returns an
// empty slice when nothing was absorbed.
func (a *Aggregator) Anomalies(n int) []records.Sale {
	if len(a.candidates) == 0 || n <= 0 {
		return []records.Sale{}
	}
	pool := make([]records.Sale, len(a.candidates))
	copy(pool, a.candidates)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Revenue > pool[j].Revenue })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// RegionSummary returns revenue and quantity per region, descending by
// revenue. Returns an empty slice when nothing was absorbed.
func (a *Aggregator) RegionSummary() []RegionSales {
	out := make([]RegionSales, 0, len(a.regionOrder))
	for _, region := range a.regionOrder {
		g := a.regions[region]
		out = append(out, RegionSales{
			Region:        g.region,
			TotalRevenue:  round2(g.revenue),
			TotalQuantity: int64(g.quantity),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out
}

func round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}
