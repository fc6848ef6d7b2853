// Package gen produces synthetic e-commerce sales CSVs with a configurable
// share of injected data quality problems. The output exercises every
// cleaning rule: duplicate order ids, out-of-range numerics, unparsable
// dates, and label variants that the synonym tables should fold.
package gen

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

type product struct {
	name     string
	category string
}

var catalog = []product{
	{"Laptop Pro 15", "Electronics"},
	{"Wireless Mouse", "Electronics"},
	{"USB-C Cable", "Electronics"},
	{"Running Shoes", "Clothing"},
	{"Cotton T-Shirt", "Clothing"},
	{"Garden Hose", "Home & Garden"},
	{"LED Light Bulb", "Home & Garden"},
	{"Basketball", "Sports"},
	{"Yoga Mat", "Sports"},
	{"Mystery Novel", "Books"},
	{"Action Figure", "Toys"},
	{"Coffee Beans", "Food & Beverage"},
}

// Region spellings include the variants the default synonym table resolves.
var regionVariants = []string{
	"North America", "n. america", "N America", "northamerica",
	"Europe", "EU", "europa",
	"Asia", "asian",
	"South America", "s. america", "SA",
	"Africa", "african",
	"Oceania", "australia",
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
}

var issueKinds = []string{
	"duplicate_order",
	"dirty_category",
	"string_quantity",
	"negative_quantity",
	"invalid_price",
	"invalid_discount",
	"null_date",
	"typo_region",
}

// Generator writes synthetic sales rows.
type Generator struct {
	rng       *rand.Rand
	issueRate float64
	start     time.Time
	end       time.Time
}

// New builds a deterministic generator for the given seed. Roughly issueRate
// of the rows get one injected quality problem.
func New(seed int64, issueRate float64) *Generator {
	end := time.Now()
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		issueRate: issueRate,
		start:     end.AddDate(-3, 0, 0),
		end:       end,
	}
}

// WriteCSV generates rows sales records into a CSV file at path, header
// included.
func (g *Generator) WriteCSV(path string, rows int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gen: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(records.Columns); err != nil {
		return fmt.Errorf("gen: write header: %w", err)
	}
	for i := 1; i <= rows; i++ {
		if err := w.Write(g.row(i)); err != nil {
			return fmt.Errorf("gen: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("gen: flush: %w", err)
	}
	return nil
}

// row produces one CSV record in canonical column order.
func (g *Generator) row(n int) []string {
	p := catalog[g.rng.Intn(len(catalog))]
	category := p.category
	region := regionVariants[g.rng.Intn(len(regionVariants))]

	orderID := fmt.Sprintf("ORD%08d", n)
	quantity := strconv.Itoa(1 + g.rng.Intn(10_000))
	unitPrice := strconv.FormatFloat(5+g.rng.Float64()*495, 'f', 2, 64)
	discount := strconv.FormatFloat(g.rng.Float64()*30, 'f', 1, 64)

	days := int(g.end.Sub(g.start).Hours() / 24)
	saleDate := g.start.AddDate(0, 0, g.rng.Intn(days+1))
	dateStr := saleDate.Format(dateLayouts[g.rng.Intn(len(dateLayouts))])

	if g.rng.Float64() < g.issueRate {
		switch issueKinds[g.rng.Intn(len(issueKinds))] {
		case "duplicate_order":
			back := 1 + g.rng.Intn(100)
			orderID = fmt.Sprintf("ORD%08d", n-back)
		case "dirty_category":
			if g.rng.Float64() < 0.5 {
				category = strings.ToLower(category)
			} else {
				category = strings.ReplaceAll(category, "&", "and")
			}
		case "string_quantity":
			quantity = "qty " + quantity
		case "negative_quantity":
			quantity = strconv.Itoa(-(1 + g.rng.Intn(10)))
		case "invalid_price":
			unitPrice = []string{"0", "-10.5", "999999"}[g.rng.Intn(3)]
		case "invalid_discount":
			discount = []string{"-5", "150", "999"}[g.rng.Intn(3)]
		case "null_date":
			dateStr = ""
		case "typo_region":
			region = strings.ToLower(region)
		}
	}

	return []string{
		orderID, p.name, category, quantity, unitPrice,
		discount, region, dateStr,
		"", // revenue is derived by the pipeline
	}
}
