// Package csvdir writes the pipeline reports as CSV files (plus a JSON
// quality report) into an output directory. This is the default sink.
package csvdir

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Report file names inside the output directory.
const (
	MonthlyFile  = "monthly_sales_summary.csv"
	ProductsFile = "top_products.csv"
	AnomalyFile  = "anomaly_records.csv"
	RegionsFile  = "region_sales.csv"
	QualityFile  = "data_quality_report.json"
)

// Sink writes reports into Dir, creating it if needed.
type Sink struct {
	dir string
}

// New returns a sink rooted at dir.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) WriteMonthly(ctx context.Context, rows []aggregate.MonthlySales) error {
	recs := make([][]string, 0, len(rows)+1)
	recs = append(recs, []string{"month", "total_revenue", "total_quantity", "avg_discount"})
	for _, r := range rows {
		recs = append(recs, []string{
			r.Month,
			formatMoney(r.TotalRevenue),
			strconv.FormatInt(r.TotalQuantity, 10),
			formatMoney(r.AvgDiscount),
		})
	}
	return s.writeCSV(ctx, MonthlyFile, recs)
}

func (s *Sink) WriteTopProducts(ctx context.Context, rows []aggregate.ProductRank) error {
	recs := make([][]string, 0, len(rows)+1)
	recs = append(recs, []string{"product_name", "total_revenue", "total_units_sold", "rank_by"})
	for _, r := range rows {
		recs = append(recs, []string{
			r.ProductName,
			formatMoney(r.TotalRevenue),
			strconv.FormatInt(r.TotalUnitsSold, 10),
			r.RankBy,
		})
	}
	return s.writeCSV(ctx, ProductsFile, recs)
}

func (s *Sink) WriteAnomalies(ctx context.Context, rows []records.Sale) error {
	recs := make([][]string, 0, len(rows)+1)
	recs = append(recs, append([]string(nil), records.Columns...))
	for _, r := range rows {
		recs = append(recs, []string{
			r.OrderID,
			r.ProductName,
			r.Category,
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			formatMoney(r.UnitPrice),
			strconv.FormatFloat(r.DiscountPercent, 'f', -1, 64),
			r.Region,
			r.SaleDate.Format("2006-01-02"),
			formatMoney(r.Revenue),
		})
	}
	return s.writeCSV(ctx, AnomalyFile, recs)
}

func (s *Sink) WriteRegions(ctx context.Context, rows []aggregate.RegionSales) error {
	recs := make([][]string, 0, len(rows)+1)
	recs = append(recs, []string{"region", "total_revenue", "total_quantity"})
	for _, r := range rows {
		recs = append(recs, []string{
			r.Region,
			formatMoney(r.TotalRevenue),
			strconv.FormatInt(r.TotalQuantity, 10),
		})
	}
	return s.writeCSV(ctx, RegionsFile, recs)
}

func (s *Sink) WriteQuality(ctx context.Context, rep quality.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal quality report: %w", err)
	}
	path := filepath.Join(s.dir, QualityFile)
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Sink) writeCSV(ctx context.Context, name string, recs [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(recs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
