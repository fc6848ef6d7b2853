package csvdir

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

// TestWriteMonthly checks formatting of the monthly summary file.
func TestWriteMonthly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	rows := []aggregate.MonthlySales{
		{Month: "2024-01", TotalRevenue: 1234.5, TotalQuantity: 42, AvgDiscount: 7.25},
		{Month: "2024-02", TotalRevenue: 0, TotalQuantity: 0, AvgDiscount: 0},
	}
	if err := s.WriteMonthly(context.Background(), rows); err != nil {
		t.Fatal(err)
	}

	got := readCSV(t, filepath.Join(dir, MonthlyFile))
	want := [][]string{
		{"month", "total_revenue", "total_quantity", "avg_discount"},
		{"2024-01", "1234.50", "42", "7.25"},
		{"2024-02", "0.00", "0", "0.00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("monthly file = %v, want %v", got, want)
	}
}

// TestWriteAnomalies checks the anomaly file uses the canonical column set
// and ISO dates.
func TestWriteAnomalies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	rows := []records.Sale{{
		OrderID:         "ORD1",
		ProductName:     "Laptop",
		Category:        "Electronics",
		Quantity:        3,
		UnitPrice:       99.9,
		DiscountPercent: 5,
		Region:          "Europe",
		SaleDate:        time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Revenue:         284.72,
	}}
	if err := s.WriteAnomalies(context.Background(), rows); err != nil {
		t.Fatal(err)
	}

	got := readCSV(t, filepath.Join(dir, AnomalyFile))
	if !reflect.DeepEqual(got[0], records.Columns) {
		t.Errorf("header = %v, want %v", got[0], records.Columns)
	}
	want := []string{"ORD1", "Laptop", "Electronics", "3", "99.90", "5", "Europe", "2024-06-30", "284.72"}
	if !reflect.DeepEqual(got[1], want) {
		t.Errorf("row = %v, want %v", got[1], want)
	}
}

// TestWriteQuality checks the JSON report round-trips with its snake_case
// keys.
func TestWriteQuality(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	rep := quality.Report{
		DuplicateOrders:    3,
		TotalRowsProcessed: 100,
		TotalRowsCleaned:   90,
		RowsRemoved:        10,
		QualityScore:       90,
	}
	if err := s.WriteQuality(context.Background(), rep); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, QualityFile))
	if err != nil {
		t.Fatal(err)
	}
	var back quality.Report
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, rep) {
		t.Fatalf("round-trip = %+v, want %+v", back, rep)
	}
	var asMap map[string]any
	if err := json.Unmarshal(b, &asMap); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"duplicate_orders", "quality_score", "total_rows_processed"} {
		if _, ok := asMap[key]; !ok {
			t.Errorf("quality JSON lacks key %q", key)
		}
	}
}

// TestEmptyReports checks empty result sets still produce header-only files.
func TestEmptyReports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.WriteTopProducts(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRegions(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if got := readCSV(t, filepath.Join(dir, ProductsFile)); len(got) != 1 {
		t.Errorf("top products file has %d records, want header only", len(got))
	}
	if got := readCSV(t, filepath.Join(dir, RegionsFile)); len(got) != 1 {
		t.Errorf("region file has %d records, want header only", len(got))
	}
}
