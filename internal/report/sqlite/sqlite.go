// Package sqlite implements a SQLite-backed report sink using database/sql.
// Each report is written with batched INSERTs inside a transaction; SQLite
// has no bulk-load API like Postgres COPY, but a single transaction keeps
// performance acceptable for report-sized volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Sink writes reports into a SQLite database. Report tables are created on
// open and truncated before each write, so the database always holds the
// latest run.
type Sink struct {
	db     *sql.DB
	prefix string
}

// New opens the database, pings it to fail fast on a bad DSN, and ensures
// the report tables exist. The returned close function must be called when
// the run ends.
func New(ctx context.Context, cfg config.DBConfig) (*Sink, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// The pipeline writes reports concurrently. SQLite allows one writer at
	// a time; a second write transaction on its own connection fails with
	// SQLITE_BUSY, so all writes share a single pooled connection instead.
	db.SetMaxOpenConns(1)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &Sink{db: db, prefix: cfg.TablePrefix}
	if err := s.ensureTables(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, func() { db.Close() }, nil
}

func (s *Sink) table(name string) string { return s.prefix + name }

func (s *Sink) ensureTables(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			month TEXT NOT NULL,
			total_revenue REAL NOT NULL,
			total_quantity INTEGER NOT NULL,
			avg_discount REAL NOT NULL
		)`, s.table("monthly_sales")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			product_name TEXT NOT NULL,
			total_revenue REAL NOT NULL,
			total_units_sold INTEGER NOT NULL,
			rank_by TEXT NOT NULL
		)`, s.table("top_products")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			order_id TEXT NOT NULL,
			product_name TEXT,
			category TEXT,
			quantity REAL NOT NULL,
			unit_price REAL NOT NULL,
			discount_percent REAL NOT NULL,
			region TEXT,
			sale_date TEXT NOT NULL,
			revenue REAL NOT NULL
		)`, s.table("anomaly_records")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			region TEXT NOT NULL,
			total_revenue REAL NOT NULL,
			total_quantity INTEGER NOT NULL
		)`, s.table("region_sales")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			issue TEXT PRIMARY KEY,
			count REAL NOT NULL
		)`, s.table("data_quality")),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: create table: %w", err)
		}
	}
	return nil
}

func (s *Sink) WriteMonthly(ctx context.Context, rows []aggregate.MonthlySales) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.Month, r.TotalRevenue, r.TotalQuantity, r.AvgDiscount}
	}
	return s.replace(ctx, s.table("monthly_sales"),
		[]string{"month", "total_revenue", "total_quantity", "avg_discount"}, vals)
}

func (s *Sink) WriteTopProducts(ctx context.Context, rows []aggregate.ProductRank) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ProductName, r.TotalRevenue, r.TotalUnitsSold, r.RankBy}
	}
	return s.replace(ctx, s.table("top_products"),
		[]string{"product_name", "total_revenue", "total_units_sold", "rank_by"}, vals)
}

func (s *Sink) WriteAnomalies(ctx context.Context, rows []records.Sale) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{
			r.OrderID, r.ProductName, r.Category, r.Quantity, r.UnitPrice,
			r.DiscountPercent, r.Region, r.SaleDate.Format("2006-01-02"), r.Revenue,
		}
	}
	return s.replace(ctx, s.table("anomaly_records"), records.Columns, vals)
}

func (s *Sink) WriteRegions(ctx context.Context, rows []aggregate.RegionSales) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.Region, r.TotalRevenue, r.TotalQuantity}
	}
	return s.replace(ctx, s.table("region_sales"),
		[]string{"region", "total_revenue", "total_quantity"}, vals)
}

func (s *Sink) WriteQuality(ctx context.Context, rep quality.Report) error {
	vals := [][]any{
		{"duplicate_orders", float64(rep.DuplicateOrders)},
		{"invalid_quantity", float64(rep.InvalidQuantity)},
		{"invalid_price", float64(rep.InvalidPrice)},
		{"invalid_discount", float64(rep.InvalidDiscount)},
		{"invalid_date", float64(rep.InvalidDate)},
		{"missing_values", float64(rep.MissingValues)},
		{"normalized_regions", float64(rep.NormalizedRegions)},
		{"normalized_categories", float64(rep.NormalizedCategories)},
		{"total_rows_processed", float64(rep.TotalRowsProcessed)},
		{"total_rows_cleaned", float64(rep.TotalRowsCleaned)},
		{"rows_removed", float64(rep.RowsRemoved)},
		{"quality_score", rep.QualityScore},
	}
	return s.replace(ctx, s.table("data_quality"), []string{"issue", "count"}, vals)
}

// replace truncates the table and inserts the rows in a single transaction
// with one prepared statement.
func (s *Sink) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
