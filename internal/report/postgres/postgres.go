// Package postgres implements a Postgres-backed report sink using pgx v5.
// Each report table is truncated and reloaded with CopyFrom, so the database
// always holds the latest run.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Sink writes reports into Postgres report tables.
type Sink struct {
	pool   *pgxpool.Pool
	prefix string
}

// New connects, pings, and ensures the report tables exist. The returned
// close function must be called when the run ends.
func New(ctx context.Context, cfg config.DBConfig) (*Sink, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := &Sink{pool: pool, prefix: cfg.TablePrefix}
	if err := s.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, func() { pool.Close() }, nil
}

func (s *Sink) table(name string) string { return s.prefix + name }

func (s *Sink) ensureTables(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			month text NOT NULL,
			total_revenue double precision NOT NULL,
			total_quantity bigint NOT NULL,
			avg_discount double precision NOT NULL
		)`, s.table("monthly_sales")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			product_name text NOT NULL,
			total_revenue double precision NOT NULL,
			total_units_sold bigint NOT NULL,
			rank_by text NOT NULL
		)`, s.table("top_products")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			order_id text NOT NULL,
			product_name text,
			category text,
			quantity double precision NOT NULL,
			unit_price double precision NOT NULL,
			discount_percent double precision NOT NULL,
			region text,
			sale_date date NOT NULL,
			revenue double precision NOT NULL
		)`, s.table("anomaly_records")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			region text NOT NULL,
			total_revenue double precision NOT NULL,
			total_quantity bigint NOT NULL
		)`, s.table("region_sales")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			issue text PRIMARY KEY,
			count double precision NOT NULL
		)`, s.table("data_quality")),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: create table: %w", err)
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
			r.DiscountPercent, r.Region, r.SaleDate, r.Revenue,
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

// replace truncates the table and reloads it with CopyFrom inside one
// transaction.
func (s *Sink) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
		return fmt.Errorf("postgres: truncate %s: %w", table, err)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("postgres: copy into %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
