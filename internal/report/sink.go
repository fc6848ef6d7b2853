// Package report defines the output sink abstraction for the finalized
// reports. Concrete sinks live in subpackages; the pipeline depends only on
// the Sink interface. Every Write method must tolerate empty result sets:
// a run over a file whose rows all fail cleaning still emits its reports.
package report

import (
	"context"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/quality"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Sink persists the finalized reports of one pipeline run.
type Sink interface {
	WriteMonthly(ctx context.Context, rows []aggregate.MonthlySales) error
	WriteTopProducts(ctx context.Context, rows []aggregate.ProductRank) error
	WriteAnomalies(ctx context.Context, rows []records.Sale) error
	WriteRegions(ctx context.Context, rows []aggregate.RegionSales) error
	WriteQuality(ctx context.Context, rep quality.Report) error
}
