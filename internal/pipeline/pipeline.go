// Package pipeline drives the batch loop: pull a chunk from the source,
// clean it, feed it to the aggregator, and emit all reports once the source
// is exhausted. One pass, one attempt: any structural failure aborts the
// run with no partial-output salvage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/aggregate"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/cleaner"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/metrics"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/report"
	csvsource "github.com/BlackSwan-06/Findem-data-pipeline/internal/source/csv"
)

// Source is the row-batch source contract the orchestrator depends on.
// *csvsource.Reader satisfies it; tests substitute their own.
type Source interface {
	Info() csvsource.Info
	Next(ctx context.Context) ([]records.Raw, error)
	Close() error
}

// openSourceFn is a test seam; production points at the CSV reader.
var openSourceFn = func(path string, batchSize int) (Source, error) {
	return csvsource.Open(path, batchSize)
}

// Pipeline wires the cleaner, aggregator, and sink for one run. The
// aggregator's accumulators and the cleaner's tally are owned here for the
// run's lifetime; the sink only sees finalized views.
type Pipeline struct {
	cfg   config.Pipeline
	log   *logrus.Logger
	clean *cleaner.Cleaner
	agg   *aggregate.Aggregator
	sink  report.Sink
}

// New builds a pipeline from configuration.
func New(cfg config.Pipeline, log *logrus.Logger, sink report.Sink) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		log:   log,
		clean: cleaner.New(cfg.Cleaning),
		agg:   aggregate.New(cfg.Aggregate),
		sink:  sink,
	}
}

// Run executes the complete pipeline. Batches are processed strictly one at
// a time; cleaning and aggregation for a batch finish before the next one is
// pulled.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := strings.Split(uuid.NewString(), "-")[0]
	log := p.log.WithFields(logrus.Fields{"job": p.cfg.Job, "run_id": runID})
	start := time.Now()

	src, err := p.openSource(log)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := p.processBatches(ctx, log, src); err != nil {
		return err
	}
	if err := p.emitReports(ctx, log); err != nil {
		return err
	}

	log.WithField("duration", time.Since(start).Truncate(time.Millisecond)).
		Info("pipeline completed")
	return nil
}

func (p *Pipeline) openSource(log *logrus.Entry) (Source, error) {
	stepStart := time.Now()
	src, err := openSourceFn(p.cfg.Source.Path, p.cfg.Source.BatchSize)
	metrics.RecordStep(p.cfg.Job, "open_source", err, time.Since(stepStart))
	if err != nil {
		log.WithError(err).Error("open input")
		return nil, fmt.Errorf("open input: %w", err)
	}

	info := src.Info()
	log.WithFields(logrus.Fields{
		"path":       info.Path,
		"size":       humanize.Bytes(uint64(info.SizeBytes)),
		"columns":    strings.Join(info.Columns, ","),
		"batch_size": p.cfg.Source.BatchSize,
	}).Info("input file validated")
	return src, nil
}

func (p *Pipeline) processBatches(ctx context.Context, log *logrus.Entry, src Source) error {
	stepStart := time.Now()
	chunk := 0
	var processed, cleaned int64

	for {
		batch, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordStep(p.cfg.Job, "process", err, time.Since(stepStart))
			log.WithError(err).Error("read batch")
			return fmt.Errorf("read batch: %w", err)
		}

		chunk++
		sales, err := p.clean.Clean(batch)
		if err != nil {
			metrics.RecordStep(p.cfg.Job, "process", err, time.Since(stepStart))
			log.WithError(err).Error("clean batch")
			return fmt.Errorf("clean batch %d: %w", chunk, err)
		}
		if len(sales) > 0 {
			p.agg.Absorb(sales)
		}

		processed += int64(len(batch))
		cleaned += int64(len(sales))
		metrics.RecordBatches(p.cfg.Job, 1)
		metrics.RecordRows(p.cfg.Job, "processed", int64(len(batch)))
		metrics.RecordRows(p.cfg.Job, "cleaned", int64(len(sales)))

		log.WithFields(logrus.Fields{
			"chunk":   chunk,
			"input":   len(batch),
			"cleaned": len(sales),
		}).Info("chunk processed")
	}

	metrics.RecordStep(p.cfg.Job, "process", nil, time.Since(stepStart))
	metrics.RecordRows(p.cfg.Job, "removed", processed-cleaned)
	log.WithFields(logrus.Fields{
		"chunks":    chunk,
		"processed": processed,
		"cleaned":   cleaned,
	}).Info("all chunks processed")
	return nil
}

func (p *Pipeline) emitReports(ctx context.Context, log *logrus.Entry) error {
	stepStart := time.Now()

	monthly := p.agg.MonthlySummary()
	products := p.agg.TopProducts(p.cfg.Aggregate.TopProducts)
	anomalies := p.agg.Anomalies(p.cfg.Aggregate.AnomalyRecords)
	regions := p.agg.RegionSummary()

	// The four tabular reports are independent; write them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.sink.WriteMonthly(gctx, monthly) })
	g.Go(func() error { return p.sink.WriteTopProducts(gctx, products) })
	g.Go(func() error { return p.sink.WriteAnomalies(gctx, anomalies) })
	g.Go(func() error { return p.sink.WriteRegions(gctx, regions) })
	err := g.Wait()

	if err == nil {
		rep := p.clean.Tally().Snapshot()
		err = p.sink.WriteQuality(ctx, rep)
		if err == nil {
			log.WithFields(logrus.Fields{
				"months":        len(monthly),
				"products":      len(products),
				"anomalies":     len(anomalies),
				"regions":       len(regions),
				"quality_score": rep.QualityScore,
				"rows_removed":  rep.RowsRemoved,
			}).Info("reports written")
		}
	}

	metrics.RecordStep(p.cfg.Job, "reports", err, time.Since(stepStart))
	if err != nil {
		log.WithError(err).Error("write reports")
		return fmt.Errorf("write reports: %w", err)
	}
	return nil
}
