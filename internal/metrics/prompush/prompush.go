// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. It contains all Prometheus-specific dependencies so the
// rest of the project stays decoupled from Prometheus and can swap backends
// without touching the pipeline.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/metrics"
)

// Backend pushes collected metrics to a Prometheus Pushgateway instead of
// exposing a scrape endpoint; a batch job is gone before a scraper would
// find it.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec
	batchCounter *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend. jobName doubles as the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sales_pipeline"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_pipeline_step_total",
		Help: "Total pipeline step executions, partitioned by job, step, and status.",
	}, []string{"job", "step", "status"})

	stepDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "sales_pipeline_step_duration_seconds",
		Help: "Pipeline step duration in seconds.",
	}, []string{"job", "step", "status"})

	rowCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_pipeline_rows_total",
		Help: "Rows handled, partitioned by job and kind.",
	}, []string{"job", "kind"})

	batchCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_pipeline_batches_total",
		Help: "Batches processed, partitioned by job.",
	}, []string{"job"})

	reg.MustRegister(stepCounter, stepDuration, rowCounter, batchCounter)

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		batchCounter: batchCounter,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "sales_pipeline_step_total":
		b.stepCounter.With(prometheus.Labels{
			"job":    labels["job"],
			"step":   labels["step"],
			"status": labels["status"],
		}).Add(delta)
	case "sales_pipeline_rows_total":
		b.rowCounter.With(prometheus.Labels{
			"job":  labels["job"],
			"kind": labels["kind"],
		}).Add(delta)
	case "sales_pipeline_batches_total":
		b.batchCounter.With(prometheus.Labels{
			"job": labels["job"],
		}).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "sales_pipeline_step_duration_seconds" {
		return
	}
	b.stepDuration.With(prometheus.Labels{
		"job":    labels["job"],
		"step":   labels["step"],
		"status": labels["status"],
	}).Observe(value)
}

// Flush pushes the registry to the gateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
