package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/config"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/logger"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/metrics"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/metrics/prompush"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/pipeline"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/report"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/report/csvdir"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/report/postgres"
	"github.com/BlackSwan-06/Findem-data-pipeline/internal/report/sqlite"
)

// main loads the pipeline config, optionally initializes the metrics
// backend, builds the configured report sink, and executes one run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if *verbose && p.Logging.Level == "" {
		p.Logging.Level = "debug"
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %s\n", cfgPath)
		os.Exit(0)
	}

	log := logger.New(p.Logging)

	// Decide metrics backend: flag wins over env, nop otherwise.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.WithError(err).Warn("metrics: pushgateway init failed, metrics disabled")
		} else {
			log.WithFields(logger.Fields{"url": gwURL, "job": p.Job}).Info("metrics: pushgateway enabled")
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.WithError(err).Warn("metrics: flush failed")
				}
			}()
		}
	case "", "none":
		// nop backend remains
	default:
		log.Warnf("metrics: unknown backend %q, metrics disabled", backendName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := buildSink(ctx, p.Output)
	if err != nil {
		log.WithError(err).Error("build report sink")
		os.Exit(1)
	}
	defer closeSink()

	start := time.Now()
	if err := pipeline.New(p, log, sink).Run(ctx); err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}
	if *verbose {
		log.Infof("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// buildSink constructs the report sink selected by the output config.
func buildSink(ctx context.Context, out config.Output) (report.Sink, func(), error) {
	switch out.Kind {
	case "", "csv":
		s, err := csvdir.New(out.Dir)
		return s, func() {}, err
	case "sqlite":
		return sqlite.New(ctx, out.DB)
	case "postgres":
		return postgres.New(ctx, out.DB)
	default:
		return nil, nil, fmt.Errorf("unknown output kind %q", out.Kind)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
