package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/epifetch/internal/adapters/jhu"
	"github.com/okian/epifetch/internal/adapters/rki"
	"github.com/okian/epifetch/internal/app"
	"github.com/okian/epifetch/internal/config"
	"github.com/okian/epifetch/pkg/logger"
	"github.com/okian/epifetch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	region := flag.String("region", "Germany", "region to extract from the wide-format dataset")
	days := flag.Int("days", 14, "trailing window length in days")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("cmd")

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logger.Error(err))
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Error(ctx, "invalid log level", logger.Error(err))
		return
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second}
	svc := app.New(
		app.WithJHUFetcher(jhu.NewFetcher(
			jhu.WithRawBase(cfg.JHURawBase),
			jhu.WithHTTPClient(httpClient),
		)),
		app.WithRKIFetcher(rki.NewFetcher(
			rki.WithQueryURL(cfg.RKIQueryURL),
			rki.WithHTTPClient(httpClient),
			rki.WithExpectedDistricts(cfg.ExpectedDistricts),
			rki.WithRecordLimit(cfg.RecordLimit),
			rki.WithConcurrency(cfg.FetchConcurrency),
		)),
		app.WithSnapshotResolver(jhu.NewSnapshotResolver(
			jhu.WithRepoURL(cfg.JHURepoURL),
		)),
	)

	if err := run(ctx, svc, log, *region, *days); err != nil {
		log.Error(ctx, "acquisition failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *app.Service, log logger.Logger, region string, days int) error {
	last, err := svc.LastReported(ctx, "confirmed")
	if err != nil {
		return err
	}
	from := last.AddDate(0, 0, -(days - 1))

	confirmed, err := svc.RegionSeries(ctx, "confirmed", region, from, last)
	if err != nil {
		return err
	}
	log.Info(ctx, "extracted confirmed series",
		logger.String("region", region),
		logger.Time("from", from),
		logger.Time("to", last),
		logger.Int("points", len(confirmed)),
	)

	national, err := svc.DistrictSeries(ctx, "cases", "", "", from, last)
	if err != nil {
		return err
	}
	log.Info(ctx, "aggregated national cumulative series",
		logger.Int("points", len(national)),
	)
	return nil
}

func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(ctx, "metrics listener failed", logger.Error(err))
	}
}
