// Package app wires the upstream adapters to the filtering layer and is
// the surface downstream consumers (statistical models, CLIs) call into.
package app

import (
	"context"
	"time"

	"github.com/okian/epifetch/internal/adapters/jhu"
	"github.com/okian/epifetch/internal/adapters/rki"
	"github.com/okian/epifetch/internal/domain/model"
	"github.com/okian/epifetch/internal/domain/series"
	"github.com/okian/epifetch/pkg/logger"
)

// Service exposes the acquisition layer's operations. All tables are
// constructed fresh per call and discarded after the requested slice is
// extracted; nothing persists across calls.
type Service struct {
	jhu      *jhu.Fetcher
	rki      *rki.Fetcher
	resolver *jhu.SnapshotResolver

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithJHUFetcher sets the wide-format dataset fetcher.
func WithJHUFetcher(f *jhu.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.jhu = f
		}
	}
}

// WithRKIFetcher sets the district-feed fetcher.
func WithRKIFetcher(f *rki.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.rki = f
		}
	}
}

// WithSnapshotResolver sets the historical snapshot resolver.
func WithSnapshotResolver(r *jhu.SnapshotResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Service with configuration options.
func New(opts ...Option) *Service {
	s := &Service{
		log: logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.jhu == nil {
		s.jhu = jhu.NewFetcher()
	}
	if s.rki == nil {
		s.rki = rki.NewFetcher()
	}
	if s.resolver == nil {
		s.resolver = jhu.NewSnapshotResolver()
	}
	return s
}

// RegionSeries fetches the named dataset and extracts one region's series
// over [from, to] inclusive.
func (s *Service) RegionSeries(ctx context.Context, ds model.Dataset, region string, from, to time.Time) ([]float64, error) {
	table, err := s.jhu.Dataset(ctx, ds)
	if err != nil {
		return nil, err
	}
	return table.Extract(region, from, to)
}

// CDR returns one entity's confirmed, deaths and recovered series aligned
// on a single date index.
func (s *Service) CDR(ctx context.Context, region, subRegion string) (*series.CDRFrame, error) {
	return s.jhu.CDR(ctx, region, subRegion)
}

// LastReported returns the newest date the named dataset covers.
func (s *Service) LastReported(ctx context.Context, ds model.Dataset) (time.Time, error) {
	return s.jhu.LastDate(ctx, ds)
}

// DistrictSeries acquires the district-level records and aggregates them
// to one cumulative series. Metric and level names are parsed here so
// caller mistakes fail before any acquisition work.
func (s *Service) DistrictSeries(ctx context.Context, metricName, levelName, value string, from, to time.Time) ([]float64, error) {
	metric, err := model.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	level, err := model.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	res, err := s.rki.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Failed) > 0 {
		s.log.Warn(ctx, "aggregating over a degraded record set",
			logger.String("session", res.Session),
			logger.Float64("completeness", res.Completeness()),
		)
	}
	return series.Aggregate(res.Records, level, value, metric, from, to), nil
}

// SnapshotAt materializes the wide-format datasets as they existed at the
// given RFC 3339 timestamp inside workdir.
func (s *Service) SnapshotAt(ctx context.Context, timestamp, workdir string) (*jhu.Snapshot, error) {
	return s.resolver.ResolveAt(ctx, timestamp, workdir)
}
