package jhu

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/epifetch/internal/domain/model"
	"github.com/okian/epifetch/internal/domain/series"
	"github.com/okian/epifetch/pkg/logger"
	"github.com/okian/epifetch/pkg/metrics"
)

// Default upstream location for the live wide-format CSVs.
const defaultRawBase = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/" +
	"csse_covid_19_data/csse_covid_19_time_series/"

const defaultHTTPTimeout = 30 * time.Second

// Fetcher obtains the current value of a named dataset from the live HTTP
// endpoint or, on any failure, from the bundled fallback snapshot. The
// failure reason is logged, never surfaced; no retry is attempted.
type Fetcher struct {
	rawBase string
	client  *http.Client
	log     logger.Logger
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithRawBase sets the base URL the dataset CSVs are fetched from.
func WithRawBase(base string) Option {
	return func(f *Fetcher) {
		if base != "" {
			f.rawBase = base
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(log logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher creates a dataset fetcher with configuration options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		rawBase: defaultRawBase,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		log:     logger.Get().Named("jhu"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dataset returns the named dataset as a normalized table.
//
// The remote copy is preferred; any failure along the way (connectivity,
// status, malformed body) degrades to the bundled snapshot. A malformed
// fallback is fatal and propagates.
func (f *Fetcher) Dataset(ctx context.Context, ds model.Dataset) (*series.Table, error) {
	start := time.Now()
	table, err := f.remote(ctx, ds)
	metrics.RecordFetchDuration("jhu", time.Since(start))
	if err == nil {
		metrics.RecordFetch("jhu", "remote")
		return table, nil
	}

	f.log.Warn(ctx, "failed to download current data, using local copy",
		logger.String("dataset", string(ds)),
		logger.Error(err),
	)
	metrics.RecordFetch("jhu", "fallback")
	metrics.RecordFallback("jhu", "remote_unavailable")

	raw, err := fallbackCSV(ds)
	if err != nil {
		return nil, fmt.Errorf("read fallback for %s: %w", ds, err)
	}
	return ParseWide(bytes.NewReader(raw))
}

func (f *Fetcher) remote(ctx context.Context, ds model.Dataset) (*series.Table, error) {
	url := f.rawBase + ds.Filename()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return ParseWide(resp.Body)
}

// CDR fetches all three datasets and aligns one entity's confirmed, deaths
// and recovered series on a single date index.
func (f *Fetcher) CDR(ctx context.Context, region, subRegion string) (*series.CDRFrame, error) {
	confirmed, err := f.Dataset(ctx, model.DatasetConfirmed)
	if err != nil {
		return nil, err
	}
	deaths, err := f.Dataset(ctx, model.DatasetDeaths)
	if err != nil {
		return nil, err
	}
	recovered, err := f.Dataset(ctx, model.DatasetRecovered)
	if err != nil {
		return nil, err
	}
	return series.NewCDRFrame(confirmed, deaths, recovered, region, subRegion)
}

// LastDate fetches the named dataset and reports its newest column date.
func (f *Fetcher) LastDate(ctx context.Context, ds model.Dataset) (time.Time, error) {
	table, err := f.Dataset(ctx, ds)
	if err != nil {
		return time.Time{}, err
	}
	return table.LastDate()
}
