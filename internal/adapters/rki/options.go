package rki

import (
	"net/http"

	"github.com/okian/epifetch/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithQueryURL sets the feature-service query endpoint.
func WithQueryURL(url string) Option {
	return func(f *Fetcher) {
		if url != "" {
			f.queryURL = url
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

// WithExpectedDistricts sets the district count the enumeration must return
// for the live path to be trusted.
func WithExpectedDistricts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.expectedDistricts = n
		}
	}
}

// WithRecordLimit sets the per-district result-set sanity bound.
func WithRecordLimit(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.recordLimit = n
		}
	}
}

// WithConcurrency bounds the district fan-out worker pool.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
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
