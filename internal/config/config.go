// Package config defines module configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions accept context.Context as the first parameter.
// - External errors are wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Upstream endpoint defaults. The JHU CSVs live in a version-controlled
// repository; the raw URLs point at the head of the primary branch.
const (
	defaultJHURepoURL = "https://github.com/CSSEGISandData/COVID-19"

	defaultJHURawBase = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/" +
		"csse_covid_19_data/csse_covid_19_time_series/"

	defaultRKIQueryURL = "https://services7.arcgis.com/mOBPykOjAyBO2ZKk/ArcGIS/rest/services/" +
		"RKI_COVID19/FeatureServer/0/query"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr exposes /metrics when non-empty, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// JHURepoURL is the version-controlled dataset repository used for
	// historical snapshot resolution.
	JHURepoURL string `koanf:"jhu_repo_url"`

	// JHURawBase is the base URL for the live wide-format CSVs.
	JHURawBase string `koanf:"jhu_raw_base"`

	// RKIQueryURL is the ArcGIS feature-service query endpoint.
	RKIQueryURL string `koanf:"rki_query_url"`

	// ExpectedDistricts is the district count the distinct-values query
	// must return for the live path to be trusted.
	ExpectedDistricts int `koanf:"expected_districts"`

	// RecordLimit is the per-district result-set sanity bound.
	RecordLimit int `koanf:"record_limit"`

	// FetchConcurrency bounds the district fan-out worker pool.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// HTTPTimeoutSec bounds each upstream HTTP round-trip.
	HTTPTimeoutSec int `koanf:"http_timeout_sec"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		MetricsAddr:       "",
		JHURepoURL:        defaultJHURepoURL,
		JHURawBase:        defaultJHURawBase,
		RKIQueryURL:       defaultRKIQueryURL,
		ExpectedDistricts: 412,
		RecordLimit:       5000,
		FetchConcurrency:  runtime.NumCPU() * 4,
		HTTPTimeoutSec:    30,
	}
}
