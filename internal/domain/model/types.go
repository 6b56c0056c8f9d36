package model

import "fmt"

// Metric selects which count of a CaseRecord is aggregated.
type Metric string

// Metrics accepted by the aggregation filter.
const (
	MetricCases  Metric = "cases"
	MetricDeaths Metric = "deaths"
	MetricTotal  Metric = "total"
)

// ParseMetric maps a metric name to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricCases, MetricDeaths, MetricTotal:
		return Metric(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// Level selects the administrative granularity of an aggregation:
// national (none), federal state, or district.
type Level string

// Levels accepted by the aggregation filter.
const (
	LevelNone     Level = ""
	LevelState    Level = "state"
	LevelDistrict Level = "district"
)

// ParseLevel maps a level name to a Level. The empty string selects the
// national level.
func ParseLevel(name string) (Level, error) {
	switch Level(name) {
	case LevelNone, LevelState, LevelDistrict:
		return Level(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// Dataset names one of the three wide-format global time series.
type Dataset string

// Datasets published by the wide-format upstream.
const (
	DatasetConfirmed Dataset = "confirmed"
	DatasetDeaths    Dataset = "deaths"
	DatasetRecovered Dataset = "recovered"
)

// Filename returns the canonical CSV file name for the dataset.
func (d Dataset) Filename() string {
	return fmt.Sprintf("time_series_covid19_%s_global.csv", string(d))
}
