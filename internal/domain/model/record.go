// Package model contains domain models passed between layers.
package model

import "time"

// CaseRecord is one reported feature from the district-level feed.
// Records carry no unique key; duplicates across queries are possible but
// assumed absent given the disjoint district partitioning.
type CaseRecord struct {
	State      string    // federal state (Bundesland)
	District   string    // district (Landkreis)
	AgeGroup   string    // reported age bracket
	Sex        string    // reported sex
	Cases      int       // case count for this report
	Deaths     int       // death count for this report
	NewCase    int       // new-case flag as reported upstream
	ReportDate time.Time // report date (day granularity)
}

// Value returns the record's contribution for the given metric.
// MetricTotal is the upstream's opaque additive combination of the
// new-case flag and the case count, reproduced as-is.
func (r CaseRecord) Value(m Metric) int {
	switch m {
	case MetricDeaths:
		return r.Deaths
	case MetricTotal:
		return r.NewCase + r.Cases
	default:
		return r.Cases
	}
}

// Day returns the report date truncated to day granularity in UTC.
func (r CaseRecord) Day() time.Time {
	return time.Date(
		r.ReportDate.Year(), r.ReportDate.Month(), r.ReportDate.Day(),
		0, 0, 0, 0, time.UTC,
	)
}
