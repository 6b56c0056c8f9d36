// Package series holds the normalized time-series table and the filtering
// operations downstream consumers use to slice it.
//
// A Table is the long-form shape of a wide date-column CSV: rows keyed by
// (region, sub-region), columns keyed by real dates. The key is a multimap:
// several rows may share a region when the sub-region is absent, so lookups
// return zero, one, or many rows and callers must never assume uniqueness.
package series

import (
	"fmt"
	"math"
	"time"
)

// Key identifies a row. SubRegion may be empty.
type Key struct {
	Region    string
	SubRegion string
}

// Row is one entity's series, aligned with the table's date index.
// Missing cells are NaN.
type Row struct {
	Region    string
	SubRegion string
	Values    []float64
}

// Table is a normalized series table for a single metric.
type Table struct {
	dates []time.Time
	rows  []Row
	index map[Key][]int
}

// NewTable builds a table from a date index and aligned rows.
func NewTable(dates []time.Time, rows []Row) (*Table, error) {
	t := &Table{
		dates: dates,
		rows:  rows,
		index: make(map[Key][]int, len(rows)),
	}
	for i, r := range rows {
		if len(r.Values) != len(dates) {
			return nil, fmt.Errorf("row %d (%s, %s): %d values for %d dates",
				i, r.Region, r.SubRegion, len(r.Values), len(dates))
		}
		k := Key{Region: r.Region, SubRegion: r.SubRegion}
		t.index[k] = append(t.index[k], i)
	}
	return t, nil
}

// Dates returns the date index in source order.
func (t *Table) Dates() []time.Time { return t.dates }

// Rows returns all rows in source order.
func (t *Table) Rows() []Row { return t.rows }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Lookup returns every row matching the (region, sub-region) key.
func (t *Table) Lookup(region, subRegion string) []Row {
	idxs := t.index[Key{Region: region, SubRegion: subRegion}]
	rows := make([]Row, 0, len(idxs))
	for _, i := range idxs {
		rows = append(rows, t.rows[i])
	}
	return rows
}

// LastDate returns the newest date in the index, assuming source order is
// oldest first (the upstream appends one column per day).
func (t *Table) LastDate() (time.Time, error) {
	if len(t.dates) == 0 {
		return time.Time{}, ErrEmptyTable
	}
	return t.dates[len(t.dates)-1], nil
}

// span returns the positions of dates inside [from, to], bounds inclusive,
// in source order.
func (t *Table) span(from, to time.Time) []int {
	idxs := make([]int, 0, len(t.dates))
	for i, d := range t.dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		idxs = append(idxs, i)
	}
	return idxs
}

// Extract returns the single-entity series for region over [from, to],
// bounds inclusive.
//
// Dispatch follows the shape of the data: exactly one bare row (no
// sub-region) is sliced directly; no bare row means the region only appears
// broken into sub-regions, so all of its rows are summed before slicing;
// more than one bare row is not resolvable and fails.
func (t *Table) Extract(region string, from, to time.Time) ([]float64, error) {
	bare := t.Lookup(region, "")

	switch len(bare) {
	case 1:
		idxs := t.span(from, to)
		out := make([]float64, len(idxs))
		for i, idx := range idxs {
			out[i] = bare[0].Values[idx]
		}
		return out, nil
	case 0:
		return t.SumRegion(region, from, to)
	default:
		return nil, fmt.Errorf("%w: %q matches %d rows", ErrAmbiguousRegion, region, len(bare))
	}
}

// SumRegion sums every row of the region across sub-regions, skipping NaN
// cells, then slices to [from, to] inclusive.
func (t *Table) SumRegion(region string, from, to time.Time) ([]float64, error) {
	matched := false
	sums := make([]float64, len(t.dates))
	for _, r := range t.rows {
		if r.Region != region {
			continue
		}
		matched = true
		for i, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			sums[i] += v
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, region)
	}

	idxs := t.span(from, to)
	out := make([]float64, len(idxs))
	for i, idx := range idxs {
		out[i] = sums[idx]
	}
	return out, nil
}
