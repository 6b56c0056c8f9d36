// Package jhu acquires the wide-format global time series published in the
// Johns Hopkins CSSE dataset repository, either live over HTTP, from the
// bundled fallback snapshot, or reconstructed at a historical point through
// the repository's version history.
package jhu

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/epifetch/internal/domain/series"
)

// dateLayout is the fixed two-digit-year month/day/year header format.
const dateLayout = "1/2/06"

// Raw column names of the wide-format CSV.
const (
	colState   = "Province/State"
	colCountry = "Country/Region"
	colLat     = "Lat"
	colLong    = "Long"
)

// ParseWide normalizes one wide date-column CSV into a series.Table.
//
// The two geographic coordinate columns are dropped, the entity columns
// become the (region, sub-region) row key, and every remaining header is
// parsed as a date. A header that does not conform fails the whole parse.
// Empty cells become NaN.
func ParseWide(r io.Reader) (*series.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	stateIdx, countryIdx := -1, -1
	dateIdxs := make([]int, 0, len(header))
	dates := make([]time.Time, 0, len(header))
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case colState:
			stateIdx = i
		case colCountry:
			countryIdx = i
		case colLat, colLong:
			// coordinates are irrelevant to time-series analysis
		default:
			d, err := time.Parse(dateLayout, strings.TrimSpace(h))
			if err != nil {
				return nil, fmt.Errorf("%w: column %q", ErrBadDateHeader, h)
			}
			dateIdxs = append(dateIdxs, i)
			dates = append(dates, d)
		}
	}
	if stateIdx < 0 || countryIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q or %q column", ErrBadDateHeader, colState, colCountry)
	}

	var rows []series.Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		values := make([]float64, len(dateIdxs))
		for i, idx := range dateIdxs {
			cell := strings.TrimSpace(rec[idx])
			if cell == "" {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %q: cell %q: %w", rec[countryIdx], cell, err)
			}
			values[i] = v
		}

		rows = append(rows, series.Row{
			Region:    rec[countryIdx],
			SubRegion: rec[stateIdx],
			Values:    values,
		})
	}

	return series.NewTable(dates, rows)
}
