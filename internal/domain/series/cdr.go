package series

import (
	"fmt"
	"math"
	"time"
)

// CDRFrame is one entity's confirmed, deaths and recovered series aligned
// on a single date index.
type CDRFrame struct {
	Dates     []time.Time
	Confirmed []float64
	Deaths    []float64
	Recovered []float64
}

// NewCDRFrame aligns the three metric tables on the confirmed table's date
// index for one exact (region, sub-region) entity. Dates absent from the
// deaths or recovered table become NaN.
func NewCDRFrame(confirmed, deaths, recovered *Table, region, subRegion string) (*CDRFrame, error) {
	base, err := entityRow(confirmed, region, subRegion)
	if err != nil {
		return nil, err
	}

	frame := &CDRFrame{
		Dates:     confirmed.Dates(),
		Confirmed: base.Values,
	}
	if frame.Deaths, err = alignEntity(deaths, region, subRegion, confirmed.Dates()); err != nil {
		return nil, err
	}
	if frame.Recovered, err = alignEntity(recovered, region, subRegion, confirmed.Dates()); err != nil {
		return nil, err
	}
	return frame, nil
}

// entityRow resolves the exact row for an entity, rejecting duplicates.
func entityRow(t *Table, region, subRegion string) (Row, error) {
	rows := t.Lookup(region, subRegion)
	switch len(rows) {
	case 1:
		return rows[0], nil
	case 0:
		return Row{}, fmt.Errorf("%w: (%q, %q)", ErrRegionNotFound, region, subRegion)
	default:
		return Row{}, fmt.Errorf("%w: (%q, %q) matches %d rows",
			ErrAmbiguousRegion, region, subRegion, len(rows))
	}
}

// alignEntity projects an entity's row onto a foreign date index.
func alignEntity(t *Table, region, subRegion string, dates []time.Time) ([]float64, error) {
	row, err := entityRow(t, region, subRegion)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]float64, len(t.Dates()))
	for i, d := range t.Dates() {
		byDate[d] = row.Values[i]
	}

	out := make([]float64, len(dates))
	for i, d := range dates {
		v, ok := byDate[d]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}
