package rki

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/epifetch/internal/domain/model"
)

// fallbackDateLayout is the day-month-year format of the bundled table's
// date column.
const fallbackDateLayout = "02-01-2006"

// fallbackRecords parses the bundled static table. The bundle ships with
// the software; a malformed bundle is a packaging defect and propagates.
func fallbackRecords() ([]model.CaseRecord, error) {
	reader := csv.NewReader(bytes.NewReader(fallbackTable))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read fallback header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, name := range []string{"Bundesland", "Landkreis", "Altersgruppe", "Geschlecht",
		"AnzahlFall", "AnzahlTodesfall", "NeuerFall", "date"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadRecord, name)
		}
	}

	var records []model.CaseRecord
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fallback row: %w", err)
		}

		cases, err := strconv.Atoi(rec[col["AnzahlFall"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: AnzahlFall %q", ErrBadRecord, line, rec[col["AnzahlFall"]])
		}
		deaths, err := strconv.Atoi(rec[col["AnzahlTodesfall"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: AnzahlTodesfall %q", ErrBadRecord, line, rec[col["AnzahlTodesfall"]])
		}
		newCase, err := strconv.Atoi(rec[col["NeuerFall"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: NeuerFall %q", ErrBadRecord, line, rec[col["NeuerFall"]])
		}
		date, err := time.Parse(fallbackDateLayout, rec[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: date %q", ErrBadRecord, line, rec[col["date"]])
		}

		records = append(records, model.CaseRecord{
			State:      rec[col["Bundesland"]],
			District:   rec[col["Landkreis"]],
			AgeGroup:   rec[col["Altersgruppe"]],
			Sex:        rec[col["Geschlecht"]],
			Cases:      cases,
			Deaths:     deaths,
			NewCase:    newCase,
			ReportDate: date,
		})
	}
	return records, nil
}
