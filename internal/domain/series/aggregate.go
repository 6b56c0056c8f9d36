package series

import (
	"sort"
	"time"

	"github.com/okian/epifetch/internal/domain/model"
)

// Aggregate reduces district-level case records to one cumulative series.
//
// Rows are optionally restricted to one administrative level value, grouped
// by report day, summed on the chosen metric, cumulated over the full
// date-ordered series and only then sliced to [from, to] inclusive. The
// output is therefore in cumulative units and includes history accumulated
// before the requested range.
func Aggregate(records []model.CaseRecord, level model.Level, value string, metric model.Metric, from, to time.Time) []float64 {
	perDay := make(map[time.Time]int)
	for _, r := range records {
		if !matchesLevel(r, level, value) {
			continue
		}
		perDay[r.Day()] += r.Value(metric)
	}

	days := make([]time.Time, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	fromDay := truncateDay(from)
	toDay := truncateDay(to)

	out := make([]float64, 0, len(days))
	running := 0
	for _, d := range days {
		running += perDay[d]
		if d.Before(fromDay) || d.After(toDay) {
			continue
		}
		out = append(out, float64(running))
	}
	return out
}

func matchesLevel(r model.CaseRecord, level model.Level, value string) bool {
	switch level {
	case model.LevelState:
		return r.State == value
	case model.LevelDistrict:
		return r.District == value
	default:
		return true
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
