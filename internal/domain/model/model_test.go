package model_test

import (
	"testing"
	"time"

	"github.com/okian/epifetch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMetric(t *testing.T) {
	Convey("Given metric names", t, func() {
		Convey("When parsing known names", func() {
			for _, name := range []string{"cases", "deaths", "total"} {
				m, err := model.ParseMetric(name)
				So(err, ShouldBeNil)
				So(string(m), ShouldEqual, name)
			}
		})

		Convey("When parsing an unknown name", func() {
			_, err := model.ParseMetric("recovered")
			So(err, ShouldWrap, model.ErrUnknownMetric)
		})
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		Convey("When parsing known names", func() {
			for _, name := range []string{"", "state", "district"} {
				l, err := model.ParseLevel(name)
				So(err, ShouldBeNil)
				So(string(l), ShouldEqual, name)
			}
		})

		Convey("When parsing an unknown name", func() {
			_, err := model.ParseLevel("country")
			So(err, ShouldWrap, model.ErrUnknownLevel)
		})
	})
}

func TestCaseRecordValue(t *testing.T) {
	Convey("Given a case record", t, func() {
		r := model.CaseRecord{Cases: 7, Deaths: 2, NewCase: 1}

		Convey("When reading each metric", func() {
			So(r.Value(model.MetricCases), ShouldEqual, 7)
			So(r.Value(model.MetricDeaths), ShouldEqual, 2)
			So(r.Value(model.MetricTotal), ShouldEqual, 8)
		})
	})
}

func TestCaseRecordDay(t *testing.T) {
	Convey("Given a record with an intra-day timestamp", t, func() {
		r := model.CaseRecord{
			ReportDate: time.Date(2020, 3, 15, 13, 45, 12, 0, time.UTC),
		}

		Convey("When truncating to the report day", func() {
			So(r.Day(), ShouldResemble, time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC))
		})
	})
}

func TestDatasetFilename(t *testing.T) {
	Convey("Given the three datasets", t, func() {
		So(model.DatasetConfirmed.Filename(), ShouldEqual, "time_series_covid19_confirmed_global.csv")
		So(model.DatasetDeaths.Filename(), ShouldEqual, "time_series_covid19_deaths_global.csv")
		So(model.DatasetRecovered.Filename(), ShouldEqual, "time_series_covid19_recovered_global.csv")
	})
}
