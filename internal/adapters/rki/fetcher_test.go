package rki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/epifetch/pkg/logger"
	"github.com/okian/epifetch/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// districtServer simulates the feature service for a fixed set of
// districts, counting per-district queries.
type districtServer struct {
	mu             sync.Mutex
	districts      map[string][]featureAttributes
	districtCalls  int
	failDistricts  map[string]bool
	enumStatusCode int
}

func (s *districtServer) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("returnDistinctValues") == "true" {
		if s.enumStatusCode != 0 {
			w.WriteHeader(s.enumStatusCode)
			return
		}
		var features []string
		for id := range s.districts {
			features = append(features, fmt.Sprintf(`{"attributes":{"IdLandkreis":%q}}`, id))
		}
		fmt.Fprintf(w, `{"features":[%s]}`, strings.Join(features, ","))
		return
	}

	s.mu.Lock()
	s.districtCalls++
	s.mu.Unlock()

	id := strings.Trim(strings.TrimPrefix(q.Get("where"), "IdLandkreis="), "'")
	if s.failDistricts[id] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var features []string
	for _, a := range s.districts[id] {
		features = append(features, fmt.Sprintf(
			`{"attributes":{"IdLandkreis":%q,"Bundesland":%q,"Landkreis":%q,"Altersgruppe":%q,"Geschlecht":%q,"AnzahlFall":%d,"AnzahlTodesfall":%d,"Meldedatum":%d,"NeuerFall":%d}}`,
			id, a.Bundesland, a.Landkreis, a.Altersgruppe, a.Geschlecht,
			a.AnzahlFall, a.AnzahlTodesfall, a.Meldedatum, a.NeuerFall,
		))
	}
	fmt.Fprintf(w, `{"features":[%s]}`, strings.Join(features, ","))
}

func (s *districtServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.districtCalls
}

func twoDistricts() map[string][]featureAttributes {
	march2 := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	return map[string][]featureAttributes{
		"09177": {
			{Bundesland: "Bayern", Landkreis: "LK Erding", Altersgruppe: "A35-A59",
				Geschlecht: "M", AnzahlFall: 2, Meldedatum: march2},
		},
		"09162": {
			{Bundesland: "Bayern", Landkreis: "SK München", Altersgruppe: "A15-A34",
				Geschlecht: "W", AnzahlFall: 4, AnzahlTodesfall: 1, NeuerFall: 1, Meldedatum: march2},
		},
	}
}

func TestRecords(t *testing.T) {
	Convey("Given an upstream with the expected number of districts", t, func() {
		backend := &districtServer{districts: twoDistricts()}
		srv := httptest.NewServer(http.HandlerFunc(backend.handler))
		defer srv.Close()

		f := NewFetcher(
			WithQueryURL(srv.URL),
			WithExpectedDistricts(2),
			WithConcurrency(2),
		)

		Convey("When acquiring records", func() {
			res, err := f.Records(context.Background())

			Convey("Then every district's records are accumulated", func() {
				So(err, ShouldBeNil)
				So(res.Fallback, ShouldBeFalse)
				So(res.Records, ShouldHaveLength, 2)
				So(res.Districts, ShouldEqual, 2)
				So(res.Failed, ShouldBeEmpty)
				So(res.Completeness(), ShouldEqual, 1.0)
				So(res.Session, ShouldNotBeEmpty)
			})

			Convey("And report dates are converted from epoch milliseconds", func() {
				for _, rec := range res.Records {
					So(rec.Day(), ShouldResemble, time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC))
				}
			})
		})
	})

	Convey("Given an upstream whose district count does not match", t, func() {
		backend := &districtServer{districts: twoDistricts()}
		srv := httptest.NewServer(http.HandlerFunc(backend.handler))
		defer srv.Close()

		f := NewFetcher(WithQueryURL(srv.URL), WithExpectedDistricts(412))

		Convey("When acquiring records", func() {
			res, err := f.Records(context.Background())

			Convey("Then the bundled fallback table is used", func() {
				So(err, ShouldBeNil)
				So(res.Fallback, ShouldBeTrue)
				So(res.Records, ShouldHaveLength, 7)
			})

			Convey("And no per-district query is attempted", func() {
				So(backend.calls(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unreachable enumeration endpoint", t, func() {
		backend := &districtServer{enumStatusCode: http.StatusServiceUnavailable}
		srv := httptest.NewServer(http.HandlerFunc(backend.handler))
		defer srv.Close()

		f := NewFetcher(WithQueryURL(srv.URL), WithExpectedDistricts(2))

		Convey("When acquiring records", func() {
			res, err := f.Records(context.Background())

			Convey("Then the failure is absorbed via the fallback", func() {
				So(err, ShouldBeNil)
				So(res.Fallback, ShouldBeTrue)
				So(res.Records, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given a district exceeding the record limit", t, func() {
		districts := twoDistricts()
		march2 := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
		districts["09177"] = append(districts["09177"], featureAttributes{
			Bundesland: "Bayern", Landkreis: "LK Erding", AnzahlFall: 1, Meldedatum: march2,
		})
		backend := &districtServer{districts: districts}
		srv := httptest.NewServer(http.HandlerFunc(backend.handler))
		defer srv.Close()

		f := NewFetcher(
			WithQueryURL(srv.URL),
			WithExpectedDistricts(2),
			WithRecordLimit(1),
		)

		Convey("When acquiring records", func() {
			res, err := f.Records(context.Background())

			Convey("Then the overflow is fatal, not silently truncated", func() {
				So(err, ShouldWrap, ErrQueryLimit)
				So(res, ShouldBeNil)
			})
		})
	})

	Convey("Given one failing district among healthy ones", t, func() {
		backend := &districtServer{
			districts:     twoDistricts(),
			failDistricts: map[string]bool{"09177": true},
		}
		srv := httptest.NewServer(http.HandlerFunc(backend.handler))
		defer srv.Close()

		f := NewFetcher(WithQueryURL(srv.URL), WithExpectedDistricts(2))

		Convey("When acquiring records", func() {
			res, err := f.Records(context.Background())

			Convey("Then the acquisition degrades instead of aborting", func() {
				So(err, ShouldBeNil)
				So(res.Failed, ShouldResemble, []string{"09177"})
				So(res.Records, ShouldHaveLength, 1)
				So(res.Completeness(), ShouldEqual, 0.5)
			})

			Convey("And the failure is counted against the component", func() {
				families, gatherErr := metrics.GetRegistry().Gather()
				So(gatherErr, ShouldBeNil)

				found := false
				for _, mf := range families {
					if strings.HasSuffix(mf.GetName(), "errors_by_component_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestFallbackRecords(t *testing.T) {
	Convey("Given the bundled fallback table", t, func() {
		records, err := fallbackRecords()

		Convey("Then it parses with its day-month-year date column", func() {
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 7)
			So(records[0].State, ShouldEqual, "Bayern")
			So(records[0].District, ShouldEqual, "LK Erding")
			So(records[0].ReportDate, ShouldResemble, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))
		})
	})
}
