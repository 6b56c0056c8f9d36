// Package rki acquires district-level case records from the Robert Koch
// Institute ArcGIS feature service: one distinct-values query enumerates
// the district ids, then one filtered query per district is fanned out over
// a bounded worker pool and the partial results are accumulated into a
// single record set. A bundled fallback table stands in when the upstream
// enumeration looks wrong.
package rki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/epifetch/internal/domain/model"
	"github.com/okian/epifetch/pkg/logger"
	"github.com/okian/epifetch/pkg/metrics"
)

// Upstream defaults. The district count guards against the query system
// returning a partial region list during its own maintenance windows.
const (
	defaultQueryURL = "https://services7.arcgis.com/mOBPykOjAyBO2ZKk/ArcGIS/rest/services/" +
		"RKI_COVID19/FeatureServer/0/query"

	defaultExpectedDistricts = 412
	defaultRecordLimit       = 5000
	defaultConcurrency       = 8
	defaultHTTPTimeout       = 30 * time.Second

	outFields = "Bundesland,Landkreis,Altersgruppe,Geschlecht," +
		"AnzahlFall,AnzahlTodesfall,Meldedatum,NeuerFall"
)

// featureAttributes mirrors one "feature" of the upstream JSON.
type featureAttributes struct {
	IDLandkreis     string `json:"IdLandkreis"`
	Bundesland      string `json:"Bundesland"`
	Landkreis       string `json:"Landkreis"`
	Altersgruppe    string `json:"Altersgruppe"`
	Geschlecht      string `json:"Geschlecht"`
	AnzahlFall      int    `json:"AnzahlFall"`
	AnzahlTodesfall int    `json:"AnzahlTodesfall"`
	Meldedatum      int64  `json:"Meldedatum"` // epoch milliseconds
	NeuerFall       int    `json:"NeuerFall"`
}

type featureResponse struct {
	Features []struct {
		Attributes featureAttributes `json:"attributes"`
	} `json:"features"`
}

// Result is one acquisition's accumulated record set.
type Result struct {
	Records   []model.CaseRecord
	Districts int      // district ids enumerated upstream
	Failed    []string // district ids whose query failed (partial failures)
	Session   string   // id correlating this acquisition's log lines
	Fallback  bool     // true when the bundled table was used
}

// Completeness is the fraction of enumerated districts that answered.
func (r *Result) Completeness() float64 {
	if r.Districts == 0 {
		return 1
	}
	return float64(r.Districts-len(r.Failed)) / float64(r.Districts)
}

// Fetcher builds a unified record set from the per-district feed.
type Fetcher struct {
	queryURL          string
	client            *http.Client
	expectedDistricts int
	recordLimit       int
	concurrency       int
	log               logger.Logger
}

// NewFetcher creates a district-feed fetcher with configuration options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		queryURL:          defaultQueryURL,
		client:            &http.Client{Timeout: defaultHTTPTimeout},
		expectedDistricts: defaultExpectedDistricts,
		recordLimit:       defaultRecordLimit,
		concurrency:       defaultConcurrency,
		log:               logger.Get().Named("rki"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Records acquires the full district-level record set.
//
// An enumeration that fails or returns an unexpected district count
// abandons the live path for the bundled fallback table. Individual
// district queries that fail are partial failures: the acquisition
// continues with degraded completeness. A district result set at the
// record limit is fatal and propagates as ErrQueryLimit.
func (f *Fetcher) Records(ctx context.Context) (*Result, error) {
	session := uuid.NewString()
	log := f.log
	start := time.Now()

	ids, err := f.districtIDs(ctx)
	if err != nil || len(ids) != f.expectedDistricts {
		reason := "district_count_mismatch"
		if err != nil {
			reason = "remote_unavailable"
		}
		log.Warn(ctx, "failed to download current data, using local copy",
			logger.String("session", session),
			logger.Int("districts", len(ids)),
			logger.Int("expected", f.expectedDistricts),
			logger.Error(err),
		)
		metrics.RecordFetch("rki", "fallback")
		metrics.RecordFallback("rki", reason)

		records, err := fallbackRecords()
		if err != nil {
			return nil, err
		}
		return &Result{Records: records, Session: session, Fallback: true}, nil
	}

	log.Info(ctx, "downloading unique districts",
		logger.String("session", session),
		logger.Int("districts", len(ids)),
	)

	records, failed, err := f.fanOut(ctx, ids)
	if err != nil {
		return nil, err
	}

	metrics.RecordFetch("rki", "remote")
	metrics.RecordFetchDuration("rki", time.Since(start))
	metrics.RecordRecordsAcquired("rki", len(records))

	res := &Result{
		Records:   records,
		Districts: len(ids),
		Failed:    failed,
		Session:   session,
	}
	if len(failed) > 0 {
		log.Warn(ctx, "acquisition completed with degraded completeness",
			logger.String("session", session),
			logger.Int("failed", len(failed)),
			logger.Float64("completeness", res.Completeness()),
		)
	}
	return res, nil
}

// districtIDs enumerates all district identifiers known upstream.
func (f *Fetcher) districtIDs(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("where", "0=0")
	q.Set("outFields", "IdLandkreis")
	q.Set("returnDistinctValues", "true")
	q.Set("f", "pjson")

	var resp featureResponse
	if err := f.query(ctx, q, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, len(resp.Features))
	for i, feat := range resp.Features {
		ids[i] = feat.Attributes.IDLandkreis
	}
	return ids, nil
}

// district issues the filtered query for one district id.
func (f *Fetcher) district(ctx context.Context, id string) ([]model.CaseRecord, error) {
	q := url.Values{}
	q.Set("where", fmt.Sprintf("IdLandkreis='%s'", id))
	q.Set("outFields", outFields)
	q.Set("f", "pjson")

	var resp featureResponse
	if err := f.query(ctx, q, &resp); err != nil {
		return nil, err
	}

	if len(resp.Features) > f.recordLimit {
		metrics.RecordQuotaViolation()
		return nil, fmt.Errorf("%w: district %s returned %d records (limit %d)",
			ErrQueryLimit, id, len(resp.Features), f.recordLimit)
	}

	records := make([]model.CaseRecord, len(resp.Features))
	for i, feat := range resp.Features {
		a := feat.Attributes
		records[i] = model.CaseRecord{
			State:      a.Bundesland,
			District:   a.Landkreis,
			AgeGroup:   a.Altersgruppe,
			Sex:        a.Geschlecht,
			Cases:      a.AnzahlFall,
			Deaths:     a.AnzahlTodesfall,
			NewCase:    a.NeuerFall,
			ReportDate: time.UnixMilli(a.Meldedatum).UTC(),
		}
	}
	return records, nil
}

// fanOut runs the per-district queries over a bounded worker pool and
// accumulates results append-only. Order does not matter; aggregation
// downstream is commutative.
func (f *Fetcher) fanOut(ctx context.Context, ids []string) ([]model.CaseRecord, []string, error) {
	workers := f.concurrency
	if workers > len(ids) {
		workers = len(ids)
	}
	metrics.UpdateFetchWorkers(workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	idCh := make(chan string)
	go func() {
		defer close(idCh)
		for _, id := range ids {
			select {
			case idCh <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		mu       sync.Mutex
		all      []model.CaseRecord
		failed   []string
		fatalErr error
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idCh {
				metrics.RecordDistrictQuery()
				records, err := f.district(ctx, id)

				mu.Lock()
				switch {
				case errors.Is(err, ErrQueryLimit):
					metrics.RecordErrorByComponent("rki", "query_limit")
					if fatalErr == nil {
						fatalErr = err
					}
					cancel()
				case err != nil:
					metrics.RecordDistrictQueryError()
					metrics.RecordErrorByComponent("rki", "district_query")
					failed = append(failed, id)
				default:
					all = append(all, records...)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, nil, fatalErr
	}
	return all, failed, nil
}

// query issues one GET against the feature service and decodes the body.
func (f *Fetcher) query(ctx context.Context, q url.Values, out *featureResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.queryURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
