package nowcast_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/i474232898/rain-nowcast/internal/meteofrance"
	"github.com/i474232898/rain-nowcast/internal/nowcast"
	"github.com/i474232898/rain-nowcast/internal/rain"
	"github.com/i474232898/rain-nowcast/internal/store"
)

const meudonRain = `{
	"update_time": "2024-02-04T13:55:00.000Z",
	"type": "Feature",
	"geometry": {"type": "Point", "coordinates": [2.239895, 48.807166]},
	"properties": {
		"altitude": 76, "name": "Meudon", "country": "FR - France", "french_department": "92",
		"rain_product_available": 1, "timezone": "Europe/Paris",
		"forecast": [
			{"time": "2024-02-04T14:10:00.000Z", "rain_intensity": 1, "rain_intensity_description": "Temps sec"},
			{"time": "2024-02-04T14:15:00.000Z", "rain_intensity": 1, "rain_intensity_description": "Temps sec"},
			{"time": "2024-02-04T14:20:00.000Z", "rain_intensity": 1, "rain_intensity_description": "Temps sec"},
			{"time": "2024-02-04T14:25:00.000Z", "rain_intensity": 2, "rain_intensity_description": "Pluie faible"},
			{"time": "2024-02-04T14:30:00.000Z", "rain_intensity": 3, "rain_intensity_description": "Pluie modérée"}
		]
	}
}`

type fakeFetcher struct {
	body    string
	err     error
	failing map[float64]error // keyed by latitude

	mu    sync.Mutex
	calls int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchRain(ctx context.Context, lat, lon float64) (rain.RawPayload, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, ok := f.failing[lat]; ok {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return rain.DecodePayload([]byte(f.body))
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	fetchedAt = time.Date(2024, 2, 4, 14, 0, 0, 0, time.UTC)
	meudon    = nowcast.Location{City: "Meudon", Lat: 48.8075, Lon: 2.24028}
)

func newService(f nowcast.Fetcher) (*nowcast.Service, *store.MemoryStore) {
	mem := store.NewMemoryStore(10, 0)
	svc := nowcast.NewService(mem, f, nowcast.WithClock(func() time.Time { return fetchedAt }))
	return svc, mem
}

func TestFetchAndStore(t *testing.T) {
	f := &fakeFetcher{body: meudonRain}
	svc, _ := newService(f)

	report, err := svc.FetchAndStore(context.Background(), meudon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Format != "feature" || report.Position.RainProductAvailable != 1 {
		t.Fatalf("unexpected report header %+v", report)
	}
	if !report.UpdatedOn.Equal(time.Date(2024, 2, 4, 13, 55, 0, 0, time.UTC)) {
		t.Fatalf("unexpected update time %s", report.UpdatedOn)
	}
	if len(report.Slots) != 5 || report.Slots[3].Label != "Pluie faible" {
		t.Fatalf("unexpected slots %+v", report.Slots)
	}
	if report.NextRain == nil || report.NextRain.Format("15:04-07:00") != "15:25+01:00" {
		t.Fatalf("unexpected next rain %v", report.NextRain)
	}
	if !report.Slots[3].Time.Equal(*report.NextRain) {
		t.Fatalf("slot local time %s does not match onset %s", report.Slots[3].Time, *report.NextRain)
	}
	if !report.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("unexpected fetch time %s", report.FetchedAt)
	}

	latest, err := svc.GetLatest(meudon)
	if err != nil {
		t.Fatalf("expected stored report: %v", err)
	}
	if latest.ID != report.ID {
		t.Fatalf("expected stored report %s, got %s", report.ID, latest.ID)
	}
}

func TestFetchAndStorePropagatesTransportErrors(t *testing.T) {
	upstream := &meteofrance.HTTPError{StatusCode: http.StatusBadRequest, Body: "zone not covered"}
	svc, _ := newService(&fakeFetcher{err: upstream})

	_, err := svc.FetchAndStore(context.Background(), meudon)

	var httpErr *meteofrance.HTTPError
	if !errors.As(err, &httpErr) || httpErr != upstream {
		t.Fatalf("expected the upstream error, got %v", err)
	}
	if _, err := svc.GetLatest(meudon); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestFetchAndStoreRejectsMalformedPayload(t *testing.T) {
	body := strings.Replace(meudonRain, "2024-02-04T14:20:00.000Z", "2024-02-04 14:20", 1)
	svc, _ := newService(&fakeFetcher{body: body})

	_, err := svc.FetchAndStore(context.Background(), meudon)

	var malformed *rain.MalformedTimestampError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedTimestampError, got %v", err)
	}
	if _, err := svc.GetLatest(meudon); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestFetchAndStoreWithoutFetcher(t *testing.T) {
	svc, _ := newService(nil)

	if _, err := svc.FetchAndStore(context.Background(), meudon); !errors.Is(err, nowcast.ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
}

func TestNormalizeDryFlatPayload(t *testing.T) {
	svc, _ := newService(nil)

	raw, err := rain.DecodePayload([]byte(`{
		"position": {"lat": 43.6, "lon": 1.44, "alti": 150, "name": "Toulouse", "country": "FR - France",
			"dept": "31", "rain_product_available": 1, "timezone": "Europe/Paris"},
		"updated_on": 1589995200,
		"quality": 0,
		"forecast": [{"dt": 1589996100, "rain": 1, "desc": "Temps sec"}]
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	report, err := svc.Normalize(raw, nowcast.Location{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RainExpected() {
		t.Fatalf("expected a dry report, got %v", report.NextRain)
	}
	if report.Format != "flat" || report.Location.City != "Toulouse" || report.Location.Lat != 43.6 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRefreshAll(t *testing.T) {
	paris := nowcast.Location{City: "Paris", Lat: 48.8566, Lon: 2.3522}
	f := &fakeFetcher{
		body: meudonRain,
		failing: map[float64]error{
			paris.Lat: &meteofrance.HTTPError{StatusCode: http.StatusServiceUnavailable},
		},
	}
	svc, mem := newService(f)

	previous := nowcast.Report{Quality: 42, FetchedAt: fetchedAt.Add(-5 * time.Minute)}
	mem.SaveReport(paris, previous)

	if ok := svc.RefreshAll(context.Background(), []nowcast.Location{meudon, paris}); ok != 1 {
		t.Fatalf("expected 1 refreshed location, got %d", ok)
	}
	if n := f.callCount(); n != 2 {
		t.Fatalf("expected both locations to be fetched, got %d calls", n)
	}

	if _, err := mem.GetLatest(meudon); err != nil {
		t.Fatalf("expected stored report for meudon: %v", err)
	}

	// The failed refresh keeps the last good report.
	latest, err := mem.GetLatest(paris)
	if err != nil {
		t.Fatalf("expected previous report for paris: %v", err)
	}
	if latest.Quality != previous.Quality {
		t.Fatalf("expected previous report to be kept, got %+v", latest)
	}
}
