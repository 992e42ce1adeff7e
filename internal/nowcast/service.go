package nowcast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/rain-nowcast/internal/rain"
)

// ErrNoFetcher is returned when live fetching is requested without a transport.
var ErrNoFetcher = errors.New("no rain fetcher configured")

// Service orchestrates fetching rain payloads, normalizing them, and persisting reports.
type Service struct {
	store    Store
	fetcher  Fetcher
	localize rain.Localizer
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLocalizer overrides the timezone conversion used for reports.
func WithLocalizer(l rain.Localizer) ServiceOption {
	return func(s *Service) {
		s.localize = l
	}
}

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service. fetcher may be nil when only Normalize is used.
func NewService(store Store, fetcher Fetcher, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize builds a report from an already fetched payload without storing it.
func (s *Service) Normalize(raw rain.RawPayload, loc Location) (Report, error) {
	var opts []rain.Option
	if s.localize != nil {
		opts = append(opts, rain.WithLocalizer(s.localize))
	}
	return BuildReport(rain.New(raw, opts...), loc, s.now())
}

// FetchAndStore fetches the nowcast for loc, normalizes it and stores the report.
// Transport errors are returned unchanged (wrapped) so callers can inspect them.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) (Report, error) {
	if s.fetcher == nil {
		return Report{}, ErrNoFetcher
	}

	log.Printf("DEBUG: FetchAndStore called for %s via %s", loc, s.fetcher.Name())

	raw, err := s.fetcher.FetchRain(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return Report{}, fmt.Errorf("fetch rain for %s: %w", loc.Key(), err)
	}

	report, err := s.Normalize(raw, loc)
	if err != nil {
		log.Printf("ERROR: payload for %s could not be normalized: %v", loc, err)
		return Report{}, fmt.Errorf("normalize rain for %s: %w", loc.Key(), err)
	}

	s.store.SaveReport(loc, report)
	return report, nil
}

// RefreshAll fetches every location concurrently. Failures are logged and the
// last good report of that location is kept. It returns the number of locations
// refreshed successfully.
func (s *Service) RefreshAll(ctx context.Context, locs []Location) int {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)

	for _, loc := range locs {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()

			report, err := s.FetchAndStore(ctx, loc)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("rain refresh failed for %s: %v", loc, err)
				return
			}
			if report.NextRain != nil {
				log.Printf("INFO: rain expected at %s for %s", report.NextRain.Format(time.RFC3339), loc)
			}

			mu.Lock()
			ok++
			mu.Unlock()
		}(loc)
	}

	wg.Wait()
	return ok
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Report, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Report, error) {
	return s.store.GetRange(loc, from, to)
}
