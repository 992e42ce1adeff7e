package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/rain-nowcast/internal/nowcast"
)

var (
	// ErrNotFound is returned when no report is available for a given location.
	ErrNotFound = errors.New("no rain report for location")
)

// ReportHistory holds a time-ordered list of rain reports for a location.
type ReportHistory struct {
	Reports []nowcast.Report
}

// MemoryStore is a concurrency-safe in-memory implementation of a report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*ReportHistory

	// retention configuration
	maxHistory int           // max number of reports per location
	maxAge     time.Duration // optional max age for reports

	now func() time.Time
}

var _ nowcast.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends a new report for a location and enforces retention.
// Reports are ordered by FetchedAt as they arrive.
func (s *MemoryStore) SaveReport(loc nowcast.Location, report nowcast.Report) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &ReportHistory{}
		s.data[key] = history
	}

	history.Reports = append(history.Reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Reports) > s.maxHistory {
		over := len(history.Reports) - s.maxHistory
		history.Reports = trimmed(history.Reports, over)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Reports); i++ {
			if !history.Reports[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Reports = trimmed(history.Reports, i)
		}
	}
}

// trimmed drops the first n reports into a fresh backing array so the dropped
// reports can be collected.
func trimmed(reports []nowcast.Report, n int) []nowcast.Report {
	out := make([]nowcast.Report, len(reports)-n)
	copy(out, reports[n:])
	return out
}

// GetLatest returns the most recent report for a location.
func (s *MemoryStore) GetLatest(loc nowcast.Location) (nowcast.Report, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Reports) == 0 {
		return nowcast.Report{}, ErrNotFound
	}
	return history.Reports[len(history.Reports)-1], nil
}

// GetRange returns all reports for a location fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(loc nowcast.Location, from, to time.Time) ([]nowcast.Report, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Reports) == 0 {
		return nil, ErrNotFound
	}

	var result []nowcast.Report
	for _, r := range history.Reports {
		if !r.FetchedAt.Before(from) && !r.FetchedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
