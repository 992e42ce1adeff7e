package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/rain-nowcast/internal/nowcast"
)

var meudon = nowcast.Location{City: "Meudon", Lat: 48.8075, Lon: 2.24028}

func TestMemoryStoreLatestAndRange(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2024, 2, 4, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.SaveReport(meudon, nowcast.Report{Quality: i, FetchedAt: base.Add(time.Duration(i) * 5 * time.Minute)})
	}

	latest, err := s.GetLatest(meudon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Quality != 2 {
		t.Fatalf("expected latest report, got %+v", latest)
	}

	got, err := s.GetRange(meudon, base.Add(5*time.Minute), base.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Quality != 1 || got[1].Quality != 2 {
		t.Fatalf("unexpected range %+v", got)
	}

	if _, err := s.GetRange(meudon, base.Add(time.Hour), base.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUnknownLocation(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	if _, err := s.GetLatest(meudon); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	now := time.Now()

	for i := 0; i < 5; i++ {
		s.SaveReport(meudon, nowcast.Report{Quality: i, FetchedAt: now})
	}

	got, err := s.GetRange(meudon, now, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Quality != 3 {
		t.Fatalf("expected the two newest reports, got %+v", got)
	}

	// Trimmed reports must not stay reachable through the backing array.
	if c := cap(s.data[meudon.Key()].Reports); c != 2 {
		t.Fatalf("expected a backing array of 2 reports, got %d", c)
	}
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	now := time.Date(2024, 2, 4, 14, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveReport(meudon, nowcast.Report{Quality: 1, FetchedAt: now.Add(-3 * time.Hour)})
	s.SaveReport(meudon, nowcast.Report{Quality: 2, FetchedAt: now.Add(-time.Minute)})

	got, err := s.GetRange(meudon, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Quality != 2 {
		t.Fatalf("expected only the fresh report, got %+v", got)
	}
	if c := cap(s.data[meudon.Key()].Reports); c != 1 {
		t.Fatalf("expected a backing array of 1 report, got %d", c)
	}
}

func TestLocationKeyRounding(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveReport(meudon, nowcast.Report{Quality: 7, FetchedAt: time.Now()})

	near := nowcast.Location{Lat: 48.80751, Lon: 2.240281}
	if _, err := s.GetLatest(near); err != nil {
		t.Fatalf("expected rounded coordinates to share a key: %v", err)
	}
}
