package nowcast

import (
	"context"
	"time"

	"github.com/i474232898/rain-nowcast/internal/rain"
)

// Fetcher abstracts the rain endpoint transport.
type Fetcher interface {
	Name() string
	FetchRain(ctx context.Context, lat, lon float64) (rain.RawPayload, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveReport(loc Location, report Report)
	GetLatest(loc Location) (Report, error)
	GetRange(loc Location, from, to time.Time) ([]Report, error)
}
