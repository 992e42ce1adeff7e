package nowcast

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/rain-nowcast/internal/rain"
)

// Location represents a logical place for which we track rain.
// Lat/Lon are required for fetching; City/Country are informational or used for geocoding.
type Location struct {
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded to ~11m so repeated queries land on the same key.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

func (l Location) String() string {
	if l.City == "" {
		return l.Key()
	}
	return fmt.Sprintf("%s (%s)", l.City, l.Key())
}

// SlotView is a forecast slot with its local time resolved.
type SlotView struct {
	Time          time.Time `json:"time"` // location timezone
	Timestamp     int64     `json:"timestamp"`
	RainIntensity int       `json:"rainIntensity"`
	Description   string    `json:"description"`
	Label         string    `json:"label,omitempty"`
}

// Report is the normalized, consumer-facing view of one rain nowcast.
type Report struct {
	ID        uuid.UUID     `json:"id"`
	Location  Location      `json:"location"`
	Format    string        `json:"format"`
	Position  rain.Position `json:"position"`
	UpdatedOn time.Time     `json:"updatedOn"` // always UTC
	Quality   int           `json:"quality"`
	Slots     []SlotView    `json:"slots"`

	// NextRain is nil when the whole hour is dry.
	NextRain  *time.Time `json:"nextRain,omitempty"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// RainExpected reports whether any slot in the hour forecasts rain.
func (r Report) RainExpected() bool {
	return r.NextRain != nil
}
