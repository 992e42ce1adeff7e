// Package geocode resolves city/country locations to coordinates.
package geocode

import (
	"errors"
	"fmt"
	"log"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/rain-nowcast/internal/nowcast"
)

var ErrNoAPIKey = errors.New("geocoder api key is not configured")

// LookupFunc returns the coordinates of an address.
type LookupFunc func(address geocoder.Address) (geocoder.Location, error)

// Resolver fills in missing coordinates using the Google geocoding API.
type Resolver struct {
	lookup LookupFunc
}

// NewResolver configures the geocoder package with apiKey. The key is package-global
// in the geocoder library, so only one Resolver should be created per process.
func NewResolver(apiKey string) (*Resolver, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	geocoder.ApiKey = apiKey
	return &Resolver{lookup: geocoder.Geocoding}, nil
}

// NewResolverWithLookup is used by tests and alternative backends.
func NewResolverWithLookup(lookup LookupFunc) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns loc with Lat/Lon populated. Locations that already have
// coordinates are returned unchanged.
func (r *Resolver) Resolve(loc nowcast.Location) (nowcast.Location, error) {
	if loc.Lat != 0 || loc.Lon != 0 {
		return loc, nil
	}
	if loc.City == "" {
		return loc, fmt.Errorf("location has neither coordinates nor city")
	}

	found, err := r.lookup(geocoder.Address{
		City:    loc.City,
		Country: loc.Country,
	})
	if err != nil {
		return loc, fmt.Errorf("geocode %s,%s: %w", loc.City, loc.Country, err)
	}

	loc.Lat = found.Latitude
	loc.Lon = found.Longitude
	return loc, nil
}

// ResolveAll resolves every location, dropping (and logging) the ones that fail.
func (r *Resolver) ResolveAll(locs []nowcast.Location) []nowcast.Location {
	resolved := make([]nowcast.Location, 0, len(locs))
	for _, loc := range locs {
		l, err := r.Resolve(loc)
		if err != nil {
			log.Printf("ERROR: skipping location %s: %v", loc, err)
			continue
		}
		resolved = append(resolved, l)
	}
	return resolved
}
