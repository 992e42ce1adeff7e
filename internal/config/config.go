package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/rain-nowcast/internal/nowcast"
)

type AppConfig struct {
	Port string

	// Météo-France web service.
	MeteoFranceBaseURL string
	MeteoFranceToken   string
	MeteoFranceLang    string
	HTTPTimeout        time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int

	// FetchInterval controls how often we refresh each location.
	FetchInterval time.Duration

	// Locations to track. Entries without coordinates need geocoding.
	Locations      []nowcast.Location
	GeocoderAPIKey string

	// In-memory store retention.
	StoreMaxHistory int           // max number of reports per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.MeteoFranceBaseURL = getenvDefault("METEOFRANCE_BASE_URL", "https://webservice.meteofrance.com")
	cfg.MeteoFranceToken = os.Getenv("METEOFRANCE_TOKEN")
	cfg.MeteoFranceLang = getenvDefault("METEOFRANCE_LANG", "fr")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	// Nowcast slots are 5 minutes apart; default to the same cadence.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.RateLimitRPS = getenvFloat("RATE_LIMIT_RPS", 1)
	cfg.RateLimitBurst = getenvInt("RATE_LIMIT_BURST", 3)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 288) // roughly 24h at 5-minute intervals

	coords, err := parseCoordinates(os.Getenv("RAIN_COORDINATES"))
	if err != nil {
		return nil, err
	}
	cities, err := loadCityLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = append(coords, cities...)

	return cfg, nil
}

// parseCoordinates reads "lat,lon;lat,lon".
func parseCoordinates(s string) ([]nowcast.Location, error) {
	var locs []nowcast.Location
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid RAIN_COORDINATES entry %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid latitude in RAIN_COORDINATES entry %q", pair)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid longitude in RAIN_COORDINATES entry %q", pair)
		}
		locs = append(locs, nowcast.Location{Lat: lat, Lon: lon})
	}
	return locs, nil
}

func loadCityLocations() ([]nowcast.Location, error) {
	city := os.Getenv("WEATHER_LOCATION_CITY")
	country := os.Getenv("WEATHER_LOCATION_COUNTRY")
	if city == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	var locs []nowcast.Location
	for i := range cities {
		locs = append(locs, nowcast.Location{
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
