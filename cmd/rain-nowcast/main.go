package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/rain-nowcast/internal/api/http"
	"github.com/i474232898/rain-nowcast/internal/config"
	"github.com/i474232898/rain-nowcast/internal/geocode"
	"github.com/i474232898/rain-nowcast/internal/meteofrance"
	"github.com/i474232898/rain-nowcast/internal/nowcast"
	"github.com/i474232898/rain-nowcast/internal/scheduler"
	"github.com/i474232898/rain-nowcast/internal/store"
)

func main() {
	// Load configuration (also reads .env).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Météo-France client with resilience (rate limit + backoff + circuit breaker).
	client := meteofrance.NewClient(httpClient, meteofrance.Options{
		BaseURL:   cfg.MeteoFranceBaseURL,
		Token:     cfg.MeteoFranceToken,
		Lang:      cfg.MeteoFranceLang,
		RateLimit: cfg.RateLimitRPS,
		Burst:     cfg.RateLimitBurst,
	})

	service := nowcast.NewService(memStore, client)

	locations := cfg.Locations
	if resolver, err := geocode.NewResolver(cfg.GeocoderAPIKey); err == nil {
		locations = resolver.ResolveAll(locations)
	} else {
		// Without geocoding only explicit coordinates can be tracked.
		log.Printf("INFO: %v; city locations are skipped", err)
		locations = withCoordinates(locations)
	}

	// Scheduler that periodically refreshes rain reports.
	sched := scheduler.New(locations, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "rain-nowcast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "rain-nowcast",
			"locations": len(locations),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func withCoordinates(locs []nowcast.Location) []nowcast.Location {
	var out []nowcast.Location
	for _, l := range locs {
		if l.Lat != 0 || l.Lon != 0 {
			out = append(out, l)
		}
	}
	return out
}
