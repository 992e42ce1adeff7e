package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/rain-nowcast/internal/meteofrance"
	"github.com/i474232898/rain-nowcast/internal/nowcast"
	"github.com/i474232898/rain-nowcast/internal/rain"
	"github.com/i474232898/rain-nowcast/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *nowcast.Service) {
	v1 := app.Group("/api/v1")

	// Live fetch; the report is also stored.
	v1.Get("/rain", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.FetchAndStore(c.UserContext(), q.toLocation())
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(report)
	})

	v1.Get("/rain/latest", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetLatest(q.toLocation())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no rain report for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch rain report")
		}

		return c.JSON(report)
	})

	v1.Get("/rain/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		reports, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no rain history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch rain history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})

	// Normalize a payload fetched elsewhere; accepts either wire format.
	v1.Post("/rain/normalize", func(c *fiber.Ctx) error {
		raw, err := rain.DecodePayload(c.Body())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Normalize(raw, nowcast.Location{})
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(report)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// toFiberError maps service errors to HTTP statuses. Upstream client errors keep
// their status (a 400 means the zone is not covered).
func toFiberError(err error) error {
	var (
		missing   *rain.MissingFieldError
		invalid   *rain.InvalidFieldError
		malformed *rain.MalformedTimestampError
		upstream  *meteofrance.HTTPError
	)

	switch {
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &malformed):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &upstream):
		if upstream.StatusCode >= 400 && upstream.StatusCode < 500 && !upstream.Temporary() {
			return fiber.NewError(upstream.StatusCode, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, meteofrance.ErrCircuitOpen), errors.Is(err, nowcast.ErrNoFetcher):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch rain forecast")
	}
}

// coordinateQuery holds query parameters for identifying a location.
type coordinateQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func (q coordinateQuery) toLocation() nowcast.Location {
	return nowcast.Location{
		Lat: *q.Lat,
		Lon: *q.Lon,
	}
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	var q coordinateQuery

	var err error
	if q.Lat, err = parseFloatQuery(c, "lat"); err != nil {
		return q, err
	}
	if q.Lon, err = parseFloatQuery(c, "lon"); err != nil {
		return q, err
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func parseFloatQuery(c *fiber.Ctx, key string) (*float64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("invalid " + key + " query parameter")
	}
	return &f, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location coordinateQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseCoordinateQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
