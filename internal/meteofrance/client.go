// Package meteofrance fetches raw "rain in the next hour" payloads from the
// Météo-France web service.
package meteofrance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/rain-nowcast/internal/rain"
)

const (
	DefaultBaseURL = "https://webservice.meteofrance.com"
	rainPath       = "/v3/rain"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	Token     string
	Lang      string
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	Backoff   BackoffConfig
}

// Client fetches rain nowcasts for a coordinate.
type Client struct {
	name    string
	baseURL string
	token   string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewClient(client *http.Client, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	lang := opts.Lang
	if lang == "" {
		lang = "fr"
	}
	backoff := opts.Backoff
	if backoff.InitialInterval <= 0 {
		backoff = BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		name:    "meteofrance",
		baseURL: baseURL,
		token:   opts.Token,
		lang:    lang,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
			Limiter: limiter,
		},
		circuit: newCircuitBreaker("meteofrance"),
	}
}

func (c *Client) Name() string {
	return c.name
}

// FetchRain returns the undecoded payload for the given coordinate. Non-2xx answers
// come back as *HTTPError, unchanged.
func (c *Client) FetchRain(ctx context.Context, lat, lon float64) (rain.RawPayload, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("lang", c.lang)
		if c.token != "" {
			values.Set("token", c.token)
		}

		u := fmt.Sprintf("%s%s?%s", c.baseURL, rainPath, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rain response: %w", err)
	}

	return rain.DecodePayload(body)
}
