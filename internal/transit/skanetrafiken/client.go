// Package skanetrafiken provides a client for the Skånetrafiken journey planner.
package skanetrafiken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/provider"
	"github.com/homescout/homescout/internal/provider/resilience"
	"github.com/homescout/homescout/internal/transit"
)

const (
	// ProviderName identifies this transit provider.
	ProviderName = "skanetrafiken"

	// DefaultBaseURL is the journey planner API base URL.
	DefaultBaseURL = "https://www.skanetrafiken.se/gw-tps/api/v2"
)

// departureLayout matches the millisecond UTC form the planner web client sends.
const departureLayout = "2006-01-02T15:04:05.000Z"

// ClientConfig holds configuration for the Skånetrafiken client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to Skånetrafiken).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient provider.HTTPDoer

	// Timeout is the request timeout of the default HTTP client.
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// CircuitBreaker overrides the breaker of the default HTTP client
	// (optional, defaults to resilience.DefaultCircuitBreakerConfig).
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Now returns the default departure time (optional, defaults to time.Now).
	Now func() time.Time

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Skånetrafiken journey planner client.
type Client struct {
	baseURL    string
	httpClient provider.HTTPDoer
	now        func() time.Time
	logger     zerolog.Logger
}

// NewClient creates a new Skånetrafiken client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.Registry = cfg.Registry
		if cfg.CircuitBreaker != nil {
			clientCfg.CircuitBreaker = cfg.CircuitBreaker
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		now:        now,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type pointsResponse struct {
	Points []transit.Point `json:"points"`
}

// SearchPoints looks up stops and places by name. A response without
// points yields an empty slice.
func (c *Client) SearchPoints(ctx context.Context, query string) ([]transit.Point, error) {
	// encodeURIComponent form: spaces as %20, not '+'.
	name := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	endpoint := c.baseURL + "/Points?name=" + name

	var resp pointsResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("points", len(resp.Points)).
		Msg("searched transit points")

	if resp.Points == nil {
		return []transit.Point{}, nil
	}
	return resp.Points, nil
}

// PlanJourney plans journeys between two endpoints. An empty journey list
// is returned as is; callers decide what no itinerary means.
func (c *Client) PlanJourney(ctx context.Context, req transit.JourneyRequest) (*transit.JourneyPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.WithDefaults(c.now())

	fromID, fromType := req.From.Normalize()
	toID, toType := req.To.Normalize()

	params := url.Values{}
	params.Set("fromPointId", fromID)
	params.Set("fromPointType", string(fromType))
	params.Set("toPointId", toID)
	params.Set("toPointType", string(toType))
	params.Set("departure", req.Departure.UTC().Format(departureLayout))
	params.Set("arrival", strconv.FormatBool(req.Arrival))
	params.Set("priority", req.Priority)
	params.Set("isBobCapable", "false")
	params.Set("journeysAfter", strconv.Itoa(req.JourneysAfter))
	params.Set("walkSpeed", req.WalkSpeed)
	params.Set("maxWalkDistance", strconv.Itoa(req.MaxWalkDistance))
	params.Set("allowWalkToOtherStop", strconv.FormatBool(*req.AllowWalkToOtherStop))

	var plan transit.JourneyPlan
	if err := c.get(ctx, c.baseURL+"/Journey?"+params.Encode(), &plan); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("from", fromID).
		Str("to", toID).
		Int("journeys", len(plan.Journeys)).
		Msg("planned journey")

	return &plan, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if !provider.IsSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &provider.StatusError{Provider: ProviderName, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// setHeaders sets common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "sv-SE")
	req.Header.Set("search-engine-environment", "TjP")
}
