// Package booli provides a client for the Booli listing GraphQL API.
// The API only accepts persisted queries: requests carry an operation name,
// its registered hash and the variables, never query text.
package booli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/listing"
	"github.com/homescout/homescout/internal/provider"
	"github.com/homescout/homescout/internal/provider/resilience"
)

const (
	// ProviderName identifies this listing provider.
	ProviderName = "booli"

	// DefaultBaseURL is the Booli GraphQL endpoint.
	DefaultBaseURL = "https://www.booli.se/graphql"

	// DefaultQueryContext is the query context the search page uses.
	DefaultQueryContext = "SERP_LIST_LISTING"

	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 35
)

// DefaultHeaders returns the header set the Booli web client sends.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Api-Client", "booli.se")
	h.Set("Content-Type", "application/json")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	return h
}

// ClientConfig holds configuration for the Booli client.
type ClientConfig struct {
	// BaseURL is the GraphQL endpoint (optional, defaults to Booli).
	BaseURL string

	// Headers replaces the default header set when non-nil.
	Headers http.Header

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

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Booli GraphQL client. It carries only static configuration and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient provider.HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Booli client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	headers := cfg.Headers
	if headers == nil {
		headers = DefaultHeaders()
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

	return &Client{
		baseURL:    baseURL,
		headers:    headers.Clone(),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type persistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

type extensions struct {
	PersistedQuery persistedQuery `json:"persistedQuery"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// envelopeErrors returns the entries of a non-empty errors member. Array
// elements are returned as they are; any other value is a single entry.
func envelopeErrors(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch string(trimmed) {
	case "null", "false", "0", `""`:
		return nil
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if json.Unmarshal(trimmed, &entries) == nil {
			return entries
		}
	case '{':
		var members map[string]json.RawMessage
		if json.Unmarshal(trimmed, &members) == nil && len(members) == 0 {
			return nil
		}
	}
	return []json.RawMessage{append(json.RawMessage(nil), trimmed...)}
}

// Query executes a persisted query and returns the data member of the response.
func (c *Client) Query(ctx context.Context, operation string, variables any) (json.RawMessage, error) {
	hash, ok := OperationHash(operation)
	if !ok {
		return nil, &listing.UnknownOperationError{Operation: operation, Available: Operations()}
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("encoding variables: %w", err)
	}
	ext, err := json.Marshal(extensions{PersistedQuery: persistedQuery{
		Version:    persistedQueryProtocolVersion,
		SHA256Hash: hash,
	}})
	if err != nil {
		return nil, fmt.Errorf("encoding extensions: %w", err)
	}

	params := url.Values{}
	params.Set("operationName", operation)
	params.Set("variables", string(vars))
	params.Set("extensions", string(ext))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}

	c.logger.Debug().
		Str("operation", operation).
		Msg("querying listing service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if !provider.IsSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.StatusError{Provider: ProviderName, StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if errs := envelopeErrors(env.Errors); len(errs) > 0 {
		return nil, &listing.GraphQLError{Errors: errs}
	}

	return env.Data, nil
}

// SearchOptions tunes a listing search.
type SearchOptions struct {
	// QueryContext defaults to DefaultQueryContext.
	QueryContext string

	// Limit defaults to DefaultLimit.
	Limit int
}

type searchVariables struct {
	QueryContext string              `json:"queryContext"`
	Limit        int                 `json:"limit"`
	Input        listing.SearchInput `json:"input"`
}

// Search returns one page of for-sale listings.
func (c *Client) Search(ctx context.Context, input listing.SearchInput, opts SearchOptions) (*listing.SearchResult, error) {
	vars := searchVariables{
		QueryContext: opts.QueryContext,
		Limit:        opts.Limit,
		Input:        input,
	}
	if vars.QueryContext == "" {
		vars.QueryContext = DefaultQueryContext
	}
	if vars.Limit <= 0 {
		vars.Limit = DefaultLimit
	}
	if vars.Input.Filters == nil {
		vars.Input.Filters = []listing.Filter{}
	}
	if vars.Input.Facets == nil {
		vars.Input.Facets = []string{}
	}

	data, err := c.Query(ctx, OperationSearch, vars)
	if err != nil {
		return nil, err
	}

	var result listing.SearchResult
	if err := decodeData(data, &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("total_count", result.ForSale.TotalCount).
		Int("returned", len(result.ForSale.Result)).
		Msg("received listings")

	return &result, nil
}

// GetPolygons returns the map polygons for the given areas, undecoded.
func (c *Client) GetPolygons(ctx context.Context, input listing.PolygonInput) (json.RawMessage, error) {
	if input.Filters == nil {
		input.Filters = []listing.Filter{}
	}
	return c.Query(ctx, OperationPolygons, map[string]any{"input": input})
}

// GetUserSearchHistory returns human-readable descriptions of saved searches, undecoded.
// Each group is the parameter list of one search.
func (c *Client) GetUserSearchHistory(ctx context.Context, paramGroups [][]listing.Filter) (json.RawMessage, error) {
	if paramGroups == nil {
		paramGroups = [][]listing.Filter{}
	}
	return c.Query(ctx, OperationUserSearchHistory, map[string]any{
		"input": map[string]any{"params": paramGroups},
	})
}

type areaSuggestionData struct {
	AreaSuggestionSearch *struct {
		Suggestions []listing.AreaSuggestion `json:"suggestions"`
	} `json:"areaSuggestionSearch"`
}

// SearchArea looks up areas matching a free-text term.
func (c *Client) SearchArea(ctx context.Context, term string) ([]listing.AreaSuggestion, error) {
	data, err := c.Query(ctx, OperationAreaSuggestionSearch, map[string]string{"search": term})
	if err != nil {
		return nil, err
	}

	var result areaSuggestionData
	if err := decodeData(data, &result); err != nil {
		return nil, err
	}
	if result.AreaSuggestionSearch == nil {
		return []listing.AreaSuggestion{}, nil
	}

	return result.AreaSuggestionSearch.Suggestions, nil
}

// AreaOptions narrows FindAreaID.
type AreaOptions struct {
	// Type, when set, must equal the suggestion type exactly (e.g. "Län", "Kommun").
	Type string
}

// FindAreaID resolves a place name to an area id. found is false when nothing matched.
func (c *Client) FindAreaID(ctx context.Context, term string, opts AreaOptions) (id string, found bool, err error) {
	suggestions, err := c.SearchArea(ctx, term)
	if err != nil {
		return "", false, err
	}

	id, found = PickArea(suggestions, opts.Type)
	return id, found, nil
}

// PickArea selects the area id FindAreaID would return from a list of suggestions.
func PickArea(suggestions []listing.AreaSuggestion, areaType string) (string, bool) {
	if len(suggestions) == 0 {
		return "", false
	}

	if areaType == "" {
		return suggestions[0].ID, true
	}

	for _, s := range suggestions {
		if s.Type == areaType {
			return s.ID, true
		}
	}
	return "", false
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}
