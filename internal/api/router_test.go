package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout/homescout/internal/api"
	"github.com/homescout/homescout/internal/api/models"
	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/listing"
	"github.com/homescout/homescout/internal/provider/resilience"
	"github.com/homescout/homescout/internal/transit"
)

type stubAreas struct{}

func (stubAreas) SearchArea(context.Context, string) ([]listing.AreaSuggestion, error) {
	return []listing.AreaSuggestion{{ID: "2", DisplayName: "Skåne län", Type: "Län"}}, nil
}

type stubPlanner struct{}

func (stubPlanner) SearchPoints(context.Context, string) ([]transit.Point, error) {
	return []transit.Point{{ID2: "1", Type: transit.PointStopArea, Name: "Lund C"}}, nil
}

func (stubPlanner) PlanJourney(context.Context, transit.JourneyRequest) (*transit.JourneyPlan, error) {
	return &transit.JourneyPlan{}, nil
}

type stubRunner struct{}

func (stubRunner) Run(_ context.Context, profile config.Profile) (*digest.Digest, error) {
	return &digest.Digest{RunID: "run-1", Profile: profile}, nil
}

func newTestRouter(requireTLS bool) http.Handler {
	registry := resilience.NewRegistry()
	registry.Register("booli", resilience.NewCircuitBreaker[*http.Response](resilience.DefaultCircuitBreakerConfig("booli")))
	registry.RecordSuccess("booli")

	return api.NewRouter(api.RouterConfig{
		Version:    "test",
		BuildTime:  "2024-01-01T00:00:00Z",
		Logger:     zerolog.New(io.Discard),
		RequireTLS: requireTLS,
		Providers:  registry,
		Areas:      stubAreas{},
		Journeys:   stubPlanner{},
		Digests:    stubRunner{},
		Profile:    config.DefaultProfile(),
	})
}

func serve(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(false)

	tests := []struct {
		target      string
		status      int
		contentType string
	}{
		{"/v1/ops/health", http.StatusOK, "application/json"},
		{"/v1/ops/status", http.StatusOK, "application/json"},
		{"/v1/areas?q=sk%C3%A5ne", http.StatusOK, "application/json"},
		{"/v1/journeys?from=Lund&to=Malm%C3%B6", http.StatusOK, "application/json"},
		{"/v1/digest/preview", http.StatusOK, "text/html; charset=utf-8"},
		{"/v1/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(router, tt.target)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRouter_StatusReportsRegisteredProviders(t *testing.T) {
	rec := serve(newTestRouter(false), "/v1/ops/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "booli", status.Providers[0].Provider)
	assert.NotNil(t, status.Providers[0].LastSuccessAt)
}

func TestRouter_PreviewIsRateLimited(t *testing.T) {
	router := newTestRouter(false)

	var last int
	for i := 0; i < 6; i++ {
		last = serve(router, "/v1/digest/preview").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	assert.Equal(t, http.StatusOK, serve(router, "/v1/ops/health").Code, "ops routes are not limited")
}

func TestRouter_RequireTLS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")

	rec := httptest.NewRecorder()
	newTestRouter(true).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
