package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/listing"
	"github.com/homescout/homescout/internal/listing/booli"
	"github.com/homescout/homescout/internal/provider"
	"github.com/homescout/homescout/internal/transit"
)

// ListingSource finds areas and searches listings.
type ListingSource interface {
	FindAreaID(ctx context.Context, term string, opts booli.AreaOptions) (string, bool, error)
	Search(ctx context.Context, input listing.SearchInput, opts booli.SearchOptions) (*listing.SearchResult, error)
}

// JourneyPlanner searches stops and plans journeys.
type JourneyPlanner interface {
	SearchPoints(ctx context.Context, query string) ([]transit.Point, error)
	PlanJourney(ctx context.Context, req transit.JourneyRequest) (*transit.JourneyPlan, error)
}

// DefaultConcurrency is the number of listings enriched at once.
const DefaultConcurrency = 4

// maxImageBytes caps a downloaded listing image. Larger images are dropped.
const maxImageBytes = 5 << 20

// ServiceConfig holds configuration for the digest service.
type ServiceConfig struct {
	Listings ListingSource
	Transit  JourneyPlanner

	// Images downloads listing images. Nil disables image download.
	Images provider.HTTPDoer

	// Concurrency bounds listing enrichment (default 4).
	Concurrency int

	// Now is the clock used for departures and timestamps (default time.Now).
	Now func() time.Time

	Logger zerolog.Logger
}

// Service runs digests.
type Service struct {
	listings    ListingSource
	transit     JourneyPlanner
	images      provider.HTTPDoer
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewService creates a digest service.
func NewService(cfg ServiceConfig) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		listings:    cfg.Listings,
		transit:     cfg.Transit,
		images:      cfg.Images,
		concurrency: concurrency,
		now:         now,
		logger:      cfg.Logger,
	}
}

// Run executes the search described by profile and enriches every listing.
// Listing search failures abort the run; commute and image failures only
// affect the listing concerned.
func (s *Service) Run(ctx context.Context, profile config.Profile) (*Digest, error) {
	runID := uuid.New().String()
	logger := s.logger.With().Str("run_id", runID).Logger()
	start := s.now()

	areaID, found, err := s.listings.FindAreaID(ctx, profile.Area, booli.AreaOptions{Type: profile.AreaType})
	if err != nil {
		return nil, fmt.Errorf("resolving area %q: %w", profile.Area, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAreaNotFound, profile.Area)
	}

	logger.Info().
		Str("area", profile.Area).
		Str("area_id", areaID).
		Strs("filters", profile.FilterSummary()).
		Msg("resolved search area")

	input, err := listing.BuildSearchInput(profile.SearchParams(areaID))
	if err != nil {
		return nil, fmt.Errorf("building search input: %w", err)
	}

	result, err := s.listings.Search(ctx, input, booli.SearchOptions{Limit: profile.Limit})
	if err != nil {
		return nil, fmt.Errorf("searching listings: %w", err)
	}

	origin := s.resolveOrigin(ctx, logger, profile.Origin)

	listings := result.ForSale.Result
	properties := make([]Property, len(listings))

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i := range listings {
		p.Go(func() {
			properties[i] = s.enrich(ctx, logger, profile, origin, &listings[i], i)
		})
	}
	p.Wait()

	d := &Digest{
		RunID:       runID,
		GeneratedAt: s.now(),
		Profile:     profile,
		AreaID:      areaID,
		TotalCount:  result.ForSale.TotalCount,
		Properties:  properties,
	}

	withCommute := 0
	for i := range properties {
		if properties[i].Journey != nil {
			withCommute++
		}
	}

	logger.Info().
		Int("total_count", d.TotalCount).
		Int("properties", len(properties)).
		Int("with_commute", withCommute).
		Dur("duration", s.now().Sub(start)).
		Msg("digest completed")

	return d, nil
}

// resolveOrigin looks the commute origin up once per run. A nil result
// marks every commute as unavailable.
func (s *Service) resolveOrigin(ctx context.Context, logger zerolog.Logger, origin string) *transit.PointRef {
	_, ref, err := transit.ResolvePoint(ctx, s.transit, origin)
	if err != nil {
		logger.Warn().Err(err).Str("origin", origin).Msg("failed to resolve commute origin")
		return nil
	}
	return &ref
}

func (s *Service) enrich(ctx context.Context, logger zerolog.Logger, profile config.Profile, origin *transit.PointRef, l *listing.Listing, index int) Property {
	prop := Property{
		ID:         l.BooliID.String(),
		Address:    l.StreetAddress,
		Type:       l.ObjectType,
		Location:   joinNonEmpty(", ", l.DescriptiveAreaName, l.Location.Region.MunicipalityName),
		Price:      l.PriceText(),
		Estimate:   l.EstimateText(),
		URL:        profile.ListingBaseURL + l.URL,
		TravelTime: TravelTimeUnavailable,
	}
	if prop.ID == "" {
		prop.ID = fmt.Sprint(index)
	}

	if origin != nil {
		jt, err := s.commute(ctx, *origin, l.TransitQuery())
		if err != nil {
			logger.Warn().
				Err(err).
				Str("address", l.StreetAddress).
				Msg("failed to calculate travel time")
		} else if jt != nil {
			prop.Journey = jt
			prop.TravelTime = jt.Formatted
		}
	}

	if id := l.ImageID(); id != "" {
		prop.ImageURL = fmt.Sprintf("%s/%s_420x0.jpg", strings.TrimSuffix(profile.ImageBaseURL, "/"), id)
		if s.images != nil {
			img, err := s.fetchImage(ctx, prop.ImageURL, prop.ID)
			if err != nil {
				logger.Warn().Err(err).Str("url", prop.ImageURL).Msg("failed to fetch image")
			} else {
				prop.Image = img
			}
		}
	}

	return prop
}

// commute returns the first planned journey from origin to the destination
// address, or nil when the planner finds no destination or no journey.
func (s *Service) commute(ctx context.Context, origin transit.PointRef, destination string) (*transit.JourneyTime, error) {
	_, to, err := transit.ResolvePoint(ctx, s.transit, destination)
	if errors.Is(err, transit.ErrPointNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	plan, err := s.transit.PlanJourney(ctx, transit.JourneyRequest{
		From:      origin,
		To:        to,
		Departure: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("planning journey: %w", err)
	}

	return transit.CalculateJourneyTime(plan, 0), nil
}

func (s *Service) fetchImage(ctx context.Context, imageURL, propertyID string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.images.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if !provider.IsSuccess(resp.StatusCode) {
		return nil, &provider.StatusError{Provider: "images", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	ext := "jpg"
	if strings.Contains(contentType, "png") {
		ext = "png"
	}

	return &Image{
		Data:        data,
		ContentType: contentType,
		CID:         "property-" + propertyID,
		Filename:    fmt.Sprintf("property-%s.%s", propertyID, ext),
	}, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
