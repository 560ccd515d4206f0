package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/listing/booli"
	"github.com/homescout/homescout/internal/transit"
)

// DefaultCheckTimeout bounds one provider check.
const DefaultCheckTimeout = 30 * time.Second

// ProviderCheck verifies that both upstream services answer for the
// configured profile without running a full digest.
type ProviderCheck struct {
	listings digest.ListingSource
	points   transit.PointSearcher
	profile  config.Profile
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewProviderCheck creates a provider check for profile.
func NewProviderCheck(listings digest.ListingSource, points transit.PointSearcher, profile config.Profile, logger zerolog.Logger) *ProviderCheck {
	return &ProviderCheck{
		listings: listings,
		points:   points,
		profile:  profile,
		timeout:  DefaultCheckTimeout,
		logger:   logger,
	}
}

// Check looks up the profile area and resolves the commute origin.
func (c *ProviderCheck) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Msg("running provider check")

	_, found, err := c.listings.FindAreaID(ctx, c.profile.Area, booli.AreaOptions{Type: c.profile.AreaType})
	if err != nil {
		return fmt.Errorf("listing provider: %w", err)
	}
	if !found {
		return fmt.Errorf("listing provider: %w: %q", digest.ErrAreaNotFound, c.profile.Area)
	}

	if _, _, err := transit.ResolvePoint(ctx, c.points, c.profile.Origin); err != nil {
		return fmt.Errorf("transit provider: %w", err)
	}

	c.logger.Debug().Msg("provider check passed")
	return nil
}
