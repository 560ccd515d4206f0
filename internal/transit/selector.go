package transit

import (
	"context"
	"fmt"
	"math"
)

// PointSearcher looks transit points up by free text.
type PointSearcher interface {
	SearchPoints(ctx context.Context, query string) ([]Point, error)
}

// ResolvePoint searches query and returns the best point with its journey
// reference. It returns ErrPointNotFound when the search has no results.
func ResolvePoint(ctx context.Context, s PointSearcher, query string) (*Point, PointRef, error) {
	points, err := s.SearchPoints(ctx, query)
	if err != nil {
		return nil, PointRef{}, err
	}

	best := SelectBestPoint(points)
	if best == nil {
		return nil, PointRef{}, fmt.Errorf("%w: %q", ErrPointNotFound, query)
	}

	ref, err := RefFromPoint(*best)
	if err != nil {
		return nil, PointRef{}, err
	}
	return best, ref, nil
}

// SelectBestPoint picks the endpoint to plan from a stop search result.
// The first stop area wins; otherwise the first point; nil when empty.
func SelectBestPoint(points []Point) *Point {
	if len(points) == 0 {
		return nil
	}

	for i := range points {
		if points[i].Type == PointStopArea {
			p := points[i]
			return &p
		}
	}

	p := points[0]
	return &p
}

// CalculateJourneyTime returns the elapsed time of the journey at index,
// measured from the first leg's departure to the last leg's arrival.
// It returns nil when there is no such journey, it has no legs, either end
// time is missing or the arrival precedes the departure.
func CalculateJourneyTime(plan *JourneyPlan, index int) *JourneyTime {
	if plan == nil || len(plan.Journeys) == 0 {
		return nil
	}
	if index < 0 || index >= len(plan.Journeys) {
		return nil
	}

	links := plan.Journeys[index].RouteLinks
	if len(links) == 0 {
		return nil
	}

	start := links[0].From.Time
	end := links[len(links)-1].To.Time
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	total := int(math.Round(end.Sub(start).Minutes()))

	return &JourneyTime{
		TotalMinutes: total,
		Hours:        total / 60,
		Minutes:      total % 60,
		Formatted:    FormatMinutes(total),
		StartTime:    start,
		EndTime:      end,
	}
}

// FormatMinutes renders a duration in minutes as "1h 30m" or "47m".
func FormatMinutes(total int) string {
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
