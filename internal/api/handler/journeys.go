package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/api/models"
	"github.com/homescout/homescout/internal/api/response"
	"github.com/homescout/homescout/internal/transit"
)

// JourneyPlanner resolves stops and plans journeys between them.
type JourneyPlanner interface {
	transit.PointSearcher
	PlanJourney(ctx context.Context, req transit.JourneyRequest) (*transit.JourneyPlan, error)
}

// JourneyHandler serves journey plans between two free-text places.
type JourneyHandler struct {
	planner JourneyPlanner
	logger  zerolog.Logger
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(planner JourneyPlanner, logger zerolog.Logger) *JourneyHandler {
	return &JourneyHandler{planner: planner, logger: logger}
}

// PlanJourneys handles GET /v1/journeys?from=&to=&departure=&arrival=.
// departure is RFC3339 and defaults to now; arrival=true plans to arrive by it.
func (h *JourneyHandler) PlanJourneys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))

	var fieldErrors []models.FieldError
	if from == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "from", Message: "required", Code: "REQUIRED"})
	}
	if to == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "to", Message: "required", Code: "REQUIRED"})
	}

	var departure time.Time
	if raw := q.Get("departure"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "departure", Message: "must be an RFC3339 timestamp", Code: "INVALID_FORMAT"})
		}
		departure = t
	}

	var arrival bool
	if raw := q.Get("arrival"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "arrival", Message: "must be a boolean", Code: "INVALID_FORMAT"})
		}
		arrival = b
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid journey query", fieldErrors)
		return
	}

	fromPoint, fromRef, ok := h.resolve(w, r, "from", from)
	if !ok {
		return
	}
	toPoint, toRef, ok := h.resolve(w, r, "to", to)
	if !ok {
		return
	}

	plan, err := h.planner.PlanJourney(r.Context(), transit.JourneyRequest{
		From:      fromRef,
		To:        toRef,
		Departure: departure,
		Arrival:   arrival,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("from", from).Str("to", to).Msg("journey planning failed")
		upstreamFailed(w, r, "journey planning failed", err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.JourneyList{
		From:     place(fromPoint),
		To:       place(toPoint),
		Journeys: journeyOptions(plan),
	})
}

// resolve writes the error response itself and reports false on failure.
func (h *JourneyHandler) resolve(w http.ResponseWriter, r *http.Request, field, query string) (*transit.Point, transit.PointRef, bool) {
	point, ref, err := transit.ResolvePoint(r.Context(), h.planner, query)
	switch {
	case err == nil:
		return point, ref, true
	case errors.Is(err, transit.ErrPointNotFound):
		response.NotFound(w, r, "no stop or address matches "+field+" "+strconv.Quote(query))
	case errors.Is(err, transit.ErrMissingCoordinates):
		response.NotFound(w, r, field+" "+strconv.Quote(query)+" has no usable coordinates")
	default:
		h.logger.Error().Err(err).Str(field, query).Msg("stop search failed")
		upstreamFailed(w, r, "stop search failed", err)
	}
	return nil, transit.PointRef{}, false
}

func place(p *transit.Point) models.Place {
	return models.Place{ID: p.ID2, Name: p.Name, Type: string(p.Type)}
}

func journeyOptions(plan *transit.JourneyPlan) []models.JourneyOption {
	options := []models.JourneyOption{}
	if plan == nil {
		return options
	}

	for i, j := range plan.Journeys {
		jt := transit.CalculateJourneyTime(plan, i)
		if jt == nil {
			continue
		}

		option := models.JourneyOption{
			Departs:      models.Timestamp(jt.StartTime),
			Arrives:      models.Timestamp(jt.EndTime),
			TotalMinutes: jt.TotalMinutes,
			Duration:     jt.Formatted,
			Changes:      j.NoOfChanges,
			Legs:         make([]models.Leg, 0, len(j.RouteLinks)),
		}
		for _, link := range j.RouteLinks {
			option.Legs = append(option.Legs, models.Leg{
				Mode:     string(link.Line.Type),
				Line:     strings.TrimSpace(link.Line.Name + " " + link.Line.No),
				Towards:  link.Line.Towards,
				From:     link.From.Name,
				To:       link.To.Name,
				Departs:  models.Timestamp(link.From.Time),
				Arrives:  models.Timestamp(link.To.Time),
				Distance: link.Line.Distance,
			})
		}
		options = append(options, option)
	}
	return options
}
