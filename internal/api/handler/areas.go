package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/api/models"
	"github.com/homescout/homescout/internal/api/response"
	"github.com/homescout/homescout/internal/listing"
	"github.com/homescout/homescout/internal/listing/booli"
)

// AreaSearcher looks listing areas up by name.
type AreaSearcher interface {
	SearchArea(ctx context.Context, term string) ([]listing.AreaSuggestion, error)
}

// AreaHandler serves area lookups.
type AreaHandler struct {
	areas  AreaSearcher
	logger zerolog.Logger
}

// NewAreaHandler creates a new AreaHandler.
func NewAreaHandler(areas AreaSearcher, logger zerolog.Logger) *AreaHandler {
	return &AreaHandler{areas: areas, logger: logger}
}

// SearchAreas handles GET /v1/areas?q=&type=. With type set, the matching
// suggestion id is reported as selected.
func (h *AreaHandler) SearchAreas(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		response.BadRequest(w, r, "query parameter q is required", []models.FieldError{
			{Field: "q", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	suggestions, err := h.areas.SearchArea(r.Context(), term)
	if err != nil {
		h.logger.Error().Err(err).Str("term", term).Msg("area search failed")
		upstreamFailed(w, r, "area search failed", err)
		return
	}

	list := models.AreaList{Query: term, Items: make([]models.Area, 0, len(suggestions))}
	for _, s := range suggestions {
		list.Items = append(list.Items, models.Area{
			ID:       s.ID,
			Name:     s.DisplayName,
			Type:     s.Type,
			TypeName: s.TypeDisplayName,
			Parent:   s.ParentDisplayName,
		})
	}

	if areaType := r.URL.Query().Get("type"); areaType != "" {
		if id, ok := booli.PickArea(suggestions, areaType); ok {
			list.Selected = &id
		}
	}

	response.JSON(w, r, http.StatusOK, list)
}
