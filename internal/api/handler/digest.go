package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/api/models"
	"github.com/homescout/homescout/internal/api/response"
	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
)

// maxPreviewLimit caps the listings a preview may enrich.
const maxPreviewLimit = 50

// DigestRunner runs a digest for a search profile.
type DigestRunner interface {
	Run(ctx context.Context, profile config.Profile) (*digest.Digest, error)
}

// DigestHandler renders digest previews.
type DigestHandler struct {
	runner  DigestRunner
	profile config.Profile
	logger  zerolog.Logger
}

// NewDigestHandler creates a DigestHandler previewing profile.
func NewDigestHandler(runner DigestRunner, profile config.Profile, logger zerolog.Logger) *DigestHandler {
	return &DigestHandler{runner: runner, profile: profile, logger: logger}
}

// Preview handles GET /v1/digest/preview?area=&areaType=&limit= and returns
// the digest page with remote image links. Query parameters override the
// configured profile for this request only.
func (h *DigestHandler) Preview(w http.ResponseWriter, r *http.Request) {
	profile := h.profile
	q := r.URL.Query()

	if area := q.Get("area"); area != "" {
		profile.Area = area
		profile.AreaType = q.Get("areaType")
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPreviewLimit {
			response.BadRequest(w, r, "invalid preview query", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(maxPreviewLimit), Code: "OUT_OF_RANGE"},
			})
			return
		}
		profile.Limit = limit
	}
	if profile.Limit > maxPreviewLimit {
		profile.Limit = maxPreviewLimit
	}

	d, err := h.runner.Run(r.Context(), profile)
	if err != nil {
		if errors.Is(err, digest.ErrAreaNotFound) {
			response.NotFound(w, r, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("area", profile.Area).Msg("digest preview failed")
		upstreamFailed(w, r, "digest run failed", err)
		return
	}

	body, err := digest.Render(d, digest.ImagesRemote)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", d.RunID).Msg("rendering digest failed")
		response.InternalError(w, r, "rendering digest failed")
		return
	}

	response.HTML(w, r, body)
}
