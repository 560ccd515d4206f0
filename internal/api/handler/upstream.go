package handler

import (
	"errors"
	"net/http"

	"github.com/homescout/homescout/internal/api/response"
	"github.com/homescout/homescout/internal/provider/resilience"
)

// upstreamFailed answers a failed provider call: 503 while the provider's
// circuit breaker is open, 502 otherwise.
func upstreamFailed(w http.ResponseWriter, r *http.Request, detail string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		response.ServiceUnavailable(w, r, detail+": provider temporarily unavailable")
		return
	}
	response.BadGateway(w, r, detail)
}
