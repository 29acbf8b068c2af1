package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const retryAfterSeconds = "5"

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps an error kind to its HTTP status and a short label used in metrics.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	route := routePattern(r)
	if h.metrics != nil {
		h.metrics.APIErrorsTotal.WithLabelValues(route, kind).Inc()
	}

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, kind)
		h.logger.Error("request failed", zap.String("route", route), zap.String("kind", kind), zap.Error(err))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("body", "is not valid JSON")
	}
	return nil
}
