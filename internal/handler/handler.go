package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"menu-advisor/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a domain error with the given status code.
func writeError(w http.ResponseWriter, status int, derr *model.DomainError, logger zerolog.Logger) {
	logger.Warn().Str("error", derr.Code).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{
		Error:   derr.Code,
		Message: derr.Message,
		Details: derr.Details,
	})
}

// handleServiceError maps err to an HTTP response. Domain errors keep their
// code; anything else is logged and reported as an internal error.
func handleServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var derr *model.DomainError
	if errors.As(err, &derr) {
		writeError(w, statusFor(derr.Code), derr, logger)
		return
	}

	logger.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "Internal server error",
	})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON,
		model.ErrCodeInvalidQuery,
		model.ErrCodeMissingField,
		model.ErrCodeInvalidCommandType,
		model.ErrCodeShippingDetails,
		model.ErrCodeNoContactPhone,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidPrice,
		model.ErrCodeMissingConfirmationCode,
		model.ErrCodeImmutableField,
		model.ErrCodePromoUsageExceeded,
		model.ErrCodeUnknownPromoCode:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeCommandNotFound,
		model.ErrCodeRestaurantNotFound,
		model.ErrCodeUnknownCounter:
		return http.StatusNotFound
	case model.ErrCodeUnsupportedCommandType,
		model.ErrCodeInvalidConfirmationCode:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ErrInvalidJSON.WithDetails(map[string]string{"body": err.Error()})
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.ErrInvalidQuery.WithDetails(map[string]string{"id": "must be a valid UUID"})
	}
	return id, nil
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadinessHandler reports whether the order store is reachable.
type ReadinessHandler struct {
	check  func(ctx context.Context) error
	logger zerolog.Logger
}

// NewReadinessHandler creates a readiness handler around check.
func NewReadinessHandler(check func(ctx context.Context) error, logger zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{
		check:  check,
		logger: logger.With().Str("handler", "readiness").Logger(),
	}
}

// Ready handles GET /health/ready.
func (h *ReadinessHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.check(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
