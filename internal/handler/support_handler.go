package handler

import (
	"context"
	"net"
	"net/http"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/model"
	"menu-advisor/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PromoHandler handles promo code usage checks.
type PromoHandler struct {
	service service.PromoService
	logger  zerolog.Logger
}

// NewPromoHandler creates a new promo handler.
func NewPromoHandler(service service.PromoService, logger zerolog.Logger) *PromoHandler {
	return &PromoHandler{
		service: service,
		logger:  logger.With().Str("handler", "promo").Logger(),
	}
}

// Verify handles POST /verifyCodePromo.
func (h *PromoHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.PromoCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.VerifyCode(r.Context(), &req, clientAddress(r)); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "ok"})
}

// clientAddress returns the caller's IP. Behind a trusted proxy the router's
// RealIP middleware has already replaced RemoteAddr with the forwarded address.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DashboardHandler serves the sales dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.GetDashboard(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// CounterHandler exposes the sequence counters to administrators.
type CounterHandler struct {
	service service.CounterService
	logger  zerolog.Logger
}

// NewCounterHandler creates a new counter handler.
func NewCounterHandler(service service.CounterService, logger zerolog.Logger) *CounterHandler {
	return &CounterHandler{
		service: service,
		logger:  logger.With().Str("handler", "counter").Logger(),
	}
}

// Get handles GET /counters/{name}.
func (h *CounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Current)
}

// Decrement handles POST /counters/{name}/decrement.
func (h *CounterHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Decrement)
}

// Reset handles POST /counters/{name}/reset.
func (h *CounterHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Reset)
}

func (h *CounterHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, name string) (*model.CounterResponse, error),
) {
	resp, err := op(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
