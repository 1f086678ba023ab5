package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/model"
	"menu-advisor/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CommandHandler handles order ("command") HTTP requests.
type CommandHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(service service.OrderService, logger zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		service: service,
		logger:  logger.With().Str("handler", "command").Logger(),
	}
}

// List handles GET /commands.
func (h *CommandHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.ListOrders(r.Context(), auth.PrincipalFrom(r.Context()), filter)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Count handles GET /commands/count.
func (h *CommandHandler) Count(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	count, err := h.service.CountOrders(r.Context(), auth.PrincipalFrom(r.Context()), filter)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// Get handles GET /commands/{id}.
func (h *CommandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, model.ErrCommandNotFound, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Create handles POST /commands.
func (h *CommandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// SendCode handles POST /commands/sendCode.
func (h *CommandHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req model.SendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.SendConfirmationCode(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ConfirmCode handles POST /commands/confirmCode.
func (h *CommandHandler) ConfirmCode(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.ConfirmCode(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /commands/{id}.
func (h *CommandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	var req model.UpdateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), auth.PrincipalFrom(r.Context()), id, &req)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Validate handles POST /commands/{id}/validate.
func (h *CommandHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.ValidateOrder, "Command validated")
}

// Revoke handles POST /commands/{id}/revoke.
func (h *CommandHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.RevokeOrder, "Command revoked")
}

func (h *CommandHandler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id uuid.UUID) (*model.Order, error),
	message string,
) {
	id, err := pathID(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	if _, err := apply(r.Context(), id); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: message})
}

// Delete handles DELETE /commands/{id}.
func (h *CommandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	h.delete(w, r, []uuid.UUID{id})
}

// DeleteMany handles DELETE /commands with an {"ids": [...]} body.
func (h *CommandHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteOrdersRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	h.delete(w, r, req.IDs)
}

func (h *CommandHandler) delete(w http.ResponseWriter, r *http.Request, ids []uuid.UUID) {
	deleted, err := h.service.DeleteOrders(r.Context(), ids)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteOrdersResponse{DeletedCount: deleted})
}

// parseOrderFilter reads type, restaurant, start, end, limit and offset
// from the query string.
func parseOrderFilter(r *http.Request) (model.OrderFilter, error) {
	q := r.URL.Query()
	var filter model.OrderFilter

	if v := q.Get("type"); v != "" {
		filter.CommandType = model.CommandType(v)
		if !filter.CommandType.Valid() {
			return filter, model.ErrInvalidCommandType
		}
	}

	if v := q.Get("restaurant"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, invalidQuery("restaurant", "must be a valid UUID")
		}
		filter.RestaurantID = &id
	}

	var err error
	if filter.Start, err = parseDate(q.Get("start")); err != nil {
		return filter, invalidQuery("start", err.Error())
	}
	if filter.End, err = parseDate(q.Get("end")); err != nil {
		return filter, invalidQuery("end", err.Error())
	}
	if (filter.Start == nil) != (filter.End == nil) {
		return filter, model.ErrInvalidQuery.WithDetails(map[string]string{
			"start": errPartialRange.Error(),
			"end":   errPartialRange.Error(),
		})
	}

	if filter.Limit, err = parseNonNegative(q.Get("limit")); err != nil {
		return filter, invalidQuery("limit", err.Error())
	}
	if filter.Offset, err = parseNonNegative(q.Get("offset")); err != nil {
		return filter, invalidQuery("offset", err.Error())
	}

	return filter, nil
}

var (
	errBadDate      = errors.New("must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	errPartialRange = errors.New("start and end must be set if one is present")
)

// parseDate accepts RFC 3339 timestamps and plain dates (midnight UTC).
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, errBadDate
	}
	return &t, nil
}

func parseNonNegative(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}

func invalidQuery(field, reason string) error {
	return model.ErrInvalidQuery.WithDetails(map[string]string{field: reason})
}
