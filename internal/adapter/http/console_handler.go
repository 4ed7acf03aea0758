package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// ConsoleHandler serves the staff console. Routes must sit behind
// RequireStaff.
type ConsoleHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewConsoleHandler(service interfaces.OrderService, logger logger.Logger) *ConsoleHandler {
	return &ConsoleHandler{service: service, logger: logger}
}

func (h *ConsoleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/active", h.Active)
	r.Get("/orders/past", h.Past)
	r.Post("/orders/{orderID}/status", h.UpdateStatus)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *ConsoleHandler) Active(w http.ResponseWriter, r *http.Request) {
	mode, err := modeQuery(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	orders, err := h.service.ActiveOrders(r.Context(), mode)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersResponse(orders))
}

func (h *ConsoleHandler) Past(w http.ResponseWriter, r *http.Request) {
	mode, err := modeQuery(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	orders, err := h.service.PastOrders(r.Context(), mode)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersResponse(orders))
}

func (h *ConsoleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "orderID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		respondError(w, r, h.logger, domain.NewValidationError("status", err.Error()))
		return
	}

	order, err := h.service.Transition(r.Context(), UserFromContext(r.Context()), id, status)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
