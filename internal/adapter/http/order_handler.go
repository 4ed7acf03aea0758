package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Get("/{orderID}/history", h.History)
}

type checkoutRequest struct {
	Mode        string     `json:"mode"`
	Address     *string    `json:"address,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		respondError(w, r, h.logger, domain.NewValidationError("mode", "mode must be one of: take-away, dine-in, delivery"))
		return
	}

	order, err := h.service.Checkout(r.Context(), UserFromContext(r.Context()), interfaces.CheckoutCommand{
		Mode:        mode,
		Address:     req.Address,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersResponse(orders))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "orderID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "orderID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	logs, err := h.service.History(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := make([]statusLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = statusLogResponse{Status: l.Status, ChangedBy: l.ChangedBy, ChangedAt: l.ChangedAt}
	}
	writeJSON(w, http.StatusOK, resp)
}
