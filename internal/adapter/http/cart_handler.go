package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type CartHandler struct {
	service interfaces.CartService
	logger  logger.Logger
}

func NewCartHandler(service interfaces.CartService, logger logger.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Replace)
	r.Post("/items", h.AddItem)
	r.Post("/items/bulk", h.BulkAdd)
	r.Post("/items/{lineID}/adjust", h.Adjust)
	r.Delete("/items/{lineID}", h.RemoveLine)
}

type cartItemRequest struct {
	MenuItemID int `json:"menu_item_id"`
	Quantity   int `json:"quantity"`
}

type replaceCartRequest struct {
	Items []cartItemRequest `json:"items"`
}

type adjustRequest struct {
	Action domain.CartAction `json:"action"`
}

func toCommands(items []cartItemRequest) []interfaces.CartItemCommand {
	cmds := make([]interfaces.CartItemCommand, len(items))
	for i, it := range items {
		cmds[i] = interfaces.CartItemCommand{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	}
	return cmds
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, status int, cart *domain.Cart, err error) {
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, toCartResponse(cart))
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), UserFromContext(r.Context()))
	h.respondCart(w, r, http.StatusOK, cart, err)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	// quantity defaults to one
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.service.AddItem(r.Context(), UserFromContext(r.Context()), interfaces.CartItemCommand{
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
	})
	h.respondCart(w, r, http.StatusCreated, cart, err)
}

func (h *CartHandler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	var req []cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.BulkAdd(r.Context(), UserFromContext(r.Context()), toCommands(req))
	h.respondCart(w, r, http.StatusCreated, cart, err)
}

func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.Replace(r.Context(), UserFromContext(r.Context()), toCommands(req.Items))
	h.respondCart(w, r, http.StatusOK, cart, err)
}

func (h *CartHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	lineID, err := intParam(r, "lineID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.Adjust(r.Context(), UserFromContext(r.Context()), lineID, req.Action)
	h.respondCart(w, r, http.StatusOK, cart, err)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := intParam(r, "lineID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.RemoveLine(r.Context(), UserFromContext(r.Context()), lineID)
	h.respondCart(w, r, http.StatusOK, cart, err)
}
