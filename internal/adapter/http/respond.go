package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/app/gateway"
	"github.com/YelzhanWeb/canteen/internal/domain"
)

type ErrorResponse struct {
	Error  string              `json:"error"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, logger logger.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, domain.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Your cart is empty."})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTransitionRejected):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "You do not have access to this resource"})
	case errors.Is(err, errUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, gateway.ErrHubClosed):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Server is shutting down"})
	default:
		logger.Error("request_failed", "Unhandled error", RequestIDFromContext(r.Context()), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// modeQuery reads the optional ?mode= filter.
func modeQuery(r *http.Request) (*domain.Mode, error) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return nil, nil
	}
	m, err := domain.ParseMode(raw)
	if err != nil {
		return nil, domain.NewValidationError("mode", err.Error())
	}
	return &m, nil
}

type menuItemResponse struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	Category       string `json:"category"`
	Diet           string `json:"diet"`
	AvgPrepMinutes int    `json:"avg_prep_minutes"`
	IsAvailable    bool   `json:"is_available"`
}

func toMenuItemResponse(it *domain.MenuItem) *menuItemResponse {
	if it == nil {
		return nil
	}
	return &menuItemResponse{
		ID:             it.ID,
		Name:           it.Name,
		Description:    it.Description,
		Price:          it.Price.StringFixed(2),
		Category:       it.Category,
		Diet:           it.Diet,
		AvgPrepMinutes: it.AvgPrepMinutes,
		IsAvailable:    it.IsAvailable,
	}
}

func toMenuResponse(items []*domain.MenuItem) []*menuItemResponse {
	out := make([]*menuItemResponse, len(items))
	for i, it := range items {
		out[i] = toMenuItemResponse(it)
	}
	return out
}

type orderLineResponse struct {
	ID         int               `json:"id"`
	MenuItemID int               `json:"menu_item_id"`
	Quantity   int               `json:"quantity"`
	Cost       string            `json:"cost"`
	Item       *menuItemResponse `json:"item,omitempty"`
}

type orderResponse struct {
	ID          int                 `json:"id"`
	UserID      int                 `json:"user_id"`
	Mode        domain.Mode         `json:"mode"`
	Status      domain.Status       `json:"status"`
	NextStatus  *domain.Status      `json:"next_status"`
	Address     *string             `json:"address"`
	Total       string              `json:"total"`
	CreatedAt   time.Time           `json:"created_at"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at"`
	Lines       []orderLineResponse `json:"lines"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Mode:        o.Mode,
		Status:      o.Status,
		Address:     o.Address,
		Total:       o.Total().StringFixed(2),
		CreatedAt:   o.CreatedAt,
		ScheduledAt: o.ScheduledAt,
		UpdatedAt:   o.UpdatedAt,
		CompletedAt: o.CompletedAt,
		Lines:       make([]orderLineResponse, len(o.Lines)),
	}
	if !o.IsTerminal() {
		next := o.NextStatus()
		resp.NextStatus = &next
	}
	for i, l := range o.Lines {
		resp.Lines[i] = orderLineResponse{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			Cost:       l.Cost().StringFixed(2),
			Item:       toMenuItemResponse(l.Item),
		}
	}
	return resp
}

func toOrdersResponse(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

type cartLineResponse struct {
	ID         int               `json:"id"`
	MenuItemID int               `json:"menu_item_id"`
	Quantity   int               `json:"quantity"`
	Item       *menuItemResponse `json:"item,omitempty"`
}

type cartResponse struct {
	ID    int                `json:"id"`
	Total string             `json:"total"`
	Lines []cartLineResponse `json:"lines"`
}

func toCartResponse(c *domain.Cart) cartResponse {
	resp := cartResponse{
		ID:    c.ID,
		Total: c.Total().StringFixed(2),
		Lines: make([]cartLineResponse, len(c.Lines)),
	}
	for i, l := range c.Lines {
		resp.Lines[i] = cartLineResponse{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			Item:       toMenuItemResponse(l.Item),
		}
	}
	return resp
}

type statusLogResponse struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changed_by"`
	ChangedAt time.Time     `json:"changed_at"`
}
