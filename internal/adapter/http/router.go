package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type Handlers struct {
	Orders  *OrderHandler
	Menu    *MenuHandler
	Cart    *CartHandler
	Console *ConsoleHandler
	Stream  *StreamHandler
}

func NewRouter(h Handlers, users interfaces.UserRepository, logger logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(Authenticate(users, logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/menu", h.Menu.RegisterRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/cart", h.Cart.RegisterRoutes)
		r.Route("/orders", func(r chi.Router) {
			h.Orders.RegisterRoutes(r)
			r.Get("/{orderID}/status-stream", h.Stream.OrderStream)
		})
		r.Get("/ws/orders/{orderID}/", h.Stream.OrderStream)
		r.Get("/users/me/status-stream", h.Stream.UserStream)
	})

	r.Route("/console", func(r chi.Router) {
		r.Use(RequireStaff)
		h.Console.RegisterRoutes(r)
	})

	return r
}
