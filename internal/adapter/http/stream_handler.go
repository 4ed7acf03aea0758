package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/app/gateway"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type StreamConfig struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	AllowedOrigins []string
}

// StreamHandler upgrades status-stream requests to websockets and relays
// gateway events to them. The socket is push-only; anything the client sends
// is discarded.
type StreamHandler struct {
	orders   interfaces.OrderService
	hub      *gateway.Hub
	cfg      StreamConfig
	upgrader websocket.Upgrader
	logger   logger.Logger
}

func NewStreamHandler(orders interfaces.OrderService, hub *gateway.Hub, cfg StreamConfig, logger logger.Logger) *StreamHandler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	h := &StreamHandler{
		orders: orders,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// An empty allow-list accepts every origin.
func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	return false
}

// OrderStream pushes status events for one order. The requester must own
// the order or be staff; that is checked before the upgrade.
func (h *StreamHandler) OrderStream(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "orderID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	// Subscribe before reading the order so no transition can slip between
	// the initial status and the first event.
	sub, err := h.hub.Subscribe(domain.OrderGroup(id))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	defer h.hub.Unsubscribe(sub)

	order, err := h.orders.GetOrder(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Debug("ws_upgrade_failed", err.Error(), RequestIDFromContext(r.Context()), nil)
		return
	}
	defer conn.Close()

	h.logger.Debug("ws_connected", "Order status stream opened", RequestIDFromContext(r.Context()), map[string]interface{}{
		"order_id":      id,
		"subscriber_id": sub.ID.String(),
	})
	h.serve(conn, sub, RequestIDFromContext(r.Context()), domain.NewStatusEvent(order))
}

// UserStream pushes status events for every order of the requester.
func (h *StreamHandler) UserStream(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, h.logger, errUnauthenticated)
		return
	}

	sub, err := h.hub.Subscribe(domain.UserGroup(user.ID))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	defer h.hub.Unsubscribe(sub)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws_upgrade_failed", err.Error(), RequestIDFromContext(r.Context()), nil)
		return
	}
	defer conn.Close()

	h.serve(conn, sub, RequestIDFromContext(r.Context()))
}

func (h *StreamHandler) serve(conn *websocket.Conn, sub *gateway.Subscriber, requestID string, initial ...domain.StatusEvent) {
	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	for _, ev := range initial {
		if err := h.write(conn, ev); err != nil {
			return
		}
	}

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub.Events():
			if err := h.write(conn, ev); err != nil {
				h.logger.Debug("ws_write_failed", err.Error(), requestID, map[string]interface{}{"group": sub.Group})
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case <-sub.Done():
			// dropped as too slow, or the gateway is shutting down
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return

		case <-closed:
			h.logger.Debug("ws_disconnected", "Client closed status stream", requestID, map[string]interface{}{"group": sub.Group})
			return
		}
	}
}

// readLoop drains client frames so control messages are processed, and
// reports when the peer goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	pongWait := 2 * h.cfg.PingInterval
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, ev domain.StatusEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
