// Package gateway keeps the process-wide table of real-time subscriber groups
// and fans status events out to them.
//
// Delivery is best-effort and at-most-once: a subscriber whose buffer is full
// when an event arrives is dropped, and nothing is kept for subscribers that
// connect later.
package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
)

var ErrHubClosed = errors.New("gateway is closed")

// Subscriber is one connection's membership in a group.
type Subscriber struct {
	ID    uuid.UUID
	Group string

	events    chan domain.StatusEvent
	done      chan struct{}
	closeOnce sync.Once
}

// Events delivers published events. It is never closed; watch Done instead.
func (s *Subscriber) Events() <-chan domain.StatusEvent { return s.events }

// Done is closed once the subscriber has been removed from its group.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

type Hub struct {
	mu         sync.RWMutex
	groups     map[string]map[*Subscriber]struct{}
	bufferSize int
	closed     bool
	logger     logger.Logger
}

func NewHub(bufferSize int, lgr logger.Logger) *Hub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Hub{
		groups:     make(map[string]map[*Subscriber]struct{}),
		bufferSize: bufferSize,
		logger:     lgr,
	}
}

func (h *Hub) Subscribe(group string) (*Subscriber, error) {
	sub := &Subscriber{
		ID:     uuid.New(),
		Group:  group,
		events: make(chan domain.StatusEvent, h.bufferSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.groups[group] = members
	}
	members[sub] = struct{}{}

	h.logger.Debug("subscriber_added", "Subscriber joined group", sub.ID.String(), map[string]interface{}{
		"group":   group,
		"members": len(members),
	})
	return sub, nil
}

// Unsubscribe removes sub from its group. Calling it again is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	removed := h.remove(sub)
	h.mu.Unlock()

	sub.close()

	if removed {
		h.logger.Debug("subscriber_removed", "Subscriber left group", sub.ID.String(), map[string]interface{}{
			"group": sub.Group,
		})
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscriber) bool {
	members, ok := h.groups[sub.Group]
	if !ok {
		return false
	}
	if _, ok := members[sub]; !ok {
		return false
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(h.groups, sub.Group)
	}
	return true
}

// Publish hands event to every current subscriber of group without blocking.
// Subscribers that cannot take the event are dropped. A group with no
// subscribers is not an error.
func (h *Hub) Publish(ctx context.Context, group string, event domain.StatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	members := make([]*Subscriber, 0, len(h.groups[group]))
	for sub := range h.groups[group] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	var stale []*Subscriber
	for _, sub := range members {
		select {
		case <-sub.done:
			continue
		default:
		}

		select {
		case sub.events <- event:
		default:
			stale = append(stale, sub)
		}
	}

	for _, sub := range stale {
		h.logger.Warn("subscriber_dropped", "Subscriber too slow, dropping", sub.ID.String(), map[string]interface{}{
			"group":    group,
			"order_id": event.OrderID,
		})
		h.Unsubscribe(sub)
	}
	return nil
}

// Subscribers reports the current size of a group.
func (h *Hub) Subscribers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Close removes every subscriber. Further Subscribe and Publish calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*Subscriber
	for _, members := range h.groups {
		for sub := range members {
			all = append(all, sub)
		}
	}
	h.groups = make(map[string]map[*Subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}

	h.logger.Info("gateway_closed", "Real-time gateway closed", "", map[string]interface{}{
		"subscribers": len(all),
	})
}
