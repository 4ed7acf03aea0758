package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type Service struct {
	orders   interfaces.OrderRepository
	carts    interfaces.CartRepository
	notifier interfaces.Notifier
	logger   logger.Logger
	now      func() time.Time
}

// nopNotifier stands in when no one listens for status changes, as in the
// read-only console.
type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, *domain.Order, domain.Status, string) {}

func NewService(orders interfaces.OrderRepository, carts interfaces.CartRepository, notifier interfaces.Notifier, logger logger.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		orders:   orders,
		carts:    carts,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout turns the user's cart into a pending order. The order, its lines
// and the emptied cart are written together or not at all.
func (s *Service) Checkout(ctx context.Context, user *domain.User, cmd interfaces.CheckoutCommand) (*domain.Order, error) {
	if user == nil {
		return nil, domain.ErrForbidden
	}

	cart, err := s.carts.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		s.logger.Debug("checkout_rejected", "Checkout with empty cart", "", map[string]interface{}{"user_id": user.ID})
		return nil, domain.ErrEmptyCart
	}

	// The lines read above may be stale; the order is built from what the
	// cart holds once it is locked.
	order, err := s.orders.CreateFromCart(ctx, cart.ID, user.Actor(), func(lines []domain.CartLine) (*domain.Order, error) {
		return domain.NewOrder(user.ID, cmd.Mode, lines, cmd.Address, cmd.ScheduledAt, s.now())
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			s.logger.Debug("checkout_rejected", "Cart emptied before checkout", "", map[string]interface{}{"user_id": user.ID})
		case errors.As(err, &verr):
			s.logger.Debug("validation_failed", "Order validation failed", "", map[string]interface{}{
				"user_id": user.ID,
				"reason":  err.Error(),
			})
		default:
			s.logger.Error("db_transaction_failed", "Failed to create order", "", map[string]interface{}{"user_id": user.ID}, err)
		}
		return nil, err
	}

	s.logger.Info("order_created", "Order placed", "", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  user.ID,
		"mode":     order.Mode,
		"lines":    len(order.Lines),
	})

	s.notifier.Dispatch(ctx, order, "", user.Actor())
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	if user == nil {
		return nil, domain.ErrForbidden
	}
	return s.orders.List(ctx, interfaces.OrderFilter{UserID: &user.ID})
}

func (s *Service) GetOrder(ctx context.Context, user *domain.User, id int) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanBeViewedBy(user) {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrForbidden)
	}
	return order, nil
}

func (s *Service) History(ctx context.Context, user *domain.User, id int) ([]*domain.StatusLog, error) {
	if _, err := s.GetOrder(ctx, user, id); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, id)
}

func (s *Service) ActiveOrders(ctx context.Context, mode *domain.Mode) ([]*domain.Order, error) {
	return s.orders.List(ctx, interfaces.OrderFilter{Statuses: domain.ActiveStatuses(), Mode: mode})
}

func (s *Service) PastOrders(ctx context.Context, mode *domain.Mode) ([]*domain.Order, error) {
	return s.orders.List(ctx, interfaces.OrderFilter{Statuses: domain.TerminalStatuses(), Mode: mode})
}

// Transition moves an order one step along its mode's sequence on behalf of
// a staff member, then announces the new status.
func (s *Service) Transition(ctx context.Context, staff *domain.User, id int, requested domain.Status) (*domain.Order, error) {
	if staff == nil || !staff.IsStaff {
		return nil, domain.ErrForbidden
	}

	var previous domain.Status
	order, err := s.orders.UpdateStatus(ctx, id, staff.Actor(), func(o *domain.Order) error {
		previous = o.Status
		return o.TransitionTo(requested, s.now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransitionRejected) {
			s.logger.Warn("transition_rejected", err.Error(), "", map[string]interface{}{
				"order_id":  id,
				"requested": requested,
				"staff":     staff.Actor(),
			})
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("transition_failed", "Failed to update order status", "", map[string]interface{}{"order_id": id}, err)
		}
		return nil, err
	}

	s.logger.Info("status_transitioned", "Order status changed", "", map[string]interface{}{
		"order_id":   order.ID,
		"old_status": previous,
		"new_status": order.Status,
		"staff":      staff.Actor(),
	})

	s.notifier.Dispatch(ctx, order, previous, staff.Actor())
	return order, nil
}
