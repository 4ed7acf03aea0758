package notify

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// DeliveryError wraps a failure to hand an event to one destination.
type DeliveryError struct {
	OrderID     int
	Destination string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver status of order %d to %s: %v", e.OrderID, e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type Dispatcher struct {
	broadcaster interfaces.Broadcaster
	publisher   interfaces.MessagePublisher
	logger      logger.Logger
}

// NewDispatcher builds a dispatcher. publisher may be nil when RabbitMQ is
// disabled.
func NewDispatcher(broadcaster interfaces.Broadcaster, publisher interfaces.MessagePublisher, logger logger.Logger) *Dispatcher {
	return &Dispatcher{
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger,
	}
}

// Dispatch announces the order's current status. Failures are logged and
// never reach the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, order *domain.Order, previous domain.Status, changedBy string) {
	if order == nil {
		return
	}

	event := domain.NewStatusEvent(order)
	for _, group := range []string{domain.OrderGroup(order.ID), domain.UserGroup(order.UserID)} {
		if err := d.broadcaster.Publish(ctx, group, event); err != nil {
			d.fail(&DeliveryError{OrderID: order.ID, Destination: group, Err: err})
		}
	}

	if d.publisher == nil {
		return
	}

	msg := interfaces.StatusUpdateMessage{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Mode:      order.Mode,
		OldStatus: previous,
		NewStatus: order.Status,
		ChangedBy: changedBy,
		Timestamp: event.Timestamp,
	}
	if err := d.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		d.fail(&DeliveryError{OrderID: order.ID, Destination: "rabbitmq", Err: err})
		return
	}

	d.logger.Debug("status_update_published", "Status update published to RabbitMQ", "", map[string]interface{}{
		"order_id":   order.ID,
		"new_status": order.Status,
	})
}

func (d *Dispatcher) fail(err *DeliveryError) {
	d.logger.Error("notification_dispatch_failed", "Failed to deliver status notification", "", map[string]interface{}{
		"order_id":    err.OrderID,
		"destination": err.Destination,
	}, err)
}
