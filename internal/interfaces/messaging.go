package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

// StatusUpdateMessage is the RabbitMQ copy of a status change.
type StatusUpdateMessage struct {
	OrderID   int           `json:"order_id"`
	UserID    int           `json:"user_id"`
	Mode      domain.Mode   `json:"mode"`
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
}

// Messaging ports (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// Broadcaster fans a status event out to the subscribers of one group.
type Broadcaster interface {
	Publish(ctx context.Context, group string, event domain.StatusEvent) error
}

// Notifier is called by services after every successful order save.
type Notifier interface {
	Dispatch(ctx context.Context, order *domain.Order, previous domain.Status, changedBy string)
}
