package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// NotificationHandler prints every status change received from the fanout
// exchange.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    os.Stdout,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	h.logger.Debug("notification_received", "Received status update", strconv.Itoa(msg.OrderID), map[string]interface{}{
		"order_id":   msg.OrderID,
		"user_id":    msg.UserID,
		"old_status": msg.OldStatus,
		"new_status": msg.NewStatus,
	})

	from := string(msg.OldStatus)
	if from == "" {
		from = "new"
	}
	fmt.Fprintf(h.out, "Notification for order %d (%s, user %d): status changed from '%s' to '%s' by %s\n",
		msg.OrderID, msg.Mode, msg.UserID, from, msg.NewStatus, msg.ChangedBy)

	return nil
}
