package domain

import (
	"strconv"
	"time"
)

// StatusEvent is what real-time subscribers receive.
type StatusEvent struct {
	OrderID   int       `json:"order_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatusEvent(o *Order) StatusEvent {
	return StatusEvent{
		OrderID:   o.ID,
		Status:    o.Status,
		Timestamp: o.UpdatedAt.UTC(),
	}
}

func OrderGroup(orderID int) string {
	return "order_" + strconv.Itoa(orderID)
}

func UserGroup(userID int) string {
	return "user_" + strconv.Itoa(userID)
}
