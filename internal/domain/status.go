package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode is how an order will be received. It is fixed at creation.
type Mode string

const (
	ModeTakeAway Mode = "take-away"
	ModeDineIn   Mode = "dine-in"
	ModeDelivery Mode = "delivery"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusReady          Status = "ready"
	StatusCompleted      Status = "completed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

var (
	pickupSequence   = []Status{StatusPending, StatusConfirmed, StatusReady, StatusCompleted}
	deliverySequence = []Status{StatusPending, StatusConfirmed, StatusOutForDelivery, StatusDelivered}
)

// Modes returns every supported fulfillment mode.
func Modes() []Mode {
	return []Mode{ModeTakeAway, ModeDineIn, ModeDelivery}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeTakeAway, ModeDineIn, ModeDelivery:
		return true
	}
	return false
}

// ParseMode accepts the canonical values plus the underscore spelling used by
// some clients ("take_away", "dine_in").
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !m.Valid() {
		return "", fmt.Errorf("unknown fulfillment mode %q", s)
	}
	return m, nil
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range append(append([]Status{}, pickupSequence...), deliverySequence[2:]...) {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ValidTransitions returns the ordered status sequence for the mode.
// The returned slice is a copy.
func ValidTransitions(mode Mode) []Status {
	var seq []Status
	switch mode {
	case ModeDelivery:
		seq = deliverySequence
	case ModeTakeAway, ModeDineIn:
		seq = pickupSequence
	default:
		return nil
	}
	out := make([]Status, len(seq))
	copy(out, seq)
	return out
}

// TerminalStatus is the last entry of the mode's sequence.
func TerminalStatus(mode Mode) Status {
	seq := ValidTransitions(mode)
	if len(seq) == 0 {
		return ""
	}
	return seq[len(seq)-1]
}

func IsValidStatus(mode Mode, status Status) bool {
	return indexOf(ValidTransitions(mode), status) >= 0
}

func IsTerminal(mode Mode, status Status) bool {
	return status != "" && status == TerminalStatus(mode)
}

// ActiveStatuses lists every non-terminal status of any mode.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusReady, StatusOutForDelivery}
}

// TerminalStatuses lists the terminal status of every mode.
func TerminalStatuses() []Status {
	return []Status{StatusCompleted, StatusDelivered}
}

func indexOf(seq []Status, status Status) int {
	for i, s := range seq {
		if s == status {
			return i
		}
	}
	return -1
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   int
	Status    Status
	ChangedBy string
	ChangedAt time.Time
}
