package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a canteen order entity
type Order struct {
	ID          int
	UserID      int
	Mode        Mode
	Status      Status
	Address     *string
	Lines       []OrderLine
	CreatedAt   time.Time
	ScheduledAt time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// OrderLine references a menu item without owning it.
type OrderLine struct {
	ID         int
	OrderID    int
	MenuItemID int
	Quantity   int
	Item       *MenuItem
}

// Cost uses the item's current price; no price is captured at order time.
func (l OrderLine) Cost() decimal.Decimal {
	if l.Item == nil {
		return decimal.Zero
	}
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewOrder snapshots cart lines into a pending order.
func NewOrder(userID int, mode Mode, lines []CartLine, address *string, scheduledAt *time.Time, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &Order{
		UserID:      userID,
		Mode:        mode,
		Status:      StatusPending,
		Address:     normalizeAddress(address),
		CreatedAt:   now,
		ScheduledAt: now,
		UpdatedAt:   now,
	}
	if scheduledAt != nil {
		order.ScheduledAt = *scheduledAt
	}

	order.Lines = make([]OrderLine, len(lines))
	for i, l := range lines {
		order.Lines[i] = OrderLine{
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			Item:       l.Item,
		}
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate runs on every save.
func (o *Order) Validate() error {
	verr := &ValidationError{}

	if !o.Mode.Valid() {
		verr.add("mode", "mode must be one of: take-away, dine-in, delivery")
	} else if !IsValidStatus(o.Mode, o.Status) {
		verr.add("status", "status "+string(o.Status)+" is not valid for "+string(o.Mode)+" orders")
	} else {
		terminal := IsTerminal(o.Mode, o.Status)
		if terminal && o.CompletedAt == nil {
			verr.add("completed_at", "completed_at is required once the order is "+string(o.Status))
		}
		if !terminal && o.CompletedAt != nil {
			verr.add("completed_at", "completed_at must be empty until the order is finished")
		}
	}

	if len(o.Lines) == 0 {
		verr.add("lines", "order must have at least one line")
	}
	for i, l := range o.Lines {
		if l.Quantity < 1 {
			verr.add(lineField(i, "quantity"), "quantity must be at least 1")
		}
		if l.MenuItemID < 1 {
			verr.add(lineField(i, "menu_item_id"), "menu item is required")
		}
	}

	return verr.orNil()
}

// NextStatus returns the status that follows the current one. At the end of
// the sequence the current status is returned unchanged.
func (o *Order) NextStatus() Status {
	seq := ValidTransitions(o.Mode)
	i := indexOf(seq, o.Status)
	if i < 0 || i == len(seq)-1 {
		return o.Status
	}
	return seq[i+1]
}

func (o *Order) IsTerminal() bool {
	return IsTerminal(o.Mode, o.Status)
}

// TransitionTo moves the order one step forward. Skips, jumps, regressions
// and any move out of a terminal status are rejected.
func (o *Order) TransitionTo(requested Status, at time.Time) error {
	next := o.NextStatus()
	if o.IsTerminal() || requested != next {
		return &TransitionRejectedError{
			OrderID:   o.ID,
			Current:   o.Status,
			Requested: requested,
			Expected:  next,
		}
	}

	o.Status = requested
	o.UpdatedAt = at
	o.StampCompletion(at)
	return nil
}

// StampCompletion sets CompletedAt the first time the order is terminal.
func (o *Order) StampCompletion(at time.Time) {
	if o.IsTerminal() && o.CompletedAt == nil {
		t := at
		o.CompletedAt = &t
	}
}

// Total sums line costs at current menu prices.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Cost())
	}
	return total
}

// CanBeViewedBy reports whether the user is staff or owns the order.
func (o *Order) CanBeViewedBy(u *User) bool {
	if u == nil {
		return false
	}
	return u.IsStaff || u.ID == o.UserID
}

func normalizeAddress(address *string) *string {
	if address == nil {
		return nil
	}
	a := strings.TrimSpace(*address)
	if a == "" {
		return nil
	}
	return &a
}

func lineField(i int, name string) string {
	return "lines[" + strconv.Itoa(i) + "]." + name
}
