package domain

import "github.com/shopspring/decimal"

// Cart holds the lines a user intends to order. Each user has one cart.
type Cart struct {
	ID     int
	UserID int
	Lines  []CartLine
}

type CartLine struct {
	ID         int
	CartID     int
	MenuItemID int
	Quantity   int
	Item       *MenuItem
}

type CartAction string

const (
	CartIncrement CartAction = "increment"
	CartDecrement CartAction = "decrement"
)

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) Line(lineID int) (*CartLine, bool) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i], true
		}
	}
	return nil, false
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		if l.Item != nil {
			total = total.Add(l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return total
}

// Adjust applies an increment or decrement to the line quantity. It returns
// the new quantity; zero means the line should be removed.
func (l *CartLine) Adjust(action CartAction) (int, error) {
	switch action {
	case CartIncrement:
		l.Quantity++
	case CartDecrement:
		l.Quantity--
	default:
		return l.Quantity, NewValidationError("action", "action must be increment or decrement")
	}
	if l.Quantity < 0 {
		l.Quantity = 0
	}
	return l.Quantity, nil
}
