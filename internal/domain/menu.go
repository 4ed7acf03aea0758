package domain

import "github.com/shopspring/decimal"

// MenuItem is read-only from the ordering side.
type MenuItem struct {
	ID             int
	Name           string
	Description    string
	Price          decimal.Decimal
	Category       string
	Diet           string
	AvgPrepMinutes int
	IsAvailable    bool
}
