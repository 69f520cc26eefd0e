package models

import "github.com/shopspring/decimal"

// Expense is an amount paid by one member on behalf of some members of a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is informational only (e.g., "Groceries").
	Description string

	// Amount is the total paid by the payer.
	Amount decimal.Decimal

	// PayerID is the member who paid.
	PayerID string

	// Splits allocate the amount across members. Order is irrelevant.
	Splits []Split

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's share of an expense.
type Split struct {
	MemberID string
	Share    decimal.Decimal
}

// ShareTotal returns the sum of all split shares.
func (e *Expense) ShareTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Splits {
		total = total.Add(s.Share)
	}
	return total
}
