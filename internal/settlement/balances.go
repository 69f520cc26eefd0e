package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/models"
)

// Balance is one member's net position.
// Positive = is owed money (creditor), negative = owes money (debtor).
type Balance struct {
	MemberID string
	Amount   decimal.Decimal
}

// Options tunes ComputeBalances. The zero value is permissive and unlimited.
type Options struct {
	// Strict rejects expenses whose payer or split members are not in the group.
	// When false such IDs still affect balances and transfers.
	Strict bool

	// MaxMembers caps the member list. Zero means no limit.
	MaxMembers int

	// MaxExpenses caps the expense list. Zero means no limit.
	MaxExpenses int
}

// ComputeBalances returns every member's net balance, rounded to cents.
//
// Algorithm:
//   - every member starts at zero
//   - payer: +amount for each expense they paid
//   - split member: -share for each split they appear in
//
// The result lists group members in the given order, followed by any non-member
// IDs in the order they were first seen (permissive mode only).
func ComputeBalances(members []models.Member, expenses []models.Expense, opts Options) ([]Balance, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no members", ErrInvalidMembers)
	}
	if opts.MaxMembers > 0 && len(members) > opts.MaxMembers {
		return nil, fmt.Errorf("%w: %d members (max %d)", ErrLimitExceeded, len(members), opts.MaxMembers)
	}
	if opts.MaxExpenses > 0 && len(expenses) > opts.MaxExpenses {
		return nil, fmt.Errorf("%w: %d expenses (max %d)", ErrLimitExceeded, len(expenses), opts.MaxExpenses)
	}

	order := make([]string, 0, len(members))
	sums := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		if _, dup := sums[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate member %q", ErrInvalidMembers, m.ID)
		}
		sums[m.ID] = decimal.Zero
		order = append(order, m.ID)
	}

	add := func(expenseID, memberID string, delta decimal.Decimal) error {
		cur, ok := sums[memberID]
		if !ok {
			if opts.Strict {
				return fmt.Errorf("%w: expense %q references %q", ErrInconsistentSplit, expenseID, memberID)
			}
			order = append(order, memberID)
		}
		sums[memberID] = cur.Add(delta)
		return nil
	}

	for _, exp := range expenses {
		if err := add(exp.ID, exp.PayerID, exp.Amount); err != nil {
			return nil, err
		}
		for _, s := range exp.Splits {
			if err := add(exp.ID, s.MemberID, s.Share.Neg()); err != nil {
				return nil, err
			}
		}
	}

	balances := make([]Balance, len(order))
	for i, id := range order {
		balances[i] = Balance{MemberID: id, Amount: Round(sums[id])}
	}
	return balances, nil
}
