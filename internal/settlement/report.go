package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/models"
)

// MemberBalance is a balance with the member's display name attached.
type MemberBalance struct {
	MemberID string
	Name     string
	Balance  decimal.Decimal
}

// Report is the settlement proposal for one group.
type Report struct {
	GroupID   string
	Balances  []MemberBalance
	Transfers []Transfer
}

// Compute runs balance computation and greedy settlement for group.
// Report.Balances lists group members only, in group order; IDs outside the
// group can still appear in Report.Transfers in permissive mode.
func Compute(group *models.Group, expenses []models.Expense, opts Options) (*Report, error) {
	balances, err := ComputeBalances(group.Members, expenses, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GroupID:   group.ID,
		Balances:  make([]MemberBalance, len(group.Members)),
		Transfers: Settle(balances),
	}
	// ComputeBalances lists group members first, in group order.
	for i, m := range group.Members {
		report.Balances[i] = MemberBalance{
			MemberID: m.ID,
			Name:     m.Name,
			Balance:  balances[i].Amount,
		}
	}
	return report, nil
}
