package settlement

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tallyup/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func members(ids ...string) []models.Member {
	out := make([]models.Member, len(ids))
	for i, id := range ids {
		out[i] = models.Member{ID: id, Name: "Name of " + id}
	}
	return out
}

// expense builds an expense from "member=share" pairs.
func expense(payer, amount string, shares ...string) models.Expense {
	exp := models.Expense{PayerID: payer, Amount: d(amount)}
	for i := 0; i+1 < len(shares); i += 2 {
		exp.Splits = append(exp.Splits, models.Split{MemberID: shares[i], Share: d(shares[i+1])})
	}
	return exp
}

func balanceMap(balances []Balance) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		m[b.MemberID] = b.Amount
	}
	return m
}

// applyTransfers moves every transfer and returns the resulting balances.
func applyTransfers(t *testing.T, balances []Balance, transfers []Transfer) map[string]decimal.Decimal {
	t.Helper()
	m := balanceMap(balances)
	for _, tr := range transfers {
		require.True(t, tr.Amount.IsPositive(), "transfer %+v must be positive", tr)
		require.NotEqual(t, tr.From, tr.To)
		m[tr.From] = m[tr.From].Add(tr.Amount)
		m[tr.To] = m[tr.To].Sub(tr.Amount)
	}
	return m
}

func sum(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Amount)
	}
	return total
}

func nan() float64        { return math.NaN() }
func inf(sign int) float64 { return math.Inf(sign) }
