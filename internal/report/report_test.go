package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/tallyup/internal/settlement"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"50", "USD", "$50.00"},
		{"1234.5", "USD", "$1,234.50"},
		{"-10", "USD", "-$10.00"},
		{"0", "USD", "$0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(d(tt.amount), tt.code), "%s %s", tt.amount, tt.code)
	}
	assert.Equal(t, "+$3.34", SignedAmount(d("3.34"), "USD"))
	assert.Equal(t, "-$3.33", SignedAmount(d("-3.33"), "USD"))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("EUR"))
	assert.False(t, ValidCurrency("XXQ"))
}

func TestMarkdown(t *testing.T) {
	r := &settlement.Report{
		GroupID: "g1",
		Balances: []settlement.MemberBalance{
			{MemberID: "a", Name: "Alice", Balance: d("50")},
			{MemberID: "b", Name: "Bob", Balance: d("-10")},
			{MemberID: "c", Name: "Carol", Balance: d("-40")},
		},
		Transfers: []settlement.Transfer{
			{From: "c", To: "a", Amount: d("40")},
			{From: "b", To: "a", Amount: d("10")},
			{From: "x", To: "a", Amount: d("1")},
		},
	}

	md := Markdown("Trip", r, "USD")

	assert.Contains(t, md, "# Trip\n")
	assert.Contains(t, md, "| Alice | +$50.00 |")
	assert.Contains(t, md, "| Bob | -$10.00 |")
	assert.Contains(t, md, "| Carol | Alice | $40.00 |")
	assert.Contains(t, md, "| x | Alice | $1.00 |")
	assert.Contains(t, md, "3 transfer(s), $51.00 in total.")
}

func TestMarkdown_Settled(t *testing.T) {
	r := &settlement.Report{
		Balances: []settlement.MemberBalance{{MemberID: "a", Name: "A|B", Balance: decimal.Zero}},
	}

	md := Markdown("Empty", r, "USD")

	assert.Contains(t, md, `| A\|B | $0.00 |`)
	assert.Contains(t, md, "Everyone is settled up.")
}
