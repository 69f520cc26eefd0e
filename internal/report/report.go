// Package report renders settlement reports as markdown for terminals.
package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/settlement"
)

// DefaultCurrency is used when no currency code is given.
const DefaultCurrency = money.USD

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount formats a decimal amount in the given currency, e.g. $1,234.50.
func FormatAmount(amount decimal.Decimal, code string) string {
	// money.New never returns a nil currency, even for unknown codes
	cur := *money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// SignedAmount is FormatAmount with an explicit + for positive amounts.
func SignedAmount(amount decimal.Decimal, code string) string {
	if amount.IsPositive() {
		return "+" + FormatAmount(amount, code)
	}
	return FormatAmount(amount, code)
}

// Markdown renders r as a markdown document titled with the group name.
// IDs without a display name are shown as-is.
func Markdown(title string, r *settlement.Report, code string) string {
	names := make(map[string]string, len(r.Balances))
	for _, b := range r.Balances {
		names[b.MemberID] = b.Name
	}
	name := func(id string) string {
		if n := names[id]; n != "" {
			return n
		}
		return id
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("## Balances\n\n")
	sb.WriteString("| Member | Balance |\n|:--|--:|\n")
	for _, b := range r.Balances {
		fmt.Fprintf(&sb, "| %s | %s |\n", escape(name(b.MemberID)), SignedAmount(b.Balance, code))
	}

	sb.WriteString("\n## Transfers\n\n")
	if len(r.Transfers) == 0 {
		sb.WriteString("Everyone is settled up.\n")
		return sb.String()
	}
	sb.WriteString("| From | To | Amount |\n|:--|:--|--:|\n")
	total := decimal.Zero
	for _, t := range r.Transfers {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escape(name(t.From)), escape(name(t.To)), FormatAmount(t.Amount, code))
		total = total.Add(t.Amount)
	}
	fmt.Fprintf(&sb, "\n%d transfer(s), %s in total.\n", len(r.Transfers), FormatAmount(total, code))
	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
