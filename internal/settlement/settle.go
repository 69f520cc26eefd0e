package settlement

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Transfer is a payment from a debtor to a creditor.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

type party struct {
	memberID  string
	remaining decimal.Decimal
}

// Settle returns transfers that bring every balance to zero.
//
// Creditors and debtors are each sorted by amount, largest first; equal amounts
// keep their order in balances. The largest remaining debtor then pays the
// largest remaining creditor min(owed, owing) until either side runs out.
// This yields at most len(creditors)+len(debtors)-1 transfers.
func Settle(balances []Balance) []Transfer {
	var creditors, debtors []party
	for _, b := range balances {
		amount := Round(b.Amount)
		switch amount.Sign() {
		case 1:
			creditors = append(creditors, party{memberID: b.MemberID, remaining: amount})
		case -1:
			debtors = append(debtors, party{memberID: b.MemberID, remaining: amount.Neg()})
		}
	}

	byRemainingDesc := func(a, b party) int { return b.remaining.Cmp(a.remaining) }
	slices.SortStableFunc(creditors, byRemainingDesc)
	slices.SortStableFunc(debtors, byRemainingDesc)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := decimal.Min(creditor.remaining, debtor.remaining)
		transfers = append(transfers, Transfer{
			From:   debtor.memberID,
			To:     creditor.memberID,
			Amount: Round(amount),
		})

		creditor.remaining = creditor.remaining.Sub(amount)
		debtor.remaining = debtor.remaining.Sub(amount)

		if creditor.remaining.Abs().LessThan(Epsilon) {
			i++
		}
		if debtor.remaining.Abs().LessThan(Epsilon) {
			j++
		}
	}

	return transfers
}
