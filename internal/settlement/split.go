package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/models"
)

// SplitEqually divides amount among memberIDs in whole cents.
// Leftover cents go to the first members, so 10 split three ways is
// 3.34, 3.33, 3.33 and the shares always add up to the rounded amount.
func SplitEqually(amount decimal.Decimal, memberIDs []string) ([]models.Split, error) {
	if len(memberIDs) == 0 {
		return nil, errors.New("must have at least one participant")
	}

	cents := Round(amount).Shift(Places)
	n := decimal.NewFromInt(int64(len(memberIDs)))
	base := cents.Div(n).Truncate(0)
	leftover := cents.Sub(base.Mul(n)).IntPart()

	step := int64(1)
	if leftover < 0 {
		step, leftover = -1, -leftover
	}

	seen := make(map[string]bool, len(memberIDs))
	splits := make([]models.Split, len(memberIDs))
	for i, id := range memberIDs {
		if seen[id] {
			return nil, fmt.Errorf("duplicate participant %q", id)
		}
		seen[id] = true

		share := base
		if int64(i) < leftover {
			share = share.Add(decimal.NewFromInt(step))
		}
		splits[i] = models.Split{MemberID: id, Share: share.Shift(-Places)}
	}
	return splits, nil
}
