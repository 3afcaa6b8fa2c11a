package entities

import (
	"math/big"
	"slices"
)

// BetTypeID identifies a wager kind on the contract. Values match the on-chain enumeration.
type BetTypeID uint8

// BetTypeDescriptor is the static metadata of one wager kind
type BetTypeDescriptor struct {
	ID                     BetTypeID
	Name                   string
	RequiresExplicitNumber bool
	// PayoutMultiplier is the total return including stake, scaled by the payout denominator
	PayoutMultiplier int64
	// CoveredNumbers is empty for number-specific types
	CoveredNumbers []int
}

// PendingWager is one line of a bet slip that has not been submitted yet
type PendingWager struct {
	BetTypeID BetTypeID
	Numbers   []int    // ascending
	Amount    *big.Int // minor units, 18 decimals
}

// Clone returns a deep copy so callers can't alias slip state
func (w PendingWager) Clone() PendingWager {
	out := PendingWager{
		BetTypeID: w.BetTypeID,
		Numbers:   slices.Clone(w.Numbers),
	}
	if w.Amount != nil {
		out.Amount = new(big.Int).Set(w.Amount)
	}
	return out
}

// SameSelection reports whether two wagers cover the same (type, numbers) combination
func (w PendingWager) SameSelection(other PendingWager) bool {
	return w.BetTypeID == other.BetTypeID && slices.Equal(w.Numbers, other.Numbers)
}

// TotalAmount sums the stakes of a wager list
func TotalAmount(wagers []PendingWager) *big.Int {
	total := new(big.Int)
	for _, w := range wagers {
		if w.Amount != nil {
			total.Add(total, w.Amount)
		}
	}
	return total
}
