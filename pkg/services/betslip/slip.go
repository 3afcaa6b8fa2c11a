package betslip

import (
	"math/big"
	"slices"
	"sync"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
)

// Slip accumulates the wagers a player composes before spinning.
// It is owned by one session; the mutex only serialises Discord handler goroutines.
type Slip struct {
	mu        sync.Mutex
	limits    roulette.Limits
	wagers    []entities.PendingWager
	total     *big.Int
	chipValue *big.Int
}

// Snapshot is an opaque copy of a slip's wagers, used to roll back a failed submission
type Snapshot struct {
	wagers []entities.PendingWager
}

// Len returns the number of wagers in the snapshot
func (s Snapshot) Len() int { return len(s.wagers) }

// New creates an empty slip with the given chip value and the contract limits
func New(chipValue *big.Int) *Slip {
	return NewWithLimits(roulette.DefaultLimits, chipValue)
}

// NewWithLimits creates an empty slip checked against custom limits
func NewWithLimits(limits roulette.Limits, chipValue *big.Int) *Slip {
	if chipValue == nil || chipValue.Sign() <= 0 {
		chipValue = new(big.Int).Set(limits.MinBetAmount)
	}
	return &Slip{
		limits:    limits,
		total:     new(big.Int),
		chipValue: new(big.Int).Set(chipValue),
	}
}

// Select adds one chip of the current value on (betType, numbers)
func (s *Slip) Select(betType entities.BetTypeID, numbers []int) (entities.PendingWager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(betType, numbers, s.chipValue)
}

// SelectAmount adds an explicit amount on (betType, numbers), merging with a matching entry
func (s *Slip) SelectAmount(betType entities.BetTypeID, numbers []int, amount *big.Int) (entities.PendingWager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(betType, numbers, amount)
}

// add is all-or-nothing: on any error the slip is untouched
func (s *Slip) add(betType entities.BetTypeID, numbers []int, amount *big.Int) (entities.PendingWager, error) {
	if amount == nil || amount.Sign() <= 0 {
		return entities.PendingWager{}, types.NewValidationError(types.ReasonInvalidAmount, "bet amount must be positive")
	}

	candidate := entities.PendingWager{
		BetTypeID: betType,
		Numbers:   roulette.NormalizeNumbers(numbers),
		Amount:    new(big.Int).Set(amount),
	}

	idx := slices.IndexFunc(s.wagers, candidate.SameSelection)
	others := s.wagers
	if idx >= 0 {
		candidate.Amount.Add(candidate.Amount, s.wagers[idx].Amount)
		others = slices.Delete(slices.Clone(s.wagers), idx, idx+1)
	}

	if err := s.limits.ValidateSingle(candidate.BetTypeID, candidate.Numbers, candidate.Amount, others); err != nil {
		return entities.PendingWager{}, err
	}

	if idx >= 0 {
		s.wagers[idx] = candidate
	} else {
		s.wagers = append(s.wagers, candidate)
	}
	s.total = entities.TotalAmount(s.wagers)
	return candidate.Clone(), nil
}

// Undo removes the most recently added entry. ok is false on an empty slip.
func (s *Slip) Undo() (removed entities.PendingWager, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.wagers) == 0 {
		return entities.PendingWager{}, false
	}
	last := len(s.wagers) - 1
	removed = s.wagers[last]
	s.wagers = s.wagers[:last]
	// recomputed from scratch rather than subtracted
	s.total = entities.TotalAmount(s.wagers)
	return removed, true
}

// Clear drops every wager
func (s *Slip) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wagers = nil
	s.total = new(big.Int)
}

// SetChipValue changes the amount used by future Select calls only
func (s *Slip) SetChipValue(value *big.Int) error {
	if value == nil || value.Sign() <= 0 {
		return types.NewValidationError(types.ReasonInvalidAmount, "chip value must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chipValue = new(big.Int).Set(value)
	return nil
}

// ChipValue returns the current chip value
func (s *Slip) ChipValue() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.chipValue)
}

// Wagers returns a copy of the pending wagers in insertion order
func (s *Slip) Wagers() []entities.PendingWager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.wagers)
}

// Total returns the sum of all stakes
func (s *Slip) Total() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.total)
}

// Len returns the number of pending wagers
func (s *Slip) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wagers)
}

// Snapshot captures the current wagers
func (s *Slip) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{wagers: cloneAll(s.wagers)}
}

// Restore replaces the wagers with a snapshot's contents. The chip value is left alone.
func (s *Slip) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wagers = cloneAll(snap.wagers)
	s.total = entities.TotalAmount(s.wagers)
}

// Discard takes a snapshot's stakes back out of the slip. Entries added or raised after the
// snapshot keep the difference.
func (s *Slip) Discard(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range snap.wagers {
		idx := slices.IndexFunc(s.wagers, w.SameSelection)
		if idx < 0 {
			continue
		}
		left := new(big.Int).Sub(s.wagers[idx].Amount, w.Amount)
		if left.Sign() <= 0 {
			s.wagers = slices.Delete(s.wagers, idx, idx+1)
			continue
		}
		s.wagers[idx].Amount = left
	}
	s.total = entities.TotalAmount(s.wagers)
}

// Wagers returns a copy of the snapshot's wagers
func (s Snapshot) Wagers() []entities.PendingWager {
	return cloneAll(s.wagers)
}

func cloneAll(wagers []entities.PendingWager) []entities.PendingWager {
	if len(wagers) == 0 {
		return nil
	}
	out := make([]entities.PendingWager, len(wagers))
	for i, w := range wagers {
		out[i] = w.Clone()
	}
	return out
}
