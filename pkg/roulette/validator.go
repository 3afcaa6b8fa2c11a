package roulette

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// ValidateSingle checks a candidate wager against the default limits. See Limits.ValidateSingle.
func ValidateSingle(betType entities.BetTypeID, numbers []int, amount *big.Int, currentBatch []entities.PendingWager) error {
	return DefaultLimits.ValidateSingle(betType, numbers, amount, currentBatch)
}

// ValidateBatch re-checks a whole slip against the default limits. See Limits.ValidateBatch.
func ValidateBatch(wagers []entities.PendingWager) error {
	return DefaultLimits.ValidateBatch(wagers)
}

// ValidateSingle checks the shape of one candidate wager and the aggregate ceilings of
// currentBatch with the candidate added. currentBatch must not already contain the
// candidate's (type, numbers) combination; a merge passes the batch without the old entry
// and the summed amount.
func (l Limits) ValidateSingle(betType entities.BetTypeID, numbers []int, amount *big.Int, currentBatch []entities.PendingWager) error {
	if err := l.validateWager(betType, numbers, amount); err != nil {
		return err
	}

	if len(currentBatch)+1 > l.MaxBetsPerSpin {
		return types.NewLimitError(types.ReasonMaxBetsPerSpin,
			fmt.Sprintf("a spin holds at most %d bets", l.MaxBetsPerSpin))
	}

	candidate := entities.PendingWager{BetTypeID: betType, Numbers: NormalizeNumbers(numbers), Amount: amount}
	batch := append(slices.Clip(currentBatch), candidate)
	if err := checkDuplicates(batch); err != nil {
		return err
	}
	return l.validateAggregate(batch)
}

// ValidateBatch re-validates every entry of a slip plus the count and sum ceilings
func (l Limits) ValidateBatch(wagers []entities.PendingWager) error {
	if len(wagers) == 0 {
		return types.NewValidationError(types.ReasonEmptyBatch, "no bets to place")
	}
	if len(wagers) > l.MaxBetsPerSpin {
		return types.NewLimitError(types.ReasonMaxBetsPerSpin,
			fmt.Sprintf("a spin holds at most %d bets, got %d", l.MaxBetsPerSpin, len(wagers)))
	}
	for i, w := range wagers {
		if err := l.validateWager(w.BetTypeID, w.Numbers, w.Amount); err != nil {
			return fmt.Errorf("bet %d: %w", i+1, err)
		}
	}
	if err := checkDuplicates(wagers); err != nil {
		return err
	}
	return l.validateAggregate(wagers)
}

// PotentialPayout returns stake plus winnings of a slip if every wager hit
func PotentialPayout(wagers []entities.PendingWager) (*big.Int, error) {
	scaled, err := scaledPayout(wagers)
	if err != nil {
		return nil, err
	}
	return scaled.Quo(scaled, big.NewInt(PayoutDenominator)), nil
}

// scaledPayout sums amount*multiplier without dividing, so comparisons stay exact
func scaledPayout(wagers []entities.PendingWager) (*big.Int, error) {
	total := new(big.Int)
	for _, w := range wagers {
		mult, err := PayoutMultiplier(w.BetTypeID)
		if err != nil {
			return nil, err
		}
		total.Add(total, new(big.Int).Mul(w.Amount, big.NewInt(mult)))
	}
	return total, nil
}

func (l Limits) validateWager(betType entities.BetTypeID, numbers []int, amount *big.Int) error {
	if !IsValid(betType) {
		return types.NewValidationError(types.ReasonUnknownBetType, fmt.Sprintf("unknown bet type %d", betType))
	}
	if err := validateNumbers(betType, numbers); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return types.NewValidationError(types.ReasonInvalidAmount, "bet amount must be positive")
	}
	if amount.Cmp(l.MinBetAmount) < 0 {
		return types.NewLimitError(types.ReasonAmountBelowMin,
			fmt.Sprintf("minimum bet is %s tokens", entities.FormatTokens(l.MinBetAmount)))
	}
	if amount.Cmp(l.MaxBetAmount) > 0 {
		return types.NewLimitError(types.ReasonAmountAboveMax,
			fmt.Sprintf("maximum bet is %s tokens", entities.FormatTokens(l.MaxBetAmount)))
	}
	return nil
}

func (l Limits) validateAggregate(wagers []entities.PendingWager) error {
	total := entities.TotalAmount(wagers)
	if total.Cmp(l.MaxTotalBetAmount) > 0 {
		return types.NewLimitError(types.ReasonMaxTotalAmount,
			fmt.Sprintf("total stake %s exceeds the %s token limit",
				entities.FormatTokens(total), entities.FormatTokens(l.MaxTotalBetAmount)))
	}

	scaled, err := scaledPayout(wagers)
	if err != nil {
		return err
	}
	ceiling := new(big.Int).Mul(l.MaxPossiblePayout, big.NewInt(PayoutDenominator))
	if scaled.Cmp(ceiling) > 0 {
		return types.NewLimitError(types.ReasonMaxPayout,
			fmt.Sprintf("potential payout exceeds the %s token limit", entities.FormatTokens(l.MaxPossiblePayout)))
	}
	return nil
}

// checkDuplicates rejects two entries on the same (type, numbers); they must be merged into one
func checkDuplicates(wagers []entities.PendingWager) error {
	seen := make(map[string]struct{}, len(wagers))
	for _, w := range wagers {
		key := fmt.Sprint(w.BetTypeID, NormalizeNumbers(w.Numbers))
		if _, ok := seen[key]; ok {
			return types.NewValidationError(types.ReasonDuplicateBet,
				fmt.Sprintf("%s appears twice, stakes on the same spot are summed", describe(w)))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func describe(w entities.PendingWager) string {
	if !IsValid(w.BetTypeID) {
		return fmt.Sprintf("bet type %d", w.BetTypeID)
	}
	d := catalog[w.BetTypeID]
	if d.RequiresExplicitNumber && len(w.Numbers) == 1 {
		return fmt.Sprintf("%s %d", d.Name, w.Numbers[0])
	}
	return d.Name
}

// validateNumbers compares group numbers regardless of order
func validateNumbers(betType entities.BetTypeID, numbers []int) error {
	d := catalog[betType]
	if d.RequiresExplicitNumber {
		if len(numbers) != 1 || numbers[0] < 0 || numbers[0] > entities.MaxNumber {
			return types.NewValidationError(types.ReasonInvalidNumbers,
				fmt.Sprintf("%s bets take exactly one number from 0 to %d", d.Name, entities.MaxNumber))
		}
		return nil
	}
	if !slices.Equal(NormalizeNumbers(numbers), d.CoveredNumbers) {
		return types.NewValidationError(types.ReasonInvalidNumbers,
			fmt.Sprintf("%s bets must cover exactly its %d numbers", d.Name, len(d.CoveredNumbers)))
	}
	return nil
}

// NormalizeNumbers returns an ascending copy of numbers
func NormalizeNumbers(numbers []int) []int {
	out := slices.Clone(numbers)
	slices.Sort(out)
	return out
}

// ContractNumber is the number field the contract expects for a wager: the pocket for straight bets, 0 otherwise
func ContractNumber(w entities.PendingWager) int {
	if IsValid(w.BetTypeID) && catalog[w.BetTypeID].RequiresExplicitNumber && len(w.Numbers) == 1 {
		return w.Numbers[0]
	}
	return 0
}
