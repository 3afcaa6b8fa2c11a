package roulette

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// Bet types in contract order
const (
	Straight entities.BetTypeID = iota
	Dozen1
	Dozen2
	Dozen3
	Column1
	Column2
	Column3
	Red
	Black
	Even
	Odd
	Low
	High

	numBetTypes = int(High) + 1
)

// PayoutDenominator scales every payout multiplier
const PayoutDenominator = 10000

var redNumbers = []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36}

var catalog = buildCatalog()

func buildCatalog() [numBetTypes]entities.BetTypeDescriptor {
	var c [numBetTypes]entities.BetTypeDescriptor

	c[Straight] = entities.BetTypeDescriptor{ID: Straight, Name: "straight", RequiresExplicitNumber: true, PayoutMultiplier: 360000}

	for i := 0; i < 3; i++ {
		dozen := make([]int, 0, 12)
		for n := i*12 + 1; n <= (i+1)*12; n++ {
			dozen = append(dozen, n)
		}
		id := Dozen1 + entities.BetTypeID(i)
		c[id] = entities.BetTypeDescriptor{ID: id, Name: fmt.Sprintf("dozen%d", i+1), PayoutMultiplier: 30000, CoveredNumbers: dozen}

		column := make([]int, 0, 12)
		for n := i + 1; n <= entities.MaxNumber; n += 3 {
			column = append(column, n)
		}
		id = Column1 + entities.BetTypeID(i)
		c[id] = entities.BetTypeDescriptor{ID: id, Name: fmt.Sprintf("column%d", i+1), PayoutMultiplier: 30000, CoveredNumbers: column}
	}

	var black, even, odd, low, high []int
	for n := 1; n <= entities.MaxNumber; n++ {
		if !slices.Contains(redNumbers, n) {
			black = append(black, n)
		}
		if n%2 == 0 {
			even = append(even, n)
		} else {
			odd = append(odd, n)
		}
		if n <= 18 {
			low = append(low, n)
		} else {
			high = append(high, n)
		}
	}

	evenMoney := func(id entities.BetTypeID, name string, numbers []int) entities.BetTypeDescriptor {
		return entities.BetTypeDescriptor{ID: id, Name: name, PayoutMultiplier: 20000, CoveredNumbers: numbers}
	}
	c[Red] = evenMoney(Red, "red", slices.Clone(redNumbers))
	c[Black] = evenMoney(Black, "black", black)
	c[Even] = evenMoney(Even, "even", even)
	c[Odd] = evenMoney(Odd, "odd", odd)
	c[Low] = evenMoney(Low, "low", low)
	c[High] = evenMoney(High, "high", high)

	return c
}

// IsValid bounds-checks a bet type id
func IsValid(id entities.BetTypeID) bool {
	return int(id) < numBetTypes
}

// Descriptor returns a copy of the descriptor for id
func Descriptor(id entities.BetTypeID) (entities.BetTypeDescriptor, error) {
	if !IsValid(id) {
		return entities.BetTypeDescriptor{}, descriptorNotFound(id)
	}
	d := catalog[id]
	d.CoveredNumbers = slices.Clone(d.CoveredNumbers)
	return d, nil
}

// CoveredNumbers returns a fresh ascending copy of the numbers a group type covers.
// Straight and unknown ids return nil.
func CoveredNumbers(id entities.BetTypeID) []int {
	if !IsValid(id) {
		return nil
	}
	return slices.Clone(catalog[id].CoveredNumbers)
}

// PayoutMultiplier returns the scaled total-return multiplier. An unknown id is a programming error.
func PayoutMultiplier(id entities.BetTypeID) (int64, error) {
	if !IsValid(id) {
		return 0, descriptorNotFound(id)
	}
	return catalog[id].PayoutMultiplier, nil
}

// All returns every descriptor in id order
func All() []entities.BetTypeDescriptor {
	out := make([]entities.BetTypeDescriptor, 0, numBetTypes)
	for i := 0; i < numBetTypes; i++ {
		d, _ := Descriptor(entities.BetTypeID(i))
		out = append(out, d)
	}
	return out
}

// ParseBetType looks a type up by its name, case-insensitively
func ParseBetType(name string) (entities.BetTypeID, error) {
	for i := range catalog {
		if strings.EqualFold(catalog[i].Name, strings.TrimSpace(name)) {
			return catalog[i].ID, nil
		}
	}
	return 0, types.NewValidationError(types.ReasonUnknownBetType, fmt.Sprintf("unknown bet type %q", name))
}

// Name returns the display name of a bet type
func Name(id entities.BetTypeID) string {
	if !IsValid(id) {
		return fmt.Sprintf("type%d", id)
	}
	return catalog[id].Name
}

// Color returns "green", "red" or "black" for a pocket
func Color(n int) string {
	switch {
	case n == 0:
		return "green"
	case slices.Contains(redNumbers, n):
		return "red"
	default:
		return "black"
	}
}

func descriptorNotFound(id entities.BetTypeID) error {
	return types.NewGameError(types.ErrDescriptorNotFound, fmt.Sprintf("no bet type with id %d", id))
}
