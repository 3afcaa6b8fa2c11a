package roulette

import (
	"math/big"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// Limits mirrors the contract-side ceilings so a slip is never built that the contract would reject
type Limits struct {
	MaxBetsPerSpin    int
	MinBetAmount      *big.Int
	MaxBetAmount      *big.Int
	MaxTotalBetAmount *big.Int
	MaxPossiblePayout *big.Int
}

// DefaultLimits are the values deployed on the game contract
var DefaultLimits = Limits{
	MaxBetsPerSpin:    15,
	MinBetAmount:      entities.Tokens(1),
	MaxBetAmount:      entities.Tokens(100_000),
	MaxTotalBetAmount: entities.Tokens(500_000),
	MaxPossiblePayout: entities.Tokens(17_500_000),
}

// ChipValues are the chip denominations offered on the board, in whole tokens
var ChipValues = []int64{1, 5, 10, 50, 100, 1000}
