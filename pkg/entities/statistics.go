package entities

import (
	"math/big"
	"time"
)

// AccountStatistics aggregates the reconciled history of one account
type AccountStatistics struct {
	UserID       string
	Account      string
	Rounds       int
	Wins         int
	Losses       int
	Evens        int
	Pending      int
	Recovered    int
	ForceStopped int
	TotalStaked  *big.Int
	TotalPaidOut *big.Int
	LastUpdated  time.Time
}

// NetProfit calculates the account's net profit in minor units
func (s *AccountStatistics) NetProfit() *big.Int {
	return new(big.Int).Sub(s.TotalPaidOut, s.TotalStaked)
}

// WinRate calculates the win rate over decided rounds as a percentage
func (s *AccountStatistics) WinRate() float64 {
	decided := s.Wins + s.Losses + s.Evens
	if decided == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(decided) * 100.0
}
