package entities

import (
	"math/big"
	"time"
)

// ResultType classifies a finished or in-flight round
type ResultType string

const (
	ResultTypeRecovered    ResultType = "recovered"
	ResultTypeForceStopped ResultType = "force_stopped"
	ResultTypePending      ResultType = "pending"
	ResultTypeWin          ResultType = "win"
	ResultTypeLoss         ResultType = "loss"
	ResultTypeEven         ResultType = "even"
	ResultTypeUnknown      ResultType = "unknown"
)

// WagerDetail is one wager of a historical round
type WagerDetail struct {
	BetTypeID BetTypeID
	Number    int
	Amount    *big.Int
	Payout    *big.Int
}

// HistoryRecord is one round as shown in a player's history
type HistoryRecord struct {
	Key                string // synthetic, stable across re-fetches
	Account            string
	Timestamp          time.Time
	Wagers             []WagerDetail
	TotalAmount        *big.Int
	TotalPayout        *big.Int
	WinningResult      WinningResult
	IsWaitingForResult bool
	IsRecovered        bool
	IsForceStopped     bool
	ResultType         ResultType
}

// Net returns payout minus stake
func (r HistoryRecord) Net() *big.Int {
	net := new(big.Int)
	if r.TotalPayout != nil {
		net.Set(r.TotalPayout)
	}
	if r.TotalAmount != nil {
		net.Sub(net, r.TotalAmount)
	}
	return net
}
