package submission

import (
	"context"
	"errors"
	"strings"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
)

var (
	userRejectedSignals = []string{"user rejected", "user denied", "rejected by user"}
	priceSignals        = []string{"underpriced", "fee too low", "gas price too low", "max fee per gas less than block base fee", "tip too low"}
	congestionSignals   = []string{"txpool is full", "transaction pool full", "too many requests", "already known", "nonce too low", "replacement transaction", "temporarily unavailable", "header not found"}
	fundsSignals        = []string{"insufficient funds", "exceeds balance"}
	allowanceSignals    = []string{"insufficient allowance", "exceeds allowance"}
)

// revertMessages maps contract revert reasons to player-facing text
var revertMessages = map[string]string{
	"game active":            "you already have a spin in progress",
	"game in progress":       "you already have a spin in progress",
	"max bets exceeded":      "too many bets for one spin",
	"bet amount too low":     "one of the bets is below the minimum",
	"bet amount too high":    "one of the bets is above the maximum",
	"total amount too high":  "the total stake is above the limit",
	"max payout exceeded":    "the potential payout is above the house limit",
	"invalid bet type":       "one of the bets has an unknown type",
	"invalid number":         "one of the bets has an invalid number",
	"not recoverable":        "this round cannot be recovered yet",
	"no stuck game":          "there is no stuck round to recover",
	"insufficient allowance": "the table is not approved to spend that much",
}

// Classify translates a raw ledger error into the error taxonomy. GameErrors pass through.
func Classify(err error) *types.GameError {
	if err == nil {
		return nil
	}
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return gameErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, ledger.ErrUserRejected) || containsAny(msg, userRejectedSignals):
		return types.WrapError(types.ErrUserRejected, "the transaction was declined", err)
	case errors.Is(err, ledger.ErrUnsupported):
		return types.WrapError(types.ErrUnsupported, "the table contract does not support this", err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.WrapError(types.ErrTimeout, "still pending, check back shortly", err)
	case ledger.IsNoData(err):
		return types.WrapError(types.ErrStaleOrMissingData, "no data yet", err)
	case strings.Contains(msg, "execution reverted"):
		return revertError(msg, err)
	case containsAny(msg, allowanceSignals):
		return types.WrapError(types.ErrInsufficientAllowance, "the table is not approved to spend that much", err)
	case containsAny(msg, fundsSignals):
		return types.WrapError(types.ErrInsufficientFunds, "not enough funds for the stake or gas", err)
	case containsAny(msg, priceSignals):
		return types.WrapError(types.ErrPriceTooLow, "gas price too low for the network", err)
	case containsAny(msg, congestionSignals):
		return types.WrapError(types.ErrNetworkCongestion, "the network is busy", err)
	default:
		return types.WrapError(types.ErrNetworkError, "could not reach the chain", err)
	}
}

// RevertError builds a CONTRACT_REVERTED error from a decoded reason
func RevertError(reason string) *types.GameError {
	return revertError("execution reverted: "+strings.ToLower(reason), errors.New("execution reverted: "+reason))
}

func revertError(msg string, err error) *types.GameError {
	reason := ""
	if i := strings.Index(msg, "execution reverted:"); i >= 0 {
		reason = strings.TrimSpace(msg[i+len("execution reverted:"):])
	}
	if human, ok := revertMessages[reason]; ok {
		return types.WrapError(types.ErrContractReverted, human, err)
	}
	if reason != "" {
		return types.WrapError(types.ErrContractReverted, "the contract reverted: "+reason, err)
	}
	return types.WrapError(types.ErrContractReverted, "the contract reverted the call", err)
}

func containsAny(msg string, signals []string) bool {
	for _, s := range signals {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
