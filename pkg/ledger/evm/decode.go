package evm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fadedpez/tucoroulette/pkg/ledger"
)

// betArg matches the placeBets tuple; field names follow the abi component names
type betArg struct {
	BetType uint8
	Number  uint8
	Amount  *big.Int
}

type wagerOut struct {
	BetType uint8
	Number  uint8
	Amount  *big.Int
	Payout  *big.Int
}

type roundOut struct {
	Timestamp      *big.Int
	Bets           []wagerOut
	TotalAmount    *big.Int
	TotalPayout    *big.Int
	WinningNumber  uint8
	Completed      bool
	IsRecovered    bool
	IsForceStopped bool
}

func toBetArgs(wagers []ledger.Wager) []betArg {
	args := make([]betArg, len(wagers))
	for i, w := range wagers {
		args[i] = betArg{BetType: w.BetTypeID, Number: w.Number, Amount: w.Amount}
	}
	return args
}

func decodeGameStatus(out []interface{}) (ledger.RawGameStatus, error) {
	if len(out) != 9 {
		return ledger.RawGameStatus{}, fmt.Errorf("getGameStatus: expected 9 values, got %d", len(out))
	}
	lastPlay := *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)
	return ledger.RawGameStatus{
		IsActive:          *abi.ConvertType(out[0], new(bool)).(*bool),
		RequestExists:     *abi.ConvertType(out[1], new(bool)).(*bool),
		RequestProcessed:  *abi.ConvertType(out[2], new(bool)).(*bool),
		RecoveryEligible:  *abi.ConvertType(out[3], new(bool)).(*bool),
		LastPlayTimestamp: lastPlay.Uint64(),
		RequestID:         *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		WinningResult:     *abi.ConvertType(out[6], new(uint8)).(*uint8),
		TotalAmount:       *abi.ConvertType(out[7], new(*big.Int)).(**big.Int),
		TotalPayout:       *abi.ConvertType(out[8], new(*big.Int)).(**big.Int),
	}, nil
}

func decodeHistory(out []interface{}) ([]ledger.RawRound, uint64, error) {
	if len(out) != 2 {
		return nil, 0, fmt.Errorf("getBetHistory: expected 2 values, got %d", len(out))
	}
	rounds := *abi.ConvertType(out[0], new([]roundOut)).(*[]roundOut)
	total := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)

	raw := make([]ledger.RawRound, 0, len(rounds))
	for _, r := range rounds {
		wagers := make([]ledger.RawWager, 0, len(r.Bets))
		for _, b := range r.Bets {
			wagers = append(wagers, ledger.RawWager{BetTypeID: b.BetType, Number: b.Number, Amount: b.Amount, Payout: b.Payout})
		}
		raw = append(raw, ledger.RawRound{
			Timestamp:      r.Timestamp.Uint64(),
			Wagers:         wagers,
			TotalAmount:    r.TotalAmount,
			TotalPayout:    r.TotalPayout,
			WinningNumber:  r.WinningNumber,
			Completed:      r.Completed,
			IsRecovered:    r.IsRecovered,
			IsForceStopped: r.IsForceStopped,
		})
	}
	return raw, total.Uint64(), nil
}

// requestIDFromLogs finds the randomness request id in the BetsPlaced event, indexed as topic 2
func requestIDFromLogs(parsed abi.ABI, game common.Address, logs []*gethtypes.Log) string {
	event, ok := parsed.Events["BetsPlaced"]
	if !ok {
		return ""
	}
	for _, l := range logs {
		if l.Address != game || len(l.Topics) < 3 || l.Topics[0] != event.ID {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[2].Bytes()).String()
	}
	return ""
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// revertReason extracts an Error(string) reason from a JSON-RPC error carrying revert data
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, derr := hexutil.Decode(hexData)
	if derr != nil {
		return "", false
	}
	reason, uerr := abi.UnpackRevert(data)
	if uerr != nil {
		return "", false
	}
	return reason, true
}

// RevertError carries a decoded contract revert reason
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

func (e *RevertError) Unwrap() error { return e.Err }

func withRevertReason(err error) error {
	if reason, ok := revertReason(err); ok {
		return &RevertError{Reason: reason, Err: err}
	}
	return err
}
