package ledger

import (
	"context"
	"math/big"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_ledger

// Ledger is the roulette contract and its token as seen by one client.
// Accounts and contract addresses are 0x-prefixed hex strings.
type Ledger interface {
	// Capabilities describes which optional calls the deployed contract supports
	Capabilities() Capabilities

	// Spender is the game contract address that must hold an allowance
	Spender() string

	// Balance returns the account's token balance in minor units
	Balance(ctx context.Context, account string) (*big.Int, error)

	// Allowance returns how much spender may move from account
	Allowance(ctx context.Context, account, spender string) (*big.Int, error)

	// QuoteGas estimates the gas limit of call and reads the network gas price, both unadjusted
	QuoteGas(ctx context.Context, account string, call Call) (GasQuote, error)

	// PlaceBets broadcasts one transaction carrying every wager
	PlaceBets(ctx context.Context, account string, wagers []Wager, quote GasQuote) (TxHandle, error)

	// Approve broadcasts a token approval for spender
	Approve(ctx context.Context, account, spender string, amount *big.Int, quote GasQuote) (TxHandle, error)

	// RecoverOwnStuckGame broadcasts the self-recovery call for the account's unresolved round
	RecoverOwnStuckGame(ctx context.Context, account string, quote GasQuote) (TxHandle, error)

	// WaitMined blocks until tx has a receipt or ctx is done
	WaitMined(ctx context.Context, tx TxHandle) (Receipt, error)

	// GameStatus reads the account's current round
	GameStatus(ctx context.Context, account string) (RawGameStatus, error)

	// BetHistory reads a page of finished and in-flight rounds and the total count
	BetHistory(ctx context.Context, account string, offset, limit uint64) ([]RawRound, uint64, error)

	// BlockNumber returns the latest block height
	BlockNumber(ctx context.Context) (uint64, error)
}

// Wager is one entry of a placeBets call
type Wager struct {
	BetTypeID uint8
	Number    uint8 // 0 unless the type needs an explicit number
	Amount    *big.Int
}

// CallKind selects which contract method a Call describes
type CallKind string

const (
	CallPlaceBets CallKind = "placeBets"
	CallApprove   CallKind = "approve"
	CallRecover   CallKind = "recoverOwnStuckGame"
)

// Call describes a transaction for gas estimation
type Call struct {
	Kind    CallKind
	Wagers  []Wager
	Spender string
	Amount  *big.Int
}

// PlaceBetsCall describes a placeBets transaction
func PlaceBetsCall(wagers []Wager) Call {
	return Call{Kind: CallPlaceBets, Wagers: wagers}
}

// ApproveCall describes an approve transaction
func ApproveCall(spender string, amount *big.Int) Call {
	return Call{Kind: CallApprove, Spender: spender, Amount: amount}
}

// RecoverCall describes a recoverOwnStuckGame transaction
func RecoverCall() Call {
	return Call{Kind: CallRecover}
}

// GasQuote is a gas limit and price for one transaction
type GasQuote struct {
	Limit uint64
	Price *big.Int
}

// TxHandle identifies a broadcast transaction
type TxHandle struct {
	Hash   string
	Nonce  uint64
	SentAt time.Time
}

// Receipt is the mined outcome of a transaction
type Receipt struct {
	TxHash       string
	Succeeded    bool
	BlockNumber  uint64
	GasUsed      uint64
	RequestID    string // randomness request id emitted by placeBets, empty otherwise
	RevertReason string
}

// RawGameStatus is getGameStatus as returned by the contract
type RawGameStatus struct {
	IsActive          bool
	RequestExists     bool
	RequestProcessed  bool
	RecoveryEligible  bool
	LastPlayTimestamp uint64 // unix seconds
	RequestID         *big.Int
	WinningResult     uint8
	TotalAmount       *big.Int
	TotalPayout       *big.Int
}

// RawWager is one wager of a historical round
type RawWager struct {
	BetTypeID uint8
	Number    uint8
	Amount    *big.Int
	Payout    *big.Int
}

// RawRound is one entry of getBetHistory
type RawRound struct {
	Timestamp      uint64 // unix seconds
	Wagers         []RawWager
	TotalAmount    *big.Int
	TotalPayout    *big.Int
	WinningNumber  uint8
	Completed      bool
	IsRecovered    bool
	IsForceStopped bool
}
