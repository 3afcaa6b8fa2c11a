package entities

import (
	"math/big"
	"time"
)

// LinkedAccount ties a Discord user to the custodial EVM account that plays for them
type LinkedAccount struct {
	UserID    string // Discord user ID
	Address   string // 0x-prefixed, checksummed
	CreatedAt time.Time
}

// TransactionKind is the kind of on-chain transaction sent for a user
type TransactionKind string

const (
	TransactionKindBets    TransactionKind = "bets"
	TransactionKindApprove TransactionKind = "approve"
	TransactionKindRecover TransactionKind = "recover"
)

// TransactionStatus is what the bot last knew about a sent transaction
type TransactionStatus string

const (
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionPending   TransactionStatus = "pending" // confirmation wait timed out
)

// TransactionRecord is the audit entry for one transaction sent on a user's behalf
type TransactionRecord struct {
	ID        string
	UserID    string
	Account   string
	Kind      TransactionKind
	TxHash    string
	Status    TransactionStatus
	RequestID string
	Amount    *big.Int
	Error     string
	CreatedAt time.Time
}
