package wallet

import (
	"context"
	"errors"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_wallet

var (
	ErrAccountNotFound = errors.New("linked account not found")
	ErrAddressTaken    = errors.New("address already linked to another user")
)

// Repository defines storage for linked accounts and the transaction audit trail
type Repository interface {
	// GetAccount retrieves the account linked to a Discord user
	GetAccount(ctx context.Context, userID string) (*entities.LinkedAccount, error)

	// SaveAccount links an account to a user; an address can be linked only once
	SaveAccount(ctx context.Context, account *entities.LinkedAccount) error

	// ListAccounts returns every linked account
	ListAccounts(ctx context.Context) ([]*entities.LinkedAccount, error)

	// AddTransaction records a sent transaction
	AddTransaction(ctx context.Context, tx *entities.TransactionRecord) error

	// GetTransactions retrieves recent transactions for a user, newest first
	GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error)

	Close() error
}
