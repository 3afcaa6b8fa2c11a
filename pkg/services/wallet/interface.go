package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_wallet_service
type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*entities.LinkedAccount, bool, error)
	TransactOpts(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
	RecordTransaction(ctx context.Context, tx *entities.TransactionRecord) error
	Transactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error)
}
