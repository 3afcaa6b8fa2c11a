package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	walletRepo "github.com/fadedpez/tucoroulette/pkg/repositories/wallet"
)

var ErrUnknownAccount = errors.New("account is not held by this keystore")

// Service hands every Discord user a custodial account and signs for it
type Service struct {
	repo       walletRepo.Repository
	ks         *keystore.KeyStore
	passphrase string
	logger     *logging.Logger

	// serializes first-time creation so a double click cannot mint two keys
	createMu sync.Mutex
	unlocked sync.Map // common.Address -> struct{}
}

var _ WalletService = (*Service)(nil)

// NewKeyStore opens the keystore directory with production scrypt parameters
func NewKeyStore(dir string) *keystore.KeyStore {
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewService creates a new wallet service
func NewService(repo walletRepo.Repository, ks *keystore.KeyStore, passphrase string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		repo:       repo,
		ks:         ks,
		passphrase: passphrase,
		logger:     logger.WithField("component", "wallet"),
	}
}

// GetOrCreateWallet returns the user's linked account, creating a key on first use.
// The bool is true when the account was just created.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*entities.LinkedAccount, bool, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, walletRepo.ErrAccountNotFound) {
		return nil, false, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	// another interaction may have won the race
	if account, err := s.repo.GetAccount(ctx, userID); err == nil {
		return account, false, nil
	}

	key, err := s.ks.NewAccount(s.passphrase)
	if err != nil {
		return nil, false, fmt.Errorf("error creating key: %w", err)
	}

	account = &entities.LinkedAccount{
		UserID:    userID,
		Address:   key.Address.Hex(),
		CreatedAt: time.Now(),
	}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		if delErr := s.ks.Delete(key, s.passphrase); delErr != nil {
			s.logger.Warn("Orphaned key %s after failed link: %v", key.Address.Hex(), delErr)
		}
		return nil, false, err
	}

	s.logger.Info("Created custodial account %s for user %s", account.Address, userID)
	return account, true, nil
}

// TransactOpts returns signing options for an account held in the keystore
func (s *Service) TransactOpts(ctx context.Context, address common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acct, err := s.ks.Find(accounts.Account{Address: address})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, address.Hex())
	}

	if _, ok := s.unlocked.Load(address); !ok {
		if err := s.ks.Unlock(acct, s.passphrase); err != nil {
			return nil, fmt.Errorf("error unlocking %s: %w", address.Hex(), err)
		}
		s.unlocked.Store(address, struct{}{})
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(s.ks, acct, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// RecordTransaction appends to the user's audit trail
func (s *Service) RecordTransaction(ctx context.Context, tx *entities.TransactionRecord) error {
	return s.repo.AddTransaction(ctx, tx)
}

// Transactions returns the user's most recent transactions
func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error) {
	return s.repo.GetTransactions(ctx, userID, limit)
}
