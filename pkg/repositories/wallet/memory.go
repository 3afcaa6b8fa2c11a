package wallet

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	accounts     map[string]*entities.LinkedAccount
	transactions map[string][]*entities.TransactionRecord
	mu           sync.RWMutex
}

// NewMemoryRepository creates a new in-memory wallet repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:     make(map[string]*entities.LinkedAccount),
		transactions: make(map[string][]*entities.TransactionRecord),
	}
}

// GetAccount retrieves a linked account by user ID
func (r *MemoryRepository) GetAccount(ctx context.Context, userID string) (*entities.LinkedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[userID]
	if !exists {
		return nil, ErrAccountNotFound
	}

	// Return a copy to prevent concurrent modification
	accountCopy := *account
	return &accountCopy, nil
}

// SaveAccount links an account to a user
func (r *MemoryRepository) SaveAccount(ctx context.Context, account *entities.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, existing := range r.accounts {
		if userID != account.UserID && strings.EqualFold(existing.Address, account.Address) {
			return ErrAddressTaken
		}
	}

	accountCopy := *account
	if accountCopy.CreatedAt.IsZero() {
		accountCopy.CreatedAt = time.Now()
	}
	r.accounts[account.UserID] = &accountCopy
	return nil
}

// ListAccounts returns every linked account ordered by user ID
func (r *MemoryRepository) ListAccounts(ctx context.Context) ([]*entities.LinkedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*entities.LinkedAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		accountCopy := *a
		accounts = append(accounts, &accountCopy)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })
	return accounts, nil
}

// AddTransaction records a new transaction
func (r *MemoryRepository) AddTransaction(ctx context.Context, tx *entities.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[tx.UserID]; !ok {
		return ErrAccountNotFound
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	txCopy := *tx
	r.transactions[tx.UserID] = append(r.transactions[tx.UserID], &txCopy)
	return nil
}

// GetTransactions retrieves recent transactions for a user
func (r *MemoryRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.transactions[userID]
	result := make([]*entities.TransactionRecord, 0, len(all))
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		txCopy := *all[i]
		result = append(result, &txCopy)
	}
	return result, nil
}

// Close is a no-op for the memory repository
func (r *MemoryRepository) Close() error {
	return nil
}
