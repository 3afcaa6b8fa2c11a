package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLiteRepository implements Repository using SQLite. The schema comes from pkg/db/migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an opened, migrated database
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetAccount retrieves a linked account by user ID
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID string) (*entities.LinkedAccount, error) {
	var account entities.LinkedAccount
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, address, created_at FROM linked_accounts WHERE user_id = ?`, userID,
	).Scan(&account.UserID, &account.Address, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveAccount links an account to a user
func (r *SQLiteRepository) SaveAccount(ctx context.Context, account *entities.LinkedAccount) error {
	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO linked_accounts (user_id, address, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET address = excluded.address
	`, account.UserID, account.Address, createdAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: linked_accounts.address") {
			return ErrAddressTaken
		}
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

// ListAccounts returns every linked account ordered by user ID
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]*entities.LinkedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, address, created_at FROM linked_accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.LinkedAccount
	for rows.Next() {
		var account entities.LinkedAccount
		var createdAt string
		if err := rows.Scan(&account.UserID, &account.Address, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		if account.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

// AddTransaction records a new transaction
func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx *entities.TransactionRecord) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	var amount sql.NullString
	if tx.Amount != nil {
		amount = sql.NullString{String: tx.Amount.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account, kind, tx_hash, status, request_id, amount, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, tx.Account, string(tx.Kind), tx.TxHash, string(tx.Status), tx.RequestID,
		amount, tx.Error, tx.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("error adding transaction: %w", err)
	}
	return nil
}

// GetTransactions retrieves recent transactions for a user
func (r *SQLiteRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account, kind, tx_hash, status, request_id, amount, error, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entities.TransactionRecord
	for rows.Next() {
		var tx entities.TransactionRecord
		var kind, status, createdAt string
		var txHash, requestID, amount, errText sql.NullString

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Account, &kind, &txHash, &status,
			&requestID, &amount, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}

		tx.Kind = entities.TransactionKind(kind)
		tx.Status = entities.TransactionStatus(status)
		tx.TxHash = txHash.String
		tx.RequestID = requestID.String
		tx.Error = errText.String
		if amount.Valid {
			v, ok := new(big.Int).SetString(amount.String, 10)
			if !ok {
				return nil, fmt.Errorf("invalid stored amount %q", amount.String)
			}
			tx.Amount = v
		}
		if tx.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}
	return transactions, rows.Err()
}

// Close is a no-op; the database handle is owned by the caller
func (r *SQLiteRepository) Close() error {
	return nil
}

// parseTime accepts the layouts sqlite hands back for TIMESTAMP columns
func parseTime(value string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	var parseErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp '%s': %w", value, parseErr)
}
