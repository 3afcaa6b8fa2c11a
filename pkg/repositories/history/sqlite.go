package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// SQLiteRepository implements Repository on the rounds table
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an opened, migrated database
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// storedWager is the JSON shape of one wager in the wagers column
type storedWager struct {
	BetTypeID uint8  `json:"bet_type"`
	Number    int    `json:"number"`
	Amount    string `json:"amount"`
	Payout    string `json:"payout,omitempty"`
}

const upsertRoundSQL = `
	INSERT INTO rounds (
		round_key, account, timestamp, total_amount, total_payout, winning_raw, resolved,
		waiting, recovered, force_stopped, result_type, wagers, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(round_key) DO UPDATE SET
		total_payout = excluded.total_payout,
		winning_raw = excluded.winning_raw,
		resolved = excluded.resolved,
		waiting = excluded.waiting,
		recovered = excluded.recovered,
		force_stopped = excluded.force_stopped,
		result_type = excluded.result_type,
		wagers = excluded.wagers,
		updated_at = excluded.updated_at
`

// SaveRounds implements Repository in a single transaction
func (r *SQLiteRepository) SaveRounds(ctx context.Context, account string, records []entities.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRoundSQL)
	if err != nil {
		return fmt.Errorf("error preparing round upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	for _, rec := range records {
		wagers, err := encodeWagers(rec.Wagers)
		if err != nil {
			return err
		}
		raw, resolved := rec.WinningResult.Raw()
		_, err = stmt.ExecContext(ctx,
			rec.Key,
			strings.ToLower(account),
			rec.Timestamp.Unix(),
			bigString(rec.TotalAmount),
			bigString(rec.TotalPayout),
			int(raw),
			boolInt(resolved),
			boolInt(rec.IsWaitingForResult),
			boolInt(rec.IsRecovered),
			boolInt(rec.IsForceStopped),
			string(rec.ResultType),
			wagers,
			now,
		)
		if err != nil {
			return fmt.Errorf("error saving round %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing rounds: %w", err)
	}
	return nil
}

// GetRounds implements Repository
func (r *SQLiteRepository) GetRounds(ctx context.Context, account string, limit int) ([]entities.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT round_key, account, timestamp, total_amount, total_payout, winning_raw, resolved,
			waiting, recovered, force_stopped, result_type, wagers
		FROM rounds
		WHERE account = ?
		ORDER BY timestamp DESC, round_key DESC
		LIMIT ?
	`, strings.ToLower(account), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying rounds: %w", err)
	}
	defer rows.Close()

	var records []entities.HistoryRecord
	for rows.Next() {
		var rec entities.HistoryRecord
		var ts int64
		var totalAmount, totalPayout, resultType, wagers string
		var raw, resolved, waiting, recovered, forceStopped int

		if err := rows.Scan(&rec.Key, &rec.Account, &ts, &totalAmount, &totalPayout, &raw, &resolved,
			&waiting, &recovered, &forceStopped, &resultType, &wagers); err != nil {
			return nil, fmt.Errorf("error scanning round: %w", err)
		}

		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.IsWaitingForResult = waiting == 1
		rec.IsRecovered = recovered == 1
		rec.IsForceStopped = forceStopped == 1
		rec.ResultType = entities.ResultType(resultType)
		if rec.TotalAmount, err = parseBig(totalAmount); err != nil {
			return nil, err
		}
		if rec.TotalPayout, err = parseBig(totalPayout); err != nil {
			return nil, err
		}
		if rec.WinningResult, err = entities.DecodeWinningResult(uint8(raw), resolved == 1); err != nil {
			return nil, fmt.Errorf("round %s: %w", rec.Key, err)
		}
		if rec.Wagers, err = decodeWagers(wagers); err != nil {
			return nil, fmt.Errorf("round %s: %w", rec.Key, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close is a no-op; the database handle is owned by the caller
func (r *SQLiteRepository) Close() error {
	return nil
}

func encodeWagers(wagers []entities.WagerDetail) (string, error) {
	stored := make([]storedWager, len(wagers))
	for i, w := range wagers {
		stored[i] = storedWager{
			BetTypeID: uint8(w.BetTypeID),
			Number:    w.Number,
			Amount:    bigString(w.Amount),
		}
		if w.Payout != nil {
			stored[i].Payout = w.Payout.String()
		}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("error encoding wagers: %w", err)
	}
	return string(data), nil
}

func decodeWagers(data string) ([]entities.WagerDetail, error) {
	var stored []storedWager
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("error decoding wagers: %w", err)
	}
	wagers := make([]entities.WagerDetail, len(stored))
	for i, s := range stored {
		amount, err := parseBig(s.Amount)
		if err != nil {
			return nil, err
		}
		wagers[i] = entities.WagerDetail{BetTypeID: entities.BetTypeID(s.BetTypeID), Number: s.Number, Amount: amount}
		if s.Payout != "" {
			if wagers[i].Payout, err = parseBig(s.Payout); err != nil {
				return nil, err
			}
		}
	}
	return wagers, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
