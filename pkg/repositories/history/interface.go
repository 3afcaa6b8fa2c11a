package history

import (
	"context"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// Repository stores reconciled rounds keyed by their synthetic key
type Repository interface {
	// SaveRounds upserts records for an account; a record with a known key replaces the stored one
	SaveRounds(ctx context.Context, account string, records []entities.HistoryRecord) error

	// GetRounds returns up to limit rounds for an account, newest first. limit <= 0 means all.
	GetRounds(ctx context.Context, account string, limit int) ([]entities.HistoryRecord, error)

	Close() error
}
