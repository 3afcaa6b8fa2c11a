package history

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

// MemoryRepository implements Repository in memory
type MemoryRepository struct {
	mu     sync.RWMutex
	rounds map[string]map[string]entities.HistoryRecord // account -> key -> record
}

// NewMemoryRepository creates a new in-memory history repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rounds: make(map[string]map[string]entities.HistoryRecord)}
}

// SaveRounds implements Repository
func (r *MemoryRepository) SaveRounds(ctx context.Context, account string, records []entities.HistoryRecord) error {
	account = strings.ToLower(account)

	r.mu.Lock()
	defer r.mu.Unlock()

	byKey, ok := r.rounds[account]
	if !ok {
		byKey = make(map[string]entities.HistoryRecord)
		r.rounds[account] = byKey
	}
	for _, rec := range records {
		byKey[rec.Key] = rec
	}
	return nil
}

// GetRounds implements Repository
func (r *MemoryRepository) GetRounds(ctx context.Context, account string, limit int) ([]entities.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byKey := r.rounds[strings.ToLower(account)]
	records := make([]entities.HistoryRecord, 0, len(byKey))
	for _, rec := range byKey {
		records = append(records, rec)
	}
	sortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}

func sortNewestFirst(records []entities.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Key > records[j].Key
	})
}
