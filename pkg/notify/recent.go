package notify

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fadedpez/tucoroulette/internal/types"
)

const (
	DefaultWindow   = 10 * time.Second
	DefaultCapacity = 1024
)

// RecentErrors remembers which (user, code, reason) triples were shown inside the window.
// It is bounded and entries age out on their own.
type RecentErrors struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewRecentErrors creates a dedup set holding at most size entries for window each
func NewRecentErrors(size int, window time.Duration) *RecentErrors {
	if size <= 0 {
		size = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RecentErrors{cache: expirable.NewLRU[string, struct{}](size, nil, window)}
}

// Seen reports whether the same error was already shown to the user inside the window,
// recording it when it was not.
func (r *RecentErrors) Seen(userID string, err *types.GameError) bool {
	key := userID + "|" + string(err.Code) + "|" + string(err.Reason) + "|" + err.Message

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache.Get(key); ok {
		return true
	}
	r.cache.Add(key, struct{}{})
	return false
}

// Len returns the number of live entries
func (r *RecentErrors) Len() int {
	return r.cache.Len()
}
