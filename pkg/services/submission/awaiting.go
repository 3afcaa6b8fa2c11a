package submission

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AwaitingMarker records that an account is waiting for a randomness request to be fulfilled
type AwaitingMarker struct {
	Account   string
	RequestID string
	Since     time.Time
}

// AwaitingTracker holds self-expiring markers so a request the poller never sees resolved
// cannot leave the account stuck in a pending state
type AwaitingTracker struct {
	markers *expirable.LRU[string, AwaitingMarker]
}

// NewAwaitingTracker creates a tracker whose markers expire after ttl
func NewAwaitingTracker(size int, ttl time.Duration) *AwaitingTracker {
	return &AwaitingTracker{markers: expirable.NewLRU[string, AwaitingMarker](size, nil, ttl)}
}

// Mark starts waiting on requestID for account, replacing any earlier marker
func (t *AwaitingTracker) Mark(account, requestID string) AwaitingMarker {
	m := AwaitingMarker{Account: account, RequestID: requestID, Since: time.Now()}
	t.markers.Add(account, m)
	return m
}

// Get returns the live marker for account
func (t *AwaitingTracker) Get(account string) (AwaitingMarker, bool) {
	return t.markers.Get(account)
}

// Resolve drops the marker if it is still waiting on requestID. An empty requestID drops any marker.
func (t *AwaitingTracker) Resolve(account, requestID string) bool {
	m, ok := t.markers.Peek(account)
	if !ok || (requestID != "" && m.RequestID != requestID) {
		return false
	}
	return t.markers.Remove(account)
}
