package history

import (
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
)

// Filter selects which rounds a history view shows
type Filter string

const (
	FilterAll    Filter = "all"
	FilterWins   Filter = "wins"
	FilterLosses Filter = "losses"
)

// ParseFilter maps user input onto a Filter, defaulting to all
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterWins, "win":
		return FilterWins
	case FilterLosses, "loss":
		return FilterLosses
	default:
		return FilterAll
	}
}

// Reconciler turns raw contract rounds into display records with stable keys
type Reconciler struct {
	keys *lru.Cache[string, string]
}

// NewReconciler creates a reconciler remembering keys for up to size rounds
func NewReconciler(size int) *Reconciler {
	if size <= 0 {
		size = 4096
	}
	keys, err := lru.New[string, string](size)
	if err != nil {
		panic(fmt.Sprintf("history key cache: %v", err))
	}
	return &Reconciler{keys: keys}
}

// Reconcile classifies, de-duplicates and sorts rounds, most recent first
func (r *Reconciler) Reconcile(account string, rounds []ledger.RawRound) []entities.HistoryRecord {
	byKey := make(map[string]int, len(rounds))
	out := make([]entities.HistoryRecord, 0, len(rounds))

	for _, raw := range rounds {
		rec := toRecord(account, raw)
		rec.Key = r.keyFor(account, raw)

		if i, seen := byKey[rec.Key]; seen {
			// the same round listed twice: keep the resolved copy
			if out[i].IsWaitingForResult && !rec.IsWaitingForResult {
				out[i] = rec
			}
			continue
		}
		byKey[rec.Key] = len(out)
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b entities.HistoryRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// keyFor returns the key already handed out for this round or mints timestamp + random suffix.
// The fingerprint leaves out the outcome so a round keeps its key when it resolves.
func (r *Reconciler) keyFor(account string, raw ledger.RawRound) string {
	fp := fingerprint(account, raw)
	if key, ok := r.keys.Get(fp); ok {
		return key
	}
	key := fmt.Sprintf("%d-%s", raw.Timestamp, uuid.NewString()[:8])
	r.keys.Add(fp, key)
	return key
}

func fingerprint(account string, raw ledger.RawRound) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d", strings.ToLower(account), raw.Timestamp)
	for _, w := range raw.Wagers {
		fmt.Fprintf(&b, "|%d:%d:%s", w.BetTypeID, w.Number, amountString(w.Amount))
	}
	return b.String()
}

func toRecord(account string, raw ledger.RawRound) entities.HistoryRecord {
	rec := entities.HistoryRecord{
		Account:        account,
		Timestamp:      time.Unix(int64(raw.Timestamp), 0).UTC(),
		TotalAmount:    copyAmount(raw.TotalAmount),
		TotalPayout:    copyAmount(raw.TotalPayout),
		IsRecovered:    raw.IsRecovered,
		IsForceStopped: raw.IsForceStopped,
	}
	for _, w := range raw.Wagers {
		rec.Wagers = append(rec.Wagers, entities.WagerDetail{
			BetTypeID: entities.BetTypeID(w.BetTypeID),
			Number:    int(w.Number),
			Amount:    copyAmount(w.Amount),
			Payout:    copyAmount(w.Payout),
		})
	}

	switch {
	case raw.IsRecovered:
		rec.WinningResult = entities.RecoveredResult()
	case raw.IsForceStopped:
		rec.WinningResult = entities.ForceStoppedResult()
	default:
		result, err := entities.DecodeWinningResult(raw.WinningNumber, raw.Completed)
		if err == nil {
			rec.WinningResult = result
		}
		rec.IsRecovered = result.IsRecovered()
		rec.IsForceStopped = result.IsForceStopped()
	}
	rec.IsWaitingForResult = !raw.Completed && !rec.IsRecovered && !rec.IsForceStopped
	rec.ResultType = Classify(rec)
	return rec
}

// Classify applies recovered > force_stopped > pending > win > loss > even > unknown
func Classify(rec entities.HistoryRecord) entities.ResultType {
	switch {
	case rec.IsRecovered:
		return entities.ResultTypeRecovered
	case rec.IsForceStopped:
		return entities.ResultTypeForceStopped
	case rec.IsWaitingForResult:
		return entities.ResultTypePending
	case rec.TotalAmount == nil || rec.TotalPayout == nil:
		return entities.ResultTypeUnknown
	}

	switch rec.TotalPayout.Cmp(rec.TotalAmount) {
	case 1:
		return entities.ResultTypeWin
	case -1:
		return entities.ResultTypeLoss
	}
	if rec.TotalAmount.Sign() > 0 {
		return entities.ResultTypeEven
	}
	return entities.ResultTypeUnknown
}

// Apply returns the records matching filter, order preserved
func Apply(records []entities.HistoryRecord, filter Filter) []entities.HistoryRecord {
	if filter == FilterAll || filter == "" {
		return records
	}
	want := entities.ResultTypeWin
	if filter == FilterLosses {
		want = entities.ResultTypeLoss
	}
	out := make([]entities.HistoryRecord, 0, len(records))
	for _, rec := range records {
		if rec.ResultType == want {
			out = append(out, rec)
		}
	}
	return out
}

func copyAmount(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
