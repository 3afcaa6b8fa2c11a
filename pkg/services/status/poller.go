package status

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/metrics"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	"github.com/fadedpez/tucoroulette/pkg/scheduler"
	"github.com/fadedpez/tucoroulette/pkg/services/history"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
)

const taskName = "status"

// Intervals are the poll cadence tiers
type Intervals struct {
	VRFPending time.Duration
	Active     time.Duration
	Idle       time.Duration
}

// DefaultIntervals polls fastest while randomness is pending
var DefaultIntervals = Intervals{
	VRFPending: 2 * time.Second,
	Active:     3 * time.Second,
	Idle:       10 * time.Second,
}

// Snapshot is everything the poller knows about an account after one tick.
// A new value is published per tick; published values are never modified.
type Snapshot struct {
	Game         entities.GameStatusSnapshot
	History      []entities.HistoryRecord
	HistoryTotal uint64
	Awaiting     bool
	Err          error
	UpdatedAt    time.Time
	Tick         uint64
}

// HistorySink receives reconciled history after each successful fetch
type HistorySink interface {
	SaveRounds(ctx context.Context, account string, records []entities.HistoryRecord) error
}

// Awaiting is the part of the submission markers the poller reads and resolves
type Awaiting interface {
	Get(account string) (submission.AwaitingMarker, bool)
	Resolve(account, requestID string) bool
}

// Config configures a Poller
type Config struct {
	Account         string
	Intervals       Intervals
	HistoryPageSize uint64 // default 50
}

// Poller keeps one account's game status and history in sync with the ledger
type Poller struct {
	ledger     ledger.Ledger
	account    string
	intervals  Intervals
	pageSize   uint64
	reconciler *history.Reconciler
	awaiting   Awaiting
	sink       HistorySink
	scheduler  *scheduler.Scheduler
	logger     *logging.Logger

	current atomic.Pointer[Snapshot]
	ticks   atomic.Uint64

	mu        sync.Mutex
	listeners []func(Snapshot)
}

// NewPoller creates a poller; awaiting and sink may be nil
func NewPoller(l ledger.Ledger, cfg Config, reconciler *history.Reconciler, awaiting Awaiting, sink HistorySink, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Default
	}
	if cfg.Intervals == (Intervals{}) {
		cfg.Intervals = DefaultIntervals
	}
	if cfg.HistoryPageSize == 0 {
		cfg.HistoryPageSize = 50
	}
	if reconciler == nil {
		reconciler = history.NewReconciler(0)
	}
	logger = logger.WithFields(map[string]interface{}{"component": "poller", "account": cfg.Account})

	p := &Poller{
		ledger:     l,
		account:    cfg.Account,
		intervals:  cfg.Intervals,
		pageSize:   cfg.HistoryPageSize,
		reconciler: reconciler,
		awaiting:   awaiting,
		sink:       sink,
		scheduler:  scheduler.NewScheduler(logger),
		logger:     logger,
	}
	p.current.Store(&Snapshot{})
	p.scheduler.AddAdaptiveTask(taskName, p.NextInterval, p.tick)
	return p
}

// Start begins polling; the first tick runs immediately
func (p *Poller) Start(ctx context.Context) {
	if p.scheduler.Running() {
		return
	}
	metrics.PollerStarted()
	p.scheduler.Start(ctx)
}

// Stop ends polling and waits for an in-flight tick. Broadcast transactions are unaffected.
func (p *Poller) Stop() {
	if !p.scheduler.Running() {
		return
	}
	p.scheduler.Stop()
	metrics.PollerStopped()
}

// Refresh asks for a tick as soon as the current one, if any, finishes
func (p *Poller) Refresh() {
	p.scheduler.Kick(taskName)
}

// OnUpdate registers a callback run after every tick with the new snapshot
func (p *Poller) OnUpdate(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Snapshot returns the latest published snapshot
func (p *Poller) Snapshot() Snapshot {
	return *p.current.Load()
}

// NextInterval picks the cadence tier from the latest snapshot
func (p *Poller) NextInterval() time.Duration {
	snap := p.current.Load()
	switch {
	case snap.Awaiting:
		return p.intervals.VRFPending
	case snap.Game.IsActive:
		return p.intervals.Active
	default:
		return p.intervals.Idle
	}
}

// tick runs one reconciliation. Errors land on the snapshot and never stop the loop.
func (p *Poller) tick(ctx context.Context) error {
	prev := p.current.Load()
	next := &Snapshot{
		Game:         prev.Game,
		History:      prev.History,
		HistoryTotal: prev.HistoryTotal,
		Tick:         p.ticks.Add(1),
	}

	err := p.fetch(ctx, prev, next)
	if types.IsGameError(err, types.ErrStaleOrMissingData) {
		err = nil
	}
	next.Err = err
	next.UpdatedAt = time.Now()
	next.Awaiting = p.resolveAwaiting(next.Game)

	p.current.Store(next)
	p.publish(*next)

	if err != nil {
		metrics.RecordPollTick("error")
		p.logger.Warn("Status tick %d failed: %v", next.Tick, err)
		return nil
	}
	metrics.RecordPollTick("ok")
	return nil
}

func (p *Poller) fetch(ctx context.Context, prev, next *Snapshot) error {
	caps := p.ledger.Capabilities()
	knownActive := prev.Game.HasActivity() || len(prev.History) > 0

	var (
		game        entities.GameStatusSnapshot
		rounds      []ledger.RawRound
		total       uint64
		haveHistory bool
	)

	// an account seen playing before gets status and history together; a failed history
	// read still keeps the status
	if caps.HasHistory && knownActive {
		var (
			g                errgroup.Group
			gameErr, histErr error
		)
		g.Go(func() error {
			game, gameErr = p.fetchGame(ctx)
			return gameErr
		})
		g.Go(func() error {
			rounds, total, histErr = p.fetchHistory(ctx)
			return histErr
		})
		_ = g.Wait()
		if gameErr != nil {
			return submission.Classify(gameErr)
		}
		if histErr != nil {
			next.Game = game
			return submission.Classify(histErr)
		}
		haveHistory = true
	} else {
		var err error
		if game, err = p.fetchGame(ctx); err != nil {
			return submission.Classify(err)
		}
		if caps.HasHistory && game.HasActivity() {
			if rounds, total, err = p.fetchHistory(ctx); err != nil {
				next.Game = game
				return submission.Classify(err)
			}
			haveHistory = true
		} else {
			metrics.RecordHistorySkipped()
		}
	}

	next.Game = game
	if haveHistory {
		next.History = p.reconciler.Reconcile(p.account, rounds)
		next.HistoryTotal = total
		if p.sink != nil && len(next.History) > 0 {
			if err := p.sink.SaveRounds(ctx, p.account, next.History); err != nil {
				p.logger.Warn("Saving history failed: %v", err)
			}
		}
	}
	return nil
}

// fetchGame reads and decodes the game status; "no data yet" is an empty status
func (p *Poller) fetchGame(ctx context.Context) (entities.GameStatusSnapshot, error) {
	raw, err := p.ledger.GameStatus(ctx, p.account)
	if ledger.IsNoData(err) {
		return entities.GameStatusSnapshot{Account: p.account}, nil
	}
	if err != nil {
		return entities.GameStatusSnapshot{}, err
	}
	return Decode(p.account, raw)
}

func (p *Poller) fetchHistory(ctx context.Context) ([]ledger.RawRound, uint64, error) {
	rounds, total, err := p.ledger.BetHistory(ctx, p.account, 0, p.pageSize)
	if ledger.IsNoData(err) {
		return nil, 0, nil
	}
	return rounds, total, err
}

// resolveAwaiting drops the submission marker once the ledger shows its request done
func (p *Poller) resolveAwaiting(game entities.GameStatusSnapshot) bool {
	if p.awaiting == nil {
		return game.AwaitingRandomness()
	}
	marker, ok := p.awaiting.Get(p.account)
	if ok && game.RequestExists && game.RequestProcessed && (game.RequestID == marker.RequestID || marker.RequestID == "") {
		p.awaiting.Resolve(p.account, marker.RequestID)
		ok = false
	}
	return ok || game.AwaitingRandomness()
}

func (p *Poller) publish(snap Snapshot) {
	p.mu.Lock()
	listeners := append([]func(Snapshot){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// Decode converts a raw status into a snapshot. Sentinel result codes are decoded here and nowhere else.
func Decode(account string, raw ledger.RawGameStatus) (entities.GameStatusSnapshot, error) {
	result, err := entities.DecodeWinningResult(raw.WinningResult, raw.RequestProcessed)
	if err != nil {
		return entities.GameStatusSnapshot{}, types.WrapError(types.ErrInternalError, "unreadable game status", err)
	}
	snap := entities.GameStatusSnapshot{
		Account:          account,
		IsActive:         raw.IsActive,
		RequestExists:    raw.RequestExists,
		RequestProcessed: raw.RequestProcessed,
		RecoveryEligible: raw.RecoveryEligible,
		WinningResult:    result,
		TotalAmount:      raw.TotalAmount,
		TotalPayout:      raw.TotalPayout,
	}
	if raw.LastPlayTimestamp > 0 {
		snap.LastPlayTimestamp = time.Unix(int64(raw.LastPlayTimestamp), 0).UTC()
	}
	if raw.RequestID != nil && raw.RequestID.Sign() > 0 {
		snap.RequestID = raw.RequestID.String()
	}
	return snap, nil
}
