package submission

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/metrics"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/betslip"
)

// Config tunes the pipeline. Zero values take the defaults.
type Config struct {
	MaxAttempts      int           // default 3
	RetryDelay       time.Duration // default 2s
	ConfirmTimeout   time.Duration // default 60s
	GasMarginPercent int64         // default 20
	AwaitingTTL      time.Duration // default 60s
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 60 * time.Second
	}
	if c.GasMarginPercent <= 0 {
		c.GasMarginPercent = 20
	}
	if c.AwaitingTTL <= 0 {
		c.AwaitingTTL = 60 * time.Second
	}
	return c
}

// Result describes a confirmed transaction
type Result struct {
	ID          string // audit id for logs
	TxHash      string
	BlockNumber uint64
	RequestID   string
	Total       *big.Int
	Attempts    int
	Epoch       uint64
}

// EpochListener is told when a confirmed transaction invalidates an account's cached state
type EpochListener func(account string, epoch uint64)

// Pipeline submits slips, approvals and recoveries to the ledger
type Pipeline struct {
	ledger   ledger.Ledger
	logger   *logging.Logger
	cfg      Config
	awaiting *AwaitingTracker
	epoch    atomic.Uint64

	mu        sync.RWMutex
	listeners []EpochListener

	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipeline creates a pipeline over a ledger
func NewPipeline(l ledger.Ledger, cfg Config, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Default
	}
	cfg = cfg.withDefaults()
	return &Pipeline{
		ledger:   l,
		logger:   logger.WithField("component", "submission"),
		cfg:      cfg,
		awaiting: NewAwaitingTracker(1024, cfg.AwaitingTTL),
		sleep:    sleepCtx,
	}
}

// Awaiting exposes the randomness markers
func (p *Pipeline) Awaiting() *AwaitingTracker { return p.awaiting }

// Epoch returns the number of confirmed transactions so far
func (p *Pipeline) Epoch() uint64 { return p.epoch.Load() }

// OnEpoch registers a listener for confirmed transactions
func (p *Pipeline) OnEpoch(fn EpochListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Submit places every wager of the slip in one transaction. On success the submitted wagers leave
// the slip; selections made during the wait stay. On a definite failure the slip is left as it is.
func (p *Pipeline) Submit(ctx context.Context, slip *betslip.Slip, account string) (*Result, error) {
	snap := slip.Snapshot()
	wagers := snap.Wagers()
	id := uuid.NewString()
	logger := p.logger.WithFields(map[string]interface{}{"submission": id, "account": account})

	// 1. validate locally
	if err := roulette.ValidateBatch(wagers); err != nil {
		metrics.RecordSubmission(string(entities.TransactionKindBets), string(types.CodeOf(err)))
		return nil, err
	}
	total := entities.TotalAmount(wagers)

	// 2. funding preconditions
	if err := p.checkFunding(ctx, account, total); err != nil {
		metrics.RecordSubmission(string(entities.TransactionKindBets), string(types.CodeOf(err)))
		logger.Info("Submission refused before broadcast: %v", err)
		return nil, err
	}

	calls := toLedgerWagers(wagers)

	// 3-5. estimate, broadcast once per attempt, confirm
	receipt, attempts, err := p.transact(ctx, logger, entities.TransactionKindBets, account, ledger.PlaceBetsCall(calls),
		func(ctx context.Context, quote ledger.GasQuote) (ledger.TxHandle, error) {
			return p.ledger.PlaceBets(ctx, account, calls, quote)
		})
	if err != nil {
		// a timed-out wait may still land, so its wagers leave the slip to avoid a double spin
		if types.IsGameError(err, types.ErrTimeout) {
			slip.Discard(snap)
		}
		return nil, err
	}
	slip.Discard(snap)

	if receipt.RequestID != "" {
		p.awaiting.Mark(account, receipt.RequestID)
	}
	epoch := p.bumpEpoch(account)
	logger.Info("Placed %d bets totalling %s tokens in %s (request %s)",
		len(wagers), entities.FormatTokens(total), receipt.TxHash, receipt.RequestID)

	return &Result{
		ID:          id,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		RequestID:   receipt.RequestID,
		Total:       total,
		Attempts:    attempts,
		Epoch:       epoch,
	}, nil
}

// Approve grants the game contract an allowance of exactly amount
func (p *Pipeline) Approve(ctx context.Context, account string, amount *big.Int) (*Result, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, types.NewValidationError(types.ReasonInvalidAmount, "approval amount must be positive")
	}
	id := uuid.NewString()
	logger := p.logger.WithFields(map[string]interface{}{"approval": id, "account": account})
	spender := p.ledger.Spender()

	receipt, attempts, err := p.transact(ctx, logger, entities.TransactionKindApprove, account, ledger.ApproveCall(spender, amount),
		func(ctx context.Context, quote ledger.GasQuote) (ledger.TxHandle, error) {
			return p.ledger.Approve(ctx, account, spender, amount, quote)
		})
	if err != nil {
		return nil, err
	}
	epoch := p.bumpEpoch(account)
	logger.Info("Approved %s tokens for %s in %s", entities.FormatTokens(amount), spender, receipt.TxHash)

	return &Result{ID: id, TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber, Total: new(big.Int).Set(amount), Attempts: attempts, Epoch: epoch}, nil
}

// Recover sends recoverOwnStuckGame with the same gas, retry and confirmation handling as bets
func (p *Pipeline) Recover(ctx context.Context, account string) (*Result, error) {
	if !p.ledger.Capabilities().HasSelfRecovery {
		return nil, types.NewGameError(types.ErrUnsupported, "this table cannot recover rounds")
	}
	id := uuid.NewString()
	logger := p.logger.WithFields(map[string]interface{}{"recovery": id, "account": account})

	receipt, attempts, err := p.transact(ctx, logger, entities.TransactionKindRecover, account, ledger.RecoverCall(),
		func(ctx context.Context, quote ledger.GasQuote) (ledger.TxHandle, error) {
			return p.ledger.RecoverOwnStuckGame(ctx, account, quote)
		})
	if err != nil {
		return nil, err
	}
	p.awaiting.Resolve(account, "")
	epoch := p.bumpEpoch(account)
	logger.Info("Recovered stuck round in %s", receipt.TxHash)

	return &Result{ID: id, TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber, Attempts: attempts, Epoch: epoch}, nil
}

func (p *Pipeline) checkFunding(ctx context.Context, account string, total *big.Int) error {
	var balance, allowance *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = p.ledger.Balance(gctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		allowance, err = p.ledger.Allowance(gctx, account, p.ledger.Spender())
		return err
	})
	if err := g.Wait(); err != nil {
		return Classify(err)
	}

	if balance.Cmp(total) < 0 {
		return types.NewGameError(types.ErrInsufficientFunds,
			fmt.Sprintf("balance %s is below the %s token stake", entities.FormatTokens(balance), entities.FormatTokens(total)))
	}
	if allowance.Cmp(total) < 0 {
		return types.NewGameError(types.ErrInsufficientAllowance,
			fmt.Sprintf("the table may spend %s tokens but the stake is %s, use /approve", entities.FormatTokens(allowance), entities.FormatTokens(total)))
	}
	return nil
}

type sendFunc func(ctx context.Context, quote ledger.GasQuote) (ledger.TxHandle, error)

// transact runs the estimate / broadcast / confirm loop with bounded retries
func (p *Pipeline) transact(ctx context.Context, logger *logging.Logger, kind entities.TransactionKind, account string, call ledger.Call, send sendFunc) (ledger.Receipt, int, error) {
	var lastErr *types.GameError

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.RecordRetry(string(kind))
			logger.Warn("Retrying %s (attempt %d/%d) after %v", kind, attempt, p.cfg.MaxAttempts, lastErr)
			if err := p.sleep(ctx, p.cfg.RetryDelay); err != nil {
				return ledger.Receipt{}, attempt - 1, p.fail(kind, Classify(err))
			}
		}

		quote, err := p.ledger.QuoteGas(ctx, account, call)
		if err != nil {
			lastErr = Classify(err)
			if lastErr.Retryable() {
				continue
			}
			return ledger.Receipt{}, attempt, p.fail(kind, lastErr)
		}
		quote = WithMargin(quote, p.cfg.GasMarginPercent)

		tx, err := send(ctx, quote)
		if err != nil {
			lastErr = Classify(err)
			if lastErr.Retryable() {
				continue
			}
			return ledger.Receipt{}, attempt, p.fail(kind, lastErr)
		}

		receipt, cerr := p.confirm(ctx, kind, tx)
		if cerr != nil {
			logger.Warn("Waiting for %s failed: %v", tx.Hash, cerr)
			return ledger.Receipt{}, attempt, p.fail(kind, cerr)
		}
		metrics.RecordSubmission(string(kind), "ok")
		return receipt, attempt, nil
	}

	logger.Error("Giving up on %s after %d attempts: %v", kind, p.cfg.MaxAttempts, lastErr)
	return ledger.Receipt{}, p.cfg.MaxAttempts, p.fail(kind, lastErr)
}

// confirm waits for the receipt within ConfirmTimeout
func (p *Pipeline) confirm(ctx context.Context, kind entities.TransactionKind, tx ledger.TxHandle) (ledger.Receipt, *types.GameError) {
	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.ConfirmTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := p.ledger.WaitMined(waitCtx, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return ledger.Receipt{}, types.WrapError(types.ErrTimeout,
				fmt.Sprintf("transaction %s is still pending, check back shortly", tx.Hash), err)
		}
		return ledger.Receipt{}, Classify(err)
	}
	metrics.ObserveConfirmation(string(kind), time.Since(start))

	if !receipt.Succeeded {
		if receipt.RevertReason != "" {
			return ledger.Receipt{}, RevertError(receipt.RevertReason)
		}
		return ledger.Receipt{}, types.NewGameError(types.ErrContractReverted, "the table rejected the transaction")
	}
	return receipt, nil
}

func (p *Pipeline) fail(kind entities.TransactionKind, err *types.GameError) error {
	metrics.RecordSubmission(string(kind), string(err.Code))
	return err
}

func (p *Pipeline) bumpEpoch(account string) uint64 {
	epoch := p.epoch.Add(1)
	p.mu.RLock()
	listeners := append([]EpochListener(nil), p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(account, epoch)
	}
	return epoch
}

// WithMargin raises both the gas limit and the gas price by percent
func WithMargin(q ledger.GasQuote, percent int64) ledger.GasQuote {
	out := ledger.GasQuote{Limit: q.Limit + q.Limit*uint64(percent)/100}
	if q.Price != nil {
		out.Price = new(big.Int).Mul(q.Price, big.NewInt(100+percent))
		out.Price.Quo(out.Price, big.NewInt(100))
	}
	return out
}

func toLedgerWagers(wagers []entities.PendingWager) []ledger.Wager {
	out := make([]ledger.Wager, len(wagers))
	for i, w := range wagers {
		out[i] = ledger.Wager{
			BetTypeID: uint8(w.BetTypeID),
			Number:    uint8(roulette.ContractNumber(w)),
			Amount:    new(big.Int).Set(w.Amount),
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
