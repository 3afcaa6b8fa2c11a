package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
)

// Thresholds after which an unanswered randomness request may be recovered by its player
const (
	MaxRequestAge    = time.Hour
	MaxRequestBlocks = 300
)

// Eligibility explains whether a round can be recovered right now
type Eligibility struct {
	Eligible bool
	Reason   string
	Age      time.Duration
	Blocks   uint64
}

// Eligible applies the recovery rules to a status snapshot. requestBlock is the block the
// bets were mined in, or 0 when unknown, in which case only the age rule applies.
func Eligible(snap entities.GameStatusSnapshot, now time.Time, currentBlock, requestBlock uint64) Eligibility {
	e := Eligibility{}
	if !snap.LastPlayTimestamp.IsZero() {
		e.Age = now.Sub(snap.LastPlayTimestamp)
	}
	if requestBlock > 0 && currentBlock > requestBlock {
		e.Blocks = currentBlock - requestBlock
	}

	switch {
	case snap.RecoveryEligible:
		e.Eligible, e.Reason = true, "the table marked this round recoverable"
	case !snap.AwaitingRandomness():
		e.Reason = "there is no round waiting for randomness"
	case e.Age >= MaxRequestAge:
		e.Eligible, e.Reason = true, fmt.Sprintf("randomness has been pending for %s", e.Age.Truncate(time.Minute))
	case e.Blocks >= MaxRequestBlocks:
		e.Eligible, e.Reason = true, fmt.Sprintf("randomness has been pending for %d blocks", e.Blocks)
	default:
		e.Reason = fmt.Sprintf("randomness is still expected, recovery opens after %s or %d blocks",
			MaxRequestAge, MaxRequestBlocks)
	}
	return e
}

// Recoverer sends the recovery transaction
type Recoverer interface {
	Recover(ctx context.Context, account string) (*submission.Result, error)
}

// Service gates and performs self-recovery of stuck rounds
type Service struct {
	ledger    ledger.Ledger
	recoverer Recoverer
	logger    *logging.Logger
	now       func() time.Time
}

// NewService creates a recovery service
func NewService(l ledger.Ledger, recoverer Recoverer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		ledger:    l,
		recoverer: recoverer,
		logger:    logger.WithField("component", "recovery"),
		now:       time.Now,
	}
}

// Check evaluates eligibility against the current block height
func (s *Service) Check(ctx context.Context, snap entities.GameStatusSnapshot, requestBlock uint64) (Eligibility, error) {
	if !s.ledger.Capabilities().HasSelfRecovery {
		return Eligibility{Reason: "this table does not support self-recovery"}, nil
	}
	current, err := s.ledger.BlockNumber(ctx)
	if err != nil {
		return Eligibility{}, submission.Classify(err)
	}
	return Eligible(snap, s.now(), current, requestBlock), nil
}

// Recover sends recoverOwnStuckGame when the round qualifies. A TIMEOUT error means the
// transaction may still land.
func (s *Service) Recover(ctx context.Context, account string, snap entities.GameStatusSnapshot, requestBlock uint64) (*submission.Result, error) {
	if !s.ledger.Capabilities().HasSelfRecovery {
		return nil, &types.GameError{Code: types.ErrUnsupported, Reason: types.ReasonNoSelfRecovery, Message: "this table does not support self-recovery"}
	}

	e, err := s.Check(ctx, snap, requestBlock)
	if err != nil {
		return nil, err
	}
	if !e.Eligible {
		return nil, &types.GameError{Code: types.ErrInvalidState, Reason: types.ReasonNotRecoverable, Message: e.Reason}
	}

	s.logger.Info("Recovering round for %s: %s", account, e.Reason)
	return s.recoverer.Recover(ctx, account)
}
