package discord

import (
	"context"
	"math/big"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	idiscord "github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/history"
	"github.com/fadedpez/tucoroulette/pkg/services/recovery"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
	"github.com/fadedpez/tucoroulette/pkg/storage"
)

const (
	requestTimeout   = 15 * time.Second
	walletTxShown    = 5
	storedHistoryMax = 50
)

func (b *Bot) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, requestTimeout)
}

// txContext outlives shutdown so a broadcast transaction is always waited for
func (b *Bot) txContext() context.Context {
	return context.WithoutCancel(b.ctx)
}

func (b *Bot) boardResponse(sess *session, content string) *idiscord.Response {
	chip := sess.slip.ChipValue()
	wagers := sess.slip.Wagers()
	return idiscord.NewEphemeralResponse(content, boardComponents(chip, len(wagers) == 0)).
		WithEmbeds(slipEmbed(wagers, chip))
}

// handleRoulette opens the board, with the tour the first time
func (b *Bot) handleRoulette(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := idiscord.SendResponse(b.session, i, b.boardResponse(sess, "")); err != nil {
		return err
	}

	if !sess.preferences().TourDismissed {
		tour := idiscord.NewEphemeralResponse("", tourComponents()).WithEmbeds(tourEmbed())
		if err := idiscord.SendFollowup(b.session, i.Interaction, tour); err != nil {
			b.logger.Warn("Error sending tour: %v", err)
		}
	}
	return nil
}

// handleBet adds one wager from the /bet options
func (b *Bot) handleBet(i *discordgo.InteractionCreate) error {
	opts := optionMap(i.ApplicationCommandData().Options)

	typeOpt, ok := opts["type"]
	if !ok {
		return b.fail(i, types.NewValidationError(types.ReasonUnknownBetType, "pick a bet type"))
	}
	betType, err := roulette.ParseBetType(typeOpt.StringValue())
	if err != nil {
		return b.fail(i, err)
	}

	var numbers []int
	if betType == roulette.Straight {
		numOpt, ok := opts["number"]
		if !ok {
			return b.fail(i, types.NewValidationError(types.ReasonInvalidNumbers, "a straight bet needs a number from 0 to 36"))
		}
		numbers = []int{int(numOpt.IntValue())}
	} else {
		numbers = roulette.CoveredNumbers(betType)
	}

	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	var wager entities.PendingWager
	if amountOpt, ok := opts["amount"]; ok {
		amount, perr := entities.ParseTokens(amountOpt.StringValue())
		if perr != nil {
			return b.fail(i, types.NewValidationError(types.ReasonInvalidAmount, perr.Error()))
		}
		wager, err = sess.slip.SelectAmount(betType, numbers, amount)
	} else {
		wager, err = sess.slip.Select(betType, numbers)
	}
	if err != nil {
		return b.fail(i, err)
	}

	return idiscord.SendResponse(b.session, i, b.boardResponse(sess, "➕ "+wagerLine(wager)))
}

func (b *Bot) handleSlip(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	return idiscord.SendResponse(b.session, i, b.boardResponse(sess, ""))
}

// handleStatus shows the latest snapshot and, for a waiting round, whether it can be recovered
func (b *Bot) handleStatus(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := idiscord.Defer(b.session, i, true); err != nil {
		return err
	}

	sess.poller.Refresh()
	snap := sess.poller.Snapshot()

	var elig *recovery.Eligibility
	if snap.Game.AwaitingRandomness() || snap.Game.RecoveryEligible {
		e, err := b.recovery.Check(ctx, snap.Game, sess.lastRequestBlock())
		if err != nil {
			b.logger.Warn("Recovery check for %s failed: %v", sess.account, err)
		} else {
			elig = &e
		}
	}

	return idiscord.EditResponse(b.session, i, idiscord.NewEphemeralResponse("", nil).WithEmbeds(statusEmbed(snap, elig)))
}

// handleHistory lists recent rounds, falling back to stored rounds before the first poll lands
func (b *Bot) handleHistory(i *discordgo.InteractionCreate) error {
	if !b.ledger.Capabilities().HasHistory {
		return b.fail(i, &types.GameError{
			Code:    types.ErrUnsupported,
			Reason:  types.ReasonNoHistory,
			Message: "this table does not keep round history",
		})
	}

	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	filter := history.ParseFilter(sess.preferences().HistoryFilter)
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["filter"]; ok {
		filter = history.ParseFilter(opt.StringValue())
		prefs := sess.updatePreferences(func(p *storage.Preferences) { p.HistoryFilter = string(filter) }, b.now())
		b.savePreferences(ctx, prefs)
	}

	snap := sess.poller.Snapshot()
	records, total := snap.History, snap.HistoryTotal
	if len(records) == 0 && b.history != nil {
		stored, err := b.history.GetRounds(ctx, sess.account, storedHistoryMax)
		if err != nil {
			b.logger.Warn("Loading stored rounds for %s failed: %v", sess.account, err)
		} else {
			records = stored
		}
	}

	return idiscord.SendResponse(b.session, i, idiscord.NewEphemeralResponse("", nil).WithEmbeds(historyEmbed(records, filter, total)))
}

// handleApprove grants the game contract an allowance of exactly the requested amount
func (b *Bot) handleApprove(i *discordgo.InteractionCreate) error {
	opt, ok := optionMap(i.ApplicationCommandData().Options)["amount"]
	if !ok {
		return b.fail(i, types.NewValidationError(types.ReasonInvalidAmount, "how much should the table be allowed to take?"))
	}
	amount, err := entities.ParseTokens(opt.StringValue())
	if err != nil {
		return b.fail(i, types.NewValidationError(types.ReasonInvalidAmount, err.Error()))
	}

	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := idiscord.Defer(b.session, i, true); err != nil {
		return err
	}

	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	res, err := b.submit.Approve(b.txContext(), sess.account, amount)
	b.recordTransaction(sess, entities.TransactionKindApprove, amount, res, err)
	if err != nil {
		return b.failDeferred(i, err)
	}
	return idiscord.EditResponse(b.session, i, idiscord.NewEphemeralResponse(txText("Approved "+formatTokens(amount), res), nil))
}

// handleRecover sends the self-recovery transaction for a stuck round
func (b *Bot) handleRecover(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := idiscord.Defer(b.session, i, true); err != nil {
		return err
	}

	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	snap := sess.poller.Snapshot()
	res, err := b.recovery.Recover(b.txContext(), sess.account, snap.Game, sess.lastRequestBlock())
	b.recordTransaction(sess, entities.TransactionKindRecover, nil, res, err)
	if err != nil {
		return b.failDeferred(i, err)
	}

	sess.poller.Refresh()
	return idiscord.EditResponse(b.session, i, idiscord.NewEphemeralResponse(txText("Round recovered", res), nil))
}

// handleWallet reads balance and allowance in parallel
func (b *Bot) handleWallet(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := idiscord.Defer(b.session, i, true); err != nil {
		return err
	}

	var balance, allowance *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = b.ledger.Balance(gctx, sess.account)
		return err
	})
	g.Go(func() (err error) {
		allowance, err = b.ledger.Allowance(gctx, sess.account, b.ledger.Spender())
		return err
	})
	if err := g.Wait(); err != nil {
		return b.failDeferred(i, submission.Classify(err))
	}

	txs, err := b.wallets.Transactions(ctx, sess.userID, walletTxShown)
	if err != nil {
		b.logger.Warn("Loading transactions for %s failed: %v", sess.userID, err)
	}

	return idiscord.EditResponse(b.session, i, idiscord.NewEphemeralResponse("", nil).WithEmbeds(walletEmbed(sess.account, balance, allowance, txs)))
}

func (b *Bot) handleTour(i *discordgo.InteractionCreate) error {
	return idiscord.SendResponse(b.session, i, idiscord.NewEphemeralResponse("", tourComponents()).WithEmbeds(tourEmbed()))
}

// recordTransaction adds a sent transaction to the user's audit trail. Calls refused before
// anything was broadcast are not recorded.
func (b *Bot) recordTransaction(sess *session, kind entities.TransactionKind, amount *big.Int, res *submission.Result, err error) {
	if err != nil && refusedBeforeBroadcast(err) {
		return
	}

	rec := &entities.TransactionRecord{
		ID:        uuid.NewString(),
		UserID:    sess.userID,
		Account:   sess.account,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: b.now(),
	}
	switch {
	case err == nil:
		rec.ID = res.ID
		rec.Status = entities.TransactionConfirmed
		rec.TxHash = res.TxHash
		rec.RequestID = res.RequestID
		if rec.Amount == nil {
			rec.Amount = res.Total
		}
	case types.IsGameError(err, types.ErrTimeout):
		rec.Status = entities.TransactionPending
		rec.Error = err.Error()
	default:
		rec.Status = entities.TransactionFailed
		rec.Error = err.Error()
	}

	ctx, cancel := b.requestContext()
	defer cancel()
	if err := b.wallets.RecordTransaction(ctx, rec); err != nil {
		b.logger.Warn("Recording %s transaction for %s failed: %v", kind, sess.userID, err)
	}
}

func refusedBeforeBroadcast(err error) bool {
	switch types.CodeOf(err) {
	case types.ErrValidation, types.ErrLimitExceeded, types.ErrInsufficientFunds,
		types.ErrInsufficientAllowance, types.ErrUnsupported, types.ErrInvalidState:
		return true
	}
	return false
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
