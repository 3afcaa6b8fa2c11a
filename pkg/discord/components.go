package discord

import (
	"math/big"
	"strconv"

	"github.com/bwmarrin/discordgo"

	idiscord "github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/storage"
)

// handleBoardBet places one chip on an outside bet
func (b *Bot) handleBoardBet(i *discordgo.InteractionCreate) error {
	_, arg := splitCustomID(i.MessageComponentData().CustomID)
	id, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || !roulette.IsValid(entities.BetTypeID(id)) || entities.BetTypeID(id) == roulette.Straight {
		return b.fail(i, types.NewValidationError(types.ReasonUnknownBetType, "that is not a bet on this board"))
	}
	betType := entities.BetTypeID(id)

	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	wager, err := sess.slip.Select(betType, roulette.CoveredNumbers(betType))
	if err != nil {
		return b.fail(i, err)
	}
	return idiscord.UpdateResponse(b.session, i, b.boardResponse(sess, "➕ "+wagerLine(wager)))
}

// handleChip changes the chip used by future bets and remembers it
func (b *Bot) handleChip(i *discordgo.InteractionCreate) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return b.fail(i, types.NewValidationError(types.ReasonInvalidAmount, "pick a chip"))
	}
	chip, ok := new(big.Int).SetString(values[0], 10)
	if !ok {
		return b.fail(i, types.NewValidationError(types.ReasonInvalidAmount, "that chip is not on the table"))
	}

	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}
	if err := sess.slip.SetChipValue(chip); err != nil {
		return b.fail(i, err)
	}

	prefs := sess.updatePreferences(func(p *storage.Preferences) { p.ChipValue = chip.String() }, b.now())
	b.savePreferences(ctx, prefs)

	return idiscord.UpdateResponse(b.session, i, b.boardResponse(sess, ""))
}

func (b *Bot) handleUndo(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	content := "Nothing to undo."
	if removed, ok := sess.slip.Undo(); ok {
		content = "↩️ Removed " + wagerLine(removed)
	}
	return idiscord.UpdateResponse(b.session, i, b.boardResponse(sess, content))
}

func (b *Bot) handleClear(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	sess.slip.Clear()
	return idiscord.UpdateResponse(b.session, i, b.boardResponse(sess, "🧹 Slip cleared."))
}

func (b *Bot) handleRefresh(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	sess.poller.Refresh()
	return idiscord.UpdateResponse(b.session, i, b.boardResponse(sess, ""))
}

// handleSpin submits the slip. The board is edited with the outcome; failures also get a
// follow-up so the restored slip stays visible.
func (b *Bot) handleSpin(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	if !sess.spinning.CompareAndSwap(false, true) {
		return b.fail(i, &types.GameError{
			Code:    types.ErrInvalidState,
			Reason:  types.ReasonRoundInProgress,
			Message: "your last spin is still being placed",
		})
	}
	defer sess.spinning.Store(false)

	snap := sess.poller.Snapshot()
	if snap.Awaiting {
		return b.fail(i, &types.GameError{
			Code:    types.ErrInvalidState,
			Reason:  types.ReasonRoundInProgress,
			Message: "the ball is still spinning, wait for your result",
		})
	}

	if err := idiscord.DeferUpdate(b.session, i); err != nil {
		return err
	}

	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	stake := sess.slip.Total()
	res, err := b.submit.Submit(b.txContext(), sess.slip, sess.account)
	b.recordTransaction(sess, entities.TransactionKindBets, stake, res, err)
	if err != nil {
		if editErr := idiscord.EditResponse(b.session, i, b.boardResponse(sess, "")); editErr != nil {
			b.logger.Warn("Error redrawing board: %v", editErr)
		}
		if sendErr := idiscord.SendFollowup(b.session, i.Interaction, idiscord.NewErrorResponse(err)); sendErr != nil {
			b.logger.Warn("Error sending spin failure: %v", sendErr)
		}
		return err
	}

	sess.expectRound(res.RequestID, res.BlockNumber, snap.Game.RequestID)
	sess.poller.Refresh()

	content := txText("Bets placed, "+formatTokens(res.Total)+" on the table", res) + "\n🎡 *Tuco spins the wheel...*"
	return idiscord.EditResponse(b.session, i, b.boardResponse(sess, content))
}

// handleTourDismiss remembers that the user has seen the tour
func (b *Bot) handleTourDismiss(i *discordgo.InteractionCreate) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.fail(i, err)
	}

	prefs := sess.updatePreferences(func(p *storage.Preferences) { p.TourDismissed = true }, b.now())
	b.savePreferences(ctx, prefs)

	return idiscord.UpdateResponse(b.session, i, &idiscord.Response{
		Content:    "👍 ¡Perfecto! `/tour` brings this back anytime.",
		Embeds:     []*discordgo.MessageEmbed{},
		Components: []discordgo.MessageComponent{},
		Ephemeral:  true,
	})
}
