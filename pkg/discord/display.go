package discord

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/history"
	"github.com/fadedpez/tucoroulette/pkg/services/recovery"
	"github.com/fadedpez/tucoroulette/pkg/services/status"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
)

const (
	colorTable   = 0x2e7d32
	colorInfo    = 0x1565c0
	colorWaiting = 0xf9a825

	historyPageSize = 10
)

// boardBets are the outside bets offered as buttons, in board order
var boardBets = []entities.BetTypeID{
	roulette.Red, roulette.Black, roulette.Even, roulette.Odd, roulette.Low,
	roulette.High, roulette.Dozen1, roulette.Dozen2, roulette.Dozen3, roulette.Column1,
	roulette.Column2, roulette.Column3,
}

var betLabels = map[entities.BetTypeID]string{
	roulette.Straight: "Straight",
	roulette.Dozen1:   "1st 12",
	roulette.Dozen2:   "2nd 12",
	roulette.Dozen3:   "3rd 12",
	roulette.Column1:  "Column 1",
	roulette.Column2:  "Column 2",
	roulette.Column3:  "Column 3",
	roulette.Red:      "Red",
	roulette.Black:    "Black",
	roulette.Even:     "Even",
	roulette.Odd:      "Odd",
	roulette.Low:      "1-18",
	roulette.High:     "19-36",
}

func betLabel(id entities.BetTypeID) string {
	if label, ok := betLabels[id]; ok {
		return label
	}
	return roulette.Name(id)
}

func formatTokens(v *big.Int) string {
	return entities.FormatTokens(v) + " 🪙"
}

func pocketLabel(n int) string {
	switch roulette.Color(n) {
	case "red":
		return fmt.Sprintf("🔴 %d", n)
	case "black":
		return fmt.Sprintf("⚫ %d", n)
	default:
		return fmt.Sprintf("🟢 %d", n)
	}
}

func wagerLine(w entities.PendingWager) string {
	if w.BetTypeID == roulette.Straight && len(w.Numbers) == 1 {
		return fmt.Sprintf("%s %s: %s", betLabel(w.BetTypeID), pocketLabel(w.Numbers[0]), formatTokens(w.Amount))
	}
	return fmt.Sprintf("%s: %s", betLabel(w.BetTypeID), formatTokens(w.Amount))
}

// slipEmbed shows the wagers waiting for the next spin
func slipEmbed(wagers []entities.PendingWager, chip *big.Int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎡 Tuco's Roulette",
		Color: colorTable,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Chip: %s | %d/%d bets", formatTokens(chip), len(wagers), roulette.DefaultLimits.MaxBetsPerSpin),
		},
	}

	if len(wagers) == 0 {
		embed.Description = "*Tuco shuffles the chips* Place your bets, amigo. Use the buttons or `/bet straight number:17`."
		return embed
	}

	lines := make([]string, 0, len(wagers))
	for _, w := range wagers {
		lines = append(lines, "• "+wagerLine(w))
	}
	embed.Description = strings.Join(lines, "\n")

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Total stake", Value: formatTokens(entities.TotalAmount(wagers)), Inline: true},
	}
	if payout, err := roulette.PotentialPayout(wagers); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Best case return", Value: formatTokens(payout), Inline: true})
	}
	return embed
}

// boardComponents lays out the chip selector, outside bets and slip controls
func boardComponents(chip *big.Int, slipEmpty bool) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(roulette.ChipValues))
	for _, v := range roulette.ChipValues {
		value := entities.Tokens(v)
		options = append(options, discordgo.SelectMenuOption{
			Label:   fmt.Sprintf("%d token chip", v),
			Value:   value.String(),
			Default: value.Cmp(chip) == 0,
		})
	}
	chipMenu := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    btnChip,
			Placeholder: "Chip value",
			Options:     options,
		},
	}}

	rows := []discordgo.MessageComponent{chipMenu}
	var row []discordgo.MessageComponent
	for _, id := range boardBets {
		style := discordgo.SecondaryButton
		switch id {
		case roulette.Red:
			style = discordgo.DangerButton
		case roulette.Black:
			style = discordgo.PrimaryButton
		}
		row = append(row, discordgo.Button{
			Label:    betLabel(id),
			Style:    style,
			CustomID: fmt.Sprintf("%s:%d", btnBet, id),
		})
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	row = append(row,
		discordgo.Button{Label: "Undo", Style: discordgo.SecondaryButton, CustomID: btnUndo, Disabled: slipEmpty, Emoji: &discordgo.ComponentEmoji{Name: "↩️"}},
		discordgo.Button{Label: "Clear", Style: discordgo.SecondaryButton, CustomID: btnClear, Disabled: slipEmpty, Emoji: &discordgo.ComponentEmoji{Name: "🧹"}},
		discordgo.Button{Label: "Refresh", Style: discordgo.SecondaryButton, CustomID: btnRefresh, Emoji: &discordgo.ComponentEmoji{Name: "🔄"}},
	)
	rows = append(rows, discordgo.ActionsRow{Components: row})
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Spin", Style: discordgo.SuccessButton, CustomID: btnSpin, Disabled: slipEmpty, Emoji: &discordgo.ComponentEmoji{Name: "🎡"}},
	}})
	return rows
}

// statusEmbed describes the account's current round. elig is nil when not checked.
func statusEmbed(snap status.Snapshot, elig *recovery.Eligibility) *discordgo.MessageEmbed {
	game := snap.Game
	embed := &discordgo.MessageEmbed{
		Title: "🎲 Your round",
		Color: colorInfo,
	}
	if !snap.UpdatedAt.IsZero() {
		embed.Timestamp = snap.UpdatedAt.Format(time.RFC3339)
	}

	switch {
	case snap.Tick == 0:
		embed.Description = "Tuco is still checking the table, try again in a moment."
	case snap.Awaiting:
		embed.Color = colorWaiting
		embed.Description = "⏳ The ball is spinning. Waiting for randomness..."
	case !game.HasActivity():
		embed.Description = "You have not played yet. `/roulette` to sit down."
	default:
		embed.Description = fmt.Sprintf("Last result: **%s**", resultLabel(game.WinningResult))
	}

	if game.TotalAmount != nil && game.TotalAmount.Sign() > 0 {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Staked", Value: formatTokens(game.TotalAmount), Inline: true},
			&discordgo.MessageEmbedField{Name: "Paid out", Value: formatTokens(game.TotalPayout), Inline: true},
		)
	}
	if !game.LastPlayTimestamp.IsZero() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Last play", Value: fmt.Sprintf("<t:%d:R>", game.LastPlayTimestamp.Unix()), Inline: true,
		})
	}
	if elig != nil && (game.AwaitingRandomness() || elig.Eligible) {
		value := elig.Reason
		if elig.Eligible {
			value = "✅ " + value + ". Use `/recover`."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Recovery", Value: value})
	}
	if snap.Err != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Last refresh failed, showing the previous state"}
	}
	return embed
}

func resultLabel(r entities.WinningResult) string {
	if n, ok := r.Number(); ok {
		return pocketLabel(n)
	}
	switch {
	case r.IsRecovered():
		return "♻️ recovered"
	case r.IsForceStopped():
		return "🛑 force-stopped"
	default:
		return "none yet"
	}
}

var resultEmoji = map[entities.ResultType]string{
	entities.ResultTypeWin:          "🟩",
	entities.ResultTypeLoss:         "🟥",
	entities.ResultTypeEven:         "🟨",
	entities.ResultTypePending:      "⏳",
	entities.ResultTypeRecovered:    "♻️",
	entities.ResultTypeForceStopped: "🛑",
	entities.ResultTypeUnknown:      "❔",
}

// historyEmbed lists the most recent rounds matching filter
func historyEmbed(records []entities.HistoryRecord, filter history.Filter, total uint64) *discordgo.MessageEmbed {
	shown := history.Apply(records, filter)
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📜 Your rounds (%s)", filter),
		Color: colorInfo,
	}
	if len(shown) == 0 {
		embed.Description = "No rounds to show."
		return embed
	}
	if len(shown) > historyPageSize {
		shown = shown[:historyPageSize]
	}

	lines := make([]string, 0, len(shown))
	for _, rec := range shown {
		net := rec.Net()
		sign := ""
		if net.Sign() > 0 {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf("%s <t:%d:R> **%s** stake %s, net %s%s",
			resultEmoji[rec.ResultType], rec.Timestamp.Unix(), resultLabel(rec.WinningResult),
			entities.FormatTokens(rec.TotalAmount), sign, entities.FormatTokens(net)))
	}
	embed.Description = strings.Join(lines, "\n")
	if total > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d rounds on the table", total)}
	}
	return embed
}

// walletEmbed shows the custodial account with its balance, allowance and recent transactions
func walletEmbed(address string, balance, allowance *big.Int, txs []*entities.TransactionRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "👛 Your table account",
		Description: fmt.Sprintf("`%s`\nSend tokens here to play.", address),
		Color:       colorTable,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Balance", Value: formatTokens(balance), Inline: true},
			{Name: "Allowance", Value: formatTokens(allowance), Inline: true},
		},
	}
	if allowance.Sign() == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Before you bet", Value: "Use `/approve amount:100` so the table can take your stakes.",
		})
	}
	if len(txs) > 0 {
		lines := make([]string, 0, len(txs))
		for _, tx := range txs {
			line := fmt.Sprintf("%s %s `%s`", txStatusEmoji(tx.Status), tx.Kind, shortHash(tx.TxHash))
			if tx.Amount != nil && tx.Amount.Sign() > 0 {
				line += " " + entities.FormatTokens(tx.Amount)
			}
			lines = append(lines, line)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Recent transactions", Value: strings.Join(lines, "\n")})
	}
	return embed
}

func txStatusEmoji(s entities.TransactionStatus) string {
	switch s {
	case entities.TransactionConfirmed:
		return "✅"
	case entities.TransactionPending:
		return "⏳"
	default:
		return "❌"
	}
}

func shortHash(h string) string {
	if len(h) <= 14 {
		if h == "" {
			return "-"
		}
		return h
	}
	return h[:8] + "…" + h[len(h)-4:]
}

// txText confirms a mined transaction
func txText(verb string, res *submission.Result) string {
	text := fmt.Sprintf("✅ %s in `%s`", verb, shortHash(res.TxHash))
	if res.Attempts > 1 {
		text += fmt.Sprintf(" after %d attempts", res.Attempts)
	}
	return text
}

// roundAnnouncement describes a resolved round and returns the image tag for it
func roundAnnouncement(game entities.GameStatusSnapshot) (string, string) {
	rec := entities.HistoryRecord{
		TotalAmount:    game.TotalAmount,
		TotalPayout:    game.TotalPayout,
		WinningResult:  game.WinningResult,
		IsRecovered:    game.WinningResult.IsRecovered(),
		IsForceStopped: game.WinningResult.IsForceStopped(),
	}
	kind := history.Classify(rec)

	switch kind {
	case entities.ResultTypeRecovered:
		return "♻️ Your round was recovered. The table returned your stake.", string(kind)
	case entities.ResultTypeForceStopped:
		return "🛑 Your round was stopped by the house.", string(kind)
	}

	text := fmt.Sprintf("🎡 The ball lands on **%s**!", resultLabel(game.WinningResult))
	switch kind {
	case entities.ResultTypeWin:
		text += fmt.Sprintf(" ¡Ganaste! You staked %s and collect %s.", formatTokens(game.TotalAmount), formatTokens(game.TotalPayout))
	case entities.ResultTypeLoss:
		text += fmt.Sprintf(" *Tuco sweeps the table* You lost %s.", formatTokens(new(big.Int).Neg(rec.Net())))
	case entities.ResultTypeEven:
		text += " You get your stake back."
	}
	return text, string(kind)
}

func tourEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🎩 How to play at Tuco's table",
		Color: colorTable,
		Description: strings.Join([]string{
			"1. `/wallet` shows your table account. Send tokens there.",
			"2. `/approve` lets the table take stakes from it.",
			"3. `/roulette` opens the board. Pick a chip, press bets, then **Spin**.",
			"4. `/bet straight number:17` bets on a single pocket.",
			"5. Results arrive here once the randomness is in. `/status` and `/history` show your rounds.",
			"6. If a round hangs for an hour, `/recover` gets your stake back.",
		}, "\n"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Up to %d bets per spin, %s to %s per bet",
				roulette.DefaultLimits.MaxBetsPerSpin,
				entities.FormatTokens(roulette.DefaultLimits.MinBetAmount),
				entities.FormatTokens(roulette.DefaultLimits.MaxBetAmount)),
		},
	}
}

func tourComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Got it", Style: discordgo.SuccessButton, CustomID: btnTourDone, Emoji: &discordgo.ComponentEmoji{Name: "👍"}},
		}},
	}
}
