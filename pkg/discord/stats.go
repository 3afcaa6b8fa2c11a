package discord

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	idiscord "github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/services/statistics"
)

const leaderboardPageSize = 10

// handleStats shows the caller's numbers and the first leaderboard page
func (b *Bot) handleStats(i *discordgo.InteractionCreate) error {
	if err := idiscord.Defer(b.session, i, true); err != nil {
		return err
	}
	return b.renderStats(i, 1)
}

// handleStatsPage pages through the leaderboard
func (b *Bot) handleStatsPage(i *discordgo.InteractionCreate) error {
	_, arg := splitCustomID(i.MessageComponentData().CustomID)
	arg, _, _ = strings.Cut(arg, ":")
	page, err := strconv.Atoi(arg)
	if err != nil || page < 1 {
		page = 1
	}
	if err := idiscord.DeferUpdate(b.session, i); err != nil {
		return err
	}
	return b.renderStats(i, page)
}

func (b *Bot) renderStats(i *discordgo.InteractionCreate, page int) error {
	ctx, cancel := b.requestContext()
	defer cancel()

	sess, err := b.acquire(ctx, i)
	if err != nil {
		return b.failDeferred(i, err)
	}
	summary, err := b.stats.AccountSummary(ctx, sess.userID, sess.account)
	if err != nil {
		return b.failDeferred(i, err)
	}
	board, err := b.stats.GetLeaderboard(ctx, page, leaderboardPageSize)
	if err != nil {
		return b.failDeferred(i, err)
	}

	r := idiscord.NewEphemeralResponse("", leaderboardComponents(board)).
		WithEmbeds(summaryEmbed(summary), leaderboardEmbed(board))
	return idiscord.EditResponse(b.session, i, r)
}

func summaryEmbed(stats *entities.AccountStatistics) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📊 Your numbers",
		Color: colorInfo,
	}
	if stats.Rounds == 0 {
		embed.Description = "No rounds yet. The wheel is waiting, amigo."
		return embed
	}
	embed.Description = fmt.Sprintf("**Rounds:** %d | **Record:** %dW-%dL-%dE | **Win Rate:** %.1f%%",
		stats.Rounds, stats.Wins, stats.Losses, stats.Evens, stats.WinRate())
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Staked", Value: formatTokens(stats.TotalStaked), Inline: true},
		{Name: "Paid out", Value: formatTokens(stats.TotalPaidOut), Inline: true},
		{Name: "Net", Value: signedTokens(stats.NetProfit()), Inline: true},
	}
	if stats.Pending+stats.Recovered+stats.ForceStopped > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d pending, %d recovered, %d force-stopped", stats.Pending, stats.Recovered, stats.ForceStopped),
		}
	}
	return embed
}

// leaderboardEmbed creates an embed for the leaderboard
func leaderboardEmbed(leaderboard *statistics.Leaderboard) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Showing page %d of %d (%d total players)",
		leaderboard.CurrentPage, leaderboard.TotalPages, leaderboard.TotalPlayers)

	fields := make([]*discordgo.MessageEmbedField, 0, len(leaderboard.Players))
	for _, player := range leaderboard.Players {
		rankEmoji := ""
		switch player.Rank {
		case 1:
			rankEmoji = "👑 "
		case 2:
			rankEmoji = "🥈 "
		case 3:
			rankEmoji = "🥉 "
		default:
			rankEmoji = fmt.Sprintf("%d. ", player.Rank)
		}

		specialIndicators := ""
		if player.IsTopWinner && player.Rank != 1 {
			specialIndicators += " 💰"
		}
		if player.IsTopPlayer {
			specialIndicators += " 🏆"
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("%s<@%s>%s", rankEmoji, player.UserID, specialIndicators),
			Value: fmt.Sprintf("**Rounds:** %d | **Record:** %dW-%dL-%dE | **Win Rate:** %.1f%%\n**Staked:** %s | **Net:** %s",
				player.Rounds, player.Wins, player.Losses, player.Evens, player.WinRate,
				entities.FormatTokens(player.TotalStaked), signedTokens(player.NetProfit())),
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎡 Roulette Leaderboard 🎡",
		Description: description,
		Color:       colorTable,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "👑 = #1 Net | 💰 = Biggest Winner | 🏆 = Most Rounds Played",
		},
	}
	if !leaderboard.LastUpdated.IsZero() {
		embed.Timestamp = leaderboard.LastUpdated.Format(time.RFC3339)
	}
	return embed
}

func leaderboardComponents(leaderboard *statistics.Leaderboard) []discordgo.MessageComponent {
	page := leaderboard.CurrentPage
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%d", btnStatsPage, page-1),
					Disabled: page <= 1,
					Emoji:    &discordgo.ComponentEmoji{Name: "⬅️"},
				},
				discordgo.Button{
					Label: "Refresh",
					Style: discordgo.SecondaryButton,
					// ids must be unique within a message
					CustomID: fmt.Sprintf("%s:%d:refresh", btnStatsPage, page),
					Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%d", btnStatsPage, page+1),
					Disabled: page >= leaderboard.TotalPages,
					Emoji:    &discordgo.ComponentEmoji{Name: "➡️"},
				},
			},
		},
	}
}

func signedTokens(v *big.Int) string {
	if v.Sign() > 0 {
		return "+" + formatTokens(v)
	}
	return formatTokens(v)
}
