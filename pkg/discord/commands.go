package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/history"
)

// Slash command names
const (
	cmdRoulette = "roulette"
	cmdBet      = "bet"
	cmdSlip     = "slip"
	cmdStatus   = "status"
	cmdHistory  = "history"
	cmdApprove  = "approve"
	cmdRecover  = "recover"
	cmdWallet   = "wallet"
	cmdStats    = "stats"
	cmdTour     = "tour"
)

// Component custom id prefixes; arguments follow a colon
const (
	btnBet       = "roulette_bet"
	btnChip      = "roulette_chip"
	btnUndo      = "roulette_undo"
	btnClear     = "roulette_clear"
	btnSpin      = "roulette_spin"
	btnRefresh   = "roulette_refresh"
	btnStatsPage = "stats_page"
	btnTourDone  = "tour_done"
)

var minStraight = float64(0)

// Commands defines all slash commands for the bot
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        cmdRoulette,
		Description: "Sit down at Tuco's roulette table",
	},
	{
		Name:        cmdBet,
		Description: "Add a wager to your slip",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "What to bet on",
				Required:    true,
				Choices:     betTypeChoices(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "number",
				Description: "Pocket for a straight bet (0-36)",
				MinValue:    &minStraight,
				MaxValue:    36,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "amount",
				Description: "Tokens to stake, defaults to your chip value",
			},
		},
	},
	{
		Name:        cmdSlip,
		Description: "Show the wagers waiting for the next spin",
	},
	{
		Name:        cmdStatus,
		Description: "Show your current round",
	},
	{
		Name:        cmdHistory,
		Description: "Show your recent rounds",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "filter",
				Description: "Which rounds to show",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "All", Value: string(history.FilterAll)},
					{Name: "Wins", Value: string(history.FilterWins)},
					{Name: "Losses", Value: string(history.FilterLosses)},
				},
			},
		},
	},
	{
		Name:        cmdApprove,
		Description: "Allow the table to move tokens for your bets",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "amount",
				Description: "Tokens to approve",
				Required:    true,
			},
		},
	},
	{
		Name:        cmdRecover,
		Description: "Recover a round stuck waiting for randomness",
	},
	{
		Name:        cmdWallet,
		Description: "Show your table account, balance and allowance",
	},
	{
		Name:        cmdStats,
		Description: "View player statistics",
	},
	{
		Name:        cmdTour,
		Description: "How to play at Tuco's table",
	},
}

func betTypeChoices() []*discordgo.ApplicationCommandOptionChoice {
	all := roulette.All()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(all))
	for _, d := range all {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: d.Name, Value: d.Name})
	}
	return choices
}
