package discord

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	idiscord "github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/metrics"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	"github.com/fadedpez/tucoroulette/pkg/notify"
	historyRepo "github.com/fadedpez/tucoroulette/pkg/repositories/history"
	"github.com/fadedpez/tucoroulette/pkg/scheduler"
	"github.com/fadedpez/tucoroulette/pkg/services/betslip"
	"github.com/fadedpez/tucoroulette/pkg/services/image"
	"github.com/fadedpez/tucoroulette/pkg/services/recovery"
	"github.com/fadedpez/tucoroulette/pkg/services/statistics"
	"github.com/fadedpez/tucoroulette/pkg/services/status"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
	"github.com/fadedpez/tucoroulette/pkg/services/wallet"
	"github.com/fadedpez/tucoroulette/pkg/storage"
)

const (
	// Discord may redeliver an interaction; ids are remembered well past its retry window
	interactionTTL     = 10 * time.Minute
	interactionCache   = 4096
	limiterCache       = 4096
	defaultIdleTimeout = 30 * time.Minute
	sweepInterval      = time.Minute
)

// Submitter sends slips and approvals to the ledger
type Submitter interface {
	Submit(ctx context.Context, slip *betslip.Slip, account string) (*submission.Result, error)
	Approve(ctx context.Context, account string, amount *big.Int) (*submission.Result, error)
}

// Recovery checks and performs self-recovery of stuck rounds
type Recovery interface {
	Check(ctx context.Context, snap entities.GameStatusSnapshot, requestBlock uint64) (recovery.Eligibility, error)
	Recover(ctx context.Context, account string, snap entities.GameStatusSnapshot, requestBlock uint64) (*submission.Result, error)
}

// Statistics summarizes play for /stats
type Statistics interface {
	AccountSummary(ctx context.Context, userID, account string) (*entities.AccountStatistics, error)
	GetLeaderboard(ctx context.Context, page, playersPerPage int) (*statistics.Leaderboard, error)
}

// StatusPoller is the per-account status loop a session owns
type StatusPoller interface {
	Start(ctx context.Context)
	Stop()
	Refresh()
	OnUpdate(fn func(status.Snapshot))
	Snapshot() status.Snapshot
}

// PollerFactory builds the poller for one account
type PollerFactory func(account string) StatusPoller

// Config tunes the bot
type Config struct {
	AppID        string
	GuildID      string
	CommandRate  float64
	CommandBurst int
	IdleTimeout  time.Duration
	// CleanupCommands removes the slash commands on shutdown
	CleanupCommands bool
}

// Deps are the services the bot drives. Images and History may be nil.
type Deps struct {
	Ledger      ledger.Ledger
	Submitter   Submitter
	Recovery    Recovery
	Wallets     wallet.WalletService
	Statistics  Statistics
	History     historyRepo.Repository
	Notifier    *notify.Notifier
	Preferences storage.Storage
	Images      *image.Service
	Pollers     PollerFactory
	Logger      *logging.Logger
}

type commandHandler func(i *discordgo.InteractionCreate) error

// Bot represents the Discord bot instance
type Bot struct {
	session  idiscord.SessionHandler
	cfg      Config
	ledger   ledger.Ledger
	submit   Submitter
	recovery Recovery
	wallets  wallet.WalletService
	stats    Statistics
	history  historyRepo.Repository
	notifier *notify.Notifier
	prefs    storage.Storage
	images   *image.Service
	pollers  PollerFactory
	logger   *logging.Logger
	now      func() time.Time

	commands   map[string]commandHandler
	components map[string]commandHandler

	// Per-user table sessions
	sessionsMu sync.Mutex
	sessions   map[string]*session
	opening    singleflight.Group
	sweeper    *scheduler.Scheduler

	// Interaction tracking to prevent duplicates
	seenMu sync.Mutex
	seen   *expirable.LRU[string, struct{}]

	limitMu  sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]

	ctx           context.Context
	cancel        context.CancelFunc
	shutdownWg    sync.WaitGroup
	removeHandler func()
}

// NewBot creates a new instance of the bot
func NewBot(s idiscord.SessionHandler, cfg Config, deps Deps) (*Bot, error) {
	switch {
	case s == nil:
		return nil, errors.New("discord session required")
	case deps.Ledger == nil, deps.Submitter == nil, deps.Recovery == nil:
		return nil, errors.New("ledger, submitter and recovery are required")
	case deps.Wallets == nil, deps.Statistics == nil, deps.Notifier == nil, deps.Preferences == nil:
		return nil, errors.New("wallets, statistics, notifier and preferences are required")
	case deps.Pollers == nil:
		return nil, errors.New("poller factory required")
	}
	if cfg.CommandRate <= 0 {
		cfg.CommandRate = 2
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = 5
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default
	}
	logger = logger.WithField("component", "bot")

	limiters, err := lru.New[string, *rate.Limiter](limiterCache)
	if err != nil {
		return nil, fmt.Errorf("limiter cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session:  s,
		cfg:      cfg,
		ledger:   deps.Ledger,
		submit:   deps.Submitter,
		recovery: deps.Recovery,
		wallets:  deps.Wallets,
		stats:    deps.Statistics,
		history:  deps.History,
		notifier: deps.Notifier,
		prefs:    deps.Preferences,
		images:   deps.Images,
		pollers:  deps.Pollers,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
		sweeper:  scheduler.NewScheduler(logger),
		seen:     expirable.NewLRU[string, struct{}](interactionCache, nil, interactionTTL),
		limiters: limiters,
		ctx:      ctx,
		cancel:   cancel,
	}

	b.commands = map[string]commandHandler{
		cmdRoulette: b.handleRoulette,
		cmdBet:      b.handleBet,
		cmdSlip:     b.handleSlip,
		cmdStatus:   b.handleStatus,
		cmdHistory:  b.handleHistory,
		cmdApprove:  b.handleApprove,
		cmdRecover:  b.handleRecover,
		cmdWallet:   b.handleWallet,
		cmdStats:    b.handleStats,
		cmdTour:     b.handleTour,
	}
	b.components = map[string]commandHandler{
		btnBet:       b.handleBoardBet,
		btnChip:      b.handleChip,
		btnUndo:      b.handleUndo,
		btnClear:     b.handleClear,
		btnSpin:      b.handleSpin,
		btnRefresh:   b.handleRefresh,
		btnStatsPage: b.handleStatsPage,
		btnTourDone:  b.handleTourDismiss,
	}

	b.sweeper.AddTask("session_sweep", sweepInterval, b.sweepSessions)
	return b, nil
}

// Start connects to Discord and registers the slash commands
func (b *Bot) Start() error {
	b.removeHandler = b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, Commands); err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.logger.Info("Registered %d slash commands", len(Commands))

	b.sweeper.Start(b.ctx)
	return nil
}

// Stop tears down every session and closes the Discord connection. Transactions already
// broadcast are waited for, never cancelled.
func (b *Bot) Stop() error {
	b.sweeper.Stop()
	if b.removeHandler != nil {
		b.removeHandler()
	}

	b.sessionsMu.Lock()
	sessions := b.sessions
	b.sessions = make(map[string]*session)
	b.sessionsMu.Unlock()
	for _, sess := range sessions {
		sess.poller.Stop()
	}
	b.logger.Info("Closed %d table sessions", len(sessions))

	b.shutdownWg.Wait()
	b.cancel()

	if b.cfg.CleanupCommands {
		if _, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, []*discordgo.ApplicationCommand{}); err != nil {
			b.logger.Warn("Removing commands failed: %v", err)
		}
	}

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing connection: %w", err)
	}
	return nil
}

func (b *Bot) handleInteraction(i *discordgo.InteractionCreate) {
	if !b.firstDelivery(i.ID) {
		b.logger.Debug("Skipping already processed interaction: %s", i.ID)
		return
	}

	userID := interactionUser(i)
	if userID == "" {
		return
	}
	name := interactionName(i)

	if !b.allow(userID) {
		metrics.RecordInteraction(name, string(types.ErrRateLimited))
		err := types.NewGameError(types.ErrRateLimited, "¡Más despacio, amigo! Too many requests, try again in a moment.")
		if sendErr := idiscord.SendErrorResponse(b.session, i, err); sendErr != nil {
			b.logger.Warn("Error sending rate limit response: %v", sendErr)
		}
		return
	}

	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = b.handleSlashCommand(i)
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(i)
	default:
		return
	}

	result := "ok"
	if err != nil {
		result = string(types.CodeOf(err))
		b.logger.WithFields(map[string]interface{}{"user": userID, "interaction": name}).LogError(err)
	}
	metrics.RecordInteraction(name, result)
}

func (b *Bot) handleSlashCommand(i *discordgo.InteractionCreate) error {
	name := i.ApplicationCommandData().Name
	h, ok := b.commands[name]
	if !ok {
		return b.fail(i, types.NewGameError(types.ErrInvalidCommand, fmt.Sprintf("*Tuco looks confused* ¿Qué? I don't know /%s.", name)))
	}
	return h(i)
}

func (b *Bot) handleComponent(i *discordgo.InteractionCreate) error {
	prefix, _ := splitCustomID(i.MessageComponentData().CustomID)
	h, ok := b.components[prefix]
	if !ok {
		return b.fail(i, types.NewGameError(types.ErrInvalidCommand, "*Tuco looks confused* ¿Qué? That button does nothing."))
	}
	return h(i)
}

// fail answers an interaction that has not been acknowledged yet with err and returns it
func (b *Bot) fail(i *discordgo.InteractionCreate, err error) error {
	if sendErr := idiscord.SendErrorResponse(b.session, i, err); sendErr != nil {
		b.logger.Warn("Error sending error response: %v", sendErr)
	}
	return err
}

// failDeferred reports err on an interaction that was already deferred
func (b *Bot) failDeferred(i *discordgo.InteractionCreate, err error) error {
	if sendErr := idiscord.EditResponse(b.session, i, idiscord.NewEphemeralResponse(idiscord.ErrorText(err), nil)); sendErr != nil {
		b.logger.Warn("Error editing deferred response: %v", sendErr)
	}
	return err
}

func (b *Bot) firstDelivery(id string) bool {
	b.seenMu.Lock()
	defer b.seenMu.Unlock()
	if _, ok := b.seen.Get(id); ok {
		return false
	}
	b.seen.Add(id, struct{}{})
	return true
}

func (b *Bot) allow(userID string) bool {
	b.limitMu.Lock()
	limiter, ok := b.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(b.cfg.CommandRate), b.cfg.CommandBurst)
		b.limiters.Add(userID, limiter)
	}
	b.limitMu.Unlock()
	return limiter.Allow()
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionName(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		prefix, _ := splitCustomID(i.MessageComponentData().CustomID)
		return prefix
	default:
		return "unknown"
	}
}

// splitCustomID splits "prefix:arg" component ids
func splitCustomID(id string) (string, string) {
	prefix, arg, _ := strings.Cut(id, ":")
	return prefix, arg
}
