package discord

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	discordmock "github.com/fadedpez/tucoroulette/internal/discord/mock"
	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	mock_ledger "github.com/fadedpez/tucoroulette/pkg/ledger/mock"
	"github.com/fadedpez/tucoroulette/pkg/notify"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/betslip"
	"github.com/fadedpez/tucoroulette/pkg/services/recovery"
	"github.com/fadedpez/tucoroulette/pkg/services/statistics"
	"github.com/fadedpez/tucoroulette/pkg/services/status"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
	"github.com/fadedpez/tucoroulette/pkg/storage"
	storagemock "github.com/fadedpez/tucoroulette/pkg/storage/mock"
)

const (
	userID  = "user-1"
	account = "0x00000000000000000000000000000000000000a1"
)

type mockWallets struct {
	mock.Mock
}

func (m *mockWallets) GetOrCreateWallet(ctx context.Context, userID string) (*entities.LinkedAccount, bool, error) {
	args := m.Called(ctx, userID)
	if a, ok := args.Get(0).(*entities.LinkedAccount); ok {
		return a, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockWallets) TransactOpts(ctx context.Context, address common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	args := m.Called(ctx, address, chainID)
	return nil, args.Error(1)
}

func (m *mockWallets) RecordTransaction(ctx context.Context, tx *entities.TransactionRecord) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockWallets) Transactions(ctx context.Context, userID string, limit int) ([]*entities.TransactionRecord, error) {
	args := m.Called(ctx, userID, limit)
	if txs, ok := args.Get(0).([]*entities.TransactionRecord); ok {
		return txs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, slip *betslip.Slip, account string) (*submission.Result, error) {
	args := m.Called(ctx, slip, account)
	if r, ok := args.Get(0).(*submission.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubmitter) Approve(ctx context.Context, account string, amount *big.Int) (*submission.Result, error) {
	args := m.Called(ctx, account, amount)
	if r, ok := args.Get(0).(*submission.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRecovery struct {
	mock.Mock
}

func (m *mockRecovery) Check(ctx context.Context, snap entities.GameStatusSnapshot, requestBlock uint64) (recovery.Eligibility, error) {
	args := m.Called(ctx, snap, requestBlock)
	return args.Get(0).(recovery.Eligibility), args.Error(1)
}

func (m *mockRecovery) Recover(ctx context.Context, account string, snap entities.GameStatusSnapshot, requestBlock uint64) (*submission.Result, error) {
	args := m.Called(ctx, account, snap, requestBlock)
	if r, ok := args.Get(0).(*submission.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStatistics struct {
	mock.Mock
}

func (m *mockStatistics) AccountSummary(ctx context.Context, userID, account string) (*entities.AccountStatistics, error) {
	args := m.Called(ctx, userID, account)
	if st, ok := args.Get(0).(*entities.AccountStatistics); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatistics) GetLeaderboard(ctx context.Context, page, playersPerPage int) (*statistics.Leaderboard, error) {
	args := m.Called(ctx, page, playersPerPage)
	if lb, ok := args.Get(0).(*statistics.Leaderboard); ok {
		return lb, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakePoller stands in for the status poller of one session
type fakePoller struct {
	mu        sync.Mutex
	snap      status.Snapshot
	started   bool
	stopped   bool
	refreshes int
	listeners []func(status.Snapshot)
}

func (p *fakePoller) Start(ctx context.Context) { p.mu.Lock(); p.started = true; p.mu.Unlock() }
func (p *fakePoller) Stop()                     { p.mu.Lock(); p.stopped = true; p.mu.Unlock() }
func (p *fakePoller) Refresh()                  { p.mu.Lock(); p.refreshes++; p.mu.Unlock() }

func (p *fakePoller) OnUpdate(fn func(status.Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *fakePoller) Snapshot() status.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *fakePoller) set(snap status.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = snap
}

// publish delivers a tick the way the real poller does
func (p *fakePoller) publish(snap status.Snapshot) {
	p.set(snap)
	p.mu.Lock()
	listeners := append([]func(status.Snapshot){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

type BotTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	ledger    *mock_ledger.MockLedger
	session   *discordmock.SessionHandler
	wallets   *mockWallets
	submitter *mockSubmitter
	recovery  *mockRecovery
	stats     *mockStatistics
	prefs     *storagemock.Storage
	poller    *fakePoller
	bot       *Bot
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mock_ledger.NewMockLedger(s.ctrl)
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.wallets = &mockWallets{}
	s.wallets.Test(s.T())
	s.submitter = &mockSubmitter{}
	s.submitter.Test(s.T())
	s.recovery = &mockRecovery{}
	s.recovery.Test(s.T())
	s.stats = &mockStatistics{}
	s.stats.Test(s.T())
	s.prefs = storagemock.New()
	s.prefs.Test(s.T())

	bot, err := NewBot(s.session, Config{AppID: "app", CommandRate: 100, CommandBurst: 100}, Deps{
		Ledger:      s.ledger,
		Submitter:   s.submitter,
		Recovery:    s.recovery,
		Wallets:     s.wallets,
		Statistics:  s.stats,
		Notifier:    notify.NewNotifier(s.session, notify.NewRecentErrors(16, time.Minute), nil),
		Preferences: s.prefs,
		Pollers: func(string) StatusPoller {
			s.poller = &fakePoller{}
			return s.poller
		},
	})
	s.Require().NoError(err)
	s.bot = bot
}

func (s *BotTestSuite) command(id, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:     id,
			Type:   discordgo.InteractionApplicationCommand,
			Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
			Data:   discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
		},
	}
}

func (s *BotTestSuite) component(id, customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:   id,
			Type: discordgo.InteractionMessageComponent,
			User: &discordgo.User{ID: userID},
			Data: discordgo.MessageComponentInteractionData{CustomID: customID, Values: values},
		},
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

// seat opens the user's session with the given saved preferences, nil for none
func (s *BotTestSuite) seat(prefs *storage.Preferences) *session {
	s.wallets.On("GetOrCreateWallet", mock.Anything, userID).
		Return(&entities.LinkedAccount{UserID: userID, Address: account}, true, nil).Once()
	if prefs == nil {
		s.prefs.On("LoadPreferences", mock.Anything, userID).Return(nil, storage.ErrNotFound).Once()
	} else {
		s.prefs.On("LoadPreferences", mock.Anything, userID).Return(prefs, nil).Once()
	}
	sess, err := s.bot.acquire(context.Background(), s.command("seat", cmdSlip))
	s.Require().NoError(err)
	return sess
}

func respondsWith(kind discordgo.InteractionResponseType, contains string) interface{} {
	return mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		if r.Type != kind {
			return false
		}
		return contains == "" || (r.Data != nil && strings.Contains(r.Data.Content, contains))
	})
}

func editContains(contains string) interface{} {
	return mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
		return e.Content != nil && strings.Contains(*e.Content, contains)
	})
}

func (s *BotTestSuite) TestStartRegistersCommands() {
	// Setup
	s.session.On("AddHandler", mock.Anything).Return(func() {}).Once()
	s.session.On("Open").Return(nil).Once()
	s.session.On("ApplicationCommandBulkOverwrite", "app", "", Commands).Return(Commands, nil).Once()
	s.session.On("Close").Return(nil).Once()

	// Execute
	err := s.bot.Start()
	stopErr := s.bot.Stop()

	// Assert
	s.NoError(err)
	s.NoError(stopErr)
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestStopClosesSessions() {
	// Setup
	s.seat(nil)
	s.session.On("Close").Return(nil).Once()

	// Execute
	err := s.bot.Stop()

	// Assert
	s.NoError(err)
	s.True(s.poller.started)
	s.True(s.poller.stopped)
	s.Empty(s.bot.sessions)
}

func (s *BotTestSuite) TestDuplicateInteractionIgnored() {
	// Setup
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "")).Return(nil).Once()
	i := s.command("dup", cmdTour)

	// Execute
	s.bot.handleInteraction(i)
	s.bot.handleInteraction(i)

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestRateLimited() {
	// Setup
	s.bot.cfg.CommandRate = 0.001
	s.bot.cfg.CommandBurst = 1
	s.session.On("InteractionRespond", mock.Anything, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return len(r.Data.Embeds) == 1
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "⏱️")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("r1", cmdTour))
	s.bot.handleInteraction(s.command("r2", cmdTour))

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestUnknownCommand() {
	// Setup
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "⛔")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("u1", "dueltuco"))

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestRouletteShowsTourUntilDismissed() {
	// Setup
	s.wallets.On("GetOrCreateWallet", mock.Anything, userID).
		Return(&entities.LinkedAccount{UserID: userID, Address: account}, true, nil).Once()
	s.prefs.On("LoadPreferences", mock.Anything, userID).Return(nil, storage.ErrNotFound).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "")).Return(nil).Once()
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return len(p.Embeds) == 1 && strings.Contains(p.Embeds[0].Title, "How to play")
	})).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("r1", cmdRoulette))

	// Assert
	s.session.AssertExpectations(s.T())
	s.True(s.poller.started)
}

func (s *BotTestSuite) TestTourDismissIsRemembered() {
	// Setup
	sess := s.seat(nil)
	s.prefs.On("SavePreferences", mock.Anything, mock.MatchedBy(func(p *storage.Preferences) bool {
		return p.UserID == userID && p.TourDismissed
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseUpdateMessage, "Perfecto")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("t1", btnTourDone))

	// Assert
	s.True(sess.preferences().TourDismissed)
	s.prefs.AssertExpectations(s.T())
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestSavedChipValueRestored() {
	// Execute
	sess := s.seat(&storage.Preferences{UserID: userID, ChipValue: entities.Tokens(50).String()})

	// Assert
	s.Equal(0, sess.slip.ChipValue().Cmp(entities.Tokens(50)))
}

func (s *BotTestSuite) TestBetStraight() {
	// Setup
	sess := s.seat(nil)
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "Straight")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("b1", cmdBet, stringOpt("type", "straight"), intOpt("number", 17), stringOpt("amount", "5")))

	// Assert
	s.session.AssertExpectations(s.T())
	wagers := sess.slip.Wagers()
	s.Require().Len(wagers, 1)
	s.Equal([]int{17}, wagers[0].Numbers)
	s.Equal(0, wagers[0].Amount.Cmp(entities.Tokens(5)))
}

func (s *BotTestSuite) TestBetStraightNeedsNumber() {
	// Setup
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "needs a number")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("b1", cmdBet, stringOpt("type", "straight")))

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestBoardButtonAddsOutsideBet() {
	// Setup
	sess := s.seat(nil)
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseUpdateMessage, "Red")).Return(nil).Twice()

	// Execute
	s.bot.handleInteraction(s.component("c1", "roulette_bet:7"))
	s.bot.handleInteraction(s.component("c2", "roulette_bet:7"))

	// Assert
	s.session.AssertExpectations(s.T())
	wagers := sess.slip.Wagers()
	s.Require().Len(wagers, 1, "the same selection merges")
	s.Equal(roulette.Red, wagers[0].BetTypeID)
	s.Equal(0, wagers[0].Amount.Cmp(entities.Tokens(2)))
}

func (s *BotTestSuite) TestChipSelectionIsSaved() {
	// Setup
	sess := s.seat(nil)
	chip := entities.Tokens(100).String()
	s.prefs.On("SavePreferences", mock.Anything, mock.MatchedBy(func(p *storage.Preferences) bool {
		return p.ChipValue == chip
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseUpdateMessage, "")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("c1", btnChip, chip))

	// Assert
	s.Equal(0, sess.slip.ChipValue().Cmp(entities.Tokens(100)))
	s.prefs.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestSpinSuccess() {
	// Setup
	sess := s.seat(nil)
	_, err := sess.slip.Select(roulette.Red, roulette.CoveredNumbers(roulette.Red))
	s.Require().NoError(err)
	s.poller.set(status.Snapshot{Tick: 1, Game: entities.GameStatusSnapshot{RequestExists: true, RequestProcessed: true, RequestID: "41"}})

	s.submitter.On("Submit", mock.Anything, sess.slip, account).
		Run(func(args mock.Arguments) { args.Get(1).(*betslip.Slip).Clear() }).
		Return(&submission.Result{ID: "sub-1", TxHash: "0xfeedfacefeedface", BlockNumber: 900, RequestID: "42", Total: entities.Tokens(1), Attempts: 1}, nil).Once()
	s.wallets.On("RecordTransaction", mock.Anything, mock.MatchedBy(func(tx *entities.TransactionRecord) bool {
		return tx.ID == "sub-1" && tx.Kind == entities.TransactionKindBets && tx.Status == entities.TransactionConfirmed &&
			tx.RequestID == "42" && tx.Amount.Cmp(entities.Tokens(1)) == 0
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredMessageUpdate, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, editContains("Bets placed")).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("s1", btnSpin))

	// Assert
	s.submitter.AssertExpectations(s.T())
	s.wallets.AssertExpectations(s.T())
	s.session.AssertExpectations(s.T())
	s.Equal(0, sess.slip.Len())
	s.Equal(uint64(900), sess.lastRequestBlock())
	s.Equal(1, s.poller.refreshes)
	s.False(sess.spinning.Load())
}

func (s *BotTestSuite) TestSpinFailureKeepsSlipAndFollowsUp() {
	// Setup
	sess := s.seat(nil)
	_, err := sess.slip.Select(roulette.Even, roulette.CoveredNumbers(roulette.Even))
	s.Require().NoError(err)
	s.poller.set(status.Snapshot{Tick: 1})

	s.submitter.On("Submit", mock.Anything, sess.slip, account).
		Return(nil, types.NewGameError(types.ErrInsufficientAllowance, "approve the table first")).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredMessageUpdate, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, mock.Anything).Return(&discordgo.Message{}, nil).Once()
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "🔐 approve the table first"
	})).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("s1", btnSpin))

	// Assert
	s.session.AssertExpectations(s.T())
	s.wallets.AssertNotCalled(s.T(), "RecordTransaction", mock.Anything, mock.Anything)
	s.Equal(1, sess.slip.Len())
}

func (s *BotTestSuite) TestSpinRefusedWhileBallSpins() {
	// Setup
	sess := s.seat(nil)
	_, err := sess.slip.Select(roulette.Odd, roulette.CoveredNumbers(roulette.Odd))
	s.Require().NoError(err)
	s.poller.set(status.Snapshot{Tick: 3, Awaiting: true})
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "still spinning")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("s1", btnSpin))

	// Assert
	s.session.AssertExpectations(s.T())
	s.submitter.AssertNotCalled(s.T(), "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func (s *BotTestSuite) TestResolvedRoundAnnouncedOnce() {
	// Setup
	sess := s.seat(nil)
	sess.expectRound("42", 900, "41")
	game := entities.GameStatusSnapshot{
		RequestExists:    true,
		RequestProcessed: true,
		RequestID:        "42",
		WinningResult:    entities.NumberResult(17),
		TotalAmount:      entities.Tokens(10),
		TotalPayout:      entities.Tokens(20),
	}
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return strings.Contains(p.Content, "lands on") && strings.Contains(p.Content, "17")
	})).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.poller.publish(status.Snapshot{Tick: 1, Game: entities.GameStatusSnapshot{RequestExists: true, RequestID: "42"}})
	s.poller.publish(status.Snapshot{Tick: 2, Game: game})
	s.poller.publish(status.Snapshot{Tick: 3, Game: game})

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestPollErrorsNotifiedOnce() {
	// Setup
	s.seat(nil)
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "🌐 rpc unreachable"
	})).Return(&discordgo.Message{}, nil).Once()
	failed := status.Snapshot{Tick: 1, Err: types.NewGameError(types.ErrNetworkError, "rpc unreachable")}

	// Execute
	s.poller.publish(failed)
	s.poller.publish(failed)

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestSweepClosesIdleSessions() {
	// Setup
	s.seat(nil)
	poller := s.poller
	s.bot.now = func() time.Time { return time.Now().Add(time.Hour) }

	// Execute
	err := s.bot.sweepSessions(context.Background())

	// Assert
	s.NoError(err)
	s.True(poller.stopped)
	s.Empty(s.bot.sessions)
}

func (s *BotTestSuite) TestSweepKeepsSpinningSession() {
	// Setup
	sess := s.seat(nil)
	sess.spinning.Store(true)
	s.bot.now = func() time.Time { return time.Now().Add(time.Hour) }

	// Execute
	err := s.bot.sweepSessions(context.Background())

	// Assert
	s.NoError(err)
	s.False(s.poller.stopped)
	s.Len(s.bot.sessions, 1)
}

func (s *BotTestSuite) TestHistoryUnsupportedOnLegacy() {
	// Setup
	s.ledger.EXPECT().Capabilities().Return(ledger.CapabilitiesFor(ledger.InterfaceLegacy))
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseChannelMessageWithSource, "🧱")).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("h1", cmdHistory))

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestHistoryFilterIsAppliedAndSaved() {
	// Setup
	s.seat(nil)
	s.ledger.EXPECT().Capabilities().Return(ledger.CapabilitiesFor(ledger.InterfaceCurrent))
	now := time.Now()
	s.poller.set(status.Snapshot{Tick: 1, HistoryTotal: 2, History: []entities.HistoryRecord{
		{Key: "b", Timestamp: now, WinningResult: entities.NumberResult(3), TotalAmount: entities.Tokens(1), TotalPayout: entities.Tokens(2), ResultType: entities.ResultTypeWin},
		{Key: "a", Timestamp: now.Add(-time.Minute), WinningResult: entities.NumberResult(4), TotalAmount: entities.Tokens(1), TotalPayout: new(big.Int), ResultType: entities.ResultTypeLoss},
	}})
	s.prefs.On("SavePreferences", mock.Anything, mock.MatchedBy(func(p *storage.Preferences) bool {
		return p.HistoryFilter == "wins"
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		if len(r.Data.Embeds) != 1 {
			return false
		}
		e := r.Data.Embeds[0]
		return strings.Contains(e.Title, "wins") && strings.Count(e.Description, "\n") == 0 && strings.Contains(e.Description, "🟩")
	})).Return(nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("h1", cmdHistory, stringOpt("filter", "wins")))

	// Assert
	s.session.AssertExpectations(s.T())
	s.prefs.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestWalletReadsBalanceAndAllowance() {
	// Setup
	s.seat(nil)
	s.ledger.EXPECT().Balance(gomock.Any(), account).Return(entities.Tokens(50), nil)
	s.ledger.EXPECT().Spender().Return("0x00000000000000000000000000000000000000ff")
	s.ledger.EXPECT().Allowance(gomock.Any(), account, "0x00000000000000000000000000000000000000ff").Return(new(big.Int), nil)
	s.wallets.On("Transactions", mock.Anything, userID, walletTxShown).Return([]*entities.TransactionRecord{}, nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredChannelMessageWithSource, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
		embeds := *e.Embeds
		return len(embeds) == 1 && embeds[0].Fields[0].Value == "50 🪙" && len(embeds[0].Fields) == 3
	})).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("w1", cmdWallet))

	// Assert
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestApproveRecordsTransaction() {
	// Setup
	s.seat(nil)
	amount, err := entities.ParseTokens("2.5")
	s.Require().NoError(err)
	s.submitter.On("Approve", mock.Anything, account, mock.MatchedBy(func(v *big.Int) bool { return v.Cmp(amount) == 0 })).
		Return(&submission.Result{ID: "ap-1", TxHash: "0xabc", Total: amount, Attempts: 2}, nil).Once()
	s.wallets.On("RecordTransaction", mock.Anything, mock.MatchedBy(func(tx *entities.TransactionRecord) bool {
		return tx.Kind == entities.TransactionKindApprove && tx.Status == entities.TransactionConfirmed && tx.Amount.Cmp(amount) == 0
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredChannelMessageWithSource, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, editContains("Approved 2.5")).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("a1", cmdApprove, stringOpt("amount", "2.5")))

	// Assert
	s.submitter.AssertExpectations(s.T())
	s.wallets.AssertExpectations(s.T())
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestRecoverTimeoutRecordedAsPending() {
	// Setup
	sess := s.seat(nil)
	sess.expectRound("42", 900, "")
	s.poller.set(status.Snapshot{Tick: 1, Game: entities.GameStatusSnapshot{RequestExists: true, RequestID: "42"}})
	timeout := types.NewGameError(types.ErrTimeout, "still pending, check back")
	s.recovery.On("Recover", mock.Anything, account, mock.Anything, uint64(900)).Return(nil, timeout).Once()
	s.wallets.On("RecordTransaction", mock.Anything, mock.MatchedBy(func(tx *entities.TransactionRecord) bool {
		return tx.Kind == entities.TransactionKindRecover && tx.Status == entities.TransactionPending
	})).Return(nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredChannelMessageWithSource, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, editContains("⏳ still pending")).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.command("rc1", cmdRecover))

	// Assert
	s.recovery.AssertExpectations(s.T())
	s.wallets.AssertExpectations(s.T())
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestStatsPage() {
	// Setup
	s.seat(nil)
	summary := &entities.AccountStatistics{UserID: userID, Account: account, TotalStaked: new(big.Int), TotalPaidOut: new(big.Int)}
	s.stats.On("AccountSummary", mock.Anything, userID, account).Return(summary, nil).Once()
	s.stats.On("GetLeaderboard", mock.Anything, 2, leaderboardPageSize).
		Return(&statistics.Leaderboard{CurrentPage: 2, TotalPages: 2, TotalPlayers: 12, PlayersPerPage: 10}, nil).Once()
	s.session.On("InteractionRespond", mock.Anything, respondsWith(discordgo.InteractionResponseDeferredMessageUpdate, "")).Return(nil).Once()
	s.session.On("InteractionResponseEdit", mock.Anything, mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
		return len(*e.Embeds) == 2 && strings.Contains((*e.Embeds)[1].Description, "page 2 of 2")
	})).Return(&discordgo.Message{}, nil).Once()

	// Execute
	s.bot.handleInteraction(s.component("p1", "stats_page:2"))

	// Assert
	s.stats.AssertExpectations(s.T())
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestRefreshAccount() {
	// Setup
	s.seat(nil)

	// Execute
	s.bot.RefreshAccount(strings.ToUpper(account))
	s.bot.RefreshAccount("0x00000000000000000000000000000000000000b2")

	// Assert
	s.Equal(1, s.poller.refreshes)
}
