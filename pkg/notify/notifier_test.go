package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	discordmock "github.com/fadedpez/tucoroulette/internal/discord/mock"
	"github.com/fadedpez/tucoroulette/internal/types"
)

func TestRecentErrorsWindow(t *testing.T) {
	recent := NewRecentErrors(8, 50*time.Millisecond)
	err := types.NewGameError(types.ErrNetworkError, "rpc unreachable")

	assert.False(t, recent.Seen("u1", err))
	assert.True(t, recent.Seen("u1", err))
	assert.False(t, recent.Seen("u2", err), "other users are tracked separately")
	assert.False(t, recent.Seen("u1", types.NewLimitError(types.ReasonMaxPayout, "too much")))

	time.Sleep(120 * time.Millisecond)
	assert.False(t, recent.Seen("u1", err), "entry should expire after the window")
}

func TestRecentErrorsBounded(t *testing.T) {
	recent := NewRecentErrors(2, time.Minute)
	for _, user := range []string{"a", "b", "c"} {
		recent.Seen(user, types.NewGameError(types.ErrTimeout, "pending"))
	}
	assert.Equal(t, 2, recent.Len())
}

type NotifierTestSuite struct {
	suite.Suite
	session  *discordmock.SessionHandler
	notifier *Notifier
	now      time.Time
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}

func (s *NotifierTestSuite) SetupTest() {
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.notifier = NewNotifier(s.session, NewRecentErrors(16, time.Minute), nil)
	s.notifier.now = func() time.Time { return s.now }
}

func (s *NotifierTestSuite) target() Target {
	return Target{UserID: "u1", Interaction: &discordgo.Interaction{ID: "i1"}, IssuedAt: s.now.Add(-time.Minute)}
}

func (s *NotifierTestSuite) TestErrorUsesFollowupOnce() {
	// Setup
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "🌐 rpc unreachable" && p.Flags == discordgo.MessageFlagsEphemeral
	})).Return(&discordgo.Message{}, nil).Once()
	err := types.NewGameError(types.ErrNetworkError, "rpc unreachable")

	// Execute
	first, err1 := s.notifier.Error(s.target(), err)
	second, err2 := s.notifier.Error(s.target(), err)

	// Assert
	s.NoError(err1)
	s.NoError(err2)
	s.True(first)
	s.False(second)
	s.session.AssertExpectations(s.T())
}

func (s *NotifierTestSuite) TestMissingDataNeverNotified() {
	sent, err := s.notifier.Error(s.target(), types.NewGameError(types.ErrStaleOrMissingData, "no rounds yet"))

	s.NoError(err)
	s.False(sent)
	s.session.AssertNotCalled(s.T(), "FollowupMessageCreate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *NotifierTestSuite) TestExpiredInteractionFallsBackToDM() {
	// Setup
	t := s.target()
	t.IssuedAt = s.now.Add(-20 * time.Minute)
	s.session.On("UserChannelCreate", "u1").Return(&discordgo.Channel{ID: "dm1"}, nil)
	s.session.On("ChannelMessageSend", "dm1", "⏳ still pending").Return(&discordgo.Message{}, nil)

	// Execute
	sent, err := s.notifier.Error(t, types.NewGameError(types.ErrTimeout, "still pending"))

	// Assert
	s.NoError(err)
	s.True(sent)
	s.session.AssertExpectations(s.T())
}

func (s *NotifierTestSuite) TestPlainErrorIsWrapped() {
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		return p.Content == "💥 something went wrong at the table"
	})).Return(&discordgo.Message{}, nil)

	sent, err := s.notifier.Error(s.target(), errors.New("boom"))

	s.NoError(err)
	s.True(sent)
}

func (s *NotifierTestSuite) TestAnnounceIsNotDeduplicated() {
	s.session.On("FollowupMessageCreate", mock.Anything, true, mock.Anything).Return(&discordgo.Message{}, nil).Twice()

	s.NoError(s.notifier.Announce(s.target(), "17 red"))
	s.NoError(s.notifier.Announce(s.target(), "17 red"))

	s.session.AssertExpectations(s.T())
}
