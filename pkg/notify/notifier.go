package notify

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/types"
)

// Interaction tokens stay valid for 15 minutes; leave a margin
const followupWindow = 14 * time.Minute

// Target is where a notification for one user goes
type Target struct {
	UserID      string
	Interaction *discordgo.Interaction
	IssuedAt    time.Time
}

// Notifier delivers transient, dismissible messages to users
type Notifier struct {
	session discord.SessionHandler
	recent  *RecentErrors
	logger  *logging.Logger
	now     func() time.Time
}

// NewNotifier creates a notifier. recent may be shared between notifiers.
func NewNotifier(session discord.SessionHandler, recent *RecentErrors, logger *logging.Logger) *Notifier {
	if recent == nil {
		recent = NewRecentErrors(DefaultCapacity, DefaultWindow)
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Notifier{
		session: session,
		recent:  recent,
		logger:  logger.WithField("component", "notify"),
		now:     time.Now,
	}
}

// Error shows err to the user unless it is missing-data noise or was shown in the last window.
// It reports whether a message was sent.
func (n *Notifier) Error(t Target, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	var gameErr *types.GameError
	if !types.As(err, &gameErr) {
		gameErr = types.WrapError(types.ErrInternalError, "something went wrong at the table", err)
	}
	if gameErr.Code == types.ErrStaleOrMissingData {
		return false, nil
	}
	if n.recent.Seen(t.UserID, gameErr) {
		n.logger.Debug("Suppressed repeated %s for %s", gameErr.Code, t.UserID)
		return false, nil
	}
	if err := n.deliver(t, discord.ErrorText(gameErr)); err != nil {
		return false, err
	}
	return true, nil
}

// Announce sends an informational message without dedup
func (n *Notifier) Announce(t Target, text string) error {
	return n.deliver(t, text)
}

func (n *Notifier) deliver(t Target, text string) error {
	if t.Interaction != nil && n.now().Sub(t.IssuedAt) < followupWindow {
		err := discord.SendFollowup(n.session, t.Interaction, discord.NewEphemeralResponse(text, nil))
		if err == nil {
			return nil
		}
		n.logger.Warn("Followup to %s failed, falling back to DM: %v", t.UserID, err)
	}

	ch, err := n.session.UserChannelCreate(t.UserID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, text); err != nil {
		return fmt.Errorf("send DM: %w", err)
	}
	return nil
}
