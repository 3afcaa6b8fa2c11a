package discord

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/notify"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/betslip"
	"github.com/fadedpez/tucoroulette/pkg/services/status"
	"github.com/fadedpez/tucoroulette/pkg/storage"
)

// session is one user's seat at the table: their slip, their poller and where to reach them
type session struct {
	userID  string
	account string
	slip    *betslip.Slip
	poller  StatusPoller

	// set while a spin is being submitted
	spinning atomic.Bool

	mu       sync.Mutex
	target   notify.Target
	lastSeen time.Time
	prefs    storage.Preferences

	// the round we are waiting to announce
	awaitingRound bool
	requestID     string
	previousID    string
	requestBlock  uint64
}

func (s *session) touch(i *discordgo.Interaction, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = notify.Target{UserID: s.userID, Interaction: i, IssuedAt: now}
	s.lastSeen = now
}

func (s *session) notifyTarget() notify.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *session) preferences() storage.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *session) updatePreferences(fn func(p *storage.Preferences), now time.Time) storage.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.prefs)
	s.prefs.UpdatedAt = now
	return s.prefs
}

// expectRound records a confirmed spin so its result is announced once
func (s *session) expectRound(result string, block uint64, previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaitingRound = true
	s.requestID = result
	s.previousID = previous
	s.requestBlock = block
}

// lastRequestBlock is the block of the last confirmed spin, 0 when unknown
func (s *session) lastRequestBlock() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestBlock
}

// settle reports whether game shows the expected round finished
func (s *session) settle(game entities.GameStatusSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.awaitingRound || !game.RequestExists || !game.RequestProcessed || game.RequestID == "" {
		return false
	}
	if s.requestID != "" && game.RequestID != s.requestID {
		return false
	}
	if s.requestID == "" && game.RequestID == s.previousID {
		return false
	}
	s.awaitingRound = false
	return true
}

// acquire returns the caller's session, opening it on first use
func (b *Bot) acquire(ctx context.Context, i *discordgo.InteractionCreate) (*session, error) {
	userID := interactionUser(i)

	b.sessionsMu.Lock()
	sess, ok := b.sessions[userID]
	b.sessionsMu.Unlock()

	if !ok {
		v, err, _ := b.opening.Do(userID, func() (interface{}, error) {
			return b.openSession(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		sess = v.(*session)
	}
	sess.touch(i.Interaction, b.now())
	return sess, nil
}

func (b *Bot) openSession(ctx context.Context, userID string) (*session, error) {
	b.sessionsMu.Lock()
	if sess, ok := b.sessions[userID]; ok {
		b.sessionsMu.Unlock()
		return sess, nil
	}
	b.sessionsMu.Unlock()

	acct, created, err := b.wallets.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "could not open your table account", err)
	}
	if created {
		b.logger.Info("Created table account %s for %s", acct.Address, userID)
	}

	prefs := b.loadPreferences(ctx, userID)
	chip := entities.Tokens(roulette.ChipValues[0])
	if v, ok := new(big.Int).SetString(prefs.ChipValue, 10); ok && v.Sign() > 0 {
		chip = v
	}

	sess := &session{
		userID:  userID,
		account: acct.Address,
		slip:    betslip.New(chip),
		prefs:   prefs,
	}
	sess.poller = b.pollers(acct.Address)
	sess.poller.OnUpdate(func(snap status.Snapshot) {
		b.onStatus(sess, snap)
	})

	b.sessionsMu.Lock()
	b.sessions[userID] = sess
	b.sessionsMu.Unlock()

	sess.poller.Start(b.ctx)
	b.logger.Debug("Opened table session for %s (%s)", userID, acct.Address)
	return sess, nil
}

func (b *Bot) loadPreferences(ctx context.Context, userID string) storage.Preferences {
	prefs, err := b.prefs.LoadPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Warn("Loading preferences for %s failed: %v", userID, err)
		}
		return storage.Preferences{UserID: userID}
	}
	return *prefs
}

func (b *Bot) savePreferences(ctx context.Context, prefs storage.Preferences) {
	if err := b.prefs.SavePreferences(ctx, &prefs); err != nil {
		b.logger.Warn("Saving preferences for %s failed: %v", prefs.UserID, err)
	}
}

// onStatus runs after every poller tick of a session
func (b *Bot) onStatus(sess *session, snap status.Snapshot) {
	target := sess.notifyTarget()
	if snap.Err != nil {
		if _, err := b.notifier.Error(target, snap.Err); err != nil {
			b.logger.Warn("Notifying %s failed: %v", sess.userID, err)
		}
		return
	}
	if !sess.settle(snap.Game) {
		return
	}

	text, tag := roundAnnouncement(snap.Game)
	if b.images != nil {
		if url := b.images.ImageFor(tag); url != "" {
			text += "\n" + url
		}
	}
	if err := b.notifier.Announce(target, text); err != nil {
		b.logger.Warn("Announcing round to %s failed: %v", sess.userID, err)
	}
}

// sweepSessions closes sessions idle past the timeout. A session mid-spin is kept.
func (b *Bot) sweepSessions(ctx context.Context) error {
	now := b.now()
	var closed []*session

	b.sessionsMu.Lock()
	for id, sess := range b.sessions {
		if sess.spinning.Load() || sess.idle(now) < b.cfg.IdleTimeout {
			continue
		}
		delete(b.sessions, id)
		closed = append(closed, sess)
	}
	b.sessionsMu.Unlock()

	for _, sess := range closed {
		sess.poller.Stop()
	}
	if len(closed) > 0 {
		b.logger.Info("Closed %d idle table sessions", len(closed))
	}
	return nil
}

// RefreshAccount asks the poller of every session on account for an immediate tick
func (b *Bot) RefreshAccount(account string) {
	b.sessionsMu.Lock()
	var pollers []StatusPoller
	for _, sess := range b.sessions {
		if strings.EqualFold(sess.account, account) {
			pollers = append(pollers, sess.poller)
		}
	}
	b.sessionsMu.Unlock()

	for _, p := range pollers {
		p.Refresh()
	}
}
