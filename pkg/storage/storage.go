package storage

import (
	"context"
	"errors"
	"time"
)

// Common storage errors
var (
	ErrNotFound = errors.New("preferences not found")
)

// Preferences is the small per-user state that survives restarts
type Preferences struct {
	UserID        string    `json:"user_id"`
	TourDismissed bool      `json:"tour_dismissed"`
	ChipValue     string    `json:"chip_value,omitempty"` // minor units, base 10
	HistoryFilter string    `json:"history_filter,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Storage defines the interface for session preference persistence
type Storage interface {
	// SavePreferences saves or replaces a user's preferences
	SavePreferences(ctx context.Context, prefs *Preferences) error

	// LoadPreferences loads a user's preferences, ErrNotFound when none were saved
	LoadPreferences(ctx context.Context, userID string) (*Preferences, error)

	// DeletePreferences forgets a user
	DeletePreferences(ctx context.Context, userID string) error

	// CleanupStale removes preferences untouched for longer than maxAge
	CleanupStale(ctx context.Context, maxAge time.Duration) error

	Close() error
}

// Options represents storage configuration options
type Options struct {
	Path        string
	MaxAge      time.Duration
	AutoCleanup bool
}

// NewOptions creates a new Options with default values
func NewOptions() *Options {
	return &Options{
		Path:        "sessions.json",
		MaxAge:      90 * 24 * time.Hour,
		AutoCleanup: true,
	}
}
