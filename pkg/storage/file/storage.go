package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/storage"
)

// Storage implements file-based storage for session preferences
type Storage struct {
	path    string
	mu      sync.RWMutex
	prefs   map[string]*storage.Preferences
	options *storage.Options
	done    chan struct{}
	once    sync.Once
}

var _ storage.Storage = (*Storage)(nil)

// New creates a new file storage instance
func New(options *storage.Options) (*Storage, error) {
	if options == nil {
		options = storage.NewOptions()
	}

	s := &Storage{
		path:    options.Path,
		prefs:   make(map[string]*storage.Preferences),
		options: options,
		done:    make(chan struct{}),
	}

	// Load existing preferences from file
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	// Start cleanup goroutine if enabled
	if options.AutoCleanup && options.MaxAge > 0 {
		go s.cleanupRoutine()
	}

	return s, nil
}

// SavePreferences saves or replaces a user's preferences
func (s *Storage) SavePreferences(ctx context.Context, prefs *storage.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *prefs
	stored.UpdatedAt = time.Now()
	s.prefs[prefs.UserID] = &stored

	return s.save()
}

// LoadPreferences loads a user's preferences
func (s *Storage) LoadPreferences(ctx context.Context, userID string) (*storage.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.prefs[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	prefsCopy := *prefs
	return &prefsCopy, nil
}

// DeletePreferences forgets a user
func (s *Storage) DeletePreferences(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.prefs, userID)
	return s.save()
}

// CleanupStale removes preferences older than maxAge
func (s *Storage) CleanupStale(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, prefs := range s.prefs {
		if now.Sub(prefs.UpdatedAt) > maxAge {
			delete(s.prefs, id)
		}
	}

	return s.save()
}

// Close stops the cleanup routine
func (s *Storage) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Helper functions

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.prefs)
}

func (s *Storage) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	// write then rename so a crash never leaves a truncated file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

func (s *Storage) cleanupRoutine() {
	ticker := time.NewTicker(s.options.MaxAge / 4)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.CleanupStale(context.Background(), s.options.MaxAge); err != nil {
				logging.Default.Error("Error cleaning up stale preferences: %v", err)
			}
		}
	}
}
