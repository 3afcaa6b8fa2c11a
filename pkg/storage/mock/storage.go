package mock

import (
	"context"
	"time"

	"github.com/fadedpez/tucoroulette/pkg/storage"
	"github.com/stretchr/testify/mock"
)

// Storage is a mock implementation of storage.Storage
type Storage struct {
	mock.Mock
}

func New() *Storage {
	return &Storage{}
}

func (s *Storage) SavePreferences(ctx context.Context, prefs *storage.Preferences) error {
	args := s.Called(ctx, prefs)
	return args.Error(0)
}

func (s *Storage) LoadPreferences(ctx context.Context, userID string) (*storage.Preferences, error) {
	args := s.Called(ctx, userID)
	if prefs, ok := args.Get(0).(*storage.Preferences); ok {
		return prefs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *Storage) DeletePreferences(ctx context.Context, userID string) error {
	args := s.Called(ctx, userID)
	return args.Error(0)
}

func (s *Storage) CleanupStale(ctx context.Context, maxAge time.Duration) error {
	args := s.Called(ctx, maxAge)
	return args.Error(0)
}

func (s *Storage) Close() error {
	args := s.Called()
	return args.Error(0)
}
