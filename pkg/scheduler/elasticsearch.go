package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/repositories/history"
)

const defaultPruneInterval = 7 * 24 * time.Hour

// IndexMaintainer is the maintenance surface of the Elasticsearch history repository
type IndexMaintainer interface {
	RotateIndices(ctx context.Context) error
	PruneOldIndices(ctx context.Context) error
	GetConfig() history.ElasticsearchConfig
}

var _ IndexMaintainer = (*history.ElasticsearchRepository)(nil)

// ElasticsearchMaintenanceScheduler manages scheduled maintenance tasks for Elasticsearch
type ElasticsearchMaintenanceScheduler struct {
	scheduler     *Scheduler
	repo          IndexMaintainer
	pruneInterval time.Duration
	logger        *logging.Logger
}

// NewElasticsearchMaintenanceScheduler creates a new scheduler for Elasticsearch maintenance tasks
func NewElasticsearchMaintenanceScheduler(repo IndexMaintainer, logger *logging.Logger) *ElasticsearchMaintenanceScheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &ElasticsearchMaintenanceScheduler{
		scheduler:     NewScheduler(logger),
		repo:          repo,
		pruneInterval: defaultPruneInterval,
		logger:        logger.WithField("component", "es_maintenance"),
	}
}

// Start initializes and starts the maintenance scheduler
func (s *ElasticsearchMaintenanceScheduler) Start(ctx context.Context) {
	config := s.repo.GetConfig()

	// Schedule index rotation - default to daily if not specified
	rotationInterval := config.RotationPeriod
	if rotationInterval <= 0 {
		rotationInterval = 24 * time.Hour
	}
	s.scheduler.AddTask("index_rotation", rotationInterval, s.rotateIndices)
	s.scheduler.AddTask("index_pruning", s.pruneInterval, s.pruneOldIndices)

	s.scheduler.Start(ctx)
	s.logger.Info("Elasticsearch maintenance scheduler started")
}

// Stop stops the maintenance scheduler
func (s *ElasticsearchMaintenanceScheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Elasticsearch maintenance scheduler stopped")
}

func (s *ElasticsearchMaintenanceScheduler) rotateIndices(ctx context.Context) error {
	s.logger.Debug("Running scheduled index rotation task")
	return s.repo.RotateIndices(ctx)
}

func (s *ElasticsearchMaintenanceScheduler) pruneOldIndices(ctx context.Context) error {
	s.logger.Debug("Running scheduled index pruning task")
	return s.repo.PruneOldIndices(ctx)
}
