package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fadedpez/tucoroulette/pkg/repositories/history"
)

type fakeMaintainer struct {
	rotations atomic.Int32
	prunes    atomic.Int32
}

func (f *fakeMaintainer) RotateIndices(context.Context) error {
	f.rotations.Add(1)
	return nil
}

func (f *fakeMaintainer) PruneOldIndices(context.Context) error {
	f.prunes.Add(1)
	return nil
}

func (f *fakeMaintainer) GetConfig() history.ElasticsearchConfig {
	return history.ElasticsearchConfig{RotationPeriod: 10 * time.Millisecond}
}

func TestMaintenanceRunsBothTasks(t *testing.T) {
	repo := &fakeMaintainer{}
	m := NewElasticsearchMaintenanceScheduler(repo, nil)
	m.pruneInterval = time.Hour

	m.Start(context.Background())
	defer m.Stop()

	assert.Eventually(t, func() bool { return repo.rotations.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return repo.prunes.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), repo.prunes.Load(), "pruning runs once at start, then weekly")
}
