package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SchedulerTestSuite struct {
	suite.Suite
	scheduler *Scheduler
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) SetupTest() {
	s.scheduler = NewScheduler(nil)
}

func (s *SchedulerTestSuite) TearDownTest() {
	s.scheduler.Stop()
}

func (s *SchedulerTestSuite) TestRunsImmediatelyThenOnInterval() {
	var runs atomic.Int32
	s.scheduler.AddTask("count", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.scheduler.Start(context.Background())

	s.Eventually(func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func (s *SchedulerTestSuite) TestRunsNeverOverlap() {
	// Setup
	var inFlight, maxInFlight, runs atomic.Int32
	s.scheduler.AddAdaptiveTask("slow", func() time.Duration { return time.Millisecond }, func(context.Context) error {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		runs.Add(1)
		return nil
	})

	// Execute
	s.scheduler.Start(context.Background())
	for i := 0; i < 20; i++ {
		s.scheduler.Kick("slow")
	}
	s.Eventually(func() bool { return runs.Load() >= 5 }, time.Second, 5*time.Millisecond)
	s.scheduler.Stop()

	// Assert
	s.Equal(int32(1), maxInFlight.Load())
	s.Equal(int32(0), inFlight.Load(), "Stop waits for the run in progress")
}

func (s *SchedulerTestSuite) TestNextIsConsultedAfterEachRun() {
	var calls atomic.Int32
	var runs atomic.Int32
	s.scheduler.AddAdaptiveTask("adaptive", func() time.Duration {
		if calls.Add(1) == 1 {
			return time.Millisecond
		}
		return time.Hour
	}, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.scheduler.Start(context.Background())

	s.Eventually(func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Equal(int32(2), runs.Load(), "second delay is an hour")
}

func (s *SchedulerTestSuite) TestKickShortCircuitsDelay() {
	var runs atomic.Int32
	s.scheduler.AddTask("idle", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	s.scheduler.Start(context.Background())
	s.Eventually(func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.scheduler.Kick("idle")

	s.Eventually(func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func (s *SchedulerTestSuite) TestErrorsDoNotStopTask() {
	var runs atomic.Int32
	s.scheduler.AddTask("failing", time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("rpc down")
	})

	s.scheduler.Start(context.Background())

	s.Eventually(func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func (s *SchedulerTestSuite) TestTaskAddedWhileRunning() {
	s.scheduler.Start(context.Background())
	done := make(chan struct{}, 1)

	s.scheduler.AddTask("late", time.Hour, func(context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("late task never ran")
	}
	s.True(s.scheduler.Running())
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(nil)
	s.Stop()
	s.Start(context.Background())
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}
