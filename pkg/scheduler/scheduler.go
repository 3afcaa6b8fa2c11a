package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/tucoroulette/internal/logging"
)

// Task represents a scheduled task. Next is asked for the delay after every run,
// so a task never overlaps itself and its cadence can follow its own state.
type Task struct {
	Name string
	Next func() time.Duration
	Fn   func(context.Context) error

	kick chan struct{}
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
	logger  *logging.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &Scheduler{
		tasks:   make([]*Task, 0),
		running: false,
		logger:  logger.WithField("component", "scheduler"),
	}
}

// AddTask adds a fixed-interval task to the scheduler
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.AddAdaptiveTask(name, func() time.Duration { return interval }, fn)
}

// AddAdaptiveTask adds a task whose delay is recomputed after each run
func (s *Scheduler) AddAdaptiveTask(name string, next func() time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &Task{
		Name: name,
		Next: next,
		Fn:   fn,
		kick: make(chan struct{}, 1),
	}
	s.tasks = append(s.tasks, task)

	if s.running {
		s.startTask(task)
	}
}

// Kick makes the named task run as soon as its current run, if any, returns.
// Kicks arriving during a run coalesce into one.
func (s *Scheduler) Kick(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, task := range s.tasks {
		if task.Name == name {
			select {
			case task.kick <- struct{}{}:
			default:
			}
		}
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runCtx = ctx
	s.running = true

	for _, task := range s.tasks {
		s.startTask(task)
	}

	s.logger.Debug("Scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mutex.Unlock()

	s.wg.Wait()
	s.logger.Debug("Scheduler stopped")
}

// Running reports whether Start has been called without a matching Stop
func (s *Scheduler) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// startTask must be called with the mutex held while running
func (s *Scheduler) startTask(task *Task) {
	ctx := s.runCtx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask(ctx, task)
	}()
}

// runTask runs a task, then waits Next() or a kick before running it again
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := task.Fn(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("Error running task %s: %v", task.Name, err)
		}

		timer := time.NewTimer(task.Next())
		select {
		case <-timer.C:
		case <-task.kick:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Task %s stopped", task.Name)
			return
		}
	}
}
