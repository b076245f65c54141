// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// RunRecorder observes job outcomes, usually backed by Prometheus
type RunRecorder interface {
	JobRun(job string, err error)
}

type nopRecorder struct{}

func (nopRecorder) JobRun(string, error) {}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRecorder reports job runs to r
func WithRecorder(r RunRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithJobTimeout bounds every job run
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// Scheduler wraps a cron runner. A job that is still running when its next
// tick fires is skipped, and panics are recovered and logged.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	recorder RunRecorder
	timeout  time.Duration

	mu      sync.Mutex
	jobs    map[string]JobFunc
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New creates a stopped scheduler
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	cl := cronLogger{logger: logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:   logger,
		recorder: nopRecorder{},
		timeout:  5 * time.Minute,
		jobs:     make(map[string]JobFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job under a unique name
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.run(name, fn) }); err != nil {
		return fmt.Errorf("%w %q for %s: %v", ErrInvalidSchedule, spec, name, err)
	}
	s.jobs[name] = fn
	s.logger.Debug("job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// RunNow executes a registered job synchronously
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	return s.run(name, fn)
}

func (s *Scheduler) run(name string, fn JobFunc) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.recorder.JobRun(name, err)
	if err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Start begins firing jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts the cron runner, cancels running jobs and waits for them or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
