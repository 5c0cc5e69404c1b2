package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Locker provides a lock shared by every replica. cache.Cache implements it.
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, resource, token string) error
}

// Scheduler runs jobs on cron schedules. When a Locker is configured a run
// is skipped unless this replica wins the job's lock.
type Scheduler struct {
	cron    *cron.Cron
	locker  Locker
	lockTTL time.Duration
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler. locker may be nil for single-replica deployments.
func New(locker Locker, lockTTL time.Duration, logger *logging.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})))

	return &Scheduler{
		cron:    c,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Register schedules job on a cron spec such as "@daily" or "0 3 * * *"
func (s *Scheduler) Register(spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunNow(s.ctx, job); err != nil {
			s.logger.WithField("job", job.Name()).ErrorWithErr("Scheduled job failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}

	s.mu.Lock()
	s.entries[job.Name()] = id
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{"job": job.Name(), "schedule": spec}).Info("Scheduled job")
	return nil
}

// RunNow runs job immediately under its lock. It reports whether the job
// ran; false with a nil error means another replica holds the lock.
func (s *Scheduler) RunNow(ctx context.Context, job Job) (bool, error) {
	logger := s.logger.WithField("job", job.Name())

	if s.locker != nil {
		resource := "job:" + job.Name()
		token, acquired, err := s.locker.AcquireLock(ctx, resource, s.lockTTL)
		if err != nil {
			return false, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !acquired {
			logger.Debug("Job lock held elsewhere, skipping run")
			return false, nil
		}
		defer func() {
			// release even when ctx is already cancelled
			if err := s.locker.ReleaseLock(context.Background(), resource, token); err != nil {
				logger.ErrorWithErr("Failed to release job lock", err)
			}
		}()
	}

	start := time.Now()
	err := job.Run(ctx)
	logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Job finished")
	return true, err
}

// Next returns the next scheduled run of a registered job
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Job scheduler started")
}

// Stop stops scheduling and cancels running jobs. The returned context is
// done once running jobs have returned.
func (s *Scheduler) Stop() context.Context {
	done := s.cron.Stop()
	s.cancel()
	s.logger.Info("Job scheduler stopped")
	return done
}

// cronLogger adapts the zerolog logger to cron.Logger
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(pairs(keysAndValues)).ErrorWithErr(msg, err)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
