package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/stats"
)

// Runner runs one round of reminders.
type Runner interface {
	Run(ctx context.Context, now time.Time) (Result, error)
}

var _ Runner = (*Job)(nil)

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Hour     int           // UTC hour from which the daily run is due
	Interval time.Duration // how often to check whether a run is due
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Hour: 9, Interval: time.Minute}
}

// Scheduler runs a Runner once per UTC day, at the first check on or
// after the configured hour.
type Scheduler struct {
	job      Runner
	hour     int
	interval time.Duration
	now      func() time.Time
	log      *logging.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	lastDay time.Time // UTC day of the last completed run
}

// NewScheduler creates a scheduler for job.
func NewScheduler(job Runner, config SchedulerConfig, log *logging.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		job:      job,
		hour:     min(max(config.Hour, 0), 23),
		interval: config.Interval,
		now:      time.Now,
		log:      log.Named("reminder.scheduler"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the scheduler loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.log.Info(ctx, "reminder scheduler started",
		zap.Int("hour", s.hour),
		zap.Duration("interval", s.interval),
	)
	return nil
}

// Stop stops the loop and waits for a run in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info(context.Background(), "reminder scheduler stopped")
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check runs the job if today's run is due and has not happened yet. It
// reports whether the job ran.
func (s *Scheduler) check(ctx context.Context) bool {
	now := s.now().UTC()
	today := stats.Day(now)

	s.mu.Lock()
	due := now.Hour() >= s.hour && today.After(s.lastDay)
	s.mu.Unlock()
	if !due {
		return false
	}

	if _, err := s.job.Run(ctx, now); err != nil {
		s.log.Error(ctx, "reminder run failed", zap.Error(err))
		return true
	}
	s.mu.Lock()
	s.lastDay = today
	s.mu.Unlock()
	return true
}

// RunOnce runs the job immediately, regardless of the hour.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	return s.job.Run(ctx, s.now())
}
