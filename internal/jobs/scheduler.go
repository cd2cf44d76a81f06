package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const lifecycleJobName = "reservation-lifecycle"

// ReservationSweeper moves confirmed reservations of days that are over in
// their tenant's timezone to a final status.
type ReservationSweeper interface {
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs background jobs for the service
type Scheduler struct {
	scheduler gocron.Scheduler
	sweeper   ReservationSweeper
	log       *zap.Logger
	now       func() time.Time
	timeout   time.Duration

	mu   sync.RWMutex
	jobs map[string]gocron.Job
}

// NewScheduler registers the lifecycle sweep to run every interval. The sweep
// never overlaps itself.
func NewScheduler(sweeper ReservationSweeper, interval time.Duration, log *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
		log:       log.Named("jobs"),
		now:       time.Now,
		timeout:   time.Minute,
		jobs:      make(map[string]gocron.Job),
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runLifecycle),
		gocron.WithName(lifecycleJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to create %s job: %w", lifecycleJobName, err), scheduler.Shutdown())
	}
	s.jobs[lifecycleJobName] = job
	return s, nil
}

// Start starts the job scheduler
func (s *Scheduler) Start() {
	s.log.Info("starting background job scheduler", zap.Int("jobs", len(s.jobs)))
	s.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() error {
	s.log.Info("stopping background job scheduler")
	return s.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) runLifecycle() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.CompletePastReservations(ctx); err != nil {
		s.log.Error("reservation lifecycle sweep failed", zap.Error(err))
	}
}

// CompletePastReservations marks confirmed reservations dated before each
// tenant's local today as completed.
func (s *Scheduler) CompletePastReservations(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.sweeper.CompletePast(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("completed past reservations", zap.Int64("count", n), zap.Time("at", now))
	}
	return n, nil
}
