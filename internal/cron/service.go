package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const defaultInterval = 4 * time.Minute

// Job is one unit of background work run on every tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type runObserver interface {
	ObserveRun(job string, started time.Time, duration time.Duration, err error)
}

// ServiceParams configure the scheduler.
type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  runObserver
	Interval time.Duration
	Now      func() time.Time
}

// Service runs its jobs on a fixed cadence. Only the instance holding the
// lock runs a given tick.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  runObserver
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      now,
	}, nil
}

// Run ticks immediately and then every interval until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "warmer lock acquire failed", err)
		return
	}
	if !locked {
		s.logg.Info(ctx, "another instance holds the warmer lock; skipping tick")
		return
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release warmer lock", relErr)
		}
	}()

	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "warmer.job"})
	started := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(started)
	if s.metrics != nil {
		s.metrics.ObserveRun(job.Name(), started, duration, err)
	}

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Info(jobCtx, "job completed")
}
