package reset

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stake-plus/activity-tickets/src/records"
)

// WeeklySpec fires at day 0 (Sunday) 00:00 UTC.
const WeeklySpec = "0 0 * * 0"

// TargetSource lists the tables to sweep.
type TargetSource func(ctx context.Context) ([]records.Target, error)

// Scheduler triggers the weekly sweep for every configured target.
type Scheduler struct {
	sweeper *Sweeper
	targets TargetSource
	spec    string
	timeout time.Duration

	cron *cron.Cron
}

// NewScheduler builds a Scheduler. An empty spec means WeeklySpec.
func NewScheduler(sweeper *Sweeper, targets TargetSource, spec string, timeout time.Duration) *Scheduler {
	if spec == "" {
		spec = WeeklySpec
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Scheduler{sweeper: sweeper, targets: targets, spec: spec, timeout: timeout}
}

func (s *Scheduler) Name() string { return "reset-scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.spec, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(runCtx)
	}); err != nil {
		return fmt.Errorf("reset: schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	log.Printf("reset: weekly sweep scheduled (%s UTC), next run %s", s.spec, s.Next().Format(time.RFC3339))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("reset: stop interrupted while a sweep was running")
	}
	s.cron = nil
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce sweeps every distinct target once.
func (s *Scheduler) RunOnce(ctx context.Context) []SweepResult {
	targets, err := s.targets(ctx)
	if err != nil {
		log.Printf("reset: listing targets failed: %v", err)
		return nil
	}

	seen := make(map[string]bool)
	var results []SweepResult
	for _, target := range targets {
		if !target.Valid() || seen[target.Key()] {
			continue
		}
		seen[target.Key()] = true
		results = append(results, s.sweeper.Sweep(ctx, target))
	}
	return results
}
