// Package scheduler triggers a run of every search on its own interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"sigawatch/internal/components/assert"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"
	"sigawatch/internal/siga"
)

const (
	report_schedule = "schedule"
)

// Runner runs a single search once.
type Runner interface {
	RunOnce(ctx context.Context, search config.Search) siga.Outcome
}

// Scheduler runs searches on a cron. Runs never overlap, not even runs of
// different searches, so at most one browser is open at any time.
type Scheduler struct {
	cron   chrono.CronAPI
	runner Runner
	tel    telemetry.API

	mu sync.Mutex
}

func New(cron chrono.CronAPI, runner Runner, tel telemetry.API) *Scheduler {
	assert.NotNil(cron)
	assert.NotNil(runner)
	assert.NotNil(tel)
	return &Scheduler{
		cron:   cron,
		runner: runner,
		tel:    telemetry.NewScopedAPI("scheduler", tel),
	}
}

// Spec is the cron spec a search is scheduled with. Searches are validated on
// load, a frequency below one minute panics.
func Spec(search config.Search) string {
	assert.Positive("frequency", search.Frequency)
	return fmt.Sprintf("@every %dm", search.Frequency)
}

// Schedule registers every search. A search that cannot be scheduled is
// reported and does not prevent the others from being scheduled.
func (s *Scheduler) Schedule(ctx context.Context, searches []config.Search) int {
	scheduled := 0
	for _, search := range searches {
		spec := Spec(search)
		err := s.cron.Cron(spec, func() {
			s.run(ctx, search)
		})
		if err != nil {
			s.tel.ReportBroken(report_schedule, fmt.Errorf("%s: %w", search.Title, err), spec)
			continue
		}
		s.tel.ReportInfo("scheduling configured", "search", search.Title, "spec", spec)
		scheduled++
	}
	return scheduled
}

func (s *Scheduler) run(ctx context.Context, search config.Search) siga.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		s.tel.ReportDebug("shutting down, run skipped", "search", search.Title)
		return siga.OutcomeSkipped
	}
	return s.runner.RunOnce(ctx, search)
}

// RunAll runs every search once, one after the other.
func (s *Scheduler) RunAll(ctx context.Context, searches []config.Search) []siga.Outcome {
	outcomes := make([]siga.Outcome, len(searches))
	for i, search := range searches {
		outcomes[i] = s.run(ctx, search)
	}
	return outcomes
}

// Stop stops the cron and waits for the run in progress to return.
func (s *Scheduler) Stop() {
	s.tel.ReportInfo("stopping scheduler")
	<-s.cron.Stop().Done()
	s.tel.ReportInfo("scheduler stopped")
}

// Wait blocks until ctx is done, then stops the scheduler.
func (s *Scheduler) Wait(ctx context.Context) {
	<-ctx.Done()
	s.Stop()
}
