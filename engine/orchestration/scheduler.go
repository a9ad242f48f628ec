package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/periplon/metis/pkg/logger"
)

// Scheduler triggers Orchestration runs on a cron expression (spec.md §15's
// optional schedule field, a pack-only addition — see this package's doc
// comment). Every Orchestration with a non-empty Schedule is registered at
// construction; Stop releases the underlying cron.Cron.
type Scheduler struct {
	rt   *Runtime
	cron *cron.Cron

	mu      sync.Mutex
	lastRun map[string]*Result
}

// NewScheduler starts a cron.Cron and registers every scheduled
// orchestration found in rt.Snapshot. Each tick runs that orchestration
// with an empty input map; failures are logged, not returned, so one
// misbehaving schedule doesn't stop the others.
func NewScheduler(rt *Runtime) (*Scheduler, error) {
	s := &Scheduler{rt: rt, cron: cron.New(), lastRun: make(map[string]*Result)}
	for name, cfg := range rt.Snapshot.Orchestrations {
		if cfg.Schedule == "" {
			continue
		}
		name := name
		if _, err := s.cron.AddFunc(cfg.Schedule, func() { s.runScheduled(name) }); err != nil {
			return nil, fmt.Errorf("orchestration %q: invalid schedule %q: %w", name, cfg.Schedule, err)
		}
	}
	s.cron.Start()
	return s, nil
}

func (s *Scheduler) runScheduled(name string) {
	result, err := s.rt.Run(context.Background(), name, map[string]any{})
	if err != nil {
		logger.Error("scheduled orchestration run failed", "orchestration", name, "error", err)
	}
	s.mu.Lock()
	s.lastRun[name] = result
	s.mu.Unlock()
}

// LastRun returns the most recent scheduled Result for name, if any has run.
func (s *Scheduler) LastRun(name string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lastRun[name]
	return r, ok
}

// Stop halts the scheduler, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
