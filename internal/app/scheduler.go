package app

import (
	"context"
	"sync"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/robfig/cron/v3"
)

// scheduler runs refresh on a cron schedule, skipping a tick while the previous run is still going
type scheduler struct {
	spec    string
	refresh func(context.Context) error
	cron    *cron.Cron

	mu      sync.Mutex
	running bool
	log     logze.Logger
}

func newScheduler(spec string, refresh func(context.Context) error) *scheduler {
	return &scheduler{
		spec:    spec,
		refresh: refresh,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     logze.With("component", "scheduler"),
	}
}

func (s *scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := cron.ParseStandard(s.spec); err != nil {
		return errm.Wrap(err, "invalid schedule")
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.refresh(ctx); err != nil {
			s.log.Error("scheduled refresh failed", "error", err)
			return
		}
		s.log.Debug("scheduled refresh completed")
	})
	if err != nil {
		return errm.Wrap(err, "failed to schedule refresh")
	}

	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", "schedule", s.spec)

	return nil
}

// Stop stops the schedule and waits for a running refresh to finish
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("scheduler stopped")
}
