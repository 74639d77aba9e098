// Package scheduler wires up the cron job that periodically runs the
// scan-and-digest cycle for all users.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"findmygig/scan-service/internal/cronjob"
)

// Scheduler wraps robfig/cron and manages the scan loop.
type Scheduler struct {
	cron   *cron.Cron
	runner *cronjob.Runner
	spec   string // cron spec, e.g. "@every 24h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner *cronjob.Runner, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		runner: runner,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Unlike the HTTP trigger,
// the embedded loop never fires at startup: a restart must not double-scan
// the day it happens.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Println("[scheduler] Scan cycle started")
		s.runner.Run(ctx)
		log.Println("[scheduler] Scan cycle complete")
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}
