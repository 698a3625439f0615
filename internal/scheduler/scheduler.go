// Package scheduler wires up the cron job that periodically expires the
// featured flag of job postings.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Sweeper clears expired featured flags and reports how many changed.
type Sweeper interface {
	ExpireFeatured(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron and manages the featured-expiry sweep.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string // cron spec, e.g. "@every 15m"
}

// New creates a Scheduler firing on spec.
func New(sweeper Sweeper, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the job and starts the scheduler. One sweep also runs
// immediately so flags that expired during downtime are cleared at boot.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	go s.RunSweep(ctx)

	return nil
}

// Stop shuts the scheduler down and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// RunSweep runs one featured-expiry pass.
func (s *Scheduler) RunSweep(ctx context.Context) {
	n, err := s.sweeper.ExpireFeatured(ctx)
	if err != nil {
		log.Printf("[scheduler] Featured sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] Featured flag expired on %d posting(s)", n)
	}
}
