// Package refresh re-fetches the catalog on a cron schedule.
package refresh

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Fetcher reloads the catalog.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Scheduler runs Fetcher.Fetch on a schedule.
type Scheduler struct {
	cron    *cron.Cron
	fetcher Fetcher
	timeout time.Duration
	lg      *zap.Logger
}

// New creates a Scheduler for the given cron spec (standard 5-field syntax
// or descriptors such as "@every 30m"). Each run is bounded by timeout.
func New(spec string, timeout time.Duration, fetcher Fetcher, lg *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		fetcher: fetcher,
		timeout: timeout,
		lg:      lg,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, errors.Wrapf(err, "schedule %q", spec)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.fetcher.Fetch(ctx); err != nil {
		s.lg.Warn("Scheduled catalog refresh failed", zap.Error(err))
		return
	}
	s.lg.Info("Catalog refreshed", zap.Duration("took", time.Since(start)))
}

// Start begins running the schedule in the background until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}
