// Package executors drives the scheduled work: the periodic simulation sweep
// and the coarser market-data refresh.
package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
)

// SweepRunner is satisfied by simulation.Processor.
type SweepRunner interface {
	RunSweep(ctx context.Context)
}

// Refresher is satisfied by marketdata.Service.
type Refresher interface {
	RefreshAll(ctx context.Context)
}

// Sweeper ticks the simulation processor and, at a coarser cadence, the
// market-data refresh. A single-slot gate drops a sweep request when another
// is still running instead of stacking sweeps.
type Sweeper struct {
	processor SweepRunner
	market    Refresher

	sweepInterval   time.Duration
	refreshInterval time.Duration

	gate chan struct{}
}

func NewSweeper(processor SweepRunner, market Refresher) *Sweeper {
	config := GetConfig()

	return &Sweeper{
		processor:       processor,
		market:          market,
		sweepInterval:   config.SweepInterval,
		refreshInterval: config.RefreshInterval,
		gate:            make(chan struct{}, 1),
	}
}

// StartLoop blocks until ctx is cancelled, running a sweep on every tick.
func (s *Sweeper) StartLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	refresh := time.NewTicker(s.refreshInterval)
	defer refresh.Stop()

	logger.WithFields(map[string]interface{}{
		"sweep_interval":   s.sweepInterval.String(),
		"refresh_interval": s.refreshInterval.String(),
	}).Info("Sweep loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweep loop stopped")
			return nil

		case <-refresh.C:
			s.market.RefreshAll(ctx)

		case <-ticker.C:
			s.TrySweep(ctx)
		}
	}
}

// TrySweep runs one sweep unless another is already in flight, in which case
// the request is dropped. The on-demand sweep endpoint shares this gate with
// the loop.
func (s *Sweeper) TrySweep(ctx context.Context) bool {
	select {
	case s.gate <- struct{}{}:
	default:
		logger.Warn("Sweep still running, skipping")
		return false
	}
	defer func() { <-s.gate }()

	s.processor.RunSweep(ctx)
	return true
}
