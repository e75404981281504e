// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Cleaner removes expired share locks
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scheduler periodically clears expired share locks left behind by
// crashed processes
type Scheduler struct {
	cleaner  Cleaner
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler. Non-positive intervals default to
// ten minutes.
func NewScheduler(cleaner Cleaner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler and waits for an in-flight run to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.started.Load() {
			<-s.done
		}
	})
}

// RunOnce performs a single cleanup pass
func (s *Scheduler) RunOnce(ctx context.Context) {
	removed, err := s.cleaner.CleanupExpired(ctx)
	if err != nil {
		s.logger.Warn("failed to clean up expired locks", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("cleaned up expired locks", zap.Int64("removed", removed))
	}
}
