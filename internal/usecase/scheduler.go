package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler periodically drives the refresh cycle. It holds no state of its
// own: due-ness lives in the persisted lastFetched timestamps, so restarting
// the process never double-refreshes.
type Scheduler struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewScheduler builds a ticker-based refresh driver.
func NewScheduler(service *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{service: service, interval: interval, logger: logger}
}

// Start launches the refresh loop; the first pass runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	// The goroutine reads only this local; Stop may nil the field at any time.
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the loop; in-flight refreshes finish on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	refreshed, failures, err := s.service.RefreshDue(ctx, false)
	if err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}
	if refreshed > 0 || len(failures) > 0 {
		s.logger.Info("scheduled refresh", "refreshed", refreshed, "failed", len(failures))
	}
}
