// Package cleanup provides a background retention job for orchestration
// state.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
)

// Config controls the retention job's cadence and cutoff age.
type Config struct {
	// StateRetention is how long a COMPLETED or FAILED orchestration state is kept
	// before PurgeCompletedBefore reclaims it.
	StateRetention time.Duration
	// Interval is how often the job runs.
	Interval time.Duration
}

// Service periodically purges terminal orchestration state past its
// retention window. Idempotent and safe to run from multiple
// instances, since PurgeCompletedBefore is a plain conditional DELETE.
type Service struct {
	cfg    Config
	states *orchestration.StateStore

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg Config, states *orchestration.StateStore) *Service {
	return &Service{cfg: cfg, states: states}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"state_retention", s.cfg.StateRetention,
		"interval", s.cfg.Interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.StateRetention)
	count, err := s.states.PurgeCompletedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention: purge of completed orchestration state failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged completed orchestration state", "count", count)
	}
}
