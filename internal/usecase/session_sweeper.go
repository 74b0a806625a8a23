package usecase

import (
	"context"
	"time"

	"github.com/jaennil/weather_maps/internal/repository/session"
	"github.com/jaennil/weather_maps/pkg/logger"
)

// SessionSweeper periodically drops expired sessions that nobody asked for
// again. Expiry on lookup works without it; it only bounds memory.
type SessionSweeper struct {
	sessions session.Store
	interval time.Duration
	logger   logger.Logger
}

func NewSessionSweeper(sessions session.Store, interval time.Duration, l logger.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   l,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables sweeping.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.sessions.Sweep(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
		return removed
	}
	if removed > 0 {
		s.logger.Info("swept expired tile sessions", "removed", removed)
	}
	return removed
}
