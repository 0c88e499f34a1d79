package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// RefreshFunc rebuilds some piece of gateway state (the channel directory).
type RefreshFunc func(ctx context.Context) error

// RefreshScheduler runs a RefreshFunc on a cron schedule.
type RefreshScheduler struct {
	expr    string
	refresh RefreshFunc
	now     func() time.Time
}

// NewRefreshScheduler validates expr and returns a scheduler.
func NewRefreshScheduler(expr string, refresh RefreshFunc) (*RefreshScheduler, error) {
	if !gronx.New().IsValid(expr) {
		return nil, fmt.Errorf("gateway: invalid refresh schedule %q", expr)
	}
	if refresh == nil {
		return nil, fmt.Errorf("gateway: nil refresh func")
	}
	return &RefreshScheduler{expr: expr, refresh: refresh, now: time.Now}, nil
}

// Next returns the next tick strictly after the current time.
func (s *RefreshScheduler) Next() (time.Time, error) {
	return gronx.NextTickAfter(s.expr, s.now(), false)
}

// Run blocks, refreshing at every tick until ctx is cancelled. Refresh
// errors are logged and do not stop the loop.
func (s *RefreshScheduler) Run(ctx context.Context) {
	logger.InfoCF("scheduler", "Directory refresh scheduled", map[string]interface{}{
		"schedule": s.expr,
	})
	for {
		next, err := s.Next()
		if err != nil {
			logger.ErrorCF("scheduler", "Cannot compute next refresh", map[string]interface{}{
				"schedule": s.expr,
				"error":    err.Error(),
			})
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.InfoC("scheduler", "Directory refresh loop stopped")
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := s.refresh(ctx); err != nil {
			logger.WarnCF("scheduler", "Scheduled refresh failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		logger.DebugCF("scheduler", "Scheduled refresh done", map[string]interface{}{
			"took_ms": time.Since(start).Milliseconds(),
		})
	}
}
