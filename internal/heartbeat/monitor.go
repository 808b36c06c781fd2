package heartbeat

import (
	"context"
	"time"

	"iothub/internal/logger"
)

// Defaults matching the devices' 30s heartbeat cadence.
const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 60 * time.Second
)

// Sweeper demotes stale devices and reports how many changed.
type Sweeper interface {
	SweepStale(timeout time.Duration) int
}

// Monitor periodically sweeps the registry for devices that stopped
// heartbeating. It holds no state beyond its schedule; overlap protection is
// the registry's own serialization, not the monitor's concern.
type Monitor struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
}

// NewMonitor builds a monitor. Non-positive interval or timeout fall back to
// the defaults.
func NewMonitor(sweeper Sweeper, interval, timeout time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{
		sweeper:  sweeper,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Run sweeps at the configured interval until ctx is canceled. An in-flight
// sweep always completes; cancellation only stops rescheduling.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.SweepOnce()
		}
	}
}

// SweepOnce performs a single sweep. Exposed so tests and callers can trigger
// a sweep deterministically instead of waiting on the wall clock.
func (m *Monitor) SweepOnce() int {
	changed := m.sweeper.SweepStale(m.timeout)
	if changed > 0 {
		m.log.Infow("devices_marked_offline", "count", changed, "timeout", m.timeout)
	}
	return changed
}
