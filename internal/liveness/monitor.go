// Package liveness periodically probes every registered connection and
// evicts the ones that stopped responding. An entry gets a full probe
// interval to answer before it is considered dead, so eviction happens
// after two missed cycles, not one.
package liveness

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
)

const stopTimeout = 10 * time.Second

type Monitor struct {
	registry *registry.Registry
	clock    clockwork.Clock
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
}

func NewMonitor(reg *registry.Registry, clock clockwork.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		registry: reg,
		clock:    clock,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the probe loop.
func (m *Monitor) Start() {
	go m.run()
}

// Stop terminates the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)

	timer := m.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-m.done:
	case <-timer.Chan():
		slog.Warn("Liveness monitor stop timeout exceeded")
	}
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.cycle()
		case <-m.stopCh:
			return
		}
	}
}

// cycle evicts entries that missed the previous probe and probes the rest.
// Pong responses arrive via the connection read loops, which call
// registry.MarkAlive before the next cycle.
func (m *Monitor) cycle() {
	evicted, probe := m.registry.ProbeCycle()

	for _, c := range evicted {
		metrics.LivenessEvictionsTotal.Inc()
		slog.Info("Evicting unresponsive connection",
			"handle", c.Handle.String(),
			"remote_addr", c.RemoteAddr,
			"role", c.Role.String(),
		)
		c.Sender.Stop()
	}

	for _, c := range probe {
		// A failed ping write is not an immediate eviction; the entry
		// stays marked not-alive and is swept next cycle.
		_ = c.Sender.Ping()
	}

	if len(evicted) > 0 {
		slog.Debug("Liveness cycle complete", "evicted", len(evicted), "probed", len(probe))
	}
}
