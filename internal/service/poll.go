package service

import (
	"context"
	"time"
)

const (
	// DefaultPollInterval is the fixed delay between readiness probes.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultStartBudget is how long a start waits for the service to
	// become healthy before giving up with a warning.
	DefaultStartBudget = 15 * time.Second
)

// WaitHealthy polls probe on a fixed interval until it reports true or
// the timeout elapses, and returns whether the service became healthy.
// No backoff and no jitter: the target is a loopback port where probes
// are cheap and responsiveness wins. The first probe fires immediately.
func WaitHealthy(ctx context.Context, probe Probe, interval, timeout time.Duration) bool {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultStartBudget
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		if probe(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
		}
	}
}
