// Package poll implements the wait-until-condition primitive used to
// synchronize with the target page's asynchronous DOM mutations. The page
// is not instrumented for events, so repeated evaluation on a short tick is
// the only synchronization mechanism available.
package poll

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the tick between condition evaluations.
const DefaultInterval = 50 * time.Millisecond

// Condition reports whether the awaited state has been reached. It must be
// cheap and side-effect free; it is re-evaluated on every tick.
type Condition func(ctx context.Context) bool

// Until evaluates cond every DefaultInterval until it returns true or
// timeout elapses. It never panics or returns an error: a timeout or a
// cancelled context yields false, with msg logged once at warn level.
func Until(ctx context.Context, cond Condition, timeout time.Duration, msg string) bool {
	return Every(ctx, cond, DefaultInterval, timeout, msg)
}

// Every is Until with an explicit tick interval.
func Every(ctx context.Context, cond Condition, interval, timeout time.Duration, msg string) bool {
	if cond(ctx) {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ticker.C:
			if cond(ctx) {
				return true
			}
		case <-deadline.C:
			logrus.Warnf("⚠️ Timed out after %s: %s", timeout, msg)
			return false
		case <-ctx.Done():
			logrus.Warnf("⚠️ Cancelled while waiting: %s", msg)
			return false
		}
	}
}
