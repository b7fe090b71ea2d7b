package bridge

import (
	"math/rand"
	"time"
)

const (
	// InitialBackoff is the delay before the first reconnect attempt.
	InitialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2.0
	jitterFactor   = 0.1

	// stableConnAge is how long a connection must hold before the redial
	// schedule resets to InitialBackoff.
	stableConnAge = 60 * time.Second
)

// redialBackoff picks the wait before the next dial. A connection that
// survived stableConnAge restarts the schedule; a short-lived one keeps
// growing the previous delay.
func redialBackoff(previous, connAge time.Duration) time.Duration {
	if connAge >= stableConnAge || previous <= 0 {
		return InitialBackoff
	}
	return NextBackoff(previous)
}

// NextBackoff grows the reconnect delay exponentially with jitter, capped
// at maxBackoff. Jitter keeps a fleet of caches from redialing in lockstep.
func NextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * backoffFactor)
	if next > maxBackoff {
		next = maxBackoff
	}

	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	withJitter := time.Duration(float64(next) + jitter)

	if withJitter < current {
		withJitter = current
	}
	if withJitter > maxBackoff {
		withJitter = maxBackoff
	}
	return withJitter
}
