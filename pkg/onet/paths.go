package onet

// API paths, relative to the configured endpoint base (e.g. ".../api/v1").
const (
	sessionsPath   = "/sessions"
	validatorsPath = "/validators"
	parachainsPath = "/parachains"
	poolsPath      = "/pools"
)

// SessionCurrent addresses the live session on the session-by-index path.
const SessionCurrent = "current"
