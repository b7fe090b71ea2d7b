package onet

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is implemented by every parameter set the client can issue. The
// fingerprint is the canonical cache key: the full path plus the encoded
// parameter set, so a change to any parameter is a distinct query.
type Query interface {
	Path() string
	Values() url.Values
	Fingerprint() string
}

func fingerprint(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func joinUints(ids []uint32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// SessionsQuery filters the sessions list endpoint. Zero-valued fields are
// omitted from the request.
type SessionsQuery struct {
	NumberLastSessions uint32
	From               uint32
	To                 uint32
	ShowStats          bool
	ShowNetStats       bool
}

func (q SessionsQuery) Path() string { return sessionsPath }

func (q SessionsQuery) Values() url.Values {
	v := url.Values{}
	if q.NumberLastSessions > 0 {
		v.Set("number_last_sessions", strconv.FormatUint(uint64(q.NumberLastSessions), 10))
	}
	if q.From > 0 {
		v.Set("from", strconv.FormatUint(uint64(q.From), 10))
	}
	if q.To > 0 {
		v.Set("to", strconv.FormatUint(uint64(q.To), 10))
	}
	if q.ShowStats {
		v.Set("show_stats", "true")
	}
	if q.ShowNetStats {
		v.Set("show_netstats", "true")
	}
	return v
}

func (q SessionsQuery) Fingerprint() string { return fingerprint(q.Path(), q.Values()) }

// ValidatorsQuery filters the validators list endpoint. Session targets a
// single session; Sessions is the comma-list form used by wide historical
// ("insights") queries, and its presence decides which derived namespace
// the reconciler writes to.
type ValidatorsQuery struct {
	Session     uint32
	Sessions    []uint32
	Role        string
	ShowSummary bool
	ShowProfile bool
}

// IsInsights reports whether this is a multi-session historical query.
func (q ValidatorsQuery) IsInsights() bool { return len(q.Sessions) > 0 }

func (q ValidatorsQuery) Path() string { return validatorsPath }

func (q ValidatorsQuery) Values() url.Values {
	v := url.Values{}
	if q.Session > 0 {
		v.Set("session", strconv.FormatUint(uint64(q.Session), 10))
	}
	if len(q.Sessions) > 0 {
		v.Set("sessions", joinUints(q.Sessions))
	}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.ShowSummary {
		v.Set("show_summary", "true")
	}
	if q.ShowProfile {
		v.Set("show_profile", "true")
	}
	return v
}

func (q ValidatorsQuery) Fingerprint() string { return fingerprint(q.Path(), q.Values()) }

type ParachainsQuery struct {
	Session uint32
}

func (q ParachainsQuery) Path() string { return parachainsPath }

func (q ParachainsQuery) Values() url.Values {
	v := url.Values{}
	if q.Session > 0 {
		v.Set("session", strconv.FormatUint(uint64(q.Session), 10))
	}
	return v
}

func (q ParachainsQuery) Fingerprint() string { return fingerprint(q.Path(), q.Values()) }

// PoolsQuery filters the pools list endpoint. Pool targets one pool, in
// which case the reconciler skips session-level aggregation.
type PoolsQuery struct {
	Session  uint32
	Sessions []uint32
	Pool     uint32
}

// IsSinglePool reports whether the query targets one pool.
func (q PoolsQuery) IsSinglePool() bool { return q.Pool > 0 }

func (q PoolsQuery) Path() string { return poolsPath }

func (q PoolsQuery) Values() url.Values {
	v := url.Values{}
	if q.Session > 0 {
		v.Set("session", strconv.FormatUint(uint64(q.Session), 10))
	}
	if len(q.Sessions) > 0 {
		v.Set("sessions", joinUints(q.Sessions))
	}
	if q.Pool > 0 {
		v.Set("pool", strconv.FormatUint(uint64(q.Pool), 10))
	}
	return v
}

func (q PoolsQuery) Fingerprint() string { return fingerprint(q.Path(), q.Values()) }
