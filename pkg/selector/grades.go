package selector

import (
	"github.com/turboflakes/onet-cache/pkg/metrics"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// GradesBySession buckets a session's para-validators by the grade of
// their backing-vote ratio (1 - MVR).
func GradesBySession(st *store.Store, six uint32, scope store.Scope) map[string]int {
	out := map[string]int{}
	for _, mvr := range MvrsBySession(st, six, scope) {
		out[metrics.Grade(1-mvr)]++
	}
	return out
}
