package selector

import (
	"github.com/turboflakes/onet-cache/pkg/store"
)

// defaultHistoryWindow is the number of sessions shown when the user has
// not picked an explicit range: the six sessions ending at current-1.
const defaultHistoryWindow = 6

// SessionHistoryRange returns the selected history range, defaulting to
// [current-6, current-1]. ok is false while the current session is unknown
// and no explicit range exists.
func SessionHistoryRange(st *store.Store) (lo, hi uint32, ok bool) {
	if lo, hi, ok = st.HistoryRange(); ok {
		return lo, hi, true
	}
	current, ok := st.CurrentSession()
	if !ok || current <= defaultHistoryWindow {
		return 0, 0, false
	}
	return current - defaultHistoryWindow, current - 1, true
}

// SessionHistoryRangeIDs expands the history range to the inclusive
// integer sequence [lo, lo+1, ..., hi].
func SessionHistoryRangeIDs(st *store.Store) []uint32 {
	lo, hi, ok := SessionHistoryRange(st)
	if !ok || hi < lo {
		return nil
	}
	return BuildSessionIDsArray(hi, hi-lo+1)
}

// SessionHistoryIDs returns the explicitly selected history ids, falling
// back to the six sessions ending at current-1.
func SessionHistoryIDs(st *store.Store) []uint32 {
	if ids := st.HistoryIDs(); ids != nil {
		return ids
	}
	current, ok := st.CurrentSession()
	if !ok || current < 2 {
		return nil
	}
	return BuildSessionIDsArray(current-1, defaultHistoryWindow)
}

// BuildSessionIDsArray produces the count session indexes ending at end:
// [end-count+1, ..., end]. Returns an empty sequence when end is zero, and
// truncates the window rather than wrapping below the first session.
func BuildSessionIDsArray(end uint32, count uint32) []uint32 {
	if end == 0 {
		return nil
	}
	if count > end {
		count = end
	}
	out := make([]uint32, 0, count)
	for i := count; i > 0; i-- {
		out = append(out, end-i+1)
	}
	return out
}
