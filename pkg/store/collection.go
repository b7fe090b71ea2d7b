package store

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// Collection is one normalized keyed collection. Records are value
// snapshots: readers get copies, and every mutation goes through an atomic
// per-key merge so concurrent upserts of the same record never interleave.
type Collection[K comparable, V any] struct {
	m *xsync.Map[K, V]
}

func NewCollection[K comparable, V any]() *Collection[K, V] {
	return &Collection[K, V]{m: xsync.NewMap[K, V]()}
}

// Get returns the latest snapshot for the key.
func (c *Collection[K, V]) Get(key K) (V, bool) {
	return c.m.Load(key)
}

// Upsert inserts or merges the record under key. The merge function sees
// the current snapshot (zero value when absent) and returns the next one.
// It always succeeds; merge runs at most once per call.
func (c *Collection[K, V]) Upsert(key K, merge func(cur V, exists bool) V) V {
	v, _ := c.m.Compute(key, func(old V, loaded bool) (V, xsync.ComputeOp) {
		return merge(old, loaded), xsync.UpdateOp
	})
	return v
}

// Range iterates over the collection. Iteration order is unspecified;
// ordered reads belong to the store's typed accessors.
func (c *Collection[K, V]) Range(fn func(key K, v V) bool) {
	c.m.Range(fn)
}

// Len returns the number of records held.
func (c *Collection[K, V]) Len() int {
	return c.m.Size()
}
