// Package reconcile is the central merge point of the cache: it receives
// received-events from the request layer and the live update bridge and
// folds them into the record store, applying entity-specific derivation
// before storing. Malformed or partial records never fail a pass; they are
// filtered out of the derivation they cannot contribute to.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/store"
)

// Notifier is told after a batch has been merged, keyed by entity kind and
// session. Best-effort: the reconciler does not care whether anyone listens.
type Notifier interface {
	Updated(ctx context.Context, entity string, six uint32)
}

type Reconciler struct {
	store    *store.Store
	logger   *zap.Logger
	notifier Notifier
	now      func() time.Time
}

type Option func(*Reconciler)

// WithNotifier wires an update notifier, e.g. the Redis fanout.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

// WithClock overrides the receipt-timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func New(st *store.Store, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Apply merges one event into the store. Mutations are applied atomically
// per record; a batch never observes a half-applied record. Apply never
// fails: records that cannot contribute are skipped, not rejected.
func (r *Reconciler) Apply(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case SessionsReceived:
		r.applySessions(ctx, e)
	case SessionReceived:
		r.applySession(ctx, e)
	case ValidatorsReceived:
		r.applyValidators(ctx, e)
	case ParachainsReceived:
		r.applyParachains(ctx, e)
	case PoolsReceived:
		r.applyPools(ctx, e)
	case BlockReceived:
		r.applyBlock(ctx, e)
	default:
		r.logger.Warn("Dropping unknown event", zap.Any("event", ev))
	}
}

func (r *Reconciler) notify(ctx context.Context, entity string, six uint32) {
	if r.notifier == nil {
		return
	}
	r.notifier.Updated(ctx, entity, six)
}
