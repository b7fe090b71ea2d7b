package reconcile

import (
	"context"

	"github.com/turboflakes/onet-cache/pkg/metrics"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// mergeSession folds one received session snapshot into the store,
// attaching the derived missed-vote ratio when top-level stats are present.
// Derived namespaces and id lists on the existing record are preserved.
func (r *Reconciler) mergeSession(in onet.Session) {
	var mvr *float64
	if in.Stats != nil {
		v := metrics.Mvr(in.Stats.ExplicitVotes, in.Stats.ImplicitVotes, in.Stats.MissedVotes)
		mvr = &v
	}
	receivedAt := r.now()

	r.store.Sessions.Upsert(in.Six, func(cur store.Session, exists bool) store.Session {
		cur.Six = in.Six
		cur.Eix = in.Eix
		cur.Esix = in.Esix
		cur.IsCurrent = in.IsCurrent
		if in.Stats != nil {
			cur.Stats = in.Stats
			cur.Mvr = mvr
		}
		if in.NetStats != nil {
			cur.NetStats = in.NetStats
		}
		cur.ReceivedAt = receivedAt
		return cur
	})

	// A session flagged current moves the cursor (needed when a new
	// session arrives over the push channel).
	if in.IsCurrent {
		r.store.SetCurrentSession(in.Six)
	}
}

func (r *Reconciler) applySessions(ctx context.Context, e SessionsReceived) {
	for _, s := range e.Sessions {
		r.mergeSession(s)
	}
	if n := len(e.Sessions); n > 0 {
		r.notify(ctx, "sessions", e.Sessions[n-1].Six)
	}
}

func (r *Reconciler) applySession(ctx context.Context, e SessionReceived) {
	r.mergeSession(e.Session)
	r.notify(ctx, "sessions", e.Session.Six)
}

func (r *Reconciler) applyBlock(ctx context.Context, e BlockReceived) {
	r.store.SetBlock(e.Block)
	entity := "best_block"
	if e.Block.IsFinalized {
		entity = "finalized_block"
	}
	six, _ := r.store.CurrentSession()
	r.notify(ctx, entity, six)
}
