package reconcile

import (
	"context"

	"github.com/turboflakes/onet-cache/pkg/store"
)

func (r *Reconciler) applyParachains(ctx context.Context, e ParachainsReceived) {
	receivedAt := r.now()

	paraIDs := make([]uint32, 0, len(e.Parachains))
	for _, p := range e.Parachains {
		if p.Session == 0 {
			p.Session = e.Session
		}
		paraIDs = append(paraIDs, p.ParaID)

		rec := p
		r.store.Parachains.Upsert(store.ParachainKey{Six: p.Session, ParaID: p.ParaID}, func(cur store.Parachain, exists bool) store.Parachain {
			cur.Parachain = rec
			cur.ReceivedAt = receivedAt
			return cur
		})
	}

	if e.Session == 0 {
		return
	}
	r.store.Sessions.Upsert(e.Session, func(cur store.Session, exists bool) store.Session {
		cur.Six = e.Session
		cur.ParachainIDs = paraIDs
		return cur
	})
	r.notify(ctx, "parachains", e.Session)
}

func (r *Reconciler) applyPools(ctx context.Context, e PoolsReceived) {
	receivedAt := r.now()

	grouped := map[uint32][]uint32{}
	for _, p := range e.Pools {
		if p.Session == 0 {
			p.Session = e.Session
		}
		rec := p
		r.store.Pools.Upsert(store.PoolKey{Six: p.Session, ID: p.ID}, func(cur store.Pool, exists bool) store.Pool {
			cur.Pool = rec
			cur.ReceivedAt = receivedAt
			return cur
		})
		if p.Session > 0 {
			grouped[p.Session] = append(grouped[p.Session], p.ID)
		}
	}

	// A single-pool query carries no session-level meaning.
	if e.SinglePool {
		return
	}

	for six, ids := range grouped {
		six, ids := six, ids
		r.store.Sessions.Upsert(six, func(cur store.Session, exists bool) store.Session {
			cur.Six = six
			cur.PoolIDs = ids
			return cur
		})
		r.notify(ctx, "pools", six)
	}
}
