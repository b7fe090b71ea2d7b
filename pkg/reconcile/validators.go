package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/metrics"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/store"
	"github.com/turboflakes/onet-cache/pkg/utils"
)

// applyValidators stores the raw validator records and rebuilds the
// per-session derived lists wholesale. The lists are never patched
// element-by-element: each contributing batch recomputes them from the
// para-validators it carries. Only the stash set accumulates across
// batches within a session.
func (r *Reconciler) applyValidators(ctx context.Context, e ValidatorsReceived) {
	receivedAt := r.now()

	// Keep every authority record, keyed by (session, address), so group
	// and parachain aggregates can be computed on read.
	authorities := make([]onet.Validator, 0, len(e.Validators))
	for _, v := range e.Validators {
		if !v.IsAuth {
			continue
		}
		if v.Session == 0 {
			v.Session = e.Session
		}
		authorities = append(authorities, v)

		val := v
		r.store.Validators.Upsert(store.ValidatorKey{Six: v.Session, Address: v.Address}, func(cur store.Validator, exists bool) store.Validator {
			cur.Validator = val
			cur.ReceivedAt = receivedAt
			return cur
		})
	}

	grouped := map[uint32][]onet.Validator{}
	for _, v := range authorities {
		grouped[v.Session] = append(grouped[v.Session], v)
	}

	for six, batch := range grouped {
		if six == 0 {
			// Neither the records nor the envelope named a session.
			r.logger.Debug("Skipping validators batch without session",
				zap.Int("validators", len(batch)))
			continue
		}
		r.deriveSession(six, batch, e.Scope)
		r.notify(ctx, "validators", six)
	}
}

// deriveSession recomputes one session's derived lists from an authorities
// batch and merges them under the namespace the scope selects.
func (r *Reconciler) deriveSession(six uint32, authorities []onet.Validator, scope store.Scope) {
	// Para-validators with a vote summary are the only contributors to the
	// per-validator lists; records missing nested fields are filtered out,
	// never rejected.
	para := make([]onet.Validator, 0, len(authorities))
	for _, v := range authorities {
		if v.IsPara && v.ParaSummary != nil && v.Para != nil {
			para = append(para, v)
		}
	}

	groupIDs := make([]uint32, 0, len(para))
	mvrs := make([]float64, 0, len(para))
	validityVotes := make([]uint32, 0, len(para))
	backingPoints := make([]uint64, 0, len(para))
	disputeStashes := []string{}
	fGradeStashes := []string{}

	for _, v := range para {
		if v.Para.Group != nil {
			groupIDs = append(groupIDs, *v.Para.Group)
		}
		mvr := metrics.Mvr(v.ParaSummary.ExplicitVotes, v.ParaSummary.ImplicitVotes, v.ParaSummary.MissedVotes)
		mvrs = append(mvrs, mvr)
		validityVotes = append(validityVotes, v.ParaSummary.Total())
		if v.Auth != nil {
			backingPoints = append(backingPoints, metrics.BackingPoints(v.Auth.EndPoints, v.Auth.StartPoints, len(v.Auth.AuthoredBlocks)))
		} else {
			backingPoints = append(backingPoints, 0)
		}
		// A present disputes field flags the validator even when the list
		// itself is empty.
		if v.Para.Disputes != nil {
			disputeStashes = append(disputeStashes, v.Address)
		}
		if metrics.Grade(1-mvr) == metrics.GradeF {
			fGradeStashes = append(fGradeStashes, v.Address)
		}
	}

	addresses := make([]string, 0, len(authorities))
	for _, v := range authorities {
		addresses = append(addresses, v.Address)
	}

	sortedGroupIDs := utils.UniqSorted(groupIDs)

	r.store.Sessions.Upsert(six, func(cur store.Session, exists bool) store.Session {
		cur.Six = six
		d := cur.Derived(scope)
		d.GroupIDs = sortedGroupIDs
		d.Mvrs = mvrs
		d.ValidityVotes = validityVotes
		d.BackingPoints = backingPoints
		// The stash set is monotonic within a session: union with whatever
		// earlier batches delivered, never shrink.
		d.Stashes = utils.Union(d.Stashes, addresses)
		d.DisputeStashes = disputeStashes
		d.FGradeStashes = fGradeStashes
		return cur
	})
}
