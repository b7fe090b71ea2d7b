// Package syncer drives the request layer: it issues parameterized queries
// against the ONE-T API, dedups them by their full parameter fingerprint,
// hands the results to the reconciler, and fires the subscription side
// effects that keep the live update bridge tracking the current session.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/bridge"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// Subscriber is the outbound side of the live update bridge. Subscription
// requests are fire-and-forget; a failed fetch simply never subscribes.
type Subscriber interface {
	Queue(method string, params ...string)
}

// Fetcher is the slice of the API client the syncer needs.
type Fetcher interface {
	Sessions(ctx context.Context, q onet.SessionsQuery) ([]onet.Session, error)
	SessionAt(ctx context.Context, index string) (*onet.Session, error)
	Validators(ctx context.Context, q onet.ValidatorsQuery) (*onet.ListEnvelope[onet.Validator], error)
	Parachains(ctx context.Context, q onet.ParachainsQuery) (*onet.ListEnvelope[onet.Parachain], error)
	Pools(ctx context.Context, q onet.PoolsQuery) (*onet.ListEnvelope[onet.Pool], error)
}

type seenEntry struct {
	tag string
	at  time.Time
}

type Syncer struct {
	client Fetcher
	rec    *reconcile.Reconciler
	store  *store.Store
	subs   Subscriber
	logger *zap.Logger

	// seen dedups queries by fingerprint within the TTL. Tag-keyed so a
	// whole entity class can be invalidated at once.
	seen *xsync.Map[string, seenEntry]
	ttl  time.Duration

	pool pond.Pool
	now  func() time.Time
}

type Opts struct {
	Client     Fetcher
	Reconciler *reconcile.Reconciler
	Store      *store.Store
	Subscriber Subscriber
	Logger     *zap.Logger
	// CacheTTL bounds how long an identical query is considered fresh.
	CacheTTL time.Duration
	// Workers sizes the history-backfill pool.
	Workers int
}

func New(o Opts) *Syncer {
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Minute
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return &Syncer{
		client: o.Client,
		rec:    o.Reconciler,
		store:  o.Store,
		subs:   o.Subscriber,
		logger: o.Logger,
		seen:   xsync.NewMap[string, seenEntry](),
		ttl:    o.CacheTTL,
		pool:   pond.NewPool(o.Workers, pond.WithQueueSize(o.Workers*16)),
		now:    time.Now,
	}
}

// fresh reports whether an identical query resolved within the TTL, and
// records this one if not. Every parameter participates in the key.
func (s *Syncer) fresh(fingerprint, tag string) bool {
	now := s.now()
	if entry, ok := s.seen.Load(fingerprint); ok && now.Sub(entry.at) < s.ttl {
		return true
	}
	s.seen.Store(fingerprint, seenEntry{tag: tag, at: now})
	return false
}

// forget drops a fingerprint so a failed fetch is retried on next demand.
func (s *Syncer) forget(fingerprint string) {
	s.seen.Delete(fingerprint)
}

// Invalidate drops every cached query fingerprint carrying the tag.
func (s *Syncer) Invalidate(tag string) {
	s.seen.Range(func(key string, entry seenEntry) bool {
		if entry.tag == tag {
			s.seen.Delete(key)
		}
		return true
	})
}

// SyncSessions fetches a sessions window and merges it.
func (s *Syncer) SyncSessions(ctx context.Context, q onet.SessionsQuery) error {
	fp := q.Fingerprint()
	if s.fresh(fp, "sessions") {
		return nil
	}
	sessions, err := s.client.Sessions(ctx, q)
	if err != nil {
		s.forget(fp)
		return fmt.Errorf("sync sessions: %w", err)
	}
	s.rec.Apply(ctx, reconcile.SessionsReceived{Sessions: sessions})
	return nil
}

// SyncCurrentSession fetches the live session. On success it subscribes to
// the new-session push topic and backfills the stats of the era so far.
func (s *Syncer) SyncCurrentSession(ctx context.Context) error {
	session, err := s.client.SessionAt(ctx, onet.SessionCurrent)
	if err != nil {
		return fmt.Errorf("sync current session: %w", err)
	}
	s.rec.Apply(ctx, reconcile.SessionReceived{Session: *session})

	if s.subs != nil {
		s.subs.Queue(bridge.SubscribeSession, "new")
	}
	if session.Esix > 1 {
		if err := s.SyncSessions(ctx, onet.SessionsQuery{
			NumberLastSessions: session.Esix - 1,
			ShowStats:          true,
		}); err != nil {
			// The current session itself merged fine; the era backfill
			// can catch up on a later pass.
			s.logger.Warn("Era backfill failed", zap.Error(err))
		}
	}
	return nil
}

// SyncSessionAt fetches one session by index.
func (s *Syncer) SyncSessionAt(ctx context.Context, six uint32) error {
	session, err := s.client.SessionAt(ctx, strconv.FormatUint(uint64(six), 10))
	if err != nil {
		return fmt.Errorf("sync session %d: %w", six, err)
	}
	s.rec.Apply(ctx, reconcile.SessionReceived{Session: *session})
	return nil
}

// SyncValidators fetches a validators batch. The multi-session comma-list
// form writes the history namespace; everything else tracks live.
func (s *Syncer) SyncValidators(ctx context.Context, q onet.ValidatorsQuery) error {
	fp := q.Fingerprint()
	if s.fresh(fp, "validators") {
		return nil
	}
	env, err := s.client.Validators(ctx, q)
	if err != nil {
		s.forget(fp)
		return fmt.Errorf("sync validators: %w", err)
	}

	scope := store.ScopeLive
	if q.IsInsights() {
		scope = store.ScopeHistory
	}
	session := env.Session
	if session == 0 {
		session = q.Session
	}
	s.rec.Apply(ctx, reconcile.ValidatorsReceived{Validators: env.Data, Session: session, Scope: scope})
	return nil
}

// SyncParachains fetches a session's parachains. Fetching the current
// session's parachains subscribes to their push topic.
func (s *Syncer) SyncParachains(ctx context.Context, q onet.ParachainsQuery) error {
	fp := q.Fingerprint()
	if s.fresh(fp, "parachains") {
		return nil
	}
	env, err := s.client.Parachains(ctx, q)
	if err != nil {
		s.forget(fp)
		return fmt.Errorf("sync parachains: %w", err)
	}

	session := env.Session
	if session == 0 {
		session = q.Session
	}
	s.rec.Apply(ctx, reconcile.ParachainsReceived{Parachains: env.Data, Session: session})

	if s.subs != nil {
		if current, ok := s.store.CurrentSession(); ok && current == q.Session {
			s.subs.Queue(bridge.SubscribeParachains, strconv.FormatUint(uint64(q.Session), 10))
		}
	}
	return nil
}

// SyncPools fetches a pools batch.
func (s *Syncer) SyncPools(ctx context.Context, q onet.PoolsQuery) error {
	fp := q.Fingerprint()
	if s.fresh(fp, "pools") {
		return nil
	}
	env, err := s.client.Pools(ctx, q)
	if err != nil {
		s.forget(fp)
		return fmt.Errorf("sync pools: %w", err)
	}

	session := env.Session
	if session == 0 {
		session = q.Session
	}
	s.rec.Apply(ctx, reconcile.PoolsReceived{Pools: env.Data, Session: session, SinglePool: q.IsSinglePool()})
	return nil
}

// SyncHistory backfills a session id window: one wide insights query for
// the validators plus per-session parachain and pool fetches on the worker
// pool. Individual failures are logged and skipped; the cache degrades to
// missing data rather than failing the window.
func (s *Syncer) SyncHistory(ctx context.Context, ids []uint32) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.SyncValidators(ctx, onet.ValidatorsQuery{Sessions: ids, ShowSummary: true}); err != nil {
		return err
	}

	group := s.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for _, six := range ids {
		six := six
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			if err := s.SyncParachains(groupCtx, onet.ParachainsQuery{Session: six}); err != nil {
				s.logger.Warn("History parachains fetch failed", zap.Uint32("six", six), zap.Error(err))
			}
			if err := s.SyncPools(groupCtx, onet.PoolsQuery{Session: six}); err != nil {
				s.logger.Warn("History pools fetch failed", zap.Uint32("six", six), zap.Error(err))
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		s.logger.Warn("History backfill group encountered error", zap.Error(err))
	}
	return nil
}

// Stop releases the worker pool.
func (s *Syncer) Stop() {
	s.pool.StopAndWait()
}
