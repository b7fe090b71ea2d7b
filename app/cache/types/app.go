package types

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/bridge"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/redis"
	"github.com/turboflakes/onet-cache/pkg/selector"
	"github.com/turboflakes/onet-cache/pkg/store"
	"github.com/turboflakes/onet-cache/pkg/syncer"
)

type App struct {
	Store      *store.Store
	Client     *onet.Client
	Reconciler *reconcile.Reconciler
	Syncer     *syncer.Syncer
	// Bridge is nil when no websocket endpoint is configured; the cache then
	// runs on polling alone.
	Bridge *bridge.Bridge
	// RedisClient is nil when Redis is disabled; update fanout is then off.
	RedisClient *redis.Client
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
	// Cron drives the periodic current-session refresh.
	Cron     *cron.Cron
	CronSpec string
}

// SetupScheduler wires the periodic current-session refresh.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	// Seconds field, optional
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := a.Syncer.SyncCurrentSession(rctx); err != nil {
			logger.Info("[cache] current session refresh error", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return nil
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("[cache] Cron started", zap.String("cronSpec", a.CronSpec))
}

// StopCron stops the cron scheduler.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// Warmup runs the initial fetch pass: the current session, its validators,
// parachains and pools, and the default history window. Failures are logged;
// the periodic refresh and on-demand fetches fill the gaps.
func (a *App) Warmup(ctx context.Context) {
	if err := a.Syncer.SyncCurrentSession(ctx); err != nil {
		a.Logger.Warn("Initial current session fetch failed", zap.Error(err))
		return
	}

	current, ok := a.Store.CurrentSession()
	if !ok {
		return
	}

	if err := a.Syncer.SyncValidators(ctx, onet.ValidatorsQuery{Session: current, Role: "authority", ShowSummary: true}); err != nil {
		a.Logger.Warn("Initial validators fetch failed", zap.Error(err))
	}
	if err := a.Syncer.SyncParachains(ctx, onet.ParachainsQuery{Session: current}); err != nil {
		a.Logger.Warn("Initial parachains fetch failed", zap.Error(err))
	}
	if err := a.Syncer.SyncPools(ctx, onet.PoolsQuery{Session: current}); err != nil {
		a.Logger.Warn("Initial pools fetch failed", zap.Error(err))
	}

	if ids := selector.SessionHistoryIDs(a.Store); len(ids) > 0 {
		if err := a.Syncer.SyncHistory(ctx, ids); err != nil {
			a.Logger.Warn("Initial history backfill failed", zap.Error(err))
		}
	}
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	if a.Bridge != nil {
		go a.Bridge.Run(ctx)
	}
	a.StartCron()

	go a.Warmup(ctx)
	go func() { _ = a.Server.ListenAndServe() }()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	a.Logger.Info("[cache] shutting down…")
	a.StopCron()
	a.Syncer.Stop()

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
