package cache

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/app/cache/types"
	"github.com/turboflakes/onet-cache/pkg/bridge"
	"github.com/turboflakes/onet-cache/pkg/logging"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/redis"
	"github.com/turboflakes/onet-cache/pkg/store"
	"github.com/turboflakes/onet-cache/pkg/syncer"
	"github.com/turboflakes/onet-cache/pkg/utils"
)

// Initialize initializes the application.
// Environment variables:
//   - ONET_API_ENDPOINTS: comma-separated API base URLs (required)
//   - ONET_WS_URL: websocket endpoint for live updates (optional)
//   - REDIS_ENABLED: enable the Redis update fanout (default: "false")
//   - CACHE_TTL: freshness window for identical queries (default: "1m")
//   - SYNC_CRON: current-session refresh schedule (default: every 30s)
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	endpoints := strings.Split(utils.Env("ONET_API_ENDPOINTS", "https://polkadot-onet-api.turboflakes.io/api/v1"), ",")
	client := onet.NewWithOpts(onet.Opts{
		Endpoints: endpoints,
		Timeout:   utils.EnvDuration("ONET_API_TIMEOUT", 15*time.Second),
		RPS:       utils.EnvInt("ONET_API_RPS", 20),
	})

	// Initialize Redis client for real-time WebSocket events (optional)
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - WebSocket real-time events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for WebSocket real-time events")
		}
	} else {
		logger.Info("Redis disabled - WebSocket real-time events will not be available")
	}

	st := store.New()

	var recOpts []reconcile.Option
	if redisClient != nil {
		recOpts = append(recOpts, reconcile.WithNotifier(redis.NewNotifier(redisClient, logger)))
	}
	rec := reconcile.New(st, logger, recOpts...)

	var br *bridge.Bridge
	if wsURL := utils.Env("ONET_WS_URL", ""); wsURL != "" {
		br = bridge.New(wsURL, rec, logger)
	} else {
		logger.Info("No websocket endpoint configured - running on polling alone")
	}

	var subs syncer.Subscriber
	if br != nil {
		subs = br
	}
	sync := syncer.New(syncer.Opts{
		Client:     client,
		Reconciler: rec,
		Store:      st,
		Subscriber: subs,
		Logger:     logger,
		CacheTTL:   utils.EnvDuration("CACHE_TTL", time.Minute),
		Workers:    utils.EnvInt("SYNC_WORKERS", 4),
	})

	app := &types.App{
		Store:       st,
		Client:      client,
		Reconciler:  rec,
		Syncer:      sync,
		Bridge:      br,
		RedisClient: redisClient,
		Logger:      logger,
		CronSpec:    utils.Env("SYNC_CRON", "*/30 * * * * *"),
	}

	if err := app.SetupScheduler(ctx, cron.DefaultLogger, app.CronSpec); err != nil {
		logger.Fatal("Unable to initialize scheduler", zap.Error(err))
	}

	return app
}
