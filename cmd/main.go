package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/moltyroyale/agent/internal/adapters/gameapi"
	"github.com/moltyroyale/agent/internal/adapters/http/ops"
	"github.com/moltyroyale/agent/internal/adapters/mq/queue"
	"github.com/moltyroyale/agent/internal/adapters/repository"
	"github.com/moltyroyale/agent/internal/app"
	"github.com/moltyroyale/agent/internal/config"
	"github.com/moltyroyale/agent/internal/domain/combat"
	"github.com/moltyroyale/agent/internal/domain/decision"
	"github.com/moltyroyale/agent/internal/domain/dedupe"
	"github.com/moltyroyale/agent/internal/domain/health"
	"github.com/moltyroyale/agent/internal/domain/weapon"
	"github.com/moltyroyale/agent/internal/domain/zone"
	"github.com/moltyroyale/agent/pkg/logger"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logging: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.APIKey == "" {
		loggerInstance.Warn(ctx, "api_key is empty; game API calls will be rejected")
	}

	// Region value table, optionally write-through to Redis.
	shardStore := repository.NewShardStore(repository.WithShardCount(cfg.ShardCount))
	var regions repository.Store = shardStore
	if cfg.RedisAddr != "" {
		redisStore, rerr := repository.NewRedisStore(ctx, cfg.RedisAddr, shardStore)
		if rerr != nil {
			loggerInstance.Error(ctx, "redis unavailable; region scores stay in-memory",
				logger.String("addr", cfg.RedisAddr), logger.Error(rerr))
		} else {
			regions = redisStore
			defer func() {
				if cerr := redisStore.Close(context.Background()); cerr != nil {
					loggerInstance.Warn(ctx, "redis close failed", logger.Error(cerr))
				}
			}()
		}
	}

	resolver := decision.NewResolver(regions,
		decision.WithZoneMonitor(zone.NewMonitor(
			zone.WithMaxCloseSpeed(cfg.MaxCloseSpeed),
			zone.WithSafetyMargin(cfg.ZoneSafetyMargin),
		)),
		decision.WithHealthManager(health.NewManager(
			health.WithCriticalThreshold(cfg.HealthCritical),
			health.WithNormalThreshold(cfg.HealthNormal),
		)),
		decision.WithWeaponEvaluator(weapon.NewEvaluator(
			weapon.WithUpgradeMargin(cfg.WeaponUpgradeMargin),
		)),
		decision.WithCombatEvaluator(combat.NewEvaluator(
			combat.WithWinProbEngage(cfg.WinProbEngage),
			combat.WithEscapeProbMax(cfg.EscapeProbMax),
		)),
		decision.WithRegionFloor(cfg.RegionFloor),
		decision.WithLootRange(cfg.LootRange),
	)

	client := gameapi.NewClient(cfg.APIBase, cfg.APIKey,
		gameapi.WithAgentName(cfg.AgentName),
		gameapi.WithTimeout(time.Duration(cfg.APITimeoutMS)*time.Millisecond),
	)

	agent := app.New(client, resolver, regions,
		app.WithTickInterval(time.Duration(cfg.TickIntervalMS)*time.Millisecond),
		app.WithTickDeadline(time.Duration(cfg.TickDeadlineMS)*time.Millisecond),
		app.WithEventQueue(queue.NewInMemoryQueue(queue.WithCapacity(cfg.EventQueueSize))),
		app.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
		app.WithLogger(loggerInstance),
	)

	go startSystemMetricsUpdater(ctx)

	// Operational HTTP surface: /healthz, /metrics, /regions, /stats.
	mux := http.NewServeMux()
	opsServer := ops.NewServer(regions, agent)
	opsServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting ops HTTP server", logger.String("addr", cfg.OpsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("ops HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// The agent loop owns the process lifetime. A fatal error (rejected
	// credentials) ends the run even without a signal.
	exitCode := 0
	if err := agent.Run(ctx); err != nil {
		loggerInstance.Error(ctx, "agent stopped", logger.Error(err))
		exitCode = 1
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "ops server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "agent stopped cleanly")
	if exitCode != 0 {
		logger.Sync() //nolint:errcheck // exiting anyway
		os.Exit(exitCode)
	}
}

// startSystemMetricsUpdater refreshes process-level metrics periodically.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
