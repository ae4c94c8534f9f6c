package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bagbuilder/internal/config"
	"github.com/MrSnakeDoc/bagbuilder/internal/discs"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/index"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/recommend"
	"github.com/MrSnakeDoc/bagbuilder/internal/redis"
	"github.com/MrSnakeDoc/bagbuilder/internal/scheduler"
	"github.com/MrSnakeDoc/bagbuilder/internal/sources/discit"
	redisstore "github.com/MrSnakeDoc/bagbuilder/internal/store/redis"
	"github.com/MrSnakeDoc/bagbuilder/internal/store/sqlite"
	"github.com/MrSnakeDoc/bagbuilder/internal/utils"
	"github.com/MrSnakeDoc/bagbuilder/internal/version"
)

// startupTimeout bounds blocking work done in New (db open, snapshot warm-up, engine client).
const startupTimeout = 30 * time.Second

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *sqlite.DB
	redisClient *goredis.Client
	sessions    *discs.SessionManager
	reloader    *scheduler.CatalogReloader
	sweeper     *scheduler.SessionSweeper
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is optional: snapshots and cached recommendations are skipped without it.
	// Its retries are bounded by RedisConnectTimeout, not startupTimeout.
	redisClient := connectRedis(context.Background(), cfg, loggerClient)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Bag store is required: no bag persistence, no service.
	loggerClient.Info("opening bag store", logger.String("path", cfg.DBPath))
	db, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.DBPath))
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, fmt.Errorf("failed to open bag store: %w", err)
	}
	bagStore := sqlite.NewBagStore(db)

	var (
		snapshots discs.SnapshotStore
		recCache  discs.RecommendationCache
		cachePing deps.Pinger
		store     *redisstore.Store
	)
	if redisClient != nil {
		store = redisstore.NewStore(redisClient)
		snapshots, recCache, cachePing = store, store, store
	}

	fetcher, err := discit.NewFetcher(discit.Options{
		URL:         cfg.CatalogURL,
		Timeout:     cfg.CatalogTimeout,
		MinInterval: cfg.CatalogRate,
	}, loggerClient)
	if err != nil {
		utils.CloseLogged(db, loggerClient, "bag store")
		closeRedis(redisClient, loggerClient)
		return nil, fmt.Errorf("failed to configure catalog source: %w", err)
	}

	catalogLog := loggerClient.Named("catalog")
	catalogIndex := index.NewCatalogIndex()
	provider := discs.NewProvider(fetcher, catalogIndex, snapshots, catalogLog)

	// Serve the last known catalog while the first fetch is in flight.
	if store != nil {
		syncer := scheduler.NewCatalogSyncer(store, provider, catalogLog)
		if _, err := syncer.Sync(ctx); err != nil {
			loggerClient.Warn("failed to warm catalog from redis, waiting for source",
				logger.Error(err))
		}
	}

	engine, err := recommend.NewEngine(ctx, recommend.EngineConfig{
		Kind:    cfg.Engine,
		APIKey:  cfg.EngineAPIKey,
		Model:   cfg.EngineModel,
		BaseURL: cfg.EngineBaseURL,
		Timeout: cfg.EngineTimeout,
	})
	if err != nil {
		// A broken engine only disables recommendations.
		loggerClient.Error("recommendation engine unavailable", logger.Error(err))
		engine = nil
	}
	engineName := ""
	if engine != nil {
		engineName = engine.Name()
		loggerClient.Info("recommendation engine ready", logger.String("engine", engineName))
	} else {
		loggerClient.Info("no recommendation engine configured, analysis disabled")
	}

	sessions := discs.NewSessionManager(discs.ManagerOptions{
		Provider:    provider,
		Store:       bagStore,
		Cache:       recCache,
		Engine:      engine,
		SearchQuiet: cfg.SearchDebounce,
	}, loggerClient.Named("sessions"))

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewCatalogReloader(
		provider,
		catalogLog,
		cfg.ReloadInterval,
		reloadTrigger,
		watchPath(fetcher),
	)

	sweeper := scheduler.NewSessionSweeper(
		sessions,
		loggerClient.Named("sessions"),
		cfg.SessionSweepInterval,
		cfg.SessionIdleTTL,
	)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Build:           version.Get(),
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		Catalog:         provider,
		Sessions:        sessions,
		BagDB:           db,
		Cache:           cachePing,
		ReloadTrigger:   reloadTrigger,
		EngineName:      engineName,
		EngineTimeout:   cfg.EngineTimeout,
		RecommendBurst:  cfg.RecommendBurst,
		RecommendPerMin: cfg.RecommendPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
		sessions:    sessions,
		reloader:    reloader,
		sweeper:     sweeper,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting BagBuilder v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("BagBuilder %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	// Start catalog reloader (initial load, then periodic, manual and file-driven refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if err := a.sweeper.Start(ctx); err != nil {
		a.reloader.Stop()
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}
	a.logger.Info("session sweeper started",
		logger.Duration("interval", a.cfg.SessionSweepInterval),
		logger.Duration("idle_ttl", a.cfg.SessionIdleTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.reloader.Stop()
	a.sweeper.Stop()

	if runErr != nil {
		a.sessions.Close()
		return runErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	stopErr := a.server.Stop(shutdownCtx)

	// In-flight analysis runs still write to the cache, so wait before closing it.
	a.sessions.Close()
	if stopErr != nil {
		return fmt.Errorf("failed to stop server: %w", stopErr)
	}

	a.logger.Info("✅ BagBuilder stopped cleanly")
	return nil
}

func (a *App) close() {
	utils.CloseLogged(a.db, a.logger, "bag store")
	closeRedis(a.redisClient, a.logger)
	_ = a.logger.Sync()
}

func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) *goredis.Client {
	if cfg.RedisAddr != "" {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	}
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		log.Info("redis not configured, running without cache")
		return nil
	case err != nil:
		log.Warn("redis unavailable, running without cache", logger.Error(err))
		return nil
	}
	log.Info("Redis initialized successfully")
	return client
}

func closeRedis(client *goredis.Client, log logger.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Warnf("failed to close redis: %v", err)
		return
	}
	log.Info("✅ Redis closed cleanly")
}

// watchPath returns the local catalog file to watch for edits, or "" when
// the catalog comes over HTTP.
func watchPath(fetcher discit.Fetcher) string {
	if ff, ok := fetcher.(*discit.FileFetcher); ok {
		return ff.Path()
	}
	return ""
}
