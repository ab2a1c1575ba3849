package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/minichannels/internal/cache"
	"github.com/MrSnakeDoc/minichannels/internal/config"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver"
	"github.com/MrSnakeDoc/minichannels/internal/httpserver/deps"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/metrics"
	"github.com/MrSnakeDoc/minichannels/internal/minichannels"
	"github.com/MrSnakeDoc/minichannels/internal/notify"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
	"github.com/MrSnakeDoc/minichannels/internal/redis"
	"github.com/MrSnakeDoc/minichannels/internal/scheduler"
	"github.com/MrSnakeDoc/minichannels/internal/sources/grid"
	"github.com/MrSnakeDoc/minichannels/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/minichannels/internal/store/redis"
	"github.com/MrSnakeDoc/minichannels/internal/submission"
	"github.com/MrSnakeDoc/minichannels/internal/verification"
	"github.com/MrSnakeDoc/minichannels/internal/version"
	"github.com/MrSnakeDoc/minichannels/internal/wallet"
)

const startupTimeout = 30 * time.Second

// store is what both storage backends provide.
type store interface {
	ports.Storage
	ForUser(userID string) ports.Storage
	Ping(ctx context.Context) error
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.GridReloader
	gc          *scheduler.SubmissionCollector
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debugf("configuration: %+v", cfg.Redacted())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, redisClient, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	submissions := submission.NewRepository(st)
	if err := submissions.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	pixels := grid.New(cfg.GridFile, cfg.GridSize, st, loggerClient)
	wallets := wallet.NewRegistry()
	hub := notify.NewHub(cfg.NotificationCapacity, loggerClient)

	var prov metrics.Provider
	var views cache.Cache
	verifyCfg := verification.Config{
		Amount:    cfg.VerificationAmount,
		Delay:     cfg.VerificationDelay,
		MaxChecks: cfg.VerificationMaxChecks,
	}

	sessions := minichannels.NewRegistry(func(userID string) minichannels.Deps {
		return minichannels.Deps{
			Grid:         pixels,
			Submissions:  submissions,
			Storage:      st.ForUser(userID),
			Wallet:       wallets.For(userID),
			Notifier:     hub.For(userID),
			Backend:      verification.SimulatedBackend{},
			Verification: verifyCfg,
			Cache:        views,
			Metrics:      prov,
			Logger:       loggerClient,
		}
	}, loggerClient)

	prov = metrics.New(cfg.MetricsEnabled, sessions)
	views = cache.NewInstrumented(cache.Config{
		Enabled: cfg.CacheEnabled,
		SizeMB:  cfg.CacheSizeMB,
		TTL:     cfg.CacheTTL,
	}, loggerClient, prov)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)
	pixels.OnPurchase(func() { scheduler.Trigger(reloadTrigger) })

	reloader := scheduler.NewGridReloader(
		pixels,
		sessions,
		loggerClient,
		cfg.GridReloadInterval,
		reloadTrigger,
	)

	gc := scheduler.NewSubmissionCollector(
		submissions,
		loggerClient,
		cfg.SubmissionGCInterval,
		cfg.SubmissionGCThreshold,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Sessions:      sessions,
		Submissions:   submissions,
		Grid:          pixels,
		Wallets:       wallets,
		Notifications: hub,
		Metrics:       prov,
		Ping:          st.Ping,
		OpsCIDRs:      cfg.OpsPrefixes(),
		TrustProxy:    cfg.TrustProxy,
		AdminToken:    cfg.AdminToken,
		RateLimit: deps.RateLimit{
			Burst:        cfg.RateLimitBurst,
			RefillPerMin: cfg.RateLimitPerMin,
		},
		ReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		reloader:    reloader,
		gc:          gc,
	}, nil
}

// openStore connects the configured storage backend. Redis is required to
// answer before startup continues.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store, *goredis.Client, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.Connect(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
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
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), client, nil
}

func (a *App) Run() error {
	info := version.Get()
	a.logger.Infof("🚀 Starting minichannels %s on %s", info.Version, a.cfg.ListenPort)
	a.logger.Infof("minichannels %s (commit=%s, built=%s, go=%s)",
		info.Version, info.Commit, info.BuildDate, info.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the grid and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start grid reloader: %w", err)
	}
	a.logger.Info("grid reloader started",
		logger.Duration("interval", a.cfg.GridReloadInterval))

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start submission collector: %w", err)
	}
	a.logger.Info("submission collector started",
		logger.Duration("interval", a.cfg.SubmissionGCInterval))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		a.reloader.Stop()
		a.gc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})
	runErr := g.Wait()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ minichannels stopped cleanly")
	return nil
}
