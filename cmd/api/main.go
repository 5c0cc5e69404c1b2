package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/access"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/cache"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/database"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/membershipclient"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/memstore"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/middleware"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/queue"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/scheduler"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/storage"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/tracing"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Local runs may keep settings in .env
	_ = godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("API server stopped: %v", err)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer closer.Close()

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	deps := Deps{Health: map[string]HealthCheck{}}

	// Store
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		deps.Store = database.NewRepository(db, logger)
		logger.Info("Using PostgreSQL store")
	} else {
		deps.Store = memstore.New()
		logger.Warn("Database disabled, using in-memory store")
	}

	// Subscription lookup, remote when a membership service is configured
	var lookup access.SubscriptionLookup = deps.Store
	if cfg.Access.MembershipBaseURL != "" {
		lookup = membershipclient.NewClient(cfg.Access.MembershipBaseURL, cfg.Access.MembershipAPIKey,
			membershipclient.WithRetryDelays(retryDelays(cfg.Access.MaxRetries)...))
		logger.WithField("base_url", cfg.Access.MembershipBaseURL).Info("Using remote membership service")
	}

	// Cache
	var redisCache *cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		lookup = cache.NewCachedLookup(redisCache, lookup, cfg.Redis.SubscriptionTTL, logger)
		deps.Cache = redisCache
		deps.Health["redis"] = redisCache.Ping
	}
	deps.Lookup = lookup

	// Storage
	if cfg.Storage.Enabled {
		stor, err := storage.New(ctx, cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		deps.Files = stor
	}

	// Queue
	deps.Publisher = queue.NopPublisher{}
	if cfg.Queue.Enabled {
		q, err := queue.New(cfg.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to queue: %w", err)
		}
		defer q.Close()
		deps.Publisher = q
		deps.Health["queue"] = q.Ping
	}

	api := NewAPI(cfg, deps, logger)

	g, ctx := errgroup.WithContext(ctx)

	// Rate limiting, shared across replicas when redis is available
	var limiter gin.HandlerFunc
	if redisCache != nil {
		limiter = middleware.SharedRateLimit(redisCache, int64(cfg.Server.RateLimitRPS), time.Second)
	} else {
		rl := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		g.Go(func() error {
			rl.Cleanup(ctx, time.Minute)
			return nil
		})
		limiter = middleware.RateLimit(rl)
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(api,
		middleware.Logger(logger),
		metrics.GinMiddleware(),
		limiter,
		middleware.OptionalIdentity(),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		checks := map[string]metrics.ReadinessCheck{"store": deps.Store.Ping}
		for name, check := range deps.Health {
			checks[name] = metrics.ReadinessCheck(check)
		}
		metricsServer = metrics.NewServer(cfg.Metrics.Port, checks)
		g.Go(metricsServer.Start)
	}

	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker
		if redisCache != nil {
			locker = redisCache
		}
		sched := scheduler.New(locker, cfg.Scheduler.LockTTL, logger)
		if err := sched.Register(cfg.Scheduler.RevenueSnapshotSchedule, api.snapshots); err != nil {
			return err
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Metrics server forced to shutdown")
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// retryDelays keeps the first n default delays of the membership client
func retryDelays(n int) []time.Duration {
	delays := membershipclient.DefaultRetryDelays
	if n < 0 {
		n = 0
	}
	if n > len(delays) {
		n = len(delays)
	}
	return delays[:n]
}
