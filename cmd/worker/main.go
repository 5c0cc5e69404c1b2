package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/access"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/content"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/database"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/queue"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/tracing"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	// prefetch bounds the engagement updates in flight per worker
	prefetch = 10

	dlqSampleInterval = 30 * time.Second
)

func main() {
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

	// Handle shutdown gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("Worker stopped: %v", err)
	}
	logger.Info("Worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	// Rescored content must land in the store the API reads
	if !cfg.Database.Enabled {
		return errors.New("worker requires database.enabled")
	}
	if !cfg.Queue.Enabled {
		return errors.New("worker requires queue.enabled")
	}

	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer closer.Close()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	repo := database.NewRepository(db, logger)

	q, err := queue.New(cfg.Queue)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer q.Close()

	evaluator := access.NewEvaluator(repo, repo, cfg.Access.LookupTimeout, logger)
	contentService := content.NewService(repo, evaluator, nil, q, logger)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, map[string]metrics.ReadinessCheck{
			"store": repo.Ping,
			"queue": q.Ping,
		})
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		q.MonitorDLQ(ctx, dlqSampleInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("Worker started, waiting for engagement updates...")
		err := q.ConsumeEngagement(ctx, prefetch, engagementHandler(contentService, logger))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

// SignalUpdater rescores content from fresh signals
type SignalUpdater interface {
	UpdateSignals(ctx context.Context, id string, signals models.QualitySignals, source string) (*models.Content, error)
}

func engagementHandler(updater SignalUpdater, logger *logging.Logger) queue.EngagementHandler {
	return func(ctx context.Context, update *models.EngagementUpdate) error {
		c, err := updater.UpdateSignals(ctx, update.ContentID, update.Signals, "queue")
		if err != nil {
			logger.WithContentID(update.ContentID).WithError(err).Warn("Failed to apply engagement update")
			return err
		}
		logger.WithContentID(c.ID).WithField("quality_score", c.QualityScore).Debug("Applied engagement update")
		return nil
	}
}
