// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"learnstyle-workers/internal/api"
	commonaws "learnstyle-workers/internal/common/aws"
	"learnstyle-workers/internal/common/camunda"
	"learnstyle-workers/internal/common/config"
	"learnstyle-workers/internal/common/database"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/observability"
	"learnstyle-workers/internal/model"
	"learnstyle-workers/internal/pipeline"
	"learnstyle-workers/pkg/registry"

	cls "learnstyle-workers/internal/workers/learning/classify-learning-style"
	gsr "learnstyle-workers/internal/workers/learning/generate-study-recommendations"
	ssg "learnstyle-workers/internal/workers/learning/save-study-goals"
	ssp "learnstyle-workers/internal/workers/learning/send-study-plan"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Model bundle ---
	bundle, err := model.Load(cfg.Model.BundlePath)
	if err != nil {
		zapLog.Fatal("model bundle load failed", zap.Error(err), zap.String("path", cfg.Model.BundlePath))
	}
	zapLog.Info("Model bundle loaded",
		zap.String("path", cfg.Model.BundlePath),
		zap.String("version", bundle.Version),
		zap.Int("clusters", bundle.NumClusters()),
	)

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- SES ---
	var sesClient *commonaws.SESClient
	if cfg.Notifications.Email.Enabled {
		sesClient, err = commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
	}

	workerPipeline := pipeline.New(bundle,
		pipeline.WithLogger(log.WithFields(map[string]interface{}{"component": "pipeline"})),
		pipeline.WithSource("worker"),
	)

	// --- Register Workers ---
	var workers []worker.JobWorker
	var taskTypes []string
	register := func(taskType string, handler worker.JobHandler) {
		w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, zapLog)
		if w != nil {
			workers = append(workers, w)
			taskTypes = append(taskTypes, taskType)
		}
	}

	if taskType := cls.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		handler := cls.NewHandler(
			&cls.Config{
				Timeout:       config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout),
				CacheTTL:      time.Duration(cfg.Model.CacheTTL) * time.Second,
				ValidateInput: cfg.Model.ValidateInput,
				StoreHistory:  cfg.Model.StoreHistory,
			},
			workerPipeline, pg.DB, rdb.GetClient(), log,
		)
		register(taskType, handler.Handle)
	}

	if taskType := gsr.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := gsr.LoadConfig()
		wcfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
		register(taskType, gsr.NewHandler(wcfg, log).Handle)
	}

	if taskType := ssg.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		handler := ssg.NewHandler(
			&ssg.Config{
				Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout),
				DeadlineDays: cfg.Model.GoalDeadline,
			},
			pg.DB, log,
		)
		register(taskType, handler.Handle)
	}

	if taskType := ssp.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		var sender ssp.EmailSender
		if sesClient != nil {
			sender = sesClient
		}
		handler := ssp.NewHandler(
			&ssp.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				Subject:      cfg.Notifications.Email.Subject,
				Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout),
			},
			sender, log,
		)
		register(taskType, handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	if reg, err := registry.LoadRegistry(cfg.App.Registry); err != nil {
		zapLog.Warn("activity registry unavailable", zap.Error(err), zap.String("path", cfg.App.Registry))
	} else if err := reg.Validate(); err != nil {
		zapLog.Warn("activity registry invalid", zap.Error(err))
	} else if missing := reg.Missing(taskTypes); len(missing) > 0 {
		zapLog.Warn("task types missing from activity registry", zap.Strings("taskTypes", missing))
	}

	// --- Health, Metrics & Recommend Server ---
	apiOpts := api.Options{
		ValidateInput:   cfg.Model.ValidateInput,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		RateLimit:       cfg.HTTP.RateLimit,
		Recorder:        obs,
		Logger:          log,
		Checks: map[string]api.CheckFunc{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		},
	}
	if cfg.HTTP.RecommendRoute {
		apiOpts.Pipeline = pipeline.New(bundle,
			pipeline.WithLogger(log.WithFields(map[string]interface{}{"component": "pipeline"})),
			pipeline.WithSource("http"),
		)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewServer(apiOpts).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
