// cmd/intake-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-support-intake/internal/api"
	awsclients "social-support-intake/internal/common/aws"
	"social-support-intake/internal/common/camunda"
	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/database"
	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/wizard/fields"
	"social-support-intake/internal/wizard/session"
	"social-support-intake/internal/wizard/store"
	"social-support-intake/internal/wizard/submission"
	"social-support-intake/internal/wizard/suggestion"
	"social-support-intake/pkg/registry"

	car "social-support-intake/internal/workers/application/create-application-record"
	ia "social-support-intake/internal/workers/application/index-application"
	sn "social-support-intake/internal/workers/application/send-notification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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
	configPath := flag.String("config", "", "path to a config file (defaults to ./configs/config.yaml)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("submission", cfg.Submission.Driver),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	// --- Step registry ---
	reg := registry.Default()
	if cfg.RegistryPath != "" {
		if reg, err = registry.LoadRegistry(cfg.RegistryPath); err != nil {
			zapLog.Fatal("registry load failed", zap.Error(err))
		}
	}
	if err := reg.Validate(fields.New(fields.WithRegistry(reg)).Has); err != nil {
		zapLog.Fatal("registry is invalid", zap.Error(err))
	}

	// --- Record storage ---
	var redisClient redis.Cmdable
	if cfg.Storage.Driver == config.StorageDriverRedis {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			if rc, err = database.NewRedis(cfg.Database.Redis); err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		redisClient = rc.Client
		checks["redis"] = rc.Ping
		zapLog.Info("Redis connected successfully")
	}
	kv, err := store.NewKV(cfg.Storage, redisClient)
	if err != nil {
		zapLog.Fatal("storage init failed", zap.Error(err))
	}

	// --- Backends for submission and workers ---
	var pg *database.PostgresClient
	if cfg.Submission.Driver == config.SubmissionDriverPostgres ||
		(cfg.Submission.Driver == config.SubmissionDriverCamunda && config.IsWorkerEnabled(cfg, config.WorkerCreateApplicationRecord)) {
		err = retryWithBackoff(func() error {
			var err error
			if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema setup failed", zap.Error(err))
		}
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	var zeebe *camunda.Client
	if cfg.Submission.Driver == config.SubmissionDriverCamunda {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")
	}

	deps := submission.Deps{Postgres: pg}
	if zeebe != nil {
		deps.Camunda = zeebe
	}
	submitter, err := submission.New(cfg.Submission, deps, obs, log)
	if err != nil {
		zapLog.Fatal("submission gateway init failed", zap.Error(err))
	}
	suggestions := suggestion.NewClient(suggestion.ConfigFrom(cfg.APIs.GenAI), obs, log)
	if cfg.APIs.GenAI.APIKey == "" {
		zapLog.Info("No GenAI API key configured, writing help uses fallback text")
	}

	// --- Workflow workers ---
	var workers []worker.JobWorker
	if zeebe != nil {
		workers = startWorkers(ctx, cfg, zeebe, pg, obs, log, zapLog)
	}

	// --- Sessions and HTTP ---
	sessions := session.NewManager(session.Config{
		KV:            kv,
		KeyPrefix:     cfg.Storage.KeyPrefix,
		IdleTimeout:   config.GetDuration(cfg.Session.IdleTimeout),
		DefaultLocale: i18n.Parse(cfg.Locale.Default),
		Registry:      reg,
	}, suggestions, submitter, obs, log)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, config.GetDuration(cfg.Session.SweepInterval))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(api.NewHandler(sessions, reg, log), log, checks),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	stopSweep()
	for _, w := range workers {
		w.Close()
	}

	zapLog.Info("Intake server stopped gracefully")
}

func startWorkers(ctx context.Context, cfg *config.Config, zeebe *camunda.Client, pg *database.PostgresClient, obs *observability.Observability, log logger.Logger, zapLog *zap.Logger) []worker.JobWorker {
	var workers []worker.JobWorker
	add := func(w worker.JobWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}
	client := zeebe.GetClient()

	if pg != nil {
		wcfg := config.GetWorkerConfig(cfg, car.TaskType)
		add(camunda.StartWorker(client, car.TaskType, wcfg, car.NewHandler(car.LoadConfig(wcfg), pg, obs, log), log))
	}

	if config.IsWorkerEnabled(cfg, ia.TaskType) {
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			if es, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
				return err
			}
			return es.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		wcfg := config.GetWorkerConfig(cfg, ia.TaskType)
		add(camunda.StartWorker(client, ia.TaskType, wcfg, ia.NewHandler(ia.LoadConfig(wcfg, cfg.Database.Elasticsearch), es, obs, log), log))
	}

	if config.IsWorkerEnabled(cfg, sn.TaskType) {
		clients, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to load AWS clients", zap.Error(err))
		}
		wcfg := config.GetWorkerConfig(cfg, sn.TaskType)
		add(camunda.StartWorker(client, sn.TaskType, wcfg, sn.NewHandlerFromClients(sn.LoadConfig(wcfg, cfg.Notifications), clients, obs, log), log))
	}

	zapLog.Info("Workflow workers registered", zap.Int("count", len(workers)))
	return workers
}
