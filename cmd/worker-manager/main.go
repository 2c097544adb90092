// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"immigration-workers/internal/common/aws"
	"immigration-workers/internal/common/config"
	"immigration-workers/internal/common/database"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/observability"
	"immigration-workers/pkg/registry"

	// Evaluation Workers (4)
	cdc "immigration-workers/internal/workers/evaluation/check-document-completeness"
	per "immigration-workers/internal/workers/evaluation/persist-evaluation-record"
	se "immigration-workers/internal/workers/evaluation/score-eligibility"
	ve "immigration-workers/internal/workers/evaluation/validate-eligibility"

	// Matching Worker (1)
	mr "immigration-workers/internal/workers/matching/match-representative"

	// Notification Worker (1)
	ned "immigration-workers/internal/workers/notification/notify-expiring-documents"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Visa Schema Registry ---
	visaRegistry, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("visa registry load failed", zap.Error(err), zap.String("path", cfg.Registry.Path))
	}
	zapLog.Info("Visa registry loaded",
		zap.String("schemaVersion", visaRegistry.Snapshot().Version),
		zap.Int("schemas", visaRegistry.Snapshot().Len()),
	)

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
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
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS Notification Clients ---
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.EmailEnabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	if cfg.Notifications.SMSEnabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}
	zapLog.Info("All external service clients initialized")

	// --- START: Register ALL 6 Workers ---

	// --- 1. Evaluation Workers (4) ---
	if cfg.Workers[ve.TaskType].Enabled {
		handler := ve.NewHandler(
			&ve.Config{
				Timeout: time.Duration(cfg.Workers[ve.TaskType].Timeout) * time.Millisecond,
			},
			visaRegistry, log,
		)
		startWorker(zeebeClient, ve.TaskType, cfg.Workers[ve.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[se.TaskType].Enabled {
		handler := se.NewHandler(
			&se.Config{
				Timeout: time.Duration(cfg.Workers[se.TaskType].Timeout) * time.Millisecond,
			},
			visaRegistry, log,
		)
		startWorker(zeebeClient, se.TaskType, cfg.Workers[se.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cdc.TaskType].Enabled {
		handler := cdc.NewHandler(
			&cdc.Config{
				Timeout: time.Duration(cfg.Workers[cdc.TaskType].Timeout) * time.Millisecond,
			},
			visaRegistry, log,
		)
		startWorker(zeebeClient, cdc.TaskType, cfg.Workers[cdc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[per.TaskType].Enabled {
		handler := per.NewHandler(
			&per.Config{
				Timeout: time.Duration(cfg.Workers[per.TaskType].Timeout) * time.Millisecond,
			},
			per.NewStore(pg.DB), log,
		)
		startWorker(zeebeClient, per.TaskType, cfg.Workers[per.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Matching Worker (1) ---
	if cfg.Workers[mr.TaskType].Enabled {
		mrConfig := mr.LoadConfig()
		mrConfig.Timeout = time.Duration(cfg.Workers[mr.TaskType].Timeout) * time.Millisecond
		mrConfig.DirectoryIndex = cfg.Database.Elasticsearch.RepresentativeIndex

		directory := mr.NewDirectory(mrConfig, esClient, redis, log)
		handler := mr.NewHandler(mrConfig, directory, log)
		startWorker(zeebeClient, mr.TaskType, cfg.Workers[mr.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Notification Worker (1) ---
	if cfg.Workers[ned.TaskType].Enabled {
		handler := ned.NewHandler(
			ned.LoadConfig(cfg.Notifications),
			sesClient, snsClient, log,
		)
		startWorker(zeebeClient, ned.TaskType, cfg.Workers[ned.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 6 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status":        "ready",
				"schemaVersion": visaRegistry.Snapshot().Version,
				"time":          time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
