// Postflow Worker — выполняет PostWorkflow и его activities.
//
// Worker:
//   - Опрашивает очередь workflow и очереди провайдеров в Temporal
//   - Ходит в bridge-сервисы провайдеров
//   - Публикует уведомления и webhooks в RabbitMQ
//   - Дедуплицирует побочные эффекты через Redis
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"

	"github.com/shaiso/postflow/internal/activity"
	"github.com/shaiso/postflow/internal/config"
	"github.com/shaiso/postflow/internal/dedupe"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/provider"
	"github.com/shaiso/postflow/internal/repo"
	"github.com/shaiso/postflow/internal/telemetry"
	"github.com/shaiso/postflow/internal/worker"
)

func main() {
	config.LoadEnv(nil)

	// Инициализируем structured logging
	logger := telemetry.SetupLogger("postflow-worker")
	logger.Info("starting postflow-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, config.GetEnv("DB_URL", repo.DefaultDSN))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if config.GetEnvBool("DB_MIGRATE", false) {
		if err := repo.Migrate(ctx, pool); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// RabbitMQ: уведомления и webhooks без брокера не доставить
	mqConn, err := mq.NewConnection(config.GetEnv("RABBITMQ_URL", mq.DefaultURL()), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}
	publisher := mq.NewPublisher(mqConn, logger)

	// Redis: дедупликация побочных эффектов
	var deduper activity.Deduper
	if redisURL := config.GetEnv("REDIS_URL", ""); redisURL != "" {
		rdb, err := dedupe.NewClient(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		deduper = dedupe.New(dedupe.Config{Client: rdb})
		logger.Info("dedupe store enabled")
	} else {
		logger.Warn("REDIS_URL not set, side effects are not deduplicated")
	}

	// Провайдеры
	providers, err := provider.NewBridgeRegistry(
		config.GetEnvList("PROVIDERS", nil),
		config.GetEnv("PROVIDER_BRIDGE_URL", "http://localhost:3000"),
	)
	if err != nil {
		logger.Error("invalid PROVIDERS", "error", err)
		os.Exit(1)
	}
	logger.Info("providers registered", "providers", providers.Identifiers())

	acts, err := activity.New(activity.Config{
		Posts:        repo.NewPostRepo(pool),
		Integrations: repo.NewIntegrationRepo(pool),
		Plugs:        repo.NewPlugRepo(pool),
		Events:       publisher,
		Providers:    providers,
		Dedupe:       deduper,
	})
	if err != nil {
		logger.Error("failed to create activities", "error", err)
		os.Exit(1)
	}

	// Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  config.GetEnv("TEMPORAL_HOST", client.DefaultHostPort),
		Namespace: config.GetEnv("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    telemetry.TemporalLogger(logger),
	})
	if err != nil {
		logger.Error("failed to connect to Temporal", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	w, err := worker.New(worker.Config{
		Client:     tc,
		Activities: acts,
		TaskQueue:  config.GetEnv("TEMPORAL_TASK_QUEUE", "postflow"),
		Routes:     config.GetEnvList("TASK_ROUTES", providers.Identifiers()),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create worker", "error", err)
		os.Exit(1)
	}

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := config.Port("WORKER_PORT", "8082")
	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("postflow-worker stopped")
}
