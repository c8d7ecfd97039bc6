// Postflow Scheduler — передаёт посты, подошедшие к дате публикации,
// в Orchestrator.
//
// Scheduler:
//   - Тикает по cron-расписанию (SCHED_TICK)
//   - Работает только как лидер (pg advisory lock)
//   - Публикует post.due в RabbitMQ, а без брокера запускает выполнения сам
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"

	"github.com/shaiso/postflow/internal/config"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/repo"
	"github.com/shaiso/postflow/internal/scheduler"
	"github.com/shaiso/postflow/internal/telemetry"
)

func main() {
	config.LoadEnv(nil)

	logger := telemetry.SetupLogger("postflow-scheduler")
	logger.Info("starting postflow-scheduler")

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

	cfg := scheduler.Config{
		Posts:     repo.NewPostRepo(pool),
		Lookahead: config.GetEnvDuration("SCHED_LOOKAHEAD", 0),
		Logger:    logger,
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(config.GetEnv("RABBITMQ_URL", mq.DefaultURL()), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, starting workflows directly", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		cfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	// Temporal — запасной путь запуска
	tc, err := client.Dial(client.Options{
		HostPort:  config.GetEnv("TEMPORAL_HOST", client.DefaultHostPort),
		Namespace: config.GetEnv("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    telemetry.TemporalLogger(logger),
	})
	if err != nil {
		logger.Warn("Temporal not available, direct start disabled", "error", err)
	} else {
		defer tc.Close()
		cfg.Starter = orchestrator.NewStarter(orchestrator.StarterConfig{
			Client:    tc,
			TaskQueue: config.GetEnv("TEMPORAL_TASK_QUEUE", "postflow"),
			Logger:    logger,
		})
	}

	if cfg.Publisher == nil && cfg.Starter == nil {
		logger.Error("neither RabbitMQ nor Temporal is available")
		os.Exit(1)
	}

	leader := scheduler.NewPGLeader(pool, int64(config.GetEnvInt("SCHED_LOCK_KEY", int(scheduler.DefaultLockKey))))

	runner, err := scheduler.NewRunner(scheduler.RunnerConfig{
		Scheduler: scheduler.New(cfg),
		Leader:    leader,
		Spec:      config.GetEnv("SCHED_TICK", scheduler.DefaultTickSpec),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("invalid SCHED_TICK", "error", err)
		os.Exit(1)
	}

	if err := runner.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := config.Port("SCHED_PORT", "8083")
	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	runner.Stop()
	logger.Info("postflow-scheduler stopped")
}
