// Postflow Orchestrator — запускает выполнения PostWorkflow
// по сообщениям post.due.
//
// Orchestrator:
//   - Регистрирует search attributes в namespace Temporal
//   - Потребляет очередь posts.due
//   - Запускает выполнения (одно на пост)
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
	"github.com/shaiso/postflow/internal/telemetry"
)

func main() {
	config.LoadEnv(nil)

	logger := telemetry.SetupLogger("postflow-orchestrator")
	logger.Info("starting postflow-orchestrator")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RabbitMQ
	mqConn, err := mq.NewConnection(config.GetEnv("RABBITMQ_URL", mq.DefaultURL()), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Temporal
	namespace := config.GetEnv("TEMPORAL_NAMESPACE", client.DefaultNamespace)
	tc, err := client.Dial(client.Options{
		HostPort:  config.GetEnv("TEMPORAL_HOST", client.DefaultHostPort),
		Namespace: namespace,
		Logger:    telemetry.TemporalLogger(logger),
	})
	if err != nil {
		logger.Error("failed to connect to Temporal", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	starter := orchestrator.NewStarter(orchestrator.StarterConfig{
		Client:    tc,
		TaskQueue: config.GetEnv("TEMPORAL_TASK_QUEUE", "postflow"),
		Logger:    logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		Conn:      mqConn,
		Starter:   starter,
		Operator:  tc.OperatorService(),
		Namespace: namespace,
		Logger:    logger,
	})

	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := config.Port("ORCH_PORT", "8081")
	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	orch.Stop()
	logger.Info("postflow-orchestrator stopped")
}
