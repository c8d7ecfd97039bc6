// Postflow API — HTTP API для просмотра и запуска публикаций.
//
// Маршруты:
//
//	GET  /api/v1/posts/{id}          пост и прогресс выполнения
//	POST /api/v1/posts/{id}/publish  запуск публикации
//	POST /api/v1/posts/{id}/poke     сигнал poke выполнению
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"

	"github.com/shaiso/postflow/internal/api"
	"github.com/shaiso/postflow/internal/config"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/repo"
	"github.com/shaiso/postflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	config.LoadEnv(nil)

	// Инициализируем structured logging
	logger := telemetry.SetupLogger("postflow-api")
	logger.Info("starting postflow-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), config.GetEnv("DB_URL", repo.DefaultDSN))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if config.GetEnvBool("DB_MIGRATE", false) {
		if err := repo.Migrate(context.Background(), pool); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
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

	handler := api.NewHandler(api.Config{
		Posts: repo.NewPostRepo(pool),
		Starter: orchestrator.NewStarter(orchestrator.StarterConfig{
			Client:    tc,
			TaskQueue: config.GetEnv("TEMPORAL_TASK_QUEUE", "postflow"),
			Logger:    logger,
		}),
		Logger: logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := config.Port("API_PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
