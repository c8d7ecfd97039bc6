package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/shaiso/postflow/internal/activity"
	"github.com/shaiso/postflow/internal/publication"
)

// Default configuration values.
const (
	defaultActivityConcurrency = 20
)

// queueWorker — часть sdkworker.Worker, которой пользуется Worker.
type queueWorker interface {
	RegisterWorkflow(w interface{})
	RegisterActivity(a interface{})
	Start() error
	Stop()
}

// workerFactory создаёт воркер для очереди.
type workerFactory func(queue string, opts sdkworker.Options) queueWorker

// Worker управляет Temporal-воркерами всех очередей.
type Worker struct {
	activities *activity.Activities
	taskQueue  string
	routes     []string
	options    sdkworker.Options
	factory    workerFactory

	workers []queueWorker

	// Lifecycle
	logger    *slog.Logger
	stopped   bool
	stoppedMu sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Client — подключение к Temporal.
	Client client.Client

	// Activities — реализация activities.
	Activities *activity.Activities

	// TaskQueue — очередь workflow (обязательна).
	TaskQueue string

	// Routes — очереди провайдеров; совпадающие с TaskQueue пропускаются.
	Routes []string

	// ActivityConcurrency — лимит одновременных activities на очередь (default: 20).
	ActivityConcurrency int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) (*Worker, error) {
	if cfg.TaskQueue == "" {
		return nil, ErrNoTaskQueue
	}

	concurrency := cfg.ActivityConcurrency
	if concurrency <= 0 {
		concurrency = defaultActivityConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := cfg.Client
	return &Worker{
		activities: cfg.Activities,
		taskQueue:  cfg.TaskQueue,
		routes:     cfg.Routes,
		options: sdkworker.Options{
			MaxConcurrentActivityExecutionSize: concurrency,
		},
		factory: func(queue string, opts sdkworker.Options) queueWorker {
			return sdkworker.New(c, queue, opts)
		},
		logger: logger,
	}, nil
}

// Queues возвращает очереди воркера: сначала очередь workflow, затем маршруты
// провайдеров без повторов.
func (w *Worker) Queues() []string {
	seen := map[string]bool{w.taskQueue: true}
	queues := []string{w.taskQueue}
	for _, route := range w.routes {
		if route == "" || seen[route] {
			continue
		}
		seen[route] = true
		queues = append(queues, route)
	}
	return queues
}

// Start регистрирует workflow и activities и запускает воркеры.
// При ошибке уже запущенные воркеры останавливаются.
func (w *Worker) Start(ctx context.Context) error {
	if w.IsStopped() {
		return ErrWorkerStopped
	}

	queues := w.Queues()
	w.logger.Info("starting worker",
		"task_queue", w.taskQueue,
		"queues", queues,
		"activity_concurrency", w.options.MaxConcurrentActivityExecutionSize,
	)

	for _, queue := range queues {
		if err := ctx.Err(); err != nil {
			w.stopWorkers()
			return err
		}

		qw := w.factory(queue, w.options)
		if queue == w.taskQueue {
			qw.RegisterWorkflow(publication.PostWorkflow)
		}
		qw.RegisterActivity(w.activities)

		if err := qw.Start(); err != nil {
			w.stopWorkers()
			return fmt.Errorf("start worker for queue %s: %w", queue, err)
		}
		w.workers = append(w.workers, qw)

		w.logger.Debug("queue worker started", "queue", queue)
	}

	w.logger.Info("worker started", "workers", len(w.workers))
	return nil
}

// Stop останавливает все воркеры.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")
	w.stopWorkers()
	w.logger.Info("worker stopped")
}

func (w *Worker) stopWorkers() {
	for _, qw := range w.workers {
		qw.Stop()
	}
	w.workers = nil
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
