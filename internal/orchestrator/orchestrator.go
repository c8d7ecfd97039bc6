package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.temporal.io/api/operatorservice/v1"

	"github.com/shaiso/postflow/internal/mq"
)

// Default configuration values.
const (
	defaultPrefetch  = 10
	defaultNamespace = "default"
)

// Orchestrator превращает сообщения post.due в выполнения PostWorkflow.
//
// Orchestrator:
//   - Регистрирует search attributes при старте
//   - Потребляет очередь posts.due
//   - Запускает выполнения через Starter
type Orchestrator struct {
	conn     *mq.Connection
	starter  *Starter
	operator operatorservice.OperatorServiceClient

	consumer *mq.Consumer

	namespace string
	prefetch  int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// MQ
	Conn *mq.Connection

	// Starter — запуск выполнений в Temporal.
	Starter *Starter

	// Operator — operator service Temporal для search attributes.
	// nil отключает регистрацию.
	Operator  operatorservice.OperatorServiceClient
	Namespace string // default: "default"

	Prefetch int // default: 10

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		conn:      cfg.Conn,
		starter:   cfg.Starter,
		operator:  cfg.Operator,
		namespace: namespace,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает Orchestrator.
//
// Ошибка регистрации search attributes не мешает старту.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"namespace", o.namespace,
		"prefetch", o.prefetch,
	)

	if o.operator != nil {
		if _, err := RegisterSearchAttributes(ctx, o.operator, o.namespace, o.logger); err != nil {
			o.logger.Warn("search attributes not registered", "namespace", o.namespace, "error", err)
		}
	}

	o.consumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
		Queue:    mq.QueuePostsDue,
		Handler:  o.handlePostDue,
		Prefetch: o.prefetch,
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("post.due consumer error", "error", err)
		}
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}
	if o.consumer != nil {
		o.consumer.Stop()
	}

	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}
