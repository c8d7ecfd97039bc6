package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики сервисов. Регистрируются в prometheus.DefaultRegisterer
// и отдаются на /metrics через promhttp.Handler().
var (
	// PostsPublished — успешные публикации по провайдеру.
	PostsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "posts_published_total",
		Help:      "Posts and comments published to a provider.",
	}, []string{"provider"})

	// PublishFailures — ошибки публикации по провайдеру и классу ошибки.
	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "publish_failures_total",
		Help:      "Failed publish attempts by provider and failure kind.",
	}, []string{"provider", "kind"})

	// TokenRefreshes — попытки обновления токена.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "token_refresh_total",
		Help:      "Token refresh attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// PlugRuns — выполненные plug-и.
	PlugRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "plug_runs_total",
		Help:      "Plug executions by kind and outcome.",
	}, []string{"kind", "outcome"})

	// WorkflowsStarted — запущенные выполнения workflow по источнику.
	WorkflowsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "workflows_started_total",
		Help:      "Post workflows started by source (scheduler, api).",
	}, []string{"source"})

	// SchedulerDispatched — посты, переданные планировщиком на публикацию.
	SchedulerDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "scheduler_dispatched_total",
		Help:      "Due posts dispatched by the scheduler.",
	})

	// MessagesConsumed — обработанные сообщения брокера по очереди и исходу.
	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "mq_messages_consumed_total",
		Help:      "Broker messages consumed by queue and outcome (ack, requeue, dead_letter).",
	}, []string{"queue", "outcome"})

	// Notifications — отправленные запросы in-app уведомлений.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postflow",
		Name:      "notifications_total",
		Help:      "In-app notification requests by severity.",
	}, []string{"severity"})
)

// Значения label outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)
