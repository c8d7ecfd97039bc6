package publication

import (
	"time"

	"github.com/shaiso/postflow/internal/activity"
	"github.com/shaiso/postflow/internal/domain"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Имена сигналов и query.
const (
	SignalPoke    = "poke"
	QueryProgress = "progress"
)

// WorkflowIDPrefix — префикс идентификатора выполнения: post_<postID>.
const WorkflowIDPrefix = "post_"

// WorkflowID возвращает идентификатор выполнения для поста.
func WorkflowID(postID string) string {
	return WorkflowIDPrefix + postID
}

// Search attributes выполнений.
var (
	SearchAttrPostID         = temporal.NewSearchAttributeKeyKeyword("postId")
	SearchAttrOrganizationID = temporal.NewSearchAttributeKeyKeyword("organizationId")
)

// Параметры activities.
const (
	activityTimeout         = 10 * time.Minute
	activityMaxAttempts     = 3
	activityInitialInterval = 2 * time.Minute
)

// Phase — стадия выполнения.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseScheduled  Phase = "scheduled"
	PhasePublishing Phase = "publishing"
	PhasePlugs      Phase = "plugs"
	PhaseCompleted  Phase = "completed"
	PhaseSkipped    Phase = "skipped"
	PhaseAborted    Phase = "aborted"
)

// Progress — ответ на query "progress".
type Progress struct {
	Phase Phase `json:"phase"`

	// Published — результаты опубликованных записей в порядке списка.
	Published []domain.PublishResult `json:"published"`

	// Poked — получен сигнал poke.
	Poked bool `json:"poked"`

	// PendingPlugs — задачи, оставшиеся в очереди plug-ов.
	PendingPlugs int `json:"pending_plugs"`
}

// acts — ссылки на activities; имя activity берётся из имени метода.
var acts *activity.Activities

// activityOptions — общие параметры activities. taskQueue пуст для очереди workflow.
func activityOptions(taskQueue string) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		TaskQueue:           taskQueue,
		StartToCloseTimeout: activityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    activityInitialInterval,
			BackoffCoefficient: 1,
			MaximumAttempts:    activityMaxAttempts,
			NonRetryableErrorTypes: []string{
				activity.ErrTypeRefreshToken,
				activity.ErrTypeBadBody,
			},
		},
	}
}

// publication — состояние одного выполнения.
type publication struct {
	req       domain.PublicationRequest
	startedAt time.Time

	// store — activities хранилища и событий (очередь workflow).
	store workflow.Context

	// social — activities провайдера (очередь TaskRoute).
	social workflow.Context

	posts []domain.PostItem

	// integration — собственная копия интеграции; меняется только Token.
	integration domain.Integration

	progress Progress
}

// PostWorkflow публикует пост и его комментарии, затем выполняет plug-и.
//
// Ранний выход (пост удалён, не в QUEUE, интеграция недоступна, отказ
// публикации) завершает workflow без ошибки. Ошибка возвращается только
// если не удалась служебная activity.
func PostWorkflow(ctx workflow.Context, req domain.PublicationRequest) error {
	p := &publication{
		req:       req,
		startedAt: workflow.Now(ctx),
		store:     workflow.WithActivityOptions(ctx, activityOptions("")),
		social:    workflow.WithActivityOptions(ctx, activityOptions(req.TaskRoute)),
		progress:  Progress{Phase: PhaseLoading},
	}

	if err := p.registerHandlers(ctx); err != nil {
		return err
	}

	logger := workflow.GetLogger(ctx)
	logger.Info("post workflow started",
		"post_id", req.PostID,
		"organization_id", req.OrganizationID,
		"task_route", req.TaskRoute,
		"immediate", req.PublishImmediately,
	)

	err := p.run(ctx)
	if err != nil {
		logger.Error("post workflow failed", "post_id", req.PostID, "error", err)
		return err
	}

	logger.Info("post workflow finished", "post_id", req.PostID, "phase", p.progress.Phase)
	return nil
}

// registerHandlers регистрирует сигнал poke и query progress.
func (p *publication) registerHandlers(ctx workflow.Context) error {
	if err := workflow.SetQueryHandler(ctx, QueryProgress, func() (Progress, error) {
		return p.progress, nil
	}); err != nil {
		return err
	}

	// Poke только запоминается.
	poke := workflow.GetSignalChannel(ctx, SignalPoke)
	workflow.Go(ctx, func(ctx workflow.Context) {
		for {
			var signal any
			poke.Receive(ctx, &signal)
			p.progress.Poked = true
		}
	})
	return nil
}

func (p *publication) run(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)

	if err := workflow.ExecuteActivity(p.store, acts.GetPostsList, p.req.OrganizationID, p.req.PostID).Get(ctx, &p.posts); err != nil {
		return err
	}

	if len(p.posts) == 0 {
		logger.Info("post not found", "post_id", p.req.PostID)
		p.progress.Phase = PhaseSkipped
		return nil
	}

	main := p.posts[0]
	if !p.req.PublishImmediately && main.State.IsTerminal() {
		logger.Info("post is not queued", "post_id", p.req.PostID, "state", main.State)
		p.progress.Phase = PhaseSkipped
		return nil
	}

	if !p.req.PublishImmediately {
		p.progress.Phase = PhaseScheduled
		if err := sleep(ctx, main.UntilPublish(workflow.Now(ctx))); err != nil {
			return err
		}
	}

	p.integration = main.Integration

	if !p.integration.CanPublish() {
		p.progress.Phase = PhaseSkipped
		if p.integration.RefreshNeeded {
			return p.notify(ctx, reconnectNotification(main.OrganizationID, p.integration))
		}
		return p.notify(ctx, disabledNotification(main.OrganizationID, p.integration))
	}

	commentable := false
	if len(p.posts) > 1 {
		if err := workflow.ExecuteActivity(p.store, acts.IsCommentable, p.integration).Get(ctx, &commentable); err != nil {
			return err
		}
	}

	p.progress.Phase = PhasePublishing
	anchor, ok, err := p.publishAll(ctx, commentable)
	if err != nil {
		return err
	}
	if !ok {
		p.progress.Phase = PhaseAborted
		return nil
	}

	if err := workflow.ExecuteActivity(p.store, acts.SendWebhooks, anchor.ExternalID, main.OrganizationID, p.integration.ID).Get(ctx, nil); err != nil {
		return err
	}

	p.progress.Phase = PhasePlugs
	if err := p.runPlugs(ctx, main, anchor.ExternalID); err != nil {
		return err
	}

	p.progress.Phase = PhaseCompleted
	return nil
}

func (p *publication) notify(ctx workflow.Context, n domain.Notification) error {
	return workflow.ExecuteActivity(p.store, acts.InAppNotification, n).Get(ctx, nil)
}

// sleep — durable sleep; неположительная длительность не создаёт таймер.
func sleep(ctx workflow.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return workflow.Sleep(ctx, d)
}
