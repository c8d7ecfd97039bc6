package publication

import (
	"sort"
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"go.temporal.io/sdk/workflow"
)

// runPlugs строит очередь plug-ов и выполняет её по возрастанию задержки.
//
// Ошибки plug-ов не меняют состояние поста и не останавливают очередь.
func (p *publication) runPlugs(ctx workflow.Context, main domain.PostItem, anchorID string) error {
	var internal []domain.PlugTask
	if err := workflow.ExecuteActivity(p.social, acts.InternalPlugs, p.integration, main.Settings).Get(ctx, &internal); err != nil {
		return err
	}

	var global []domain.GlobalPlug
	if err := workflow.ExecuteActivity(p.social, acts.GlobalPlugs, p.integration).Get(ctx, &global); err != nil {
		return err
	}

	var repeat []domain.PlugTask
	if main.IsRecurring() {
		elapsed := workflow.Now(ctx).Sub(p.startedAt)
		repeat = append(repeat, domain.NewRepeatPost(repeatDelay(main.IntervalInDays, elapsed)))
	}

	queue := buildPlugQueue(internal, global, repeat)
	p.progress.PendingPlugs = len(queue)

	logger := workflow.GetLogger(ctx)
	logger.Info("plug queue built", "post_id", p.req.PostID, "tasks", len(queue))

	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]
		p.progress.PendingPlugs = len(queue)

		// Каждая задача ждёт собственную задержку.
		if err := sleep(ctx, task.Delay()); err != nil {
			return err
		}

		switch task.Kind {
		case domain.PlugKindInternal:
			if err := p.processInternalPlug(ctx, task, anchorID); err != nil {
				return err
			}

		case domain.PlugKindGlobal:
			satisfied, err := p.processGlobalPlug(ctx, task, anchorID)
			if err != nil {
				return err
			}
			if satisfied {
				queue = dropPlug(queue, task.PlugID)
				p.progress.PendingPlugs = len(queue)
			}

		case domain.PlugKindRepeat:
			if err := p.spawnRepeat(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// processInternalPlug выполняет internal plug. Refresh токена делается
// для интеграции самого plug-а.
func (p *publication) processInternalPlug(ctx workflow.Context, task domain.PlugTask, anchorID string) error {
	step := func(int) error {
		return workflow.ExecuteActivity(p.social, acts.ProcessInternalPlug, task, anchorID).Get(ctx, nil)
	}

	onFailure := func(attempt int, f Failure) (verdict, error) {
		p.logPlugFailure(ctx, task, attempt, f)

		switch f.(type) {
		case RefreshTokenNeeded:
			var integ domain.Integration
			if err := workflow.ExecuteActivity(p.social, acts.GetIntegrationByID, p.req.OrganizationID, task.IntegrationID).Get(ctx, &integ); err != nil {
				workflow.GetLogger(ctx).Warn("plug integration not loaded", "plug", task.String(), "error", err)
				return abortStep, nil
			}
			if p.refreshToken(ctx, integ).IsEmpty() {
				return abortStep, nil
			}
			return retryAttempt, nil
		case BadBody:
			return abortStep, nil
		default:
			return retryAttempt, nil
		}
	}

	outcome, err := retryStep(publishAttempts, step, onFailure)
	p.logPlugOutcome(ctx, task, outcome)
	return err
}

// processGlobalPlug выполняет global plug. Refresh токена делается
// для интеграции поста.
func (p *publication) processGlobalPlug(ctx workflow.Context, task domain.PlugTask, anchorID string) (bool, error) {
	var satisfied bool

	step := func(int) error {
		return workflow.ExecuteActivity(p.social, acts.ProcessPlug, task, anchorID).Get(ctx, &satisfied)
	}

	onFailure := func(attempt int, f Failure) (verdict, error) {
		p.logPlugFailure(ctx, task, attempt, f)

		switch f.(type) {
		case RefreshTokenNeeded:
			token := p.refreshToken(ctx, p.integration)
			if token.IsEmpty() {
				return abortStep, nil
			}
			p.integration.Token = token.AccessToken
			return retryAttempt, nil
		case BadBody:
			return abortStep, nil
		default:
			return retryAttempt, nil
		}
	}

	outcome, err := retryStep(publishAttempts, step, onFailure)
	p.logPlugOutcome(ctx, task, outcome)
	return outcome == stepDone && satisfied, err
}

func (p *publication) logPlugFailure(ctx workflow.Context, task domain.PlugTask, attempt int, f Failure) {
	workflow.GetLogger(ctx).Warn("plug attempt failed",
		"post_id", p.req.PostID,
		"plug", task.String(),
		"attempt", attemptLabel(attempt),
		"kind", failureKind(f),
		"error", f.Error(),
	)
}

func (p *publication) logPlugOutcome(ctx workflow.Context, task domain.PlugTask, outcome stepOutcome) {
	if outcome == stepDone {
		return
	}
	workflow.GetLogger(ctx).Info("plug given up", "post_id", p.req.PostID, "plug", task.String(), "outcome", outcome.String())
}

// buildPlugQueue объединяет internal plug-и, развёрнутые global plug-и
// и повтор поста и сортирует их по задержке. Порядок равных задержек сохраняется.
func buildPlugQueue(internal []domain.PlugTask, global []domain.GlobalPlug, repeat []domain.PlugTask) []domain.PlugTask {
	queue := make([]domain.PlugTask, 0, len(internal)+len(global)+len(repeat))
	queue = append(queue, internal...)
	for _, g := range global {
		queue = append(queue, g.Expand()...)
	}
	queue = append(queue, repeat...)

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].DelayMs < queue[j].DelayMs
	})
	return queue
}

// dropPlug удаляет из очереди все срабатывания global plug plugID.
func dropPlug(queue []domain.PlugTask, plugID string) []domain.PlugTask {
	kept := queue[:0]
	for _, t := range queue {
		if t.Kind == domain.PlugKindGlobal && t.PlugID == plugID {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// repeatDelay — задержка повторной публикации: интервал минус время,
// прошедшее с начала выполнения. Не бывает отрицательной.
func repeatDelay(intervalDays int, elapsed time.Duration) time.Duration {
	d := time.Duration(intervalDays)*24*time.Hour - elapsed
	if d < 0 {
		return 0
	}
	return d
}
