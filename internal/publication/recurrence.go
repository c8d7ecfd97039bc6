package publication

import (
	"math/rand/v2"

	"github.com/shaiso/postflow/internal/domain"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	repeatSuffixLen = 10
	idAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// spawnRepeat запускает независимое выполнение для повторной публикации.
//
// Дочерний workflow получает новый id post_<postID>_<suffix>, публикует сразу
// и не зависит от родителя (ABANDON). Родитель ждёт только старта.
func (p *publication) spawnRepeat(ctx workflow.Context) error {
	var suffix string
	if err := workflow.SideEffect(ctx, func(workflow.Context) any {
		return randomID(repeatSuffixLen)
	}).Get(&suffix); err != nil {
		return err
	}

	childID := WorkflowID(p.req.PostID) + "_" + suffix
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        childID,
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
		TypedSearchAttributes: temporal.NewSearchAttributes(
			SearchAttrPostID.ValueSet(p.req.PostID),
			SearchAttrOrganizationID.ValueSet(p.req.OrganizationID),
		),
	})

	childReq := domain.PublicationRequest{
		TaskRoute:          p.req.TaskRoute,
		PostID:             p.req.PostID,
		OrganizationID:     p.req.OrganizationID,
		PublishImmediately: true,
	}

	var execution workflow.Execution
	if err := workflow.ExecuteChildWorkflow(childCtx, PostWorkflow, childReq).GetChildWorkflowExecution().Get(ctx, &execution); err != nil {
		workflow.GetLogger(ctx).Error("repeat post not started", "post_id", p.req.PostID, "child_id", childID, "error", err)
		return nil
	}

	workflow.GetLogger(ctx).Info("repeat post started",
		"post_id", p.req.PostID,
		"child_id", execution.ID,
		"child_run_id", execution.RunID,
	)
	return nil
}

// randomID возвращает случайную строку из букв и цифр.
func randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}
