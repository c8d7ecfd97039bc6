package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/publication"
	"github.com/shaiso/postflow/internal/telemetry"
)

// Источники запуска для метрики workflows_started_total.
const (
	SourceScheduler = "scheduler"
	SourceAPI       = "api"
)

// WorkflowClient — часть client.Client, нужная Starter.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg interface{}) error
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Execution — запущенное выполнение.
type Execution struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// Starter запускает выполнения PostWorkflow и обращается к ним.
type Starter struct {
	client    WorkflowClient
	taskQueue string
	logger    *slog.Logger
}

// StarterConfig — конфигурация Starter.
type StarterConfig struct {
	Client WorkflowClient

	// TaskQueue — очередь, на которой зарегистрирован PostWorkflow.
	TaskQueue string

	Logger *slog.Logger
}

// NewStarter создаёт Starter.
func NewStarter(cfg StarterConfig) *Starter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Starter{
		client:    cfg.Client,
		taskQueue: cfg.TaskQueue,
		logger:    logger,
	}
}

// Start запускает выполнение для поста.
//
// Плановый запуск присоединяется к уже идущему выполнению post_<postID>.
// Немедленный запуск завершает текущее выполнение и начинает новое.
func (s *Starter) Start(ctx context.Context, req domain.PublicationRequest, source string) (Execution, error) {
	if req.PostID == "" || req.OrganizationID == "" || req.TaskRoute == "" {
		return Execution{}, ErrInvalidRequest
	}

	conflict := enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING
	if req.PublishImmediately {
		conflict = enumspb.WORKFLOW_ID_CONFLICT_POLICY_TERMINATE_EXISTING
	}

	options := client.StartWorkflowOptions{
		ID:                       publication.WorkflowID(req.PostID),
		TaskQueue:                s.taskQueue,
		WorkflowIDConflictPolicy: conflict,
		TypedSearchAttributes: temporal.NewSearchAttributes(
			publication.SearchAttrPostID.ValueSet(req.PostID),
			publication.SearchAttrOrganizationID.ValueSet(req.OrganizationID),
		),
	}

	run, err := s.client.ExecuteWorkflow(ctx, options, publication.PostWorkflow, req)
	if err != nil {
		return Execution{}, fmt.Errorf("start workflow %s: %w", options.ID, err)
	}

	telemetry.WorkflowsStarted.WithLabelValues(source).Inc()

	exec := Execution{WorkflowID: run.GetID(), RunID: run.GetRunID()}
	telemetry.WithWorkflowID(telemetry.WithPostID(s.logger, req.PostID), exec.WorkflowID).Info("post workflow started",
		"run_id", exec.RunID,
		"source", source,
		"immediate", req.PublishImmediately,
	)
	return exec, nil
}

// Poke отправляет сигнал poke выполнению поста.
func (s *Starter) Poke(ctx context.Context, postID string) error {
	workflowID := publication.WorkflowID(postID)
	if err := s.client.SignalWorkflow(ctx, workflowID, "", publication.SignalPoke, nil); err != nil {
		return mapNotFound(workflowID, err)
	}
	return nil
}

// Progress возвращает состояние выполнения поста через query progress.
func (s *Starter) Progress(ctx context.Context, postID string) (publication.Progress, error) {
	workflowID := publication.WorkflowID(postID)

	value, err := s.client.QueryWorkflow(ctx, workflowID, "", publication.QueryProgress)
	if err != nil {
		return publication.Progress{}, mapNotFound(workflowID, err)
	}

	var progress publication.Progress
	if err := value.Get(&progress); err != nil {
		return publication.Progress{}, fmt.Errorf("decode progress: %w", err)
	}
	return progress, nil
}

func mapNotFound(workflowID string, err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, workflowID)
	}
	return fmt.Errorf("workflow %s: %w", workflowID, err)
}
