package api

import (
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/publication"
)

// Post DTOs

// PublishPostRequest — запрос на публикацию.
// Без тела публикация немедленная.
type PublishPostRequest struct {
	Immediate *bool `json:"immediate,omitempty"`
}

// IsImmediate возвращает режим публикации (по умолчанию true).
func (r PublishPostRequest) IsImmediate() bool {
	return r.Immediate == nil || *r.Immediate
}

// PostResponse — ответ с постом и состоянием его выполнения.
type PostResponse struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	IntegrationID  string           `json:"integration_id"`
	Provider       string           `json:"provider"`
	State          domain.PostState `json:"state"`
	PublishDate    time.Time        `json:"publish_date"`
	IntervalInDays int              `json:"interval_in_days,omitempty"`
	ReleaseID      string           `json:"release_id,omitempty"`
	ReleaseURL     string           `json:"release_url,omitempty"`
	Error          string           `json:"error,omitempty"`

	// Workflow — состояние выполнения; нет, если выполнение не найдено.
	Workflow *publication.Progress `json:"workflow,omitempty"`
}

// PostFromDomain конвертирует domain.PostItem в PostResponse.
func PostFromDomain(p domain.PostItem) PostResponse {
	return PostResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		IntegrationID:  p.Integration.ID,
		Provider:       p.Integration.ProviderIdentifier,
		State:          p.State,
		PublishDate:    p.PublishDate,
		IntervalInDays: p.IntervalInDays,
		ReleaseID:      p.ReleaseID,
		ReleaseURL:     p.ReleaseURL,
		Error:          p.Error,
	}
}

// ExecutionResponse — ответ о запуске выполнения.
type ExecutionResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Immediate  bool   `json:"immediate"`
}

// ExecutionFromStarter конвертирует orchestrator.Execution в ExecutionResponse.
func ExecutionFromStarter(e orchestrator.Execution, immediate bool) ExecutionResponse {
	return ExecutionResponse{
		WorkflowID: e.WorkflowID,
		RunID:      e.RunID,
		Immediate:  immediate,
	}
}
