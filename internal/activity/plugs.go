package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/provider"
	"github.com/shaiso/postflow/internal/telemetry"
	"go.temporal.io/sdk/activity"
)

// internalPlugSettings — часть настроек поста с internal plug-ами.
type internalPlugSettings struct {
	Plugs []domain.InternalPlugSetting `json:"plugs"`
}

// InternalPlugs возвращает internal plug-и из настроек поста,
// которые поддерживает провайдер интеграции.
func (a *Activities) InternalPlugs(ctx context.Context, integ domain.Integration, settings string) ([]domain.PlugTask, error) {
	if settings == "" {
		return nil, nil
	}

	var parsed internalPlugSettings
	if err := json.Unmarshal([]byte(settings), &parsed); err != nil {
		// Битые настройки не должны ломать публикацию.
		activity.GetLogger(ctx).Warn("invalid post settings", "integration_id", integ.ID, "error", err)
		return nil, nil
	}

	p, err := a.providerFor(integ)
	if err != nil {
		return nil, err
	}

	var tasks []domain.PlugTask
	for _, s := range parsed.Plugs {
		if s.Integration == "" || !p.SupportsInternalPlug(s.Function) {
			continue
		}
		tasks = append(tasks, domain.NewInternalPlug(s.Integration, s.Function, s.Delay, s.Data))
	}
	return tasks, nil
}

// GlobalPlugs возвращает активные global plug-и интеграции.
func (a *Activities) GlobalPlugs(ctx context.Context, integ domain.Integration) ([]domain.GlobalPlug, error) {
	plugs, err := a.plugs.ListActive(ctx, integ.ID)
	if err != nil {
		return nil, fmt.Errorf("list global plugs: %w", err)
	}
	return plugs, nil
}

// ProcessInternalPlug выполняет internal plug от имени task.IntegrationID.
func (a *Activities) ProcessInternalPlug(ctx context.Context, task domain.PlugTask, anchorID string) error {
	integ, p, err := a.plugTarget(ctx, task)
	if err != nil {
		return err
	}

	if err := p.RunInternalPlug(ctx, integ, task, anchorID); err != nil {
		telemetry.PlugRuns.WithLabelValues(string(task.Kind), telemetry.OutcomeFailure).Inc()
		return providerFailure(err)
	}

	telemetry.PlugRuns.WithLabelValues(string(task.Kind), telemetry.OutcomeSuccess).Inc()
	return nil
}

// ProcessPlug выполняет global plug. true — условие plug выполнено.
func (a *Activities) ProcessPlug(ctx context.Context, task domain.PlugTask, anchorID string) (bool, error) {
	integ, p, err := a.plugTarget(ctx, task)
	if err != nil {
		return false, err
	}

	satisfied, err := p.RunGlobalPlug(ctx, integ, task, anchorID)
	if err != nil {
		telemetry.PlugRuns.WithLabelValues(string(task.Kind), telemetry.OutcomeFailure).Inc()
		return false, providerFailure(err)
	}

	telemetry.PlugRuns.WithLabelValues(string(task.Kind), telemetry.OutcomeSuccess).Inc()
	activity.GetLogger(ctx).Debug("global plug processed", "plug", task.String(), "satisfied", satisfied)
	return satisfied, nil
}

// plugTarget загружает интеграцию plug-а с актуальным токеном и её провайдер.
func (a *Activities) plugTarget(ctx context.Context, task domain.PlugTask) (domain.Integration, provider.Provider, error) {
	integ, err := a.integrations.GetByID(ctx, "", task.IntegrationID)
	if err != nil {
		return domain.Integration{}, nil, fmt.Errorf("load plug integration %s: %w", task.IntegrationID, err)
	}

	p, err := a.providerFor(*integ)
	if err != nil {
		return domain.Integration{}, nil, err
	}
	return *integ, p, nil
}
