package activity

import (
	"context"
	"fmt"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/telemetry"
	"go.temporal.io/sdk/activity"
)

// RefreshToken обновляет токен интеграции и сохраняет его.
//
// Отказ провайдера не считается ошибкой activity: интеграция помечается
// refresh_needed и возвращается пустой токен.
func (a *Activities) RefreshToken(ctx context.Context, integ domain.Integration) (domain.Token, error) {
	logger := activity.GetLogger(ctx)

	p, err := a.providerFor(integ)
	if err != nil {
		return domain.Token{}, err
	}

	token, err := p.RefreshToken(ctx, integ)
	if err != nil || token.IsEmpty() {
		logger.Warn("token refresh failed", "integration_id", integ.ID, "error", err)
		telemetry.TokenRefreshes.WithLabelValues(integ.ProviderIdentifier, refreshOutcome(err)).Inc()

		if markErr := a.integrations.SetRefreshNeeded(ctx, integ.ID); markErr != nil {
			return domain.Token{}, fmt.Errorf("mark refresh needed: %w", markErr)
		}
		return domain.Token{}, nil
	}

	if err := a.integrations.UpdateTokens(ctx, integ.ID, token, token.ExpiresAt(a.now())); err != nil {
		return domain.Token{}, fmt.Errorf("save token: %w", err)
	}

	telemetry.TokenRefreshes.WithLabelValues(integ.ProviderIdentifier, telemetry.OutcomeSuccess).Inc()
	logger.Info("token refreshed", "integration_id", integ.ID)
	return token, nil
}

func refreshOutcome(err error) string {
	if err != nil {
		return telemetry.OutcomeFailure
	}
	return telemetry.OutcomeEmpty
}

// GetIntegrationByID загружает интеграцию организации.
func (a *Activities) GetIntegrationByID(ctx context.Context, orgID, integrationID string) (domain.Integration, error) {
	integ, err := a.integrations.GetByID(ctx, orgID, integrationID)
	if err != nil {
		return domain.Integration{}, fmt.Errorf("load integration %s: %w", integrationID, err)
	}
	return *integ, nil
}
