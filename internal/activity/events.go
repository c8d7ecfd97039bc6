package activity

import (
	"context"
	"fmt"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/telemetry"
	"go.temporal.io/sdk/activity"
)

// InAppNotification отправляет уведомление организации.
func (a *Activities) InAppNotification(ctx context.Context, n domain.Notification) error {
	err := a.once(ctx, executionKey(ctx, ""), func() error {
		if err := a.events.PublishNotification(ctx, n); err != nil {
			return fmt.Errorf("publish notification: %w", err)
		}
		telemetry.Notifications.WithLabelValues(string(n.Severity)).Inc()
		return nil
	})
	if err != nil {
		return err
	}

	activity.GetLogger(ctx).Debug("notification sent",
		"organization_id", n.OrganizationID,
		"severity", n.Severity,
	)
	return nil
}

// SendWebhooks отправляет событие публикации во все webhooks организации,
// подписанные на интеграцию.
func (a *Activities) SendWebhooks(ctx context.Context, externalID, orgID, integrationID string) error {
	hooks, err := a.plugs.ListWebhooks(ctx, orgID)
	if err != nil {
		return fmt.Errorf("list webhooks: %w", err)
	}

	sent := 0
	for _, hook := range hooks {
		if !hook.Matches(integrationID) {
			continue
		}

		payload := mq.WebhookPayload{
			WebhookID:      hook.ID,
			URL:            hook.URL,
			OrganizationID: orgID,
			IntegrationID:  integrationID,
			ExternalID:     externalID,
		}

		// Ключ на каждый webhook: повтор activity не дублирует уже отправленные.
		err := a.once(ctx, executionKey(ctx, hook.ID), func() error {
			return a.events.PublishWebhook(ctx, payload)
		})
		if err != nil {
			return fmt.Errorf("publish webhook %s: %w", hook.ID, err)
		}
		sent++
	}

	activity.GetLogger(ctx).Debug("webhooks sent", "organization_id", orgID, "count", sent)
	return nil
}
