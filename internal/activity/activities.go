package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/provider"
	"go.temporal.io/sdk/activity"
)

// PostStore — хранилище постов.
type PostStore interface {
	ListGroup(ctx context.Context, orgID, postID string) ([]domain.PostItem, error)
	MarkPublished(ctx context.Context, id, releaseID, releaseURL string) error
	ChangeState(ctx context.Context, ids []string, state domain.PostState, cause string) error
}

// IntegrationStore — хранилище интеграций.
type IntegrationStore interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Integration, error)
	UpdateTokens(ctx context.Context, id string, token domain.Token, expiresAt *time.Time) error
	SetRefreshNeeded(ctx context.Context, id string) error
}

// PlugStore — хранилище global plug-ов и webhooks.
type PlugStore interface {
	ListActive(ctx context.Context, integrationID string) ([]domain.GlobalPlug, error)
	ListWebhooks(ctx context.Context, orgID string) ([]domain.Webhook, error)
}

// EventPublisher публикует исходящие события.
type EventPublisher interface {
	PublishNotification(ctx context.Context, n domain.Notification) error
	PublishWebhook(ctx context.Context, payload mq.WebhookPayload) error
}

// Deduper — claim-ы идемпотентности для activity с побочными эффектами.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Config — зависимости Activities.
type Config struct {
	Posts        PostStore
	Integrations IntegrationStore
	Plugs        PlugStore
	Events       EventPublisher
	Providers    *provider.Registry

	// Dedupe — опционально; без него эффекты не дедуплицируются.
	Dedupe Deduper

	// Now — источник времени (для тестов).
	Now func() time.Time
}

// Activities реализует все activities workflow публикации.
type Activities struct {
	posts        PostStore
	integrations IntegrationStore
	plugs        PlugStore
	events       EventPublisher
	providers    *provider.Registry
	dedupe       Deduper
	now          func() time.Time
}

// New создаёт Activities.
func New(cfg Config) (*Activities, error) {
	if cfg.Posts == nil || cfg.Integrations == nil || cfg.Plugs == nil ||
		cfg.Events == nil || cfg.Providers == nil {
		return nil, ErrMissingDependency
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Activities{
		posts:        cfg.Posts,
		integrations: cfg.Integrations,
		plugs:        cfg.Plugs,
		events:       cfg.Events,
		providers:    cfg.Providers,
		dedupe:       cfg.Dedupe,
		now:          now,
	}, nil
}

// providerFor возвращает провайдер интеграции.
func (a *Activities) providerFor(integ domain.Integration) (provider.Provider, error) {
	p, err := a.providers.Get(integ.ProviderIdentifier)
	if err != nil {
		return nil, providerFailure(err)
	}
	return p, nil
}

// executionKey — ключ идемпотентности текущего выполнения activity.
// Не меняется между повторами одной activity.
func executionKey(ctx context.Context, suffix string) string {
	info := activity.GetInfo(ctx)
	key := fmt.Sprintf("%s:%s:%s", info.WorkflowExecution.ID, info.WorkflowExecution.RunID, info.ActivityID)
	if suffix != "" {
		key += ":" + suffix
	}
	return key
}

// once выполняет effect не более одного раза на ключ.
// Если effect вернул ошибку, claim освобождается и следующий повтор выполнит его снова.
func (a *Activities) once(ctx context.Context, key string, effect func() error) error {
	if a.dedupe == nil {
		return effect()
	}

	claimed, err := a.dedupe.Claim(ctx, key)
	if err != nil {
		return fmt.Errorf("dedupe claim: %w", err)
	}
	if !claimed {
		activity.GetLogger(ctx).Info("side effect already applied", "key", key)
		return nil
	}

	if err := effect(); err != nil {
		if relErr := a.dedupe.Release(ctx, key); relErr != nil {
			activity.GetLogger(ctx).Warn("failed to release dedupe claim", "key", key, "error", relErr)
		}
		return err
	}
	return nil
}
