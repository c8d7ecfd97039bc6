package activity

import (
	"context"
	"fmt"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/telemetry"
	"go.temporal.io/sdk/activity"
)

// GetPostsList загружает основной пост и его комментарии.
// Пустой список означает, что пост удалён.
func (a *Activities) GetPostsList(ctx context.Context, orgID, postID string) ([]domain.PostItem, error) {
	posts, err := a.posts.ListGroup(ctx, orgID, postID)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return posts, nil
}

// IsCommentable сообщает, поддерживает ли провайдер интеграции комментарии.
func (a *Activities) IsCommentable(ctx context.Context, integ domain.Integration) (bool, error) {
	p, err := a.providerFor(integ)
	if err != nil {
		return false, err
	}
	return p.Commentable(), nil
}

// PostSocial публикует основной пост.
func (a *Activities) PostSocial(ctx context.Context, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	p, err := a.providerFor(integ)
	if err != nil {
		return nil, err
	}

	results, err := p.Post(ctx, integ, items)
	return a.publishOutcome(ctx, integ, results, err)
}

// PostComment публикует комментарий к anchorID (parentID — предыдущий комментарий).
func (a *Activities) PostComment(ctx context.Context, anchorID, parentID string, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	p, err := a.providerFor(integ)
	if err != nil {
		return nil, err
	}

	results, err := p.Comment(ctx, anchorID, parentID, integ, items)
	return a.publishOutcome(ctx, integ, results, err)
}

func (a *Activities) publishOutcome(ctx context.Context, integ domain.Integration, results []domain.PublishResult, err error) ([]domain.PublishResult, error) {
	if err != nil {
		telemetry.PublishFailures.WithLabelValues(integ.ProviderIdentifier, failureKind(err)).Inc()
		activity.GetLogger(ctx).Warn("publish failed",
			"provider", integ.ProviderIdentifier,
			"integration_id", integ.ID,
			"error", err,
		)
		return nil, providerFailure(err)
	}

	telemetry.PostsPublished.WithLabelValues(integ.ProviderIdentifier).Inc()
	return results, nil
}

// UpdatePost сохраняет внешний id и ссылку опубликованной записи.
func (a *Activities) UpdatePost(ctx context.Context, itemID, externalID, releaseURL string) error {
	if err := a.posts.MarkPublished(ctx, itemID, externalID, releaseURL); err != nil {
		return fmt.Errorf("update post %s: %w", itemID, err)
	}
	return nil
}

// ChangeState переводит пост и все записи цепочки в state.
func (a *Activities) ChangeState(ctx context.Context, postID string, state domain.PostState, cause string, items []domain.PostItem) error {
	ids := make([]string, 0, len(items)+1)
	seen := make(map[string]struct{}, len(items)+1)
	for _, id := range append([]string{postID}, itemIDs(items)...) {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if err := a.posts.ChangeState(ctx, ids, state, cause); err != nil {
		return fmt.Errorf("change state of %s: %w", postID, err)
	}
	return nil
}

func itemIDs(items []domain.PostItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
