package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/postflow/internal/domain"
)

// PostRepo — репозиторий постов.
type PostRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepo создаёт новый PostRepo.
func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// postColumns — колонки поста вместе с интеграцией (JOIN integrations i).
const postColumns = `
	p.id, p.organization_id, p.group_id, p.parent_post_id, p.content, p.settings,
	p.state, p.delay_minutes, p.interval_in_days, p.publish_date,
	p.release_id, p.release_url, p.error,
	i.id, i.organization_id, i.name, i.provider_identifier, i.token,
	i.refresh_token, i.token_expires_at, i.disabled, i.refresh_needed
`

// GetByID возвращает пост по ID.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.PostItem, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN integrations i ON i.id = p.integration_id
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`
	return scanPost(r.pool.QueryRow(ctx, query, id))
}

// ListGroup возвращает основной пост и его комментарии.
// Основной пост всегда первый, комментарии — в порядке создания.
func (r *PostRepo) ListGroup(ctx context.Context, orgID, postID string) ([]domain.PostItem, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN integrations i ON i.id = p.integration_id
		WHERE p.organization_id = $1
		  AND (p.id = $2 OR p.parent_post_id = $2)
		  AND p.deleted_at IS NULL
		ORDER BY (p.parent_post_id IS NOT NULL), p.created_at ASC
	`
	return r.queryPosts(ctx, query, orgID, postID)
}

// ListDue возвращает основные посты в QUEUE, которые нужно опубликовать
// до horizon и которые ещё не переданы на публикацию.
func (r *PostRepo) ListDue(ctx context.Context, horizon time.Time, limit int) ([]domain.PostItem, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN integrations i ON i.id = p.integration_id
		WHERE p.state = 'QUEUE'
		  AND p.parent_post_id IS NULL
		  AND p.deleted_at IS NULL
		  AND p.dispatched_at IS NULL
		  AND p.publish_date <= $1
		ORDER BY p.publish_date ASC
		LIMIT $2
	`
	return r.queryPosts(ctx, query, horizon, limit)
}

// MarkDispatched отмечает, что пост передан на публикацию.
func (r *PostRepo) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE posts
		SET dispatched_at = $2, updated_at = now()
		WHERE id = $1 AND dispatched_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// MarkPublished сохраняет внешний id и ссылку и переводит запись в PUBLISHED.
func (r *PostRepo) MarkPublished(ctx context.Context, id, releaseID, releaseURL string) error {
	query := `
		UPDATE posts
		SET state = 'PUBLISHED', release_id = $2, release_url = $3,
		    error = NULL, updated_at = now()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, nullString(releaseID), nullString(releaseURL))
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ChangeState записывает состояние и причину для набора записей.
// Повторный вызов с теми же аргументами оставляет строки без изменений.
func (r *PostRepo) ChangeState(ctx context.Context, ids []string, state domain.PostState, cause string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE posts
		SET state = $2, error = $3, updated_at = now()
		WHERE id = ANY($1)
		  AND (state IS DISTINCT FROM $2 OR error IS DISTINCT FROM $3)
	`
	if _, err := r.pool.Exec(ctx, query, ids, string(state), nullString(cause)); err != nil {
		return fmt.Errorf("change state: %w", err)
	}
	return nil
}

// --- Helpers ---

func (r *PostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]domain.PostItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.PostItem
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// scanPost сканирует строку postColumns в PostItem.
func scanPost(row pgx.Row) (*domain.PostItem, error) {
	var post domain.PostItem
	var parentID, releaseID, releaseURL, postError, refreshToken *string
	var state string

	err := row.Scan(
		&post.ID,
		&post.OrganizationID,
		&post.Group,
		&parentID,
		&post.Content,
		&post.Settings,
		&state,
		&post.Delay,
		&post.IntervalInDays,
		&post.PublishDate,
		&releaseID,
		&releaseURL,
		&postError,
		&post.Integration.ID,
		&post.Integration.OrganizationID,
		&post.Integration.Name,
		&post.Integration.ProviderIdentifier,
		&post.Integration.Token,
		&refreshToken,
		&post.Integration.TokenExpiresAt,
		&post.Integration.Disabled,
		&post.Integration.RefreshNeeded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}

	post.State = domain.ParsePostState(state)
	post.ParentPostID = derefString(parentID)
	post.ReleaseID = derefString(releaseID)
	post.ReleaseURL = derefString(releaseURL)
	post.Error = derefString(postError)
	post.Integration.RefreshToken = derefString(refreshToken)

	return &post, nil
}
