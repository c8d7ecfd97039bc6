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

// IntegrationRepo — репозиторий интеграций.
type IntegrationRepo struct {
	pool *pgxpool.Pool
}

// NewIntegrationRepo создаёт новый IntegrationRepo.
func NewIntegrationRepo(pool *pgxpool.Pool) *IntegrationRepo {
	return &IntegrationRepo{pool: pool}
}

// GetByID возвращает интеграцию организации по ID.
func (r *IntegrationRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Integration, error) {
	query := `
		SELECT id, organization_id, name, provider_identifier, token,
		       refresh_token, token_expires_at, disabled, refresh_needed
		FROM integrations
		WHERE id = $1
		  AND ($2::text = '' OR organization_id = $2)
		  AND deleted_at IS NULL
	`
	var integ domain.Integration
	var refreshToken *string

	err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&integ.ID,
		&integ.OrganizationID,
		&integ.Name,
		&integ.ProviderIdentifier,
		&integ.Token,
		&refreshToken,
		&integ.TokenExpiresAt,
		&integ.Disabled,
		&integ.RefreshNeeded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan integration: %w", err)
	}

	integ.RefreshToken = derefString(refreshToken)
	return &integ, nil
}

// UpdateTokens сохраняет новую пару токенов и снимает флаг refresh_needed.
func (r *IntegrationRepo) UpdateTokens(ctx context.Context, id string, token domain.Token, expiresAt *time.Time) error {
	query := `
		UPDATE integrations
		SET token = $2,
		    refresh_token = COALESCE($3, refresh_token),
		    token_expires_at = $4,
		    refresh_needed = false,
		    updated_at = now()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, token.AccessToken, nullString(token.RefreshToken), expiresAt)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshNeeded помечает, что пользователь должен переподключить интеграцию.
func (r *IntegrationRepo) SetRefreshNeeded(ctx context.Context, id string) error {
	query := `
		UPDATE integrations
		SET refresh_needed = true, updated_at = now()
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("set refresh needed: %w", err)
	}
	return nil
}
