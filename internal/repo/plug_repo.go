package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/postflow/internal/domain"
)

// PlugRepo — репозиторий global plug-ов и webhooks.
type PlugRepo struct {
	pool *pgxpool.Pool
}

// NewPlugRepo создаёт новый PlugRepo.
func NewPlugRepo(pool *pgxpool.Pool) *PlugRepo {
	return &PlugRepo{pool: pool}
}

// ListActive возвращает активные global plug-и интеграции.
func (r *PlugRepo) ListActive(ctx context.Context, integrationID string) ([]domain.GlobalPlug, error) {
	query := `
		SELECT id, integration_id, plug_function, data, delay_ms, total_runs, activated
		FROM plugs
		WHERE integration_id = $1 AND activated
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, integrationID)
	if err != nil {
		return nil, fmt.Errorf("list plugs: %w", err)
	}
	defer rows.Close()

	var plugs []domain.GlobalPlug
	for rows.Next() {
		var plug domain.GlobalPlug
		var data []byte

		if err := rows.Scan(
			&plug.ID,
			&plug.IntegrationID,
			&plug.Function,
			&data,
			&plug.DelayMs,
			&plug.TotalRuns,
			&plug.Activated,
		); err != nil {
			return nil, fmt.Errorf("scan plug: %w", err)
		}

		if len(data) > 0 {
			if err := json.Unmarshal(data, &plug.Data); err != nil {
				return nil, fmt.Errorf("unmarshal plug data: %w", err)
			}
		}
		plugs = append(plugs, plug)
	}
	return plugs, rows.Err()
}

// ListWebhooks возвращает webhooks организации.
func (r *PlugRepo) ListWebhooks(ctx context.Context, orgID string) ([]domain.Webhook, error) {
	query := `
		SELECT id, organization_id, name, url, integration_ids
		FROM webhooks
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []domain.Webhook
	for rows.Next() {
		var hook domain.Webhook
		if err := rows.Scan(&hook.ID, &hook.OrganizationID, &hook.Name, &hook.URL, &hook.IntegrationIDs); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		hooks = append(hooks, hook)
	}
	return hooks, rows.Err()
}
