package repo

// schema — DDL таблиц сервиса в порядке применения.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS integrations (
		id                  TEXT PRIMARY KEY,
		organization_id     TEXT NOT NULL,
		name                TEXT NOT NULL,
		provider_identifier TEXT NOT NULL,
		token               TEXT NOT NULL DEFAULT '',
		refresh_token       TEXT,
		token_expires_at    TIMESTAMPTZ,
		disabled            BOOLEAN NOT NULL DEFAULT false,
		refresh_needed      BOOLEAN NOT NULL DEFAULT false,
		deleted_at          TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id               TEXT PRIMARY KEY,
		organization_id  TEXT NOT NULL,
		integration_id   TEXT NOT NULL REFERENCES integrations(id),
		group_id         TEXT NOT NULL DEFAULT '',
		parent_post_id   TEXT REFERENCES posts(id),
		content          TEXT NOT NULL DEFAULT '',
		settings         TEXT NOT NULL DEFAULT '',
		state            TEXT NOT NULL DEFAULT 'QUEUE'
		                 CHECK (state IN ('QUEUE', 'PUBLISHED', 'ERROR')),
		delay_minutes    INT NOT NULL DEFAULT 0,
		interval_in_days INT NOT NULL DEFAULT 0,
		publish_date     TIMESTAMPTZ NOT NULL,
		release_id       TEXT,
		release_url      TEXT,
		error            TEXT,
		dispatched_at    TIMESTAMPTZ,
		deleted_at       TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS posts_due_idx
		ON posts (publish_date)
		WHERE state = 'QUEUE' AND parent_post_id IS NULL AND deleted_at IS NULL`,

	`CREATE INDEX IF NOT EXISTS posts_parent_idx ON posts (parent_post_id)`,

	`CREATE TABLE IF NOT EXISTS plugs (
		id             TEXT PRIMARY KEY,
		integration_id TEXT NOT NULL REFERENCES integrations(id),
		plug_function  TEXT NOT NULL,
		data           JSONB NOT NULL DEFAULT '{}',
		delay_ms       BIGINT NOT NULL DEFAULT 0,
		total_runs     INT NOT NULL DEFAULT 1,
		activated      BOOLEAN NOT NULL DEFAULT true,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS webhooks (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name            TEXT NOT NULL,
		url             TEXT NOT NULL,
		integration_ids TEXT[] NOT NULL DEFAULT '{}',
		deleted_at      TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
