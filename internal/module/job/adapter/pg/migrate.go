package pg

import (
	"context"
	"fmt"
)

// schema はジョブモジュールが必要とするテーブル定義です
// 冪等に適用できるよう IF NOT EXISTS のみで構成しています
const schema = `
CREATE TABLE IF NOT EXISTS repos (
	id         UUID PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'connected',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	id            UUID PRIMARY KEY,
	repo_id       UUID NOT NULL REFERENCES repos(id),
	status        TEXT NOT NULL DEFAULT 'pending',
	provider      TEXT NOT NULL,
	model_name    TEXT NOT NULL,
	clone_path    TEXT,
	progress      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	retry_count   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_created_at ON jobs (status, created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_repo_id ON jobs (repo_id);
`

// Migrate はスキーマを適用します
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
