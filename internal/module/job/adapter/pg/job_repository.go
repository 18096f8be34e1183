package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

const jobColumns = `id, repo_id, status, provider, model_name, clone_path, progress, error_message, retry_count, created_at, updated_at`

// JobRepository はジョブ集約のPostgreSQL実装です
type JobRepository struct {
	db DBTX
}

// NewJobRepository は新しいJobRepositoryを作成します
func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

var _ domain.JobStore = (*JobRepository)(nil)

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.RepoID,
		&status,
		&job.Provider,
		&job.ModelName,
		&job.ClonePath,
		&job.Progress,
		&job.ErrorMessage,
		&job.RetryCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

// Create は pending 状態の新しいジョブを登録します
func (r *JobRepository) Create(ctx context.Context, repoID uuid.UUID, provider, modelName string) (*domain.Job, error) {
	query := fmt.Sprintf(`
		INSERT INTO jobs (id, repo_id, status, provider, model_name, progress, retry_count)
		VALUES ($1, $2, 'pending', $3, $4, 0, 0)
		RETURNING %s`, jobColumns)

	job, err := scanJob(r.db.QueryRow(ctx, query, uuid.New(), repoID, provider, modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetByID はIDでジョブを取得します
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// List は条件に合致するジョブを新しい順に返します
func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs`, jobColumns)
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}
	return jobs, nil
}

// Transition は from から to への遷移を比較更新（compare-and-set）で行います
// WHERE句に現在状態を含めることで、並行する遷移のうち1つだけが成功します
func (r *JobRepository) Transition(ctx context.Context, id uuid.UUID, from, to domain.JobStatus, params domain.TransitionParams) (*domain.Job, error) {
	if err := domain.ValidateTransition(from, to); err != nil {
		return nil, err
	}

	retryDelta := 0
	if params.IncrementRetry {
		retryDelta = 1
	}

	// error_message は failed への遷移でのみ保持し、他の状態では常にクリアします
	query := fmt.Sprintf(`
		UPDATE jobs SET
			status        = $3,
			progress      = GREATEST(progress, COALESCE($4, progress)),
			error_message = CASE WHEN $3 = 'failed' THEN $5 ELSE NULL END,
			clone_path    = COALESCE($6, clone_path),
			retry_count   = retry_count + $7,
			updated_at    = now()
		WHERE id = $1 AND status = $2
		RETURNING %s`, jobColumns)

	job, err := scanJob(r.db.QueryRow(ctx, query,
		id, string(from), string(to),
		params.Progress, params.ErrorMessage, params.ClonePath, retryDelta,
	))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition job: %w", err)
	}

	// 行が変更されなかった場合、不存在か状態不一致かを判別します
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &domain.InvalidTransitionError{From: current.Status, To: to}
}

// UpdateProgress は進捗を単調非減少で更新します
func (r *JobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	query := `
		UPDATE jobs SET
			progress   = GREATEST(progress, $2),
			updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, progress)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// UpdateClonePath は取得済みの作業ディレクトリのパスを記録します
func (r *JobRepository) UpdateClonePath(ctx context.Context, id uuid.UUID, clonePath string) error {
	query := `
		UPDATE jobs SET
			clone_path = $2,
			updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, clonePath)
	if err != nil {
		return fmt.Errorf("failed to update job clone path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// ClaimPending は最も古い pending ジョブを1件確保して running に遷移させます
// FOR UPDATE SKIP LOCKED により複数ワーカーが同じジョブを取り合いません
func (r *JobRepository) ClaimPending(ctx context.Context) (*domain.Job, error) {
	query := fmt.Sprintf(`
		WITH claimed AS (
			SELECT id FROM jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE jobs SET
			status     = 'running',
			updated_at = now()
		WHERE id IN (SELECT id FROM claimed)
		RETURNING %s`, jobColumns)

	job, err := scanJob(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to claim pending job: %w", err)
	}
	return job, nil
}

// FailOrphaned は更新が途絶えた running ジョブを failed に倒します
func (r *JobRepository) FailOrphaned(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
	query := `
		UPDATE jobs SET
			status        = 'failed',
			error_message = $2,
			updated_at    = now()
		WHERE status = 'running' AND updated_at < $1`

	tag, err := r.db.Exec(ctx, query, time.Now().Add(-staleAfter), message)
	if err != nil {
		return 0, fmt.Errorf("failed to fail orphaned jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
