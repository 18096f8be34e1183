package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

const repoColumns = `id, url, name, status, created_at, updated_at`

// RepoRepository はリポジトリ集約のPostgreSQL実装です
type RepoRepository struct {
	db DBTX
}

// NewRepoRepository は新しいRepoRepositoryを作成します
func NewRepoRepository(db DBTX) *RepoRepository {
	return &RepoRepository{db: db}
}

var _ domain.RepoStore = (*RepoRepository)(nil)

func scanRepo(row pgx.Row) (*domain.Repo, error) {
	var (
		repo   domain.Repo
		status string
	)
	if err := row.Scan(
		&repo.ID,
		&repo.URL,
		&repo.Name,
		&status,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	repo.Status = domain.RepoStatus(status)
	return &repo, nil
}

// Create は connected 状態の新しいリポジトリを登録します
func (r *RepoRepository) Create(ctx context.Context, url, name string) (*domain.Repo, error) {
	query := fmt.Sprintf(`
		INSERT INTO repos (id, url, name, status)
		VALUES ($1, $2, $3, 'connected')
		RETURNING %s`, repoColumns)

	repo, err := scanRepo(r.db.QueryRow(ctx, query, uuid.New(), url, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create repo: %w", err)
	}
	return repo, nil
}

// GetByID はIDでリポジトリを取得します
func (r *RepoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Repo, error) {
	query := fmt.Sprintf(`SELECT %s FROM repos WHERE id = $1`, repoColumns)

	repo, err := scanRepo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRepoNotFound
		}
		return nil, fmt.Errorf("failed to get repo: %w", err)
	}
	return repo, nil
}

// GetByURL はURLでリポジトリを取得します
func (r *RepoRepository) GetByURL(ctx context.Context, url string) (*domain.Repo, error) {
	query := fmt.Sprintf(`SELECT %s FROM repos WHERE url = $1`, repoColumns)

	repo, err := scanRepo(r.db.QueryRow(ctx, query, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRepoNotFound
		}
		return nil, fmt.Errorf("failed to get repo by url: %w", err)
	}
	return repo, nil
}

// List は登録済みのリポジトリを登録順に返します
func (r *RepoRepository) List(ctx context.Context) ([]*domain.Repo, error) {
	query := fmt.Sprintf(`SELECT %s FROM repos ORDER BY created_at`, repoColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}
	defer rows.Close()

	var repos []*domain.Repo
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repo row: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repo rows: %w", err)
	}
	return repos, nil
}
