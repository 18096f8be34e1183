package testing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

// MockJobStore はテスト用のモックJobStoreです
type MockJobStore struct {
	CreateFunc          func(ctx context.Context, repoID uuid.UUID, provider, modelName string) (*domain.Job, error)
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListFunc            func(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error)
	TransitionFunc      func(ctx context.Context, id uuid.UUID, from, to domain.JobStatus, params domain.TransitionParams) (*domain.Job, error)
	UpdateProgressFunc  func(ctx context.Context, id uuid.UUID, progress int) error
	UpdateClonePathFunc func(ctx context.Context, id uuid.UUID, clonePath string) error
	ClaimPendingFunc    func(ctx context.Context) (*domain.Job, error)
	FailOrphanedFunc    func(ctx context.Context, staleAfter time.Duration, message string) (int64, error)
}

func (m *MockJobStore) Create(ctx context.Context, repoID uuid.UUID, provider, modelName string) (*domain.Job, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, repoID, provider, modelName)
	}
	return nil, nil
}

func (m *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockJobStore) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockJobStore) Transition(ctx context.Context, id uuid.UUID, from, to domain.JobStatus, params domain.TransitionParams) (*domain.Job, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, id, from, to, params)
	}
	return nil, nil
}

func (m *MockJobStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, id, progress)
	}
	return nil
}

func (m *MockJobStore) UpdateClonePath(ctx context.Context, id uuid.UUID, clonePath string) error {
	if m.UpdateClonePathFunc != nil {
		return m.UpdateClonePathFunc(ctx, id, clonePath)
	}
	return nil
}

func (m *MockJobStore) ClaimPending(ctx context.Context) (*domain.Job, error) {
	if m.ClaimPendingFunc != nil {
		return m.ClaimPendingFunc(ctx)
	}
	return nil, domain.ErrJobNotFound
}

func (m *MockJobStore) FailOrphaned(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
	if m.FailOrphanedFunc != nil {
		return m.FailOrphanedFunc(ctx, staleAfter, message)
	}
	return 0, nil
}

// MockRepoStore はテスト用のモックRepoStoreです
type MockRepoStore struct {
	CreateFunc   func(ctx context.Context, url, name string) (*domain.Repo, error)
	GetByIDFunc  func(ctx context.Context, id uuid.UUID) (*domain.Repo, error)
	GetByURLFunc func(ctx context.Context, url string) (*domain.Repo, error)
	ListFunc     func(ctx context.Context) ([]*domain.Repo, error)
}

func (m *MockRepoStore) Create(ctx context.Context, url, name string) (*domain.Repo, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, url, name)
	}
	return nil, nil
}

func (m *MockRepoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Repo, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepoStore) GetByURL(ctx context.Context, url string) (*domain.Repo, error) {
	if m.GetByURLFunc != nil {
		return m.GetByURLFunc(ctx, url)
	}
	return nil, domain.ErrRepoNotFound
}

func (m *MockRepoStore) List(ctx context.Context) ([]*domain.Repo, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// TestJob はテスト用のジョブを作成します
func TestJob(status domain.JobStatus) *domain.Job {
	now := time.Now()
	return &domain.Job{
		ID:        uuid.New(),
		RepoID:    uuid.New(),
		Status:    status,
		Provider:  "openai",
		ModelName: "gpt-4o-mini",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestRepo はテスト用のリポジトリを作成します
func TestRepo(url string) *domain.Repo {
	now := time.Now()
	return &domain.Repo{
		ID:        uuid.New(),
		URL:       url,
		Name:      "widgets",
		Status:    domain.RepoConnected,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
