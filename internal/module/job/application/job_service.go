package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	giturls "github.com/whilp/git-urls"

	"github.com/jinford/autodoc/internal/module/job/domain"
	"github.com/jinford/autodoc/internal/platform/database"
)

// JobService はジョブ管理のユースケースを提供します
type JobService struct {
	txProvider *database.TransactionProvider
	jobs       domain.JobStore
	log        *slog.Logger
}

// NewJobService は新しいJobServiceを作成します
func NewJobService(txProvider *database.TransactionProvider, jobs domain.JobStore, log *slog.Logger) *JobService {
	return &JobService{
		txProvider: txProvider,
		jobs:       jobs,
		log:        log,
	}
}

// CreateJob はリポジトリURLに対する pending 状態のジョブを登録します
// リポジトリが未登録の場合は同一トランザクション内で登録します
func (s *JobService) CreateJob(ctx context.Context, repoURL, provider, modelName string) (*domain.Job, error) {
	if repoURL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}
	if provider == "" || modelName == "" {
		return nil, fmt.Errorf("provider and model name are required")
	}

	job, err := database.Transact(ctx, s.txProvider, func(a *database.Adapter) (*domain.Job, error) {
		repo, err := a.Repos.GetByURL(ctx, repoURL)
		if errors.Is(err, domain.ErrRepoNotFound) {
			repo, err = a.Repos.Create(ctx, repoURL, repoNameFromURL(repoURL))
		}
		if err != nil {
			return nil, err
		}
		return a.Jobs.Create(ctx, repo.ID, provider, modelName)
	})
	if err != nil {
		s.log.Error("Failed to create job", "url", repoURL, "error", err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.log.Info("Created job", "jobID", job.ID, "url", repoURL)
	return job, nil
}

// GetJob はジョブを取得します
func (s *JobService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("job ID is required")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs はジョブ一覧を取得します
func (s *JobService) ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// CancelJob はジョブをキャンセルします
// completed と failed のジョブはキャンセルできません
func (s *JobService) CancelJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	current, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.Transition(ctx, jobID, current.Status, domain.StatusCanceled, domain.TransitionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel job: %w", err)
	}

	s.log.Info("Canceled job", "jobID", jobID)
	return job, nil
}

// PauseJob は実行中のジョブを一時停止します
// パイプラインは次の段階境界で停止します
func (s *JobService) PauseJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.Transition(ctx, jobID, domain.StatusRunning, domain.StatusPaused, domain.TransitionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to pause job: %w", err)
	}

	s.log.Info("Paused job", "jobID", jobID)
	return job, nil
}

// ResumeJob は一時停止中のジョブを再開します
func (s *JobService) ResumeJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.Transition(ctx, jobID, domain.StatusPaused, domain.StatusRunning, domain.TransitionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to resume job: %w", err)
	}

	s.log.Info("Resumed job", "jobID", jobID)
	return job, nil
}

// RetryJob は失敗したジョブを pending に戻して再試行回数を加算します
func (s *JobService) RetryJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.Transition(ctx, jobID, domain.StatusFailed, domain.StatusPending, domain.TransitionParams{
		IncrementRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retry job: %w", err)
	}

	s.log.Info("Retrying job", "jobID", jobID, "retryCount", job.RetryCount)
	return job, nil
}

// repoNameFromURL はURLからリポジトリ名を導出します
func repoNameFromURL(repoURL string) string {
	u, err := giturls.Parse(repoURL)
	if err != nil {
		return repoURL
	}
	name := strings.TrimSuffix(path.Base(u.Path), ".git")
	if name == "" || name == "." || name == "/" {
		return repoURL
	}
	return name
}
