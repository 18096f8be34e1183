package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinford/autodoc/internal/module/job/domain"
	"github.com/jinford/autodoc/internal/platform/database"
)

// RepoService はリポジトリ登録のユースケースを提供します
type RepoService struct {
	txProvider *database.TransactionProvider
	repos      domain.RepoStore
	log        *slog.Logger
}

// NewRepoService は新しいRepoServiceを作成します
func NewRepoService(txProvider *database.TransactionProvider, repos domain.RepoStore, log *slog.Logger) *RepoService {
	return &RepoService{
		txProvider: txProvider,
		repos:      repos,
		log:        log,
	}
}

// AddRepo はリポジトリを登録します
// 同じURLが既に登録済みの場合は既存のエントリを返します
func (s *RepoService) AddRepo(ctx context.Context, url string) (*domain.Repo, error) {
	if url == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	repo, err := database.Transact(ctx, s.txProvider, func(a *database.Adapter) (*domain.Repo, error) {
		existing, err := a.Repos.GetByURL(ctx, url)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrRepoNotFound) {
			return nil, err
		}
		return a.Repos.Create(ctx, url, repoNameFromURL(url))
	})
	if err != nil {
		s.log.Error("Failed to add repository", "url", url, "error", err)
		return nil, fmt.Errorf("failed to add repository: %w", err)
	}

	s.log.Info("Registered repository", "repoID", repo.ID, "url", url)
	return repo, nil
}

// ListRepos は登録済みリポジトリの一覧を返します
func (s *RepoService) ListRepos(ctx context.Context) ([]*domain.Repo, error) {
	repos, err := s.repos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return repos, nil
}
