package container

import (
	"context"
	"fmt"
	"log/slog"

	jobpg "github.com/jinford/autodoc/internal/module/job/adapter/pg"
	jobapp "github.com/jinford/autodoc/internal/module/job/application"
	"github.com/jinford/autodoc/internal/module/pipeline/adapter/analyzer"
	"github.com/jinford/autodoc/internal/module/pipeline/adapter/docgen"
	"github.com/jinford/autodoc/internal/module/pipeline/adapter/gitrepo"
	"github.com/jinford/autodoc/internal/module/pipeline/adapter/publisher"
	pipelineapp "github.com/jinford/autodoc/internal/module/pipeline/application"
	"github.com/jinford/autodoc/internal/platform/database"
	"github.com/jinford/autodoc/pkg/config"
)

// Container はアプリケーションの依存関係を保持します
type Container struct {
	JobService  *jobapp.JobService
	RepoService *jobapp.RepoService

	cfg      *config.Config
	logger   *slog.Logger
	database *database.DB
	jobs     *jobpg.JobRepository
	repos    *jobpg.RepoRepository
}

// New は設定からコンテナを生成します
// マイグレーションを適用し、ジョブとリポジトリのユースケース層まで組み立てます
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	db, err := database.New(ctx, database.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := jobpg.Migrate(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	txProvider := database.NewTransactionProvider(db.Pool)
	jobs := jobpg.NewJobRepository(db.Pool)
	repos := jobpg.NewRepoRepository(db.Pool)

	return &Container{
		JobService:  jobapp.NewJobService(txProvider, jobs, logger),
		RepoService: jobapp.NewRepoService(txProvider, repos, logger),
		cfg:         cfg,
		logger:      logger,
		database:    db,
		jobs:        jobs,
		repos:       repos,
	}, nil
}

// BuildFetcher は資格情報を解決してソース取得アダプタを組み立てます
func (c *Container) BuildFetcher() *gitrepo.Fetcher {
	resolver := gitrepo.NewResolver(gitrepo.Credentials{
		SSHKeyPath:     c.cfg.Git.SSHKeyPath,
		GitHubToken:    c.cfg.Git.GitHubToken,
		GitLabToken:    c.cfg.Git.GitLabToken,
		BitbucketToken: c.cfg.Git.BitbucketToken,
		GenericToken:   c.cfg.Git.GenericToken,
		Username:       c.cfg.Git.Username,
		Password:       c.cfg.Git.Password,
	})
	return gitrepo.NewFetcher(c.cfg.Git.WorkDir, c.cfg.Git.CloneTimeout, resolver, c.logger)
}

// BuildWorkerPool はパイプラインのアダプタ群を組み立ててワーカープールを返します
// ドキュメント生成のAPIキーを必要とするため、ワーカーを起動するときにのみ呼び出します
func (c *Container) BuildWorkerPool() (*jobapp.WorkerPool, error) {
	fetcher := c.BuildFetcher()

	structAnalyzer := analyzer.NewAnalyzer(c.logger)

	generator, err := docgen.NewGenerator(c.cfg.Generator.APIKey, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document generator: %w", err)
	}

	pushToken := c.cfg.Git.GitHubToken
	if pushToken == "" {
		pushToken = c.cfg.Git.GenericToken
	}
	github := publisher.NewGitHubClient(c.cfg.Publish.APIBaseURL, c.cfg.Git.GitHubToken)
	patchPublisher := publisher.NewPublisher(github, publisher.DefaultRetryPolicy(), pushToken, c.cfg.Git.SSHKeyPath, c.logger)

	orchestrator := pipelineapp.NewOrchestrator(
		c.jobs,
		c.repos,
		fetcher,
		structAnalyzer,
		generator,
		patchPublisher,
		pipelineapp.PublishConfig{
			BranchPrefix: c.cfg.Publish.BranchPrefix,
			BaseBranch:   c.cfg.Publish.BaseBranch,
			CreatePR:     c.cfg.Publish.CreatePR,
			Reviewers:    c.cfg.Publish.Reviewers,
			Labels:       c.cfg.Publish.Labels,
		},
		c.logger,
	)

	poolCfg := jobapp.WorkerPoolConfig{
		Workers:       c.cfg.Worker.Workers,
		ClaimInterval: c.cfg.Worker.ClaimInterval,
		StaleAfter:    c.cfg.Worker.StaleAfter,
		PruneKeep:     c.cfg.Worker.PruneKeep,
		PruneInterval: c.cfg.Worker.PruneInterval,
	}
	return jobapp.NewWorkerPool(c.jobs, orchestrator, fetcher, poolCfg, c.logger), nil
}

// Close は内部リソースを解放します
func (c *Container) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返します
func (c *Container) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
