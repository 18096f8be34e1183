package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	jobdomain "github.com/jinford/autodoc/internal/module/job/domain"
	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// 各段階完了時の進捗チェックポイント
const (
	progressStarted   = 10
	progressFetched   = 40
	progressAnalyzed  = 70
	progressGenerated = 90
)

// defaultPausePollInterval は一時停止中に状態を確認する間隔です
const defaultPausePollInterval = 2 * time.Second

// PublishConfig は公開段階の設定です
type PublishConfig struct {
	BranchPrefix string
	BaseBranch   string
	CreatePR     bool
	Reviewers    []string
	Labels       []string
}

// Orchestrator はドキュメント生成ジョブを取得 -> 解析 -> 生成 -> 公開 の順に実行します
type Orchestrator struct {
	jobs              jobdomain.JobStore
	repos             jobdomain.RepoStore
	fetcher           domain.SourceFetcher
	analyzer          domain.StructureAnalyzer
	generator         domain.DocGenerator
	publisher         domain.PatchPublisher
	publishCfg        PublishConfig
	pausePollInterval time.Duration
	log               *slog.Logger
}

// NewOrchestrator は新しいOrchestratorを作成します
func NewOrchestrator(
	jobs jobdomain.JobStore,
	repos jobdomain.RepoStore,
	fetcher domain.SourceFetcher,
	analyzer domain.StructureAnalyzer,
	generator domain.DocGenerator,
	publisher domain.PatchPublisher,
	publishCfg PublishConfig,
	log *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:              jobs,
		repos:             repos,
		fetcher:           fetcher,
		analyzer:          analyzer,
		generator:         generator,
		publisher:         publisher,
		publishCfg:        publishCfg,
		pausePollInterval: defaultPausePollInterval,
		log:               log,
	}
}

// SetPausePollInterval は一時停止中の状態確認間隔を設定します
func (o *Orchestrator) SetPausePollInterval(interval time.Duration) {
	o.pausePollInterval = interval
}

// Run は running 状態のジョブをパイプラインに通します
// 段階の境界でジョブの状態を確認し、一時停止中は待機、キャンセル済みなら停止します
// パイプラインの失敗はジョブを failed に倒して記録し、エラーとして返します
func (o *Orchestrator) Run(ctx context.Context, job *jobdomain.Job) error {
	log := o.log.With(slog.String("job_id", job.ID.String()))

	repo, err := o.repos.GetByID(ctx, job.RepoID)
	if err != nil {
		return o.fail(ctx, job, "", fmt.Errorf("failed to load repository: %w", err))
	}

	log.Info("starting documentation job", slog.String("repo", repo.URL))
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressStarted); err != nil {
		return err
	}

	// 取得
	clonePath, err := o.fetcher.Fetch(ctx, repo.URL)
	if err != nil {
		return o.fail(ctx, job, "", err)
	}
	if err := o.jobs.UpdateClonePath(ctx, job.ID, clonePath); err != nil {
		return err
	}
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressFetched); err != nil {
		return err
	}

	if stop, err := o.checkpoint(ctx, job.ID, clonePath, log); stop || err != nil {
		return err
	}

	// 解析
	summary, err := o.analyzer.Analyze(ctx, clonePath)
	if err != nil {
		return o.fail(ctx, job, clonePath, err)
	}
	log.Info("analyzed source tree", slog.Int("files", len(summary.Files)))
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressAnalyzed); err != nil {
		return err
	}

	if stop, err := o.checkpoint(ctx, job.ID, clonePath, log); stop || err != nil {
		return err
	}

	// 生成
	docSet, err := o.generator.Generate(ctx, summary, job.Provider, job.ModelName)
	if err != nil {
		return o.fail(ctx, job, clonePath, err)
	}
	if err := writeDocSet(clonePath, docSet); err != nil {
		return o.fail(ctx, job, clonePath, domain.NewStageError("generation", domain.KindInternal, err))
	}
	log.Info("generated documentation", slog.Int("docs", len(docSet)))
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressGenerated); err != nil {
		return err
	}

	if stop, err := o.checkpoint(ctx, job.ID, clonePath, log); stop || err != nil {
		return err
	}

	// 公開
	result, err := o.publisher.Publish(ctx, clonePath, domain.PublishOptions{
		RepoURL:      repo.URL,
		BranchPrefix: o.publishCfg.BranchPrefix,
		BaseBranch:   o.publishCfg.BaseBranch,
		CreatePR:     o.publishCfg.CreatePR,
		Reviewers:    o.publishCfg.Reviewers,
		Labels:       o.publishCfg.Labels,
	})
	if err != nil {
		return o.fail(ctx, job, clonePath, err)
	}
	if result.Published {
		log.Info("published documentation",
			slog.String("branch", result.BranchName),
			slog.String("pr_url", result.PRURL),
		)
	} else {
		log.Info("no documentation changes to publish")
	}

	// 完了
	progress := 100
	if _, err := o.jobs.Transition(ctx, job.ID, jobdomain.StatusRunning, jobdomain.StatusCompleted,
		jobdomain.TransitionParams{Progress: &progress}); err != nil {
		if errors.Is(err, jobdomain.ErrInvalidTransition) {
			// 並行するキャンセルに負けた場合は結果を上書きしない
			log.Warn("job no longer running at completion", slog.Any("error", err))
			return nil
		}
		return err
	}

	log.Info("job completed")
	return nil
}

// checkpoint は段階境界でジョブの状態を確認します
// 一時停止中は再開かキャンセルまで待機し、実行を続けられない場合は stop=true を返します
func (o *Orchestrator) checkpoint(ctx context.Context, jobID uuid.UUID, clonePath string, log *slog.Logger) (stop bool, err error) {
	for {
		current, err := o.jobs.GetByID(ctx, jobID)
		if err != nil {
			return true, err
		}

		switch current.Status {
		case jobdomain.StatusRunning:
			return false, nil
		case jobdomain.StatusPaused:
			log.Info("job paused, waiting at stage boundary")
			select {
			case <-ctx.Done():
				return true, ctx.Err()
			case <-time.After(o.pausePollInterval):
			}
		case jobdomain.StatusCanceled:
			log.Info("job canceled, stopping pipeline")
			o.cleanup(clonePath, log)
			return true, nil
		default:
			log.Warn("job left running state, stopping pipeline", slog.String("status", string(current.Status)))
			return true, nil
		}
	}
}

// fail はジョブを failed に倒し、作業ディレクトリを片付けてから元のエラーを返します
func (o *Orchestrator) fail(ctx context.Context, job *jobdomain.Job, clonePath string, cause error) error {
	o.cleanup(clonePath, o.log)

	message := cause.Error()
	if _, err := o.jobs.Transition(ctx, job.ID, jobdomain.StatusRunning, jobdomain.StatusFailed,
		jobdomain.TransitionParams{ErrorMessage: &message}); err != nil {
		if !errors.Is(err, jobdomain.ErrInvalidTransition) {
			o.log.Error("failed to mark job as failed",
				slog.String("job_id", job.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	o.log.Error("job failed",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(domain.KindOf(cause))),
		slog.Any("error", cause),
	)
	return cause
}

func (o *Orchestrator) cleanup(clonePath string, log *slog.Logger) {
	if clonePath == "" {
		return
	}
	if err := os.RemoveAll(clonePath); err != nil {
		log.Warn("failed to clean up work directory", slog.String("dir", clonePath), slog.Any("error", err))
	}
}

// writeDocSet は生成済みドキュメントを作業ツリーへ書き出します
func writeDocSet(root string, docSet domain.DocSet) error {
	for rel, content := range docSet {
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("document path escapes working tree: %s", rel)
		}
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create document directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write document %s: %w", rel, err)
		}
	}
	return nil
}
