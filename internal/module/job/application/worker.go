package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

// orphanedMessage は孤児ジョブを failed に倒すときの理由です
const orphanedMessage = "worker terminated while job was running"

// JobRunner は確保済みのジョブを実行する実行器です
type JobRunner interface {
	Run(ctx context.Context, job *domain.Job) error
}

// WorkDirPruner は古い作業ディレクトリを削除します
type WorkDirPruner interface {
	PruneOld(keep int) (int, error)
}

// WorkerPoolConfig はワーカープールの設定です
type WorkerPoolConfig struct {
	// Workers は並行して動くワーカー数
	Workers int
	// ClaimInterval は確保できるジョブがなかったときの待機時間
	ClaimInterval time.Duration
	// StaleAfter は起動時に孤児とみなす running ジョブの更新途絶時間
	StaleAfter time.Duration
	// PruneKeep は作業ディレクトリを残す件数
	PruneKeep int
	// PruneInterval は作業ディレクトリを整理する間隔（0で無効）
	PruneInterval time.Duration
}

// DefaultWorkerPoolConfig はデフォルトのワーカープール設定を返します
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:       2,
		ClaimInterval: 3 * time.Second,
		StaleAfter:    30 * time.Minute,
		PruneKeep:     5,
		PruneInterval: time.Hour,
	}
}

// WorkerPool は pending のジョブを確保してパイプラインを実行するワーカー群です
type WorkerPool struct {
	jobs   domain.JobStore
	runner JobRunner
	pruner WorkDirPruner
	cfg    WorkerPoolConfig
	log    *slog.Logger
}

// NewWorkerPool は新しいWorkerPoolを作成します
func NewWorkerPool(jobs domain.JobStore, runner JobRunner, pruner WorkDirPruner, cfg WorkerPoolConfig, log *slog.Logger) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &WorkerPool{
		jobs:   jobs,
		runner: runner,
		pruner: pruner,
		cfg:    cfg,
		log:    log,
	}
}

// Run はワーカー群を起動し、コンテキストのキャンセルまで動き続けます
// 起動時に、前回のプロセス終了で取り残された running ジョブを failed に倒します
func (p *WorkerPool) Run(ctx context.Context) error {
	recovered, err := p.jobs.FailOrphaned(ctx, p.cfg.StaleAfter, orphanedMessage)
	if err != nil {
		return fmt.Errorf("failed to recover orphaned jobs: %w", err)
	}
	if recovered > 0 {
		p.log.Warn("recovered orphaned jobs", slog.Int64("count", recovered))
	}

	p.log.Info("starting worker pool", slog.Int("workers", p.cfg.Workers))

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(ctx, id)
		}(i)
	}

	if p.pruner != nil && p.cfg.PruneInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.pruneLoop(ctx)
		}()
	}

	wg.Wait()
	p.log.Info("worker pool stopped")
	return nil
}

func (p *WorkerPool) workerLoop(ctx context.Context, id int) {
	log := p.log.With(slog.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.jobs.ClaimPending(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrJobNotFound) {
				log.Error("failed to claim job", slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.ClaimInterval):
			}
			continue
		}

		log.Info("claimed job", slog.String("job_id", job.ID.String()))
		if err := p.runner.Run(ctx, job); err != nil {
			// 失敗の記録と状態遷移は実行器側で済んでいる
			log.Debug("job run returned error", slog.String("job_id", job.ID.String()), slog.Any("error", err))
		}
	}
}

func (p *WorkerPool) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.pruner.PruneOld(p.cfg.PruneKeep)
			if err != nil {
				p.log.Warn("failed to prune work directories", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				p.log.Info("pruned old work directories", slog.Int("removed", removed))
			}
		}
	}
}
