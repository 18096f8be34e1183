package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

// JobCreateAction はドキュメント生成ジョブを登録するコマンドのアクション
func JobCreateAction(ctx context.Context, cmd *cli.Command) error {
	repoURL := cmd.String("url")
	provider := cmd.String("provider")
	model := cmd.String("model")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	job, err := appCtx.Container.JobService.CreateJob(ctx, repoURL, provider, model)
	if err != nil {
		return err
	}

	slog.Info("Job created", "jobID", job.ID, "url", repoURL)
	printJob(job)
	return nil
}

// JobListAction はジョブ一覧を表示するコマンドのアクション
func JobListAction(ctx context.Context, cmd *cli.Command) error {
	statusStr := cmd.String("status")
	limit := cmd.Int("limit")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	filter := domain.JobFilter{Limit: int(limit)}
	if statusStr != "" {
		status := domain.JobStatus(statusStr)
		filter.Status = &status
	}

	jobs, err := appCtx.Container.JobService.ListJobs(ctx, filter)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("no jobs found")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-8s  %-5s  %s\n", "ID", "STATUS", "PROGRESS", "RETRY", "CREATED")
	for _, job := range jobs {
		fmt.Printf("%-36s  %-10s  %7d%%  %5d  %s\n",
			job.ID, job.Status, job.Progress, job.RetryCount,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

// JobShowAction はジョブ詳細を表示するコマンドのアクション
func JobShowAction(ctx context.Context, cmd *cli.Command) error {
	return withJob(ctx, cmd, func(ctx context.Context, appCtx *AppContext, jobID uuid.UUID) (*domain.Job, error) {
		return appCtx.Container.JobService.GetJob(ctx, jobID)
	})
}

// JobCancelAction はジョブをキャンセルするコマンドのアクション
func JobCancelAction(ctx context.Context, cmd *cli.Command) error {
	return withJob(ctx, cmd, func(ctx context.Context, appCtx *AppContext, jobID uuid.UUID) (*domain.Job, error) {
		return appCtx.Container.JobService.CancelJob(ctx, jobID)
	})
}

// JobPauseAction は実行中のジョブを一時停止するコマンドのアクション
func JobPauseAction(ctx context.Context, cmd *cli.Command) error {
	return withJob(ctx, cmd, func(ctx context.Context, appCtx *AppContext, jobID uuid.UUID) (*domain.Job, error) {
		return appCtx.Container.JobService.PauseJob(ctx, jobID)
	})
}

// JobResumeAction は一時停止中のジョブを再開するコマンドのアクション
func JobResumeAction(ctx context.Context, cmd *cli.Command) error {
	return withJob(ctx, cmd, func(ctx context.Context, appCtx *AppContext, jobID uuid.UUID) (*domain.Job, error) {
		return appCtx.Container.JobService.ResumeJob(ctx, jobID)
	})
}

// JobRetryAction は失敗したジョブを再試行するコマンドのアクション
func JobRetryAction(ctx context.Context, cmd *cli.Command) error {
	return withJob(ctx, cmd, func(ctx context.Context, appCtx *AppContext, jobID uuid.UUID) (*domain.Job, error) {
		return appCtx.Container.JobService.RetryJob(ctx, jobID)
	})
}

// withJob はジョブIDを受け取る単一操作コマンドの共通処理です
func withJob(ctx context.Context, cmd *cli.Command, fn func(context.Context, *AppContext, uuid.UUID) (*domain.Job, error)) error {
	jobID, err := uuid.Parse(cmd.String("job-id"))
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	job, err := fn(ctx, appCtx, jobID)
	if err != nil {
		return err
	}

	printJob(job)
	return nil
}

func printJob(job *domain.Job) {
	fmt.Printf("ID:          %s\n", job.ID)
	fmt.Printf("Repository:  %s\n", job.RepoID)
	fmt.Printf("Status:      %s\n", job.Status)
	fmt.Printf("Provider:    %s (%s)\n", job.Provider, job.ModelName)
	fmt.Printf("Progress:    %d%%\n", job.Progress)
	fmt.Printf("Retries:     %d\n", job.RetryCount)
	if job.ClonePath != nil {
		fmt.Printf("Clone path:  %s\n", *job.ClonePath)
	}
	if job.ErrorMessage != nil {
		fmt.Printf("Error:       %s\n", *job.ErrorMessage)
	}
	fmt.Printf("Created:     %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:     %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))
}
