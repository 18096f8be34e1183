package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// WorkerRunAction はワーカープールを起動するコマンドのアクション
// SIGINT/SIGTERMでコンテキストがキャンセルされるまで動き続けます
func WorkerRunAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if workers := cmd.Int("workers"); workers > 0 {
		appCtx.Config.Worker.Workers = int(workers)
	}

	pool, err := appCtx.Container.BuildWorkerPool()
	if err != nil {
		return err
	}

	slog.Info("Starting worker", "workers", appCtx.Config.Worker.Workers)
	return pool.Run(ctx)
}

// PruneAction は古い作業ディレクトリを手動で削除するコマンドのアクション
func PruneAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	keep := int(cmd.Int("keep"))
	if keep <= 0 {
		keep = appCtx.Config.Worker.PruneKeep
	}

	fetcher := appCtx.Container.BuildFetcher()
	removed, err := fetcher.PruneOld(keep)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d work directories (kept %d most recent)\n", removed, keep)
	return nil
}
