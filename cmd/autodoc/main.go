package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/autodoc/cmd/autodoc/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
	jobIDFlag := &cli.StringFlag{
		Name:     "job-id",
		Usage:    "ジョブID",
		Required: true,
	}

	app := &cli.Command{
		Name:  "autodoc",
		Usage: "リポジトリのドキュメントを自動生成・公開するジョブパイプライン",
		Commands: []*cli.Command{
			{
				Name:  "job",
				Usage: "ドキュメント生成ジョブ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "ジョブを登録",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "url",
								Usage:    "対象リポジトリのURL",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "provider",
								Usage: "LLMプロバイダ",
								Value: "openai",
							},
							&cli.StringFlag{
								Name:  "model",
								Usage: "モデル名",
								Value: "gpt-4o-mini",
							},
						},
						Action: commands.JobCreateAction,
					},
					{
						Name:  "list",
						Usage: "ジョブ一覧を表示",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:  "status",
								Usage: "状態でフィルタ (pending/running/paused/completed/failed/canceled)",
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "表示件数の上限",
								Value: 50,
							},
						},
						Action: commands.JobListAction,
					},
					{
						Name:   "show",
						Usage:  "ジョブ詳細を表示",
						Flags:  []cli.Flag{envFlag, jobIDFlag},
						Action: commands.JobShowAction,
					},
					{
						Name:   "cancel",
						Usage:  "ジョブをキャンセル",
						Flags:  []cli.Flag{envFlag, jobIDFlag},
						Action: commands.JobCancelAction,
					},
					{
						Name:   "pause",
						Usage:  "実行中のジョブを一時停止",
						Flags:  []cli.Flag{envFlag, jobIDFlag},
						Action: commands.JobPauseAction,
					},
					{
						Name:   "resume",
						Usage:  "一時停止中のジョブを再開",
						Flags:  []cli.Flag{envFlag, jobIDFlag},
						Action: commands.JobResumeAction,
					},
					{
						Name:   "retry",
						Usage:  "失敗したジョブを再試行",
						Flags:  []cli.Flag{envFlag, jobIDFlag},
						Action: commands.JobRetryAction,
					},
				},
			},
			{
				Name:  "repo",
				Usage: "リポジトリ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "リポジトリを登録",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "url",
								Usage:    "リポジトリのURL",
								Required: true,
							},
						},
						Action: commands.RepoAddAction,
					},
					{
						Name:   "list",
						Usage:  "登録済みリポジトリの一覧を表示",
						Flags:  []cli.Flag{envFlag},
						Action: commands.RepoListAction,
					},
				},
			},
			{
				Name:  "worker",
				Usage: "ワーカー関連コマンド",
				Commands: []*cli.Command{
					{
						Name:  "run",
						Usage: "ワーカープールを起動",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:  "workers",
								Usage: "ワーカー数（省略時は環境変数またはデフォルト）",
							},
						},
						Action: commands.WorkerRunAction,
					},
					{
						Name:  "prune",
						Usage: "古い作業ディレクトリを削除",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:  "keep",
								Usage: "残す作業ディレクトリの件数",
							},
						},
						Action: commands.PruneAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
