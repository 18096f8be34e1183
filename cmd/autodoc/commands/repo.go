package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// RepoAddAction はリポジトリを登録するコマンドのアクション
func RepoAddAction(ctx context.Context, cmd *cli.Command) error {
	repoURL := cmd.String("url")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	repo, err := appCtx.Container.RepoService.AddRepo(ctx, repoURL)
	if err != nil {
		return err
	}

	slog.Info("Repository registered", "repoID", repo.ID, "url", repo.URL)
	fmt.Printf("ID:      %s\n", repo.ID)
	fmt.Printf("Name:    %s\n", repo.Name)
	fmt.Printf("URL:     %s\n", repo.URL)
	fmt.Printf("Status:  %s\n", repo.Status)
	return nil
}

// RepoListAction は登録済みリポジトリの一覧を表示するコマンドのアクション
func RepoListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	repos, err := appCtx.Container.RepoService.ListRepos(ctx)
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		fmt.Println("no repositories registered")
		return nil
	}

	fmt.Printf("%-36s  %-12s  %-24s  %s\n", "ID", "STATUS", "NAME", "URL")
	for _, repo := range repos {
		fmt.Printf("%-36s  %-12s  %-24s  %s\n", repo.ID, repo.Status, repo.Name, repo.URL)
	}
	return nil
}
