package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	giturls "github.com/whilp/git-urls"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

const (
	defaultBranchPrefix  = "autodoc/docs-"
	defaultRemoteName    = "origin"
	defaultCommitMessage = "docs: update generated documentation"
)

// Publisher は作業ツリー内のドキュメント変更をブランチとして公開します
type Publisher struct {
	github     *GitHubClient
	retry      RetryPolicy
	token      string
	sshKeyPath string
	logger     *slog.Logger
}

// NewPublisher は新しいPublisherを作成します
func NewPublisher(github *GitHubClient, retry RetryPolicy, token, sshKeyPath string, logger *slog.Logger) *Publisher {
	return &Publisher{
		github:     github,
		retry:      retry,
		token:      token,
		sshKeyPath: sshKeyPath,
		logger:     logger,
	}
}

var _ domain.PatchPublisher = (*Publisher)(nil)

// Publish はドキュメントの変更だけをステージしてコミットし、新しいブランチをpushします
// 変更が1件もない場合はコミットを作らず「公開対象なし」の成功として返ります
// pushまで成功していればプルリクエスト作成の失敗は結果を壊しません
func (p *Publisher) Publish(ctx context.Context, workDir string, opts domain.PublishOptions) (*domain.PatchResult, error) {
	repo, err := git.PlainOpen(workDir)
	if err != nil {
		return nil, domain.NewStageError("publish", domain.KindValidation,
			fmt.Errorf("%w: %s", domain.ErrNotGitRepository, workDir))
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, domain.NewStageError("publish", domain.KindInternal, fmt.Errorf("failed to get worktree: %w", err))
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, domain.NewStageError("publish", domain.KindInternal, fmt.Errorf("failed to get worktree status: %w", err))
	}

	var docPaths []string
	for path, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
			continue
		}
		if isDocPath(path) {
			docPaths = append(docPaths, path)
		}
	}
	if len(docPaths) == 0 {
		p.logger.Info("no documentation changes to publish", slog.String("dir", workDir))
		return &domain.PatchResult{Published: false}, nil
	}

	prefix := opts.BranchPrefix
	if prefix == "" {
		prefix = defaultBranchPrefix
	}
	branchName := prefix + time.Now().Format("20060102-150405")

	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branchName),
		Create: true,
	}); err != nil {
		return nil, domain.NewStageError("publish", domain.KindInternal, fmt.Errorf("failed to create branch: %w", err))
	}

	for _, path := range docPaths {
		if _, err := worktree.Add(path); err != nil {
			return nil, domain.NewStageError("publish", domain.KindInternal, fmt.Errorf("failed to stage %s: %w", path, err))
		}
	}

	message := opts.CommitMessage
	if message == "" {
		message = defaultCommitMessage
	}
	commit, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "autodoc",
			Email: "autodoc@users.noreply.github.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, domain.NewStageError("publish", domain.KindInternal, fmt.Errorf("failed to commit: %w", err))
	}

	remoteName := opts.RemoteName
	if remoteName == "" {
		remoteName = defaultRemoteName
	}

	if err := p.push(ctx, repo, remoteName, branchName, opts.RepoURL); err != nil {
		return nil, err
	}

	result := &domain.PatchResult{
		Published:  true,
		BranchName: branchName,
		CommitHash: commit.String(),
	}

	p.logger.Info("published documentation branch",
		slog.String("branch", branchName),
		slog.String("commit", commit.String()[:8]),
		slog.Int("files", len(docPaths)),
	)

	if opts.CreatePR {
		p.createPullRequest(ctx, result, opts)
	}

	return result, nil
}

// isDocPath はステージ対象とするドキュメントのパスを判定します
func isDocPath(path string) bool {
	return strings.HasPrefix(path, "docs/") || strings.HasSuffix(path, ".md")
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository, remoteName, branchName, repoURL string) error {
	refSpec := gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branchName, branchName))

	auth, err := p.pushAuth(repoURL)
	if err != nil {
		return domain.NewStageError("publish", domain.KindAuth, err)
	}

	pushErr := p.retry.Do(ctx, func() error {
		err := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: remoteName,
			RefSpecs:   []gitcfg.RefSpec{refSpec},
			Auth:       auth,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return err
	}, func(err error) bool {
		return !errors.Is(err, transport.ErrAuthenticationRequired) &&
			!errors.Is(err, transport.ErrAuthorizationFailed)
	})
	if pushErr != nil {
		kind := domain.KindTransient
		if errors.Is(pushErr, transport.ErrAuthenticationRequired) || errors.Is(pushErr, transport.ErrAuthorizationFailed) {
			kind = domain.KindAuth
		}
		return domain.NewStageError("publish", kind, fmt.Errorf("failed to push branch: %w", pushErr))
	}
	return nil
}

// pushAuth はリモートURLの形式に応じたpush用の認証方法を返します
func (p *Publisher) pushAuth(repoURL string) (transport.AuthMethod, error) {
	if strings.HasPrefix(repoURL, "git@") || strings.HasPrefix(repoURL, "ssh://") {
		if p.sshKeyPath == "" {
			return nil, nil
		}
		auth, err := gitssh.NewPublicKeysFromFile("git", p.sshKeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return auth, nil
	}
	if p.token != "" {
		return &githttp.BasicAuth{
			Username: "token",
			Password: p.token,
		}, nil
	}
	return nil, nil
}

// createPullRequest はプルリクエストを作成し、結果へ番号とURLを記録します
// ブランチは既にpush済みのため、ここでの失敗は警告に留めます
func (p *Publisher) createPullRequest(ctx context.Context, result *domain.PatchResult, opts domain.PublishOptions) {
	owner, repoName, err := splitRepoURL(opts.RepoURL)
	if err != nil {
		p.logger.Warn("cannot determine pull request target", slog.String("url", opts.RepoURL), slog.Any("error", err))
		return
	}

	base := opts.BaseBranch
	if base == "" {
		base = "main"
	}

	var pr *PullRequest
	prErr := p.retry.Do(ctx, func() error {
		var err error
		pr, err = p.github.CreatePullRequest(ctx, owner, repoName, CreatePullRequestParams{
			Title: "docs: update generated documentation",
			Body:  fmt.Sprintf("Automated documentation update.\n\nBranch: `%s`", result.BranchName),
			Head:  result.BranchName,
			Base:  base,
		})
		return err
	}, isRetryableStatus)
	if prErr != nil {
		p.logger.Warn("failed to create pull request", slog.String("branch", result.BranchName), slog.Any("error", prErr))
		return
	}

	result.PRNumber = pr.Number
	result.PRURL = pr.HTMLURL

	if err := p.github.AddLabels(ctx, owner, repoName, pr.Number, opts.Labels); err != nil {
		p.logger.Warn("failed to add labels", slog.Int("pr", pr.Number), slog.Any("error", err))
	}
	if err := p.github.RequestReviewers(ctx, owner, repoName, pr.Number, opts.Reviewers); err != nil {
		p.logger.Warn("failed to request reviewers", slog.Int("pr", pr.Number), slog.Any("error", err))
	}

	p.logger.Info("created pull request", slog.Int("number", pr.Number), slog.String("url", pr.HTMLURL))
}

// splitRepoURL はリモートURLから owner/repo を取り出します
func splitRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := giturls.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse repository URL: %w", err)
	}
	path := strings.TrimPrefix(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("repository URL has no owner/name: %s", repoURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
