package gitrepo

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	giturls "github.com/whilp/git-urls"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// Fetcher はリモートリポジトリを一時作業ディレクトリへ浅くクローンします
type Fetcher struct {
	baseDir      string
	cloneTimeout time.Duration
	resolver     domain.CredentialResolver
	logger       *slog.Logger
}

// NewFetcher は新しいFetcherを作成します
func NewFetcher(baseDir string, cloneTimeout time.Duration, resolver domain.CredentialResolver, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		baseDir:      baseDir,
		cloneTimeout: cloneTimeout,
		resolver:     resolver,
		logger:       logger,
	}
}

var _ domain.SourceFetcher = (*Fetcher)(nil)

// Fetch はリポジトリを depth=1 でクローンし、作業ディレクトリのパスを返します
// 失敗時は部分的に作成されたディレクトリを削除してから分類済みエラーを返します
func (f *Fetcher) Fetch(ctx context.Context, repoURL string) (string, error) {
	auth := f.resolver.Resolve(repoURL)

	destDir, err := f.workDir(repoURL)
	if err != nil {
		return "", domain.NewStageError("fetch", domain.KindValidation, err)
	}
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return "", domain.NewStageError("fetch", domain.KindInternal, fmt.Errorf("failed to create base directory: %w", err))
	}

	if f.cloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cloneTimeout)
		defer cancel()
	}

	opts := &git.CloneOptions{
		URL:          auth.URL,
		Depth:        1,
		SingleBranch: true,
	}
	if auth.UseSSH {
		sshAuth, err := f.sshAuth(auth.SSHKeyPath)
		if err != nil {
			return "", domain.NewStageError("fetch", domain.KindAuth, err)
		}
		opts.Auth = sshAuth
	}

	f.logger.Info("cloning repository",
		slog.String("url", repoURL),
		slog.String("dest", destDir),
		slog.Bool("ssh", auth.UseSSH),
		slog.Bool("token", auth.UseToken),
	)

	if _, err := git.PlainCloneContext(ctx, destDir, false, opts); err != nil {
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			f.logger.Warn("failed to clean up partial clone", slog.String("dir", destDir), slog.Any("error", rmErr))
		}
		return "", domain.NewStageError("fetch", classifyCloneError(err), fmt.Errorf("failed to clone repository: %w", err))
	}

	return destDir, nil
}

// workDir はリポジトリ名とURL+時刻のハッシュから衝突しない作業ディレクトリ名を作ります
func (f *Fetcher) workDir(repoURL string) (string, error) {
	u, err := giturls.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse git URL: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(u.Path), ".git")
	if name == "" || name == "." || name == "/" {
		name = "repo"
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", repoURL, time.Now().UnixNano())))
	return filepath.Join(f.baseDir, fmt.Sprintf("%s-%x", name, sum[:6])), nil
}

// sshAuth はSSH秘密鍵を読み込みます
// 指定された鍵のみを使用し、エージェントやデフォルト鍵へはフォールバックしません
func (f *Fetcher) sshAuth(keyPath string) (*gitssh.PublicKeys, error) {
	if _, err := os.Stat(keyPath); err != nil {
		return nil, fmt.Errorf("ssh key not accessible: %w", err)
	}
	auth, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return auth, nil
}

// classifyCloneError はgo-gitのエラーを障害分類に対応付けます
func classifyCloneError(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return domain.KindAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return domain.KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.KindTransient
	default:
		return domain.KindTransient
	}
}

// PruneOld は更新時刻の新しい順に keep 件を残し、残りの作業ディレクトリを削除します
func (f *Fetcher) PruneOld(keep int) (int, error) {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read base directory: %w", err)
	}

	type dirInfo struct {
		path    string
		modTime time.Time
	}
	var dirs []dirInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirInfo{path: filepath.Join(f.baseDir, e.Name()), modTime: info.ModTime()})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].modTime.After(dirs[j].modTime)
	})

	removed := 0
	for i := keep; i < len(dirs); i++ {
		if err := os.RemoveAll(dirs[i].path); err != nil {
			f.logger.Warn("failed to remove old work directory", slog.String("dir", dirs[i].path), slog.Any("error", err))
			continue
		}
		removed++
	}
	return removed, nil
}
