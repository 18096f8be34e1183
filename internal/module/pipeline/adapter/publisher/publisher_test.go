package publisher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/adapter/publisher"
	"github.com/jinford/autodoc/internal/module/pipeline/domain"
	"github.com/jinford/autodoc/internal/platform/logger"
)

func newTestPublisher() *publisher.Publisher {
	return publisher.NewPublisher(
		publisher.NewGitHubClient("", ""),
		publisher.RetryPolicy{MaxRetries: 0, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		"", "",
		logger.Discard(),
	)
}

// initWorkRepo は初期コミット済みの作業リポジトリとpush先のベアリポジトリを用意します
func initWorkRepo(t *testing.T) (workDir, bareDir string) {
	t.Helper()

	workDir = t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "main.go"), []byte("package main\n"), 0o644))
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("main.go")
	require.NoError(t, err)
	_, err = worktree.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	bareDir = t.TempDir()
	_, err = git.PlainInit(bareDir, true)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{bareDir}})
	require.NoError(t, err)

	return workDir, bareDir
}

func TestPublisher_Publish_NoChangesIsNoop(t *testing.T) {
	// Setup
	workDir, _ := initWorkRepo(t)
	p := newTestPublisher()

	// Execute
	result, err := p.Publish(context.Background(), workDir, domain.PublishOptions{})

	// Assert: 変更なしはコミットを作らずに成功する
	require.NoError(t, err)
	assert.False(t, result.Published)
	assert.Empty(t, result.BranchName)
}

func TestPublisher_Publish_DocChanges(t *testing.T) {
	// Setup
	workDir, bareDir := initWorkRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "docs", "overview.md"), []byte("# Overview\n"), 0o644))
	p := newTestPublisher()

	// Execute
	result, err := p.Publish(context.Background(), workDir, domain.PublishOptions{
		BranchPrefix: "autodoc/docs-",
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.Contains(t, result.BranchName, "autodoc/docs-")
	assert.Len(t, result.CommitHash, 40)

	// push先のベアリポジトリに新しいブランチ参照がある
	bare, err := git.PlainOpen(bareDir)
	require.NoError(t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName(result.BranchName), true)
	require.NoError(t, err)
	assert.Equal(t, result.CommitHash, ref.Hash().String())
}

func TestPublisher_Publish_IgnoresNonDocChanges(t *testing.T) {
	// Setup: ドキュメント以外の変更だけでは公開対象なしになる
	workDir, _ := initWorkRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "notes.txt"), []byte("scratch\n"), 0o644))
	p := newTestPublisher()

	// Execute
	result, err := p.Publish(context.Background(), workDir, domain.PublishOptions{})

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Published)
}

func TestPublisher_Publish_NotGitRepository(t *testing.T) {
	// Setup
	p := newTestPublisher()

	// Execute
	_, err := p.Publish(context.Background(), t.TempDir(), domain.PublishOptions{})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotGitRepository)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
