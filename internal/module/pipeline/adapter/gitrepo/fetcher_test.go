package gitrepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/adapter/gitrepo"
	"github.com/jinford/autodoc/internal/module/pipeline/domain"
	"github.com/jinford/autodoc/internal/platform/logger"
)

func newTestFetcher(t *testing.T) (*gitrepo.Fetcher, string) {
	t.Helper()
	baseDir := t.TempDir()
	resolver := gitrepo.NewResolver(gitrepo.Credentials{})
	return gitrepo.NewFetcher(baseDir, 5*time.Second, resolver, logger.Discard()), baseDir
}

func TestFetcher_Fetch_InvalidRemote(t *testing.T) {
	// Setup: 存在しないローカルパスをリモートとして指定する
	fetcher, baseDir := newTestFetcher(t)

	// Execute
	_, err := fetcher.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing"))

	// Assert: 失敗時は分類済みエラーが返り、作業ディレクトリは残らない
	require.Error(t, err)
	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "fetch", stageErr.Stage)

	entries, readErr := os.ReadDir(baseDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestFetcher_PruneOld(t *testing.T) {
	// Setup: 更新時刻の異なる作業ディレクトリを3つ用意する
	fetcher, baseDir := newTestFetcher(t)

	now := time.Now()
	for i, name := range []string{"repo-old", "repo-mid", "repo-new"} {
		dir := filepath.Join(baseDir, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		mtime := now.Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, os.Chtimes(dir, mtime, mtime))
	}

	// Execute
	removed, err := fetcher.PruneOld(1)

	// Assert: 最新の1件だけが残る
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "repo-new", entries[0].Name())
}

func TestFetcher_PruneOld_MissingBaseDir(t *testing.T) {
	// Setup
	resolver := gitrepo.NewResolver(gitrepo.Credentials{})
	fetcher := gitrepo.NewFetcher(filepath.Join(t.TempDir(), "nope"), time.Second, resolver, logger.Discard())

	// Execute
	removed, err := fetcher.PruneOld(3)

	// Assert: ベースディレクトリ不在は削除0件の成功として扱う
	require.NoError(t, err)
	assert.Zero(t, removed)
}
