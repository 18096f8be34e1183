package analyzer

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
	"github.com/jinford/autodoc/internal/platform/logger"
)

// deniedDirFS は指定ディレクトリの読み取りだけを権限エラーにするfs.FSです
type deniedDirFS struct {
	fs.FS
	denied string
}

func (f deniedDirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name == f.denied {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return fs.ReadDir(f.FS, name)
}

func TestAnalyzer_Walk_UnreadableDirectoryIsSkipped(t *testing.T) {
	// Setup
	fsys := deniedDirFS{
		FS: fstest.MapFS{
			"ok.go":           &fstest.MapFile{Data: []byte("package ok\n\nfunc OK() {}\n")},
			"locked/inner.go": &fstest.MapFile{Data: []byte("package locked\n")},
		},
		denied: "locked",
	}
	ignoreFilter, err := NewIgnoreFilter(t.TempDir())
	require.NoError(t, err)

	a := NewAnalyzer(logger.Discard())
	summary := &domain.StructuralSummary{Root: "."}

	// Execute
	walkErr := a.walk(context.Background(), fsys, ignoreFilter, summary)

	// Assert: 読めないディレクトリは飛ばし、残りのファイルは収集される
	require.NoError(t, walkErr)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, "ok.go", summary.Files[0].Path)
}

func TestAnalyzer_Walk_UnreadableRootFails(t *testing.T) {
	// Setup
	fsys := deniedDirFS{FS: fstest.MapFS{}, denied: "."}
	ignoreFilter, err := NewIgnoreFilter(t.TempDir())
	require.NoError(t, err)

	a := NewAnalyzer(logger.Discard())
	summary := &domain.StructuralSummary{Root: "."}

	// Execute
	walkErr := a.walk(context.Background(), fsys, ignoreFilter, summary)

	// Assert: ルート自体が読めない場合のみ失敗する
	require.Error(t, walkErr)
	assert.ErrorIs(t, walkErr, fs.ErrPermission)
}
