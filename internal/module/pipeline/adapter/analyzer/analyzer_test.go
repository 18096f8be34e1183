package analyzer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/adapter/analyzer"
	"github.com/jinford/autodoc/internal/module/pipeline/domain"
	"github.com/jinford/autodoc/internal/platform/logger"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func findFile(files []*domain.FileSummary, path string) *domain.FileSummary {
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

func TestAnalyzer_Analyze_GoFile(t *testing.T) {
	// Setup
	root := t.TempDir()
	writeFile(t, root, "pkg/store.go", `package pkg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store は保存の入口です
type Store struct {
	mu   int
	name string
}

// Saver は保存操作のインターフェースです
type Saver interface {
	Save(ctx context.Context, id uuid.UUID) error
}

// Save は値を保存します
func (s *Store) Save(ctx context.Context, id uuid.UUID) error {
	return fmt.Errorf("not implemented")
}

func helper(n int) int { return n + 1 }
`)

	a := analyzer.NewAnalyzer(logger.Discard())

	// Execute
	summary, err := a.Analyze(context.Background(), root)

	// Assert
	require.NoError(t, err)
	file := findFile(summary.Files, "pkg/store.go")
	require.NotNil(t, file)
	assert.Equal(t, "Go", file.Language)
	assert.False(t, file.ParseFailed)

	require.Len(t, file.Functions, 2)
	assert.Equal(t, "Store.Save", file.Functions[0].Name)
	assert.Equal(t, []string{"ctx context.Context", "id uuid.UUID"}, file.Functions[0].Params)
	assert.Equal(t, "Store は保存の入口です", findType(file.Types, "Store").DocComment)
	assert.Equal(t, []string{"mu", "name"}, findType(file.Types, "Store").Members)
	assert.Equal(t, []string{"Save"}, findType(file.Types, "Saver").Members)

	require.Len(t, file.Imports, 3)
	assert.Equal(t, domain.ImportStdlib, file.Imports[0].Kind)
	assert.Equal(t, domain.ImportThirdParty, file.Imports[2].Kind)
}

func TestAnalyzer_Analyze_BrokenGoFileIsRecordedNotFatal(t *testing.T) {
	// Setup
	root := t.TempDir()
	writeFile(t, root, "broken.go", "package {{{ nope")
	writeFile(t, root, "ok.go", "package ok\n\nfunc OK() {}\n")

	a := analyzer.NewAnalyzer(logger.Discard())

	// Execute
	summary, err := a.Analyze(context.Background(), root)

	// Assert: 解析失敗はファイル単位で記録され、走査全体は成功する
	require.NoError(t, err)

	broken := findFile(summary.Files, "broken.go")
	require.NotNil(t, broken)
	assert.True(t, broken.ParseFailed)
	assert.Empty(t, broken.Functions)
	assert.Positive(t, broken.Lines)

	ok := findFile(summary.Files, "ok.go")
	require.NotNil(t, ok)
	assert.False(t, ok.ParseFailed)
	require.Len(t, ok.Functions, 1)
}

func TestAnalyzer_Analyze_PythonImportKinds(t *testing.T) {
	// Setup
	root := t.TempDir()
	writeFile(t, root, "app.py", `import os
import requests
from .models import Job
from fastapi import FastAPI

class JobManager(BaseManager):
    def start(self, job_id):
        pass

def main():
    pass
`)

	a := analyzer.NewAnalyzer(logger.Discard())

	// Execute
	summary, err := a.Analyze(context.Background(), root)

	// Assert
	require.NoError(t, err)
	file := findFile(summary.Files, "app.py")
	require.NotNil(t, file)

	kinds := map[string]domain.ImportKind{}
	for _, imp := range file.Imports {
		kinds[imp.Module] = imp.Kind
	}
	assert.Equal(t, domain.ImportStdlib, kinds["os"])
	assert.Equal(t, domain.ImportDirect, kinds["requests"])
	assert.Equal(t, domain.ImportRelative, kinds[".models"])
	assert.Equal(t, domain.ImportFrom, kinds["fastapi"])

	require.Len(t, file.Types, 1)
	assert.Equal(t, "JobManager", file.Types[0].Name)
	assert.Equal(t, []string{"BaseManager"}, file.Types[0].Supertypes)
	require.Len(t, file.Functions, 2)
}

func TestAnalyzer_Analyze_UnreadableSubdirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	// Setup
	root := t.TempDir()
	writeFile(t, root, "ok.go", "package ok\n\nfunc OK() {}\n")
	writeFile(t, root, "locked/inner.go", "package locked\n")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked"), 0o755) })

	a := analyzer.NewAnalyzer(logger.Discard())

	// Execute
	summary, err := a.Analyze(context.Background(), root)

	// Assert: 読めないサブディレクトリがあっても解析は成功する
	require.NoError(t, err)
	assert.NotNil(t, findFile(summary.Files, "ok.go"))
	assert.Nil(t, findFile(summary.Files, "locked/inner.go"))
}

func TestAnalyzer_Analyze_RespectsGitignore(t *testing.T) {
	// Setup
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "generated/gen.go", "package gen\n")
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	a := analyzer.NewAnalyzer(logger.Discard())

	// Execute
	summary, err := a.Analyze(context.Background(), root)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, findFile(summary.Files, "generated/gen.go"))
	assert.NotNil(t, findFile(summary.Files, "main.go"))
}

func findType(infos []domain.TypeInfo, name string) domain.TypeInfo {
	for _, info := range infos {
		if info.Name == name {
			return info
		}
	}
	return domain.TypeInfo{}
}
