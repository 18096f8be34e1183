package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// defaultMaxFileSize は構造解析の対象とするファイルサイズの上限です
const defaultMaxFileSize = 1 << 20 // 1MiB

// Analyzer はソースツリーを走査して構造サマリを構築します
type Analyzer struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewAnalyzer は新しいAnalyzerを作成します
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		maxFileSize: defaultMaxFileSize,
		logger:      logger,
	}
}

var _ domain.StructureAnalyzer = (*Analyzer)(nil)

// Analyze は root 配下を走査し、ファイルごとの構造サマリを収集します
// 個々のファイルの解析失敗はジョブを止めず、ParseFailed として記録します
func (a *Analyzer) Analyze(ctx context.Context, root string) (*domain.StructuralSummary, error) {
	ignoreFilter, err := NewIgnoreFilter(root)
	if err != nil {
		return nil, domain.NewStageError("analysis", domain.KindInternal, err)
	}

	summary := &domain.StructuralSummary{Root: root}

	if err := a.walk(ctx, os.DirFS(root), ignoreFilter, summary); err != nil {
		return nil, domain.NewStageError("analysis", domain.KindInternal, fmt.Errorf("failed to walk source tree: %w", err))
	}

	return summary, nil
}

// walk は fsys を走査してサマリへ追記します
// 読み取れないエントリは走査全体を止めず、警告を残してスキップします
// ルート自体が読めない場合のみエラーを返します
func (a *Analyzer) walk(ctx context.Context, fsys fs.FS, ignoreFilter *IgnoreFilter, summary *domain.StructuralSummary) error {
	return fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel == "." {
				return err
			}
			a.logger.Warn("skipping unreadable entry", slog.String("path", rel), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || ignoreFilter.ShouldIgnore(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if ignoreFilter.ShouldIgnore(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			a.logger.Warn("skipping unreadable entry", slog.String("path", rel), slog.Any("error", err))
			return nil
		}
		if info.Size() > a.maxFileSize {
			a.logger.Debug("skipping oversized file", slog.String("path", rel), slog.Int64("size", info.Size()))
			return nil
		}

		content, err := fs.ReadFile(fsys, rel)
		if err != nil {
			a.logger.Warn("failed to read file", slog.String("path", rel), slog.Any("error", err))
			return nil
		}
		if enry.IsBinary(content) {
			return nil
		}

		file := &domain.FileSummary{
			Path:     rel,
			Language: enry.GetLanguage(path.Base(rel), content),
			Size:     info.Size(),
			Lines:    countLines(content),
		}
		a.extract(file, content)

		summary.Files = append(summary.Files, file)
		return nil
	})
}

// extract は言語に応じた抽出器で構造情報を取り出します
// 対応しない言語はサイズと行数のみ記録します
func (a *Analyzer) extract(file *domain.FileSummary, content []byte) {
	switch file.Language {
	case "Go":
		if err := extractGo(file, content); err != nil {
			a.logger.Warn("failed to parse go file", slog.String("path", file.Path), slog.Any("error", err))
			file.ParseFailed = true
			file.Functions = nil
			file.Types = nil
			file.Imports = nil
		}
	case "Python":
		extractPython(file, content)
	case "JavaScript", "TypeScript", "TSX", "JSX":
		extractJavaScript(file, content)
	}
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
