package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFilter は .gitignore と .autodocignore のパターンマッチングを提供します
type IgnoreFilter struct {
	patterns *gitignore.GitIgnore
}

// NewIgnoreFilter は新しいIgnoreFilterを作成します
// repoPath 配下の .gitignore と .autodocignore を読み込みます
func NewIgnoreFilter(repoPath string) (*IgnoreFilter, error) {
	var patterns []string

	for _, name := range []string{".gitignore", ".autodocignore"} {
		path := filepath.Join(repoPath, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		filePatterns, err := readIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		patterns = append(patterns, filePatterns...)
	}

	patterns = append(patterns, defaultIgnorePatterns()...)

	return &IgnoreFilter{
		patterns: gitignore.CompileIgnoreLines(patterns...),
	}, nil
}

// ShouldIgnore はパスが除外対象かどうかを判定します
func (f *IgnoreFilter) ShouldIgnore(path string) bool {
	if f.patterns == nil {
		return false
	}
	return f.patterns.MatchesPath(path)
}

// readIgnoreFile は ignore ファイルを読み込んでパターンのスライスを返します
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// defaultIgnorePatterns は構造解析の対象外とするデフォルトのパターンです
func defaultIgnorePatterns() []string {
	return []string{
		// Git関連
		".git",
		".gitignore",
		".gitattributes",
		".gitmodules",

		// 依存関係・ビルド成果物
		"node_modules",
		"vendor",
		"dist",
		"build",
		"target",
		"out",
		"bin",
		".next",
		".nuxt",

		// IDE/エディタ関連
		".vscode",
		".idea",
		".DS_Store",
		"*.swp",

		// ログ・一時ファイル
		"*.log",
		"logs",
		"*.tmp",
		"tmp",

		// 機密情報
		".env",
		".env.local",
		"*.pem",
		"*.key",

		// バイナリ・アーカイブ
		"*.exe",
		"*.dll",
		"*.so",
		"*.dylib",
		"*.a",
		"*.o",
		"*.jar",
		"*.zip",
		"*.tar",
		"*.gz",

		// 画像・メディア
		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"*.ico",
		"*.svg",
		"*.mp4",
		"*.mp3",

		// フォント
		"*.ttf",
		"*.woff",
		"*.woff2",

		// データベースファイル
		"*.db",
		"*.sqlite",

		// テストカバレッジ・キャッシュ
		"coverage",
		"*.lcov",
		".cache",
		"__pycache__",
		"*.pyc",
		".pytest_cache",
	}
}
