package analyzer

import (
	"regexp"
	"strings"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// 正規表現ベースの抽出器
// ASTを持たない言語向けのフォールバックで、トップレベルの宣言形だけを拾います
// 取りこぼしは許容し、構造が得られないファイルはサイズと行数のみの記録になります

var (
	pyFuncRe        = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)`)
	pyClassRe       = regexp.MustCompile(`^\s*class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`)
	pyImportRe      = regexp.MustCompile(`^\s*import\s+([\w.]+)(?:\s+as\s+(\w+))?`)
	pyFromImportRe  = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`)
	jsFuncRe        = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(([^)]*)\)`)
	jsClassRe       = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+(\w+)(?:\s+extends\s+([\w.]+))?`)
	jsImportRe      = regexp.MustCompile(`^\s*import\s+(?:.*?\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe     = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsArrowFuncRe   = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\(([^)]*)\)\s*(?::\s*[^=]+)?=>`)
)

// pythonStdlib はインポート分類に使う主要な標準ライブラリモジュールです
var pythonStdlib = map[string]bool{
	"abc": true, "argparse": true, "asyncio": true, "base64": true,
	"collections": true, "contextlib": true, "copy": true, "csv": true,
	"dataclasses": true, "datetime": true, "enum": true, "functools": true,
	"hashlib": true, "io": true, "itertools": true, "json": true,
	"logging": true, "math": true, "os": true, "pathlib": true,
	"random": true, "re": true, "shutil": true, "socket": true,
	"string": true, "subprocess": true, "sys": true, "tempfile": true,
	"threading": true, "time": true, "typing": true, "unittest": true,
	"urllib": true, "uuid": true,
}

// nodeBuiltins はNode.jsの組み込みモジュールです
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "crypto": true,
	"events": true, "fs": true, "http": true, "https": true, "net": true,
	"os": true, "path": true, "process": true, "stream": true,
	"url": true, "util": true, "zlib": true,
}

// extractPython はPythonファイルからトップレベルの宣言を抽出します
func extractPython(file *domain.FileSummary, content []byte) {
	for i, line := range strings.Split(string(content), "\n") {
		lineNo := i + 1

		if m := pyFuncRe.FindStringSubmatch(line); m != nil {
			file.Functions = append(file.Functions, domain.FunctionInfo{
				Name:      m[1],
				Params:    splitParams(m[2]),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			continue
		}
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			file.Types = append(file.Types, domain.TypeInfo{
				Name:       m[1],
				Supertypes: splitParams(m[2]),
				StartLine:  lineNo,
				EndLine:    lineNo,
			})
			continue
		}
		if m := pyFromImportRe.FindStringSubmatch(line); m != nil {
			file.Imports = append(file.Imports, domain.ImportInfo{
				Module: m[1],
				Kind:   categorizePythonImport(m[1], true),
			})
			continue
		}
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			file.Imports = append(file.Imports, domain.ImportInfo{
				Module: m[1],
				Alias:  m[2],
				Kind:   categorizePythonImport(m[1], false),
			})
		}
	}
}

// extractJavaScript はJavaScript/TypeScriptファイルからトップレベルの宣言を抽出します
func extractJavaScript(file *domain.FileSummary, content []byte) {
	for i, line := range strings.Split(string(content), "\n") {
		lineNo := i + 1

		if m := jsFuncRe.FindStringSubmatch(line); m != nil {
			file.Functions = append(file.Functions, domain.FunctionInfo{
				Name:      m[1],
				Params:    splitParams(m[2]),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			continue
		}
		if m := jsArrowFuncRe.FindStringSubmatch(line); m != nil {
			file.Functions = append(file.Functions, domain.FunctionInfo{
				Name:      m[1],
				Params:    splitParams(m[2]),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			continue
		}
		if m := jsClassRe.FindStringSubmatch(line); m != nil {
			info := domain.TypeInfo{Name: m[1], StartLine: lineNo, EndLine: lineNo}
			if m[2] != "" {
				info.Supertypes = []string{m[2]}
			}
			file.Types = append(file.Types, info)
			continue
		}
		if m := jsImportRe.FindStringSubmatch(line); m != nil {
			file.Imports = append(file.Imports, domain.ImportInfo{
				Module: m[1],
				Kind:   categorizeJSImport(m[1]),
			})
			continue
		}
		if m := jsRequireRe.FindStringSubmatch(line); m != nil {
			file.Imports = append(file.Imports, domain.ImportInfo{
				Module: m[1],
				Kind:   categorizeJSImport(m[1]),
			})
		}
	}
}

// categorizePythonImport は相対 > 標準ライブラリ > スタイル別 の優先順で分類します
func categorizePythonImport(module string, fromStyle bool) domain.ImportKind {
	if strings.HasPrefix(module, ".") {
		return domain.ImportRelative
	}
	first := module
	if idx := strings.Index(module, "."); idx != -1 {
		first = module[:idx]
	}
	if pythonStdlib[first] {
		return domain.ImportStdlib
	}
	if fromStyle {
		return domain.ImportFrom
	}
	return domain.ImportDirect
}

func categorizeJSImport(module string) domain.ImportKind {
	if strings.HasPrefix(module, ".") {
		return domain.ImportRelative
	}
	if strings.HasPrefix(module, "node:") || nodeBuiltins[module] {
		return domain.ImportStdlib
	}
	return domain.ImportThirdParty
}

func splitParams(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return params
}
