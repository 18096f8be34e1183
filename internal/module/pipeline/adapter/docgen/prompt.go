package docgen

import (
	"fmt"
	"strings"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// maxFunctionsPerFile は1ファイルあたりプロンプトに載せる関数数の上限です
const maxFunctionsPerFile = 30

const promptHeader = `You are a technical writer generating developer documentation for a source repository.
You will receive a structural summary of the repository: files, languages, functions, types, and imports.

Produce a JSON object of the form:
{"docs": [{"path": "docs/overview.md", "content": "..."}, ...]}

Requirements:
- "docs/overview.md": purpose of the repository, main components, how they relate.
- "docs/modules.md": one section per top-level directory describing its responsibility and key types/functions.
- Paths must be relative markdown files. Content must be valid markdown.
- Base every statement on the summary below. Do not invent APIs that are not listed.

Repository structure summary:
`

// BuildPrompt は構造サマリをプロンプトに描画します
// budget（トークン数）を超えないよう、ファイルセクションは途中で打ち切ります
func BuildPrompt(summary *domain.StructuralSummary, counter *TokenCounter, budget int) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	used := counter.CountTokens(promptHeader)
	truncated := false

	for _, file := range summary.Files {
		section := renderFileSection(file)
		cost := counter.CountTokens(section)
		if used+cost > budget {
			truncated = true
			break
		}
		b.WriteString(section)
		used += cost
	}

	if truncated {
		b.WriteString("\n(summary truncated: repository has more files than fit in this prompt)\n")
	}
	return b.String()
}

func renderFileSection(file *domain.FileSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s (%s, %d lines)\n", file.Path, file.Language, file.Lines)

	if file.ParseFailed {
		b.WriteString("- parse failed: structure unavailable\n")
		return b.String()
	}

	if len(file.Imports) > 0 {
		var mods []string
		for _, imp := range file.Imports {
			mods = append(mods, fmt.Sprintf("%s (%s)", imp.Module, imp.Kind))
		}
		fmt.Fprintf(&b, "- imports: %s\n", strings.Join(mods, ", "))
	}

	for _, typ := range file.Types {
		fmt.Fprintf(&b, "- type %s", typ.Name)
		if len(typ.Supertypes) > 0 {
			fmt.Fprintf(&b, " extends %s", strings.Join(typ.Supertypes, ", "))
		}
		if len(typ.Members) > 0 {
			fmt.Fprintf(&b, " {%s}", strings.Join(typ.Members, ", "))
		}
		if typ.DocComment != "" {
			fmt.Fprintf(&b, " — %s", firstLine(typ.DocComment))
		}
		b.WriteString("\n")
	}

	for i, fn := range file.Functions {
		if i >= maxFunctionsPerFile {
			fmt.Fprintf(&b, "- (%d more functions omitted)\n", len(file.Functions)-i)
			break
		}
		fmt.Fprintf(&b, "- func %s(%s)", fn.Name, strings.Join(fn.Params, ", "))
		if fn.DocComment != "" {
			fmt.Fprintf(&b, " — %s", firstLine(fn.DocComment))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
