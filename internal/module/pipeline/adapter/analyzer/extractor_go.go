package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// extractGo はgo/astでGoファイルの関数・型・インポートを抽出します
func extractGo(file *domain.FileSummary, content []byte) error {
	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file.Path, content, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse go source: %w", err)
	}

	for _, imp := range parsed.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		file.Imports = append(file.Imports, domain.ImportInfo{
			Module: path,
			Alias:  alias,
			Kind:   categorizeGoImport(path),
		})
	}

	for _, decl := range parsed.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			file.Functions = append(file.Functions, domain.FunctionInfo{
				Name:       goFuncName(d),
				Params:     goFuncParams(d),
				StartLine:  fset.Position(d.Pos()).Line,
				EndLine:    fset.Position(d.End()).Line,
				DocComment: docText(d.Doc),
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil {
					doc = d.Doc
				}
				info := domain.TypeInfo{
					Name:       ts.Name.Name,
					StartLine:  fset.Position(ts.Pos()).Line,
					EndLine:    fset.Position(ts.End()).Line,
					DocComment: docText(doc),
				}
				fillGoTypeDetails(&info, ts.Type)
				file.Types = append(file.Types, info)
			}
		}
	}

	return nil
}

// goFuncName はメソッドの場合にレシーバ型を接頭辞として付けます
func goFuncName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}
	recv := types.ExprString(d.Recv.List[0].Type)
	recv = strings.TrimPrefix(recv, "*")
	return recv + "." + d.Name.Name
}

func goFuncParams(d *ast.FuncDecl) []string {
	if d.Type.Params == nil {
		return nil
	}
	var params []string
	for _, field := range d.Type.Params.List {
		typeName := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			params = append(params, typeName)
			continue
		}
		for _, name := range field.Names {
			params = append(params, name.Name+" "+typeName)
		}
	}
	return params
}

// fillGoTypeDetails は構造体のフィールドとインターフェースのメソッドをメンバーとして、
// 埋め込み型を上位型として記録します
func fillGoTypeDetails(info *domain.TypeInfo, expr ast.Expr) {
	switch t := expr.(type) {
	case *ast.StructType:
		for _, field := range t.Fields.List {
			if len(field.Names) == 0 {
				info.Supertypes = append(info.Supertypes, types.ExprString(field.Type))
				continue
			}
			for _, name := range field.Names {
				info.Members = append(info.Members, name.Name)
			}
		}
	case *ast.InterfaceType:
		for _, method := range t.Methods.List {
			if len(method.Names) == 0 {
				info.Supertypes = append(info.Supertypes, types.ExprString(method.Type))
				continue
			}
			for _, name := range method.Names {
				info.Members = append(info.Members, name.Name)
			}
		}
	}
}

func docText(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}
	return strings.TrimSpace(group.Text())
}

// categorizeGoImport は最初のパス要素にドットを含むかで標準ライブラリを判別します
func categorizeGoImport(path string) domain.ImportKind {
	first := path
	if idx := strings.Index(path, "/"); idx != -1 {
		first = path[:idx]
	}
	if strings.Contains(first, ".") {
		return domain.ImportThirdParty
	}
	return domain.ImportStdlib
}
