package domain

// ImportKind はインポートの分類を表します
type ImportKind string

const (
	// ImportDirect は import x 形式の直接インポート
	ImportDirect ImportKind = "direct"
	// ImportFrom は from x import y 形式のインポート
	ImportFrom ImportKind = "from"
	// ImportRelative は親/カレントパッケージへの相対インポート
	ImportRelative ImportKind = "relative"
	// ImportStdlib は言語ごとの既知の標準ライブラリ
	ImportStdlib ImportKind = "stdlib"
	// ImportThirdParty は上記以外のすべて
	ImportThirdParty ImportKind = "third_party"
)

// ImportInfo は1件のインポートを表します
type ImportInfo struct {
	Module string
	Alias  string
	Kind   ImportKind
}

// FunctionInfo は宣言された呼び出し可能単位を表します
type FunctionInfo struct {
	Name       string
	Params     []string
	StartLine  int
	EndLine    int
	DocComment string
}

// TypeInfo は宣言された複合型を表します
type TypeInfo struct {
	Name       string
	Members    []string
	Supertypes []string
	StartLine  int
	EndLine    int
	DocComment string
}

// FileSummary は1ファイル分の構造サマリです
// 解析に失敗したファイルは ParseFailed=true かつ構造リストが空のまま記録されます
type FileSummary struct {
	Path        string
	Language    string
	Size        int64
	Lines       int
	Functions   []FunctionInfo
	Types       []TypeInfo
	Imports     []ImportInfo
	ParseFailed bool
}

// StructuralSummary はソースツリー全体の構造サマリです
// 永続化されず、そのままドキュメント生成層へ渡されます
type StructuralSummary struct {
	Root  string
	Files []*FileSummary
}

// DocSet は生成されたドキュメント一式です（相対パス -> 内容）
type DocSet map[string]string

// AuthConfig はリポジトリアクセスの認証設定です
type AuthConfig struct {
	// URL は認証情報を埋め込んだクローン用URL（埋め込み不要の場合は元のURL）
	URL string
	// UseSSH は設定済みのSSH鍵を排他的に使用するか
	UseSSH bool
	// SSHKeyPath はSSH秘密鍵のパス（UseSSH=true の場合のみ有効）
	SSHKeyPath string
	// UseToken はトークンをURLに埋め込んだか
	UseToken bool
}

// PublishOptions はパッチ公開のオプションです
type PublishOptions struct {
	// RepoURL はPR作成先の特定に使うリモートURL
	RepoURL string
	// BranchPrefix はブランチ名の接頭辞（例: autodoc/docs-）
	BranchPrefix string
	// BaseBranch はPRのベースブランチ
	BaseBranch string
	// RemoteName はpush先リモート名（省略時は origin）
	RemoteName string
	// CreatePR はリモートにPRを作成するか
	CreatePR bool
	// Reviewers はPRに付与するレビュアー
	Reviewers []string
	// Labels はPRに付与するラベル
	Labels []string
	// CommitMessage は省略時に自動生成されます
	CommitMessage string
}

// PatchResult はパッチ公開の結果です
type PatchResult struct {
	// Published はコミット/ブランチを作成したか（false は「公開対象なし」成功）
	Published  bool
	BranchName string
	CommitHash string
	PRNumber   int
	PRURL      string
}
