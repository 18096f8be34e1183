package domain

import "context"

// CredentialResolver はリポジトリURLから認証設定を導出します
// 解決はベストエフォートで、失敗時は認証なしの設定に退化しエラーは返しません
type CredentialResolver interface {
	Resolve(repoURL string) AuthConfig
}

// SourceFetcher はリモートリポジトリをローカル作業ディレクトリへ取得します
type SourceFetcher interface {
	// Fetch はリポジトリを浅くクローンし、作業ディレクトリのパスを返します
	// 失敗時は部分的に作成されたディレクトリを削除してから返ります
	Fetch(ctx context.Context, repoURL string) (string, error)

	// PruneOld は最新 keep 件を残して古い作業ディレクトリを削除し、削除件数を返します
	PruneOld(keep int) (int, error)
}

// StructureAnalyzer はソースツリーを走査して構造サマリを構築します
type StructureAnalyzer interface {
	Analyze(ctx context.Context, root string) (*StructuralSummary, error)
}

// DocGenerator は構造サマリからドキュメント一式を生成します
// provider と modelName はジョブに記録された値がそのまま渡されます
type DocGenerator interface {
	Generate(ctx context.Context, summary *StructuralSummary, provider, modelName string) (DocSet, error)
}

// PatchPublisher は生成済みドキュメントをブランチとして公開します
type PatchPublisher interface {
	// Publish は workDir 配下のドキュメント変更をコミットしてpushし、
	// オプションに応じてプルリクエストを作成します
	Publish(ctx context.Context, workDir string, opts PublishOptions) (*PatchResult, error)
}
