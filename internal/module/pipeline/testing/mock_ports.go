package testing

import (
	"context"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// MockCredentialResolver はテスト用のモックCredentialResolverです
type MockCredentialResolver struct {
	ResolveFunc func(repoURL string) domain.AuthConfig
}

func (m *MockCredentialResolver) Resolve(repoURL string) domain.AuthConfig {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(repoURL)
	}
	return domain.AuthConfig{URL: repoURL}
}

// MockSourceFetcher はテスト用のモックSourceFetcherです
type MockSourceFetcher struct {
	FetchFunc    func(ctx context.Context, repoURL string) (string, error)
	PruneOldFunc func(keep int) (int, error)
}

func (m *MockSourceFetcher) Fetch(ctx context.Context, repoURL string) (string, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, repoURL)
	}
	return "", nil
}

func (m *MockSourceFetcher) PruneOld(keep int) (int, error) {
	if m.PruneOldFunc != nil {
		return m.PruneOldFunc(keep)
	}
	return 0, nil
}

// MockStructureAnalyzer はテスト用のモックStructureAnalyzerです
type MockStructureAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, root string) (*domain.StructuralSummary, error)
}

func (m *MockStructureAnalyzer) Analyze(ctx context.Context, root string) (*domain.StructuralSummary, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, root)
	}
	return &domain.StructuralSummary{Root: root}, nil
}

// MockDocGenerator はテスト用のモックDocGeneratorです
type MockDocGenerator struct {
	GenerateFunc func(ctx context.Context, summary *domain.StructuralSummary, provider, modelName string) (domain.DocSet, error)
}

func (m *MockDocGenerator) Generate(ctx context.Context, summary *domain.StructuralSummary, provider, modelName string) (domain.DocSet, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, summary, provider, modelName)
	}
	return domain.DocSet{"docs/overview.md": "# Overview"}, nil
}

// MockPatchPublisher はテスト用のモックPatchPublisherです
type MockPatchPublisher struct {
	PublishFunc func(ctx context.Context, workDir string, opts domain.PublishOptions) (*domain.PatchResult, error)
}

func (m *MockPatchPublisher) Publish(ctx context.Context, workDir string, opts domain.PublishOptions) (*domain.PatchResult, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, workDir, opts)
	}
	return &domain.PatchResult{Published: true, BranchName: "autodoc/docs-test"}, nil
}
