package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

const (
	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 120 * time.Second

	// MaxRetries はレート制限エラー時の最大リトライ回数
	MaxRetries = 3

	// BaseBackoff はExponential Backoffの基底時間
	BaseBackoff = 2 * time.Second

	// MaxBackoff はExponential Backoffの最大待機時間
	MaxBackoff = 32 * time.Second

	// promptTokenBudget はプロンプトに使えるトークン数の上限
	promptTokenBudget = 24000
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("generator API key not set")

	// ErrInvalidResponseFormat は不正なレスポンス形式のエラー
	ErrInvalidResponseFormat = errors.New("invalid response format")

	// ErrMaxRetriesExceeded は最大リトライ回数を超過した場合のエラー
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// Generator はOpenAI chat completionsでドキュメント一式を生成します
type Generator struct {
	client  openai.Client
	counter *TokenCounter
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenerator は新しいGeneratorを作成します
func NewGenerator(apiKey string, logger *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	counter, err := NewTokenCounter()
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		counter: counter,
		timeout: DefaultTimeout,
		logger:  logger,
	}, nil
}

var _ domain.DocGenerator = (*Generator)(nil)

// docsResponse はLLMに要求するJSON応答の形式です
type docsResponse struct {
	Docs []struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	} `json:"docs"`
}

// Generate は構造サマリからドキュメント一式を生成します
// provider と modelName はジョブに記録された値をそのまま受け取ります
func (g *Generator) Generate(ctx context.Context, summary *domain.StructuralSummary, provider, modelName string) (domain.DocSet, error) {
	if !strings.EqualFold(provider, "openai") {
		return nil, domain.NewStageError("generation", domain.KindValidation,
			fmt.Errorf("unsupported documentation provider: %s", provider))
	}
	if len(summary.Files) == 0 {
		return nil, domain.NewStageError("generation", domain.KindValidation,
			errors.New("structural summary contains no files"))
	}

	prompt := BuildPrompt(summary, g.counter, promptTokenBudget)
	g.logger.Debug("built generation prompt",
		slog.Int("files", len(summary.Files)),
		slog.Int("prompt_tokens", g.counter.CountTokens(prompt)),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.completeWithRetry(ctx, modelName, prompt)
	if err != nil {
		return nil, domain.NewStageError("generation", classifyAPIError(err), err)
	}

	// 契約に反する応答は再試行しても追加コストを払うだけなので即座に失敗させる
	docSet, parseErr := parseDocsResponse(content)
	if parseErr != nil {
		return nil, domain.NewStageError("generation", domain.KindValidation,
			fmt.Errorf("%w: %v", ErrInvalidResponseFormat, parseErr))
	}

	return docSet, nil
}

// completeWithRetry はレート制限エラーに限り指数バックオフで再試行します
func (g *Generator) completeWithRetry(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(math.Pow(2, float64(attempt-1))) * BaseBackoff
			if backoffDuration > MaxBackoff {
				backoffDuration = MaxBackoff
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			},
		})
		if err != nil {
			lastErr = err

			if isRateLimitError(err) {
				continue
			}

			return "", fmt.Errorf("chat completion failed: %w", err)
		}

		if len(completion.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}

		return completion.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// parseDocsResponse はLLM応答をDocSetへ変換します
// 危険なパスや空の内容は捨て、残りが空ならエラーにします
func parseDocsResponse(content string) (domain.DocSet, error) {
	var resp docsResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode docs response: %w", err)
	}

	docSet := make(domain.DocSet, len(resp.Docs))
	for _, doc := range resp.Docs {
		cleanPath, ok := sanitizeDocPath(doc.Path)
		if !ok || doc.Content == "" {
			continue
		}
		docSet[cleanPath] = doc.Content
	}
	if len(docSet) == 0 {
		return nil, errors.New("docs response contained no usable documents")
	}
	return docSet, nil
}

// sanitizeDocPath は相対パスのmarkdownのみを許可し、docs/ 配下へ寄せます
func sanitizeDocPath(p string) (string, bool) {
	cleaned := path.Clean(strings.TrimSpace(p))
	if cleaned == "" || cleaned == "." || path.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	if !strings.HasSuffix(cleaned, ".md") {
		return "", false
	}
	if !strings.HasPrefix(cleaned, "docs/") {
		cleaned = "docs/" + cleaned
	}
	return cleaned, true
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}

	return false
}

// classifyAPIError はAPIエラーを障害分類に対応付けます
func classifyAPIError(err error) domain.ErrorKind {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return domain.KindAuth
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return domain.KindTransient
		default:
			return domain.KindInternal
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTransient
	}
	return domain.KindInternal
}
