package docgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
	"github.com/jinford/autodoc/internal/platform/logger"
)

// newChatStub はchat completions応答を固定内容で返すテストサーバを立てます
func newChatStub(t *testing.T, content string, requests *int) *Generator {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	return &Generator{
		client:  openai.NewClient(option.WithAPIKey("test-key"), option.WithBaseURL(server.URL+"/v1/")),
		timeout: 5 * time.Second,
		logger:  logger.Discard(),
	}
}

func testSummary() *domain.StructuralSummary {
	return &domain.StructuralSummary{
		Root: "/tmp/repo",
		Files: []*domain.FileSummary{
			{Path: "main.go", Language: "Go", Lines: 10},
		},
	}
}

func TestGenerator_Generate_ReturnsDocSet(t *testing.T) {
	// Setup
	var requests int
	g := newChatStub(t, `{"docs": [{"path": "docs/overview.md", "content": "# Overview"}]}`, &requests)

	// Execute
	docSet, err := g.Generate(context.Background(), testSummary(), "openai", "gpt-4o-mini")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Equal(t, "# Overview", docSet["docs/overview.md"])
}

func TestGenerator_Generate_MalformedResponseFailsWithoutRetry(t *testing.T) {
	// Setup
	var requests int
	g := newChatStub(t, "this is not the requested json", &requests)

	// Execute
	_, err := g.Generate(context.Background(), testSummary(), "openai", "gpt-4o-mini")

	// Assert: 不正応答は追加の補完を要求せず検証エラーとして返る
	require.Error(t, err)
	assert.Equal(t, 1, requests)
	assert.ErrorIs(t, err, ErrInvalidResponseFormat)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.False(t, domain.IsRetryable(err))
}

func TestParseDocsResponse(t *testing.T) {
	// Setup
	content := `{"docs": [
		{"path": "docs/overview.md", "content": "# Overview"},
		{"path": "modules.md", "content": "# Modules"},
		{"path": "../escape.md", "content": "nope"},
		{"path": "docs/empty.md", "content": ""},
		{"path": "docs/script.sh", "content": "rm -rf /"}
	]}`

	// Execute
	docSet, err := parseDocsResponse(content)

	// Assert: 相対markdownのみ残り、docs/ 配下へ寄せられる
	require.NoError(t, err)
	assert.Len(t, docSet, 2)
	assert.Equal(t, "# Overview", docSet["docs/overview.md"])
	assert.Equal(t, "# Modules", docSet["docs/modules.md"])
}

func TestParseDocsResponse_InvalidJSON(t *testing.T) {
	// Execute
	_, err := parseDocsResponse("not json at all")

	// Assert
	require.Error(t, err)
}

func TestParseDocsResponse_NoUsableDocs(t *testing.T) {
	// Execute
	_, err := parseDocsResponse(`{"docs": [{"path": "/etc/passwd.md", "content": "x"}]}`)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable documents")
}

func TestSanitizeDocPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"docs/overview.md", "docs/overview.md", true},
		{"overview.md", "docs/overview.md", true},
		{"docs/sub/detail.md", "docs/sub/detail.md", true},
		{" docs/overview.md ", "docs/overview.md", true},
		{"../outside.md", "", false},
		{"/abs/path.md", "", false},
		{"docs/binary.png", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := sanitizeDocPath(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
