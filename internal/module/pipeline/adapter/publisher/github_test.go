package publisher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/pipeline/adapter/publisher"
)

func TestGitHubClient_CreatePullRequest(t *testing.T) {
	// Setup
	var gotPath string
	var gotHeaders http.Header
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":   42,
			"html_url": "https://github.com/acme/widgets/pull/42",
		})
	}))
	defer server.Close()

	client := publisher.NewGitHubClient(server.URL, "test-token")

	// Execute
	pr, err := client.CreatePullRequest(context.Background(), "acme", "widgets", publisher.CreatePullRequestParams{
		Title: "docs: update generated documentation",
		Head:  "autodoc/docs-20260101-000000",
		Base:  "main",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, "https://github.com/acme/widgets/pull/42", pr.HTMLURL)

	assert.Equal(t, "/repos/acme/widgets/pulls", gotPath)
	assert.Equal(t, "Bearer test-token", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", gotHeaders.Get("Accept"))
	assert.Equal(t, "2022-11-28", gotHeaders.Get("X-GitHub-Api-Version"))
	assert.Equal(t, "main", gotBody["base"])
	assert.Equal(t, "autodoc/docs-20260101-000000", gotBody["head"])
}

func TestGitHubClient_CreatePullRequest_ServerError(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "upstream down"})
	}))
	defer server.Close()

	client := publisher.NewGitHubClient(server.URL, "test-token")

	// Execute
	_, err := client.CreatePullRequest(context.Background(), "acme", "widgets", publisher.CreatePullRequestParams{
		Head: "branch",
		Base: "main",
	})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestGitHubClient_AddLabels_NoopWhenEmpty(t *testing.T) {
	// Setup: ラベルが空ならAPIを呼ばない
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := publisher.NewGitHubClient(server.URL, "test-token")

	// Execute
	err := client.AddLabels(context.Background(), "acme", "widgets", 1, nil)

	// Assert
	require.NoError(t, err)
	assert.False(t, called)
}
