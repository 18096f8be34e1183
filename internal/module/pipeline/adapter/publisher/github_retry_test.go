package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Do_RecoverFromServerErrors(t *testing.T) {
	// Setup: 503を2回返してから201で成功するAPI
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "temporarily unavailable"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":   7,
			"html_url": "https://github.com/acme/widgets/pull/7",
		})
	}))
	defer server.Close()

	client := NewGitHubClient(server.URL, "test-token")
	policy := RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  200 * time.Millisecond,
	}

	// Execute
	var pr *PullRequest
	start := time.Now()
	err := policy.Do(context.Background(), func() error {
		got, prErr := client.CreatePullRequest(context.Background(), "acme", "widgets", CreatePullRequestParams{
			Title: "docs update",
			Head:  "autodoc/docs-20260101-000000",
			Base:  "main",
		})
		if prErr != nil {
			return prErr
		}
		pr = got
		return nil
	}, isRetryableStatus)
	elapsed := time.Since(start)

	// Assert: 3回目で成功し、各リトライの前にバックオフ待機が入る
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
	require.NotNil(t, pr)
	assert.Equal(t, 7, pr.Number)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestRetryPolicy_Do_ClientErrorFailsImmediately(t *testing.T) {
	// Setup: 422（検証エラー）を返し続けるAPI
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Validation Failed"})
	}))
	defer server.Close()

	client := NewGitHubClient(server.URL, "test-token")
	policy := RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  200 * time.Millisecond,
	}

	// Execute
	err := policy.Do(context.Background(), func() error {
		_, prErr := client.CreatePullRequest(context.Background(), "acme", "widgets", CreatePullRequestParams{
			Title: "docs update",
			Head:  "autodoc/docs-20260101-000000",
			Base:  "main",
		})
		return prErr
	}, isRetryableStatus)

	// Assert: 4xxは再試行されず1回で打ち切る
	require.Error(t, err)
	assert.Equal(t, 1, requests)

	var ae *apiError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.StatusCode)
	assert.Equal(t, "Validation Failed", ae.Message)
}

func TestIsRetryableStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &apiError{StatusCode: 503, Status: "503 Service Unavailable"}, true},
		{"rate limited", &apiError{StatusCode: 429, Status: "429 Too Many Requests"}, true},
		{"unauthorized", &apiError{StatusCode: 401, Status: "401 Unauthorized"}, false},
		{"not found", &apiError{StatusCode: 404, Status: "404 Not Found"}, false},
		{"validation failed", &apiError{StatusCode: 422, Status: "422 Unprocessable Entity"}, false},
		{"network failure", errors.New("connection reset by peer"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isRetryableStatus(tc.err))
		})
	}
}
