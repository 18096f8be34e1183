package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const defaultGitHubAPIURL = "https://api.github.com"

// GitHubClient はGitHub REST APIの薄いクライアントです
// プルリクエストの作成とレビュアー/ラベルの付与のみを扱います
type GitHubClient struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewGitHubClient は新しいGitHubClientを作成します
// apiURL が空の場合は api.github.com を使用します（GitHub Enterprise向けに差し替え可能）
func NewGitHubClient(apiURL, token string) *GitHubClient {
	if apiURL == "" {
		apiURL = defaultGitHubAPIURL
	}
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		token:      token,
	}
}

// PullRequest は作成されたプルリクエストを表します
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreatePullRequestParams はプルリクエスト作成のパラメータです
type CreatePullRequestParams struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// apiError はGitHub APIのエラー応答を表します
type apiError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GitHub API error: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("GitHub API error: %s", e.Status)
}

// isRetryableStatus はサーバ側の一時障害とレート制限のみをリトライ対象とします
// 4xx系（認証・検証エラー）は再試行しても結果が変わらないため即座に失敗させます
func isRetryableStatus(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		// ネットワークレベルの失敗は一時障害として扱う
		return true
	}
	return ae.StatusCode >= 500 || ae.StatusCode == http.StatusTooManyRequests
}

// CreatePullRequest はプルリクエストを作成します
func (c *GitHubClient) CreatePullRequest(ctx context.Context, owner, repo string, params CreatePullRequestParams) (*PullRequest, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	payload := map[string]any{
		"title": params.Title,
		"body":  params.Body,
		"head":  params.Head,
		"base":  params.Base,
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var pr PullRequest
	if err := c.doRequest(req, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// AddLabels はイシュー/プルリクエストにラベルを付与します
func (c *GitHubClient) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, number)
	payload := map[string]any{"labels": labels}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

// RequestReviewers はプルリクエストにレビュアーを割り当てます
func (c *GitHubClient) RequestReviewers(ctx context.Context, owner, repo string, number int, reviewers []string) error {
	if len(reviewers) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/pulls/%d/requested_reviewers", owner, repo, number)
	payload := map[string]any{"reviewers": reviewers}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

func (c *GitHubClient) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, endpoint)

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(string(jsonBody)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, err
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "autodoc/1.0")

	return req, nil
}

func (c *GitHubClient) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &apiError{StatusCode: resp.StatusCode, Status: resp.Status, Message: errBody.Message}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
