package gitrepo

import (
	"net/url"
	"os"
	"strings"

	"github.com/jinford/autodoc/internal/module/pipeline/domain"
)

// Credentials はリゾルバが参照する認証情報の設定です
// すべて空でも動作し、その場合は常に認証なしの設定を返します
type Credentials struct {
	SSHKeyPath     string
	GitHubToken    string
	GitLabToken    string
	BitbucketToken string
	GenericToken   string
	Username       string
	Password       string
}

// Resolver はリポジトリURLから認証設定を導出します
// 解決はベストエフォートで、どの認証情報も使えない場合は認証なしに退化します
type Resolver struct {
	creds Credentials
}

// NewResolver は新しいResolverを作成します
func NewResolver(creds Credentials) *Resolver {
	return &Resolver{creds: creds}
}

var _ domain.CredentialResolver = (*Resolver)(nil)

// Resolve はURLの形式とホストに応じて認証設定を組み立てます
// SSH形式のURLは設定済みで実在するSSH鍵を排他的に使い、HTTPS形式のURLは
// ホスト別トークン > 汎用トークン > ユーザー名/パスワード の優先順で
// 認証情報をURLに埋め込みます
func (r *Resolver) Resolve(repoURL string) domain.AuthConfig {
	if strings.HasPrefix(repoURL, "git@") || strings.HasPrefix(repoURL, "ssh://") {
		if r.creds.SSHKeyPath != "" {
			if _, err := os.Stat(r.creds.SSHKeyPath); err == nil {
				return domain.AuthConfig{URL: repoURL, UseSSH: true, SSHKeyPath: r.creds.SSHKeyPath}
			}
		}
		return domain.AuthConfig{URL: repoURL}
	}

	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return domain.AuthConfig{URL: repoURL}
	}

	// URLに認証情報が埋め込み済みの場合はそれを尊重して上書きしない
	if u.User != nil {
		return domain.AuthConfig{URL: repoURL, UseToken: true}
	}

	userinfo := r.userinfoFor(u.Hostname())
	if userinfo == nil {
		return domain.AuthConfig{URL: repoURL}
	}

	u.User = userinfo

	// パスのパーセントエンコードを一度だけ解除して再エンコードし、
	// 多重エンコードによるURLの破壊を防ぎます
	if p, err := url.PathUnescape(u.EscapedPath()); err == nil {
		u.Path = p
		u.RawPath = ""
	}

	return domain.AuthConfig{URL: u.String(), UseToken: true}
}

// userinfoFor はホストに対応する認証情報を返します（該当なしは nil）
func (r *Resolver) userinfoFor(hostname string) *url.Userinfo {
	host := strings.ToLower(hostname)

	switch {
	case strings.Contains(host, "github") && r.creds.GitHubToken != "":
		return url.User(r.creds.GitHubToken)
	case strings.Contains(host, "gitlab") && r.creds.GitLabToken != "":
		return url.UserPassword("oauth2", r.creds.GitLabToken)
	case strings.Contains(host, "bitbucket") && r.creds.BitbucketToken != "":
		return url.UserPassword("x-token-auth", r.creds.BitbucketToken)
	}

	if r.creds.GenericToken != "" {
		return url.User(r.creds.GenericToken)
	}
	if r.creds.Username != "" && r.creds.Password != "" {
		return url.UserPassword(r.creds.Username, r.creds.Password)
	}
	return nil
}
