package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// ログ設定
	Log LogConfig

	// Git設定（クローンと資格情報）
	Git GitConfig

	// ドキュメント生成用LLM設定
	Generator GeneratorConfig

	// 公開先（ブランチ・プルリクエスト）設定
	Publish PublishConfig

	// ワーカープール設定
	Worker WorkerConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LogConfig はログ出力設定
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// GitConfig はGit操作設定
type GitConfig struct {
	WorkDir        string        // クローン先のベースディレクトリ
	CloneTimeout   time.Duration // 1リポジトリのクローンに許す時間
	SSHKeyPath     string        // SSH秘密鍵のパス（SSH URLで使用）
	GitHubToken    string
	GitLabToken    string
	BitbucketToken string
	GenericToken   string // ホスト固有トークンがない場合のフォールバック
	Username       string
	Password       string
}

// GeneratorConfig はドキュメント生成用LLM設定
type GeneratorConfig struct {
	Provider string // 現在は "openai" のみ
	APIKey   string
	Model    string
}

// PublishConfig はドキュメント公開設定
type PublishConfig struct {
	APIBaseURL   string // GitHub APIのベースURL（GitHub Enterprise用に変更可能）
	BaseBranch   string
	BranchPrefix string
	CreatePR     bool
	Reviewers    []string
	Labels       []string
}

// WorkerConfig はワーカープール設定
type WorkerConfig struct {
	Workers       int
	ClaimInterval time.Duration
	StaleAfter    time.Duration
	PruneKeep     int
	PruneInterval time.Duration
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "autodoc"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "autodoc"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Git: GitConfig{
			WorkDir:        getEnv("GIT_WORK_DIR", "/var/lib/autodoc/work"),
			CloneTimeout:   getEnvAsDuration("GIT_CLONE_TIMEOUT", 5*time.Minute),
			SSHKeyPath:     getEnv("GIT_SSH_KEY_PATH", ""),
			GitHubToken:    getEnv("GITHUB_TOKEN", ""),
			GitLabToken:    getEnv("GITLAB_TOKEN", ""),
			BitbucketToken: getEnv("BITBUCKET_TOKEN", ""),
			GenericToken:   getEnv("GIT_TOKEN", ""),
			Username:       getEnv("GIT_USERNAME", ""),
			Password:       getEnv("GIT_PASSWORD", ""),
		},
		Generator: GeneratorConfig{
			Provider: getEnv("GENERATOR_PROVIDER", "openai"),
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			Model:    getEnv("GENERATOR_MODEL", "gpt-4o-mini"),
		},
		Publish: PublishConfig{
			APIBaseURL:   getEnv("GITHUB_API_BASE_URL", ""),
			BaseBranch:   getEnv("PUBLISH_BASE_BRANCH", "main"),
			BranchPrefix: getEnv("PUBLISH_BRANCH_PREFIX", ""),
			CreatePR:     getEnvAsBool("PUBLISH_CREATE_PR", true),
			Reviewers:    getEnvAsList("PUBLISH_REVIEWERS"),
			Labels:       getEnvAsList("PUBLISH_LABELS"),
		},
		Worker: WorkerConfig{
			Workers:       getEnvAsInt("WORKER_COUNT", 2),
			ClaimInterval: getEnvAsDuration("WORKER_CLAIM_INTERVAL", 3*time.Second),
			StaleAfter:    getEnvAsDuration("WORKER_STALE_AFTER", 30*time.Minute),
			PruneKeep:     getEnvAsInt("WORKER_PRUNE_KEEP", 5),
			PruneInterval: getEnvAsDuration("WORKER_PRUNE_INTERVAL", time.Hour),
		},
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数をtime.Duration（例: "30s", "5m"）として取得します
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList は環境変数をカンマ区切りのリストとして取得します
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
