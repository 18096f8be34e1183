package domain

import (
	"time"

	"github.com/google/uuid"
)

// RepoStatus はリポジトリの接続状態を表します
type RepoStatus string

const (
	RepoConnected    RepoStatus = "connected"
	RepoDisconnected RepoStatus = "disconnected"
)

// Repo は接続されたソースリポジトリを表します
// パイプラインからは読み取り専用です
type Repo struct {
	ID        uuid.UUID
	URL       string
	Name      string
	Status    RepoStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
