package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransitionParams は状態遷移と同時に更新するフィールドを指定します
type TransitionParams struct {
	Progress       *int
	ErrorMessage   *string
	ClonePath      *string
	IncrementRetry bool
}

// JobFilter はジョブ一覧の絞り込み条件
type JobFilter struct {
	Status *JobStatus
	Limit  int
}

// JobStore はジョブ集約の永続化ポートです
type JobStore interface {
	Create(ctx context.Context, repoID uuid.UUID, provider, modelName string) (*Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, filter JobFilter) ([]*Job, error)

	// Transition は from から to への遷移を単一のUPDATEで行います
	// 現在の状態が from でない場合は行を変更せず InvalidTransitionError を返します
	Transition(ctx context.Context, id uuid.UUID, from, to JobStatus, params TransitionParams) (*Job, error)

	// UpdateProgress は進捗を単調非減少で更新します（巻き戻しは無視されます）
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error

	// UpdateClonePath は取得済みの作業ディレクトリのパスを記録します
	UpdateClonePath(ctx context.Context, id uuid.UUID, clonePath string) error

	// ClaimPending は pending のジョブを1件確保して running に遷移させます
	// 確保できるジョブがない場合は ErrJobNotFound を返します
	ClaimPending(ctx context.Context) (*Job, error)

	// FailOrphaned は updated_at が staleAfter より古い running ジョブを
	// failed に倒し、件数を返します（プロセスクラッシュからの復旧用）
	FailOrphaned(ctx context.Context, staleAfter time.Duration, message string) (int64, error)
}

// RepoStore はリポジトリ集約の永続化ポートです
type RepoStore interface {
	Create(ctx context.Context, url, name string) (*Repo, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Repo, error)
	GetByURL(ctx context.Context, url string) (*Repo, error)
	List(ctx context.Context) ([]*Repo, error)
}
