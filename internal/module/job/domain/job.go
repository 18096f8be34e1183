package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus はジョブの状態を表します
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCanceled  JobStatus = "canceled"
	StatusPaused    JobStatus = "paused"
)

// IsTerminal はジョブがこれ以上遷移しない終端状態かどうかを返します
// failed は明示的なリトライで pending に戻せるため終端に含めません
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Job はドキュメント生成ジョブを表します
type Job struct {
	ID           uuid.UUID
	RepoID       uuid.UUID
	Status       JobStatus
	Provider     string // ドキュメント生成プロバイダ名（そのまま生成層へ渡す）
	ModelName    string // ドキュメント生成モデル名（そのまま生成層へ渡す）
	ClonePath    *string
	Progress     int
	ErrorMessage *string
	RetryCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// allowedTransitions は状態機械の許可された遷移を定義します
// pending -> running/canceled, running -> completed/failed/canceled/paused,
// paused -> running/canceled, failed -> pending（明示的リトライのみ）
var allowedTransitions = map[JobStatus][]JobStatus{
	StatusPending:   {StatusRunning, StatusCanceled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCanceled, StatusPaused},
	StatusPaused:    {StatusRunning, StatusCanceled},
	StatusFailed:    {StatusPending},
	StatusCompleted: {},
	StatusCanceled:  {},
}

// CanTransition は from から to への遷移が許可されているかを返します
func CanTransition(from, to JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition は遷移を検証し、不正な場合は ErrInvalidTransition を返します
func ValidateTransition(from, to JobStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
