package domain

import (
	"errors"
	"fmt"
)

// ErrJobNotFound は対象ジョブが存在しない場合のエラー
var ErrJobNotFound = errors.New("job not found")

// ErrRepoNotFound は対象リポジトリが存在しない場合のエラー
var ErrRepoNotFound = errors.New("repository not found")

// ErrInvalidTransition は状態機械で許可されない遷移のエラー
var ErrInvalidTransition = errors.New("invalid job status transition")

// InvalidTransitionError は不正な状態遷移の詳細を保持します
type InvalidTransitionError struct {
	From JobStatus
	To   JobStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid job status transition: %s -> %s", e.From, e.To)
}

// Unwrap は errors.Is(err, ErrInvalidTransition) を成立させます
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
