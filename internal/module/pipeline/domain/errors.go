package domain

import (
	"errors"
	"fmt"
)

// ErrorKind はパイプライン障害の分類を表します
type ErrorKind string

const (
	// KindAuth は認証・認可の失敗（リトライ不可）
	KindAuth ErrorKind = "auth"
	// KindTransient は一時的なネットワーク/リモート障害（リトライ可能）
	KindTransient ErrorKind = "transient"
	// KindValidation は入力や作業ツリーの検証失敗（リトライ不可）
	KindValidation ErrorKind = "validation"
	// KindNotFound はリモートリポジトリ等の不存在（リトライ不可）
	KindNotFound ErrorKind = "not_found"
	// KindInternal は上記に分類できない内部エラー
	KindInternal ErrorKind = "internal"
)

// ErrNotGitRepository は作業ディレクトリがgitリポジトリでない場合のエラー
var ErrNotGitRepository = errors.New("working directory is not a git repository")

// StageError はパイプラインのどの段階でどの種類の障害が起きたかを保持します
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError は段階と分類を付与したエラーを生成します
func NewStageError(stage string, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf はエラーから障害分類を取り出します（未分類は KindInternal）
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsRetryable は一時的な障害としてリトライしてよいかを返します
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
