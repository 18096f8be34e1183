package publisher

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy は一時的な障害に対するリトライの挙動を定義します
type RetryPolicy struct {
	// MaxRetries は初回実行を除いたリトライ回数の上限
	MaxRetries int
	// BaseBackoff はリトライ間隔の初期値
	BaseBackoff time.Duration
	// MaxBackoff はリトライ間隔の上限
	MaxBackoff time.Duration
}

// DefaultRetryPolicy はデフォルトのリトライ設定を返します
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  32 * time.Second,
	}
}

// Do は fn を実行し、retryable が真を返すエラーに限り指数バックオフで再試行します
// バックオフにはジッタを加え、同時リトライの衝突を避けます
func (p RetryPolicy) Do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.backoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxRetries+1, lastErr)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	backoff := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= p.MaxBackoff {
			backoff = p.MaxBackoff
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
	return backoff + jitter
}
