package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/job/application"
	"github.com/jinford/autodoc/internal/module/job/domain"
	jobtesting "github.com/jinford/autodoc/internal/module/job/testing"
	"github.com/jinford/autodoc/internal/platform/logger"
)

// stubRunner は渡されたジョブを記録する実行器です
type stubRunner struct {
	mu   sync.Mutex
	jobs []*domain.Job
	done chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{done: make(chan struct{}, 16)}
}

func (r *stubRunner) Run(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *stubRunner) ranJobs() []*domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Job(nil), r.jobs...)
}

// stubPruner はPruneOldの呼び出し回数を記録します
type stubPruner struct {
	mu    sync.Mutex
	calls []int
}

func (p *stubPruner) PruneOld(keep int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, keep)
	return 1, nil
}

func (p *stubPruner) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func testPoolConfig() application.WorkerPoolConfig {
	cfg := application.DefaultWorkerPoolConfig()
	cfg.Workers = 1
	cfg.ClaimInterval = 5 * time.Millisecond
	cfg.PruneInterval = 0
	return cfg
}

func TestWorkerPool_ClaimsAndRunsJob(t *testing.T) {
	// Setup
	claimed := jobtesting.TestJob(domain.StatusRunning)
	var claims int
	var mu sync.Mutex
	mockStore := &jobtesting.MockJobStore{
		ClaimPendingFunc: func(ctx context.Context) (*domain.Job, error) {
			mu.Lock()
			defer mu.Unlock()
			claims++
			if claims == 1 {
				return claimed, nil
			}
			return nil, domain.ErrJobNotFound
		},
		FailOrphanedFunc: func(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
			return 0, nil
		},
	}
	runner := newStubRunner()
	pool := application.NewWorkerPool(mockStore, runner, nil, testPoolConfig(), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	// Execute: 最初のクレームで得たジョブが実行されるまで待つ
	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to run")
	}
	cancel()

	// Assert
	select {
	case err := <-poolDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pool to stop")
	}
	jobs := runner.ranJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, claimed.ID, jobs[0].ID)
}

func TestWorkerPool_RecoversOrphanedJobsOnStartup(t *testing.T) {
	// Setup
	var gotStaleAfter time.Duration
	var gotMessage string
	mockStore := &jobtesting.MockJobStore{
		FailOrphanedFunc: func(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
			gotStaleAfter = staleAfter
			gotMessage = message
			return 2, nil
		},
	}
	cfg := testPoolConfig()
	cfg.StaleAfter = 10 * time.Minute
	pool := application.NewWorkerPool(mockStore, newStubRunner(), nil, cfg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	// Execute
	time.Sleep(20 * time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-poolDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pool to stop")
	}
	assert.Equal(t, 10*time.Minute, gotStaleAfter)
	assert.NotEmpty(t, gotMessage)
}

func TestWorkerPool_OrphanRecoveryFailureAborts(t *testing.T) {
	// Setup
	mockStore := &jobtesting.MockJobStore{
		FailOrphanedFunc: func(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
			return 0, assert.AnError
		},
	}
	pool := application.NewWorkerPool(mockStore, newStubRunner(), nil, testPoolConfig(), logger.Discard())

	// Execute
	err := pool.Run(context.Background())

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWorkerPool_PruneLoopRunsPeriodically(t *testing.T) {
	// Setup
	mockStore := &jobtesting.MockJobStore{
		FailOrphanedFunc: func(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
			return 0, nil
		},
	}
	pruner := &stubPruner{}
	cfg := testPoolConfig()
	cfg.PruneInterval = 10 * time.Millisecond
	cfg.PruneKeep = 3
	pool := application.NewWorkerPool(mockStore, newStubRunner(), pruner, cfg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	// Execute: 何回かtickさせる
	time.Sleep(50 * time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-poolDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pool to stop")
	}
	assert.GreaterOrEqual(t, pruner.callCount(), 1)
	pruner.mu.Lock()
	assert.Equal(t, 3, pruner.calls[0])
	pruner.mu.Unlock()
}

func TestWorkerPool_StopsOnContextCancel(t *testing.T) {
	// Setup
	mockStore := &jobtesting.MockJobStore{
		FailOrphanedFunc: func(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
			return 0, nil
		},
	}
	cfg := testPoolConfig()
	cfg.Workers = 3
	pool := application.NewWorkerPool(mockStore, newStubRunner(), nil, cfg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx)
	}()

	// Execute
	cancel()

	// Assert
	select {
	case err := <-poolDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pool to stop")
	}
}
