package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/autodoc/internal/module/job/domain"
)

func TestCanTransition_AllowedPaths(t *testing.T) {
	allowed := []struct {
		from domain.JobStatus
		to   domain.JobStatus
	}{
		{domain.StatusPending, domain.StatusRunning},
		{domain.StatusPending, domain.StatusCanceled},
		{domain.StatusRunning, domain.StatusCompleted},
		{domain.StatusRunning, domain.StatusFailed},
		{domain.StatusRunning, domain.StatusCanceled},
		{domain.StatusRunning, domain.StatusPaused},
		{domain.StatusPaused, domain.StatusRunning},
		{domain.StatusPaused, domain.StatusCanceled},
		{domain.StatusFailed, domain.StatusPending},
	}

	for _, tr := range allowed {
		assert.True(t, domain.CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	all := []domain.JobStatus{
		domain.StatusPending, domain.StatusRunning, domain.StatusCompleted,
		domain.StatusFailed, domain.StatusCanceled, domain.StatusPaused,
	}

	for _, to := range all {
		assert.False(t, domain.CanTransition(domain.StatusCompleted, to), "completed -> %s should be rejected", to)
		assert.False(t, domain.CanTransition(domain.StatusCanceled, to), "canceled -> %s should be rejected", to)
	}
}

func TestCanTransition_RejectedPaths(t *testing.T) {
	rejected := []struct {
		from domain.JobStatus
		to   domain.JobStatus
	}{
		{domain.StatusPending, domain.StatusCompleted},
		{domain.StatusPending, domain.StatusFailed},
		{domain.StatusPending, domain.StatusPaused},
		{domain.StatusPaused, domain.StatusCompleted},
		{domain.StatusPaused, domain.StatusFailed},
		{domain.StatusFailed, domain.StatusRunning},
		{domain.StatusFailed, domain.StatusCompleted},
		{domain.StatusRunning, domain.StatusPending},
	}

	for _, tr := range rejected {
		assert.False(t, domain.CanTransition(tr.from, tr.to), "%s -> %s should be rejected", tr.from, tr.to)
	}
}

func TestValidateTransition_ReturnsTypedError(t *testing.T) {
	// Execute
	err := domain.ValidateTransition(domain.StatusCompleted, domain.StatusRunning)

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var invalidErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &invalidErr))
	assert.Equal(t, domain.StatusCompleted, invalidErr.From)
	assert.Equal(t, domain.StatusRunning, invalidErr.To)
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.StatusCompleted.IsTerminal())
	assert.True(t, domain.StatusCanceled.IsTerminal())
	// failed は明示的なリトライで pending に戻せる
	assert.False(t, domain.StatusFailed.IsTerminal())
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusRunning.IsTerminal())
	assert.False(t, domain.StatusPaused.IsTerminal())
}
