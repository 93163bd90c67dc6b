package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ContextLab/lab-manual/internal/config"
	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/repository"
	"github.com/ContextLab/lab-manual/internal/repository/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Retention: config.RetentionConfig{
			RequestTTLDays:  30,
			PartialTTLHours: 48,
			OffboardTTLDays: 30,
		},
	}
}

func TestPurgeStaleRequests(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	expired := domain.NewOnboardingRequest("U1", "D1", "Old", "")
	expired.Status = domain.OnboardingStatusCompleted
	expired.UpdatedAt = time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, store.OnboardingRepository.Save(ctx, expired))

	active := domain.NewOnboardingRequest("U2", "D2", "Active", "")
	active.UpdatedAt = time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, store.OnboardingRepository.Save(ctx, active))

	offboarded := domain.NewOffboardingRequest("U3", "Gone", "", "UADMIN")
	offboarded.Processed = true
	offboarded.ProcessedAt = time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, store.OffboardingRepository.Save(ctx, offboarded))

	abandoned := &domain.StepExecution{SlackUserID: "U4", ExecutionID: "EX4", StartedAt: time.Now().Add(-45 * 24 * time.Hour)}
	require.NoError(t, store.StepRepository.Save(ctx, abandoned))

	jr := NewJobRunner(store, testConfig())
	jr.PurgeStaleRequests()

	_, err := store.OnboardingRepository.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.OnboardingRepository.Get(ctx, "U2")
	assert.NoError(t, err)
	_, err = store.OffboardingRepository.Get(ctx, "U3")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.StepRepository.Get(ctx, "U4")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPurgeStalePartials(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	stale := &domain.PartialSubmission{SlackUserID: "U1", UpdatedAt: time.Now().Add(-72 * time.Hour)}
	fresh := &domain.PartialSubmission{SlackUserID: "U2", UpdatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.PartialRepository.Save(ctx, stale))
	require.NoError(t, store.PartialRepository.Save(ctx, fresh))

	jr := NewJobRunner(store, testConfig())
	jr.PurgeStalePartials()

	_, err := store.PartialRepository.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.PartialRepository.Get(ctx, "U2")
	assert.NoError(t, err)
}

func TestRunWithRecoverySwallowsPanics(t *testing.T) {
	jr := NewJobRunner(memory.NewStore(), testConfig())
	assert.NotPanics(t, func() {
		jr.runWithRecovery("ExplodingJob", func() { panic("boom") })
	})
}
