package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/repository"
)

func TestOnboardingCreateRejectsDuplicate(t *testing.T) {
	repo := NewOnboardingRepository()
	ctx := context.Background()

	original := domain.NewOnboardingRequest("U1", "D1", "Ada Lovelace", "ada@dartmouth.edu")
	assert.NoError(t, repo.Create(ctx, original))

	dup := domain.NewOnboardingRequest("U1", "D2", "Someone Else", "dup@dartmouth.edu")
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrRequestExists)

	// The original record is untouched.
	got, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "D1", got.SlackChannelID)
}

func TestOnboardingGetReturnsCopy(t *testing.T) {
	repo := NewOnboardingRepository()
	ctx := context.Background()

	req := domain.NewOnboardingRequest("U1", "D1", "Ada Lovelace", "ada@dartmouth.edu")
	assert.NoError(t, repo.Create(ctx, req))

	got, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", again.Name)
}

func TestOnboardingGetCopiesCollections(t *testing.T) {
	repo := NewOnboardingRepository()
	ctx := context.Background()

	req := domain.NewOnboardingRequest("U1", "D1", "Ada Lovelace", "ada@dartmouth.edu")
	req.GitHubTeams = []int64{42}
	req.CalendarPermissions = map[string]string{"Contextual Dynamics Lab": "reader"}
	assert.NoError(t, repo.Create(ctx, req))

	got, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	got.GitHubTeams[0] = 999
	got.CalendarPermissions["Contextual Dynamics Lab"] = "owner"

	again, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.Equal(t, []int64{42}, again.GitHubTeams)
	assert.Equal(t, "reader", again.CalendarPermissions["Contextual Dynamics Lab"])

	// The record handed to Create must not alias the stored one either.
	req.GitHubTeams[0] = 7
	again, err = repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.Equal(t, []int64{42}, again.GitHubTeams)
}

func TestOnboardingGetNotFound(t *testing.T) {
	repo := NewOnboardingRepository()
	_, err := repo.Get(context.Background(), "UNOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOnboardingPurgeTerminalOlderThan(t *testing.T) {
	repo := NewOnboardingRepository()
	ctx := context.Background()

	old := domain.NewOnboardingRequest("U1", "D1", "Old Completed", "")
	old.Status = domain.OnboardingStatusCompleted
	old.UpdatedAt = time.Now().Add(-40 * 24 * time.Hour)
	assert.NoError(t, repo.Save(ctx, old))

	active := domain.NewOnboardingRequest("U2", "D2", "Old Active", "")
	active.UpdatedAt = time.Now().Add(-40 * 24 * time.Hour)
	assert.NoError(t, repo.Save(ctx, active))

	fresh := domain.NewOnboardingRequest("U3", "D3", "Fresh Completed", "")
	fresh.Status = domain.OnboardingStatusRejected
	assert.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.PurgeTerminalOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Non-terminal requests survive no matter how old.
	_, err = repo.Get(ctx, "U2")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "U3")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOffboardingPurgeOnlyProcessed(t *testing.T) {
	repo := NewOffboardingRepository()
	ctx := context.Background()

	done := domain.NewOffboardingRequest("U1", "Ada", "", "UADMIN")
	done.Processed = true
	done.ProcessedAt = time.Now().Add(-60 * 24 * time.Hour)
	assert.NoError(t, repo.Save(ctx, done))

	pending := domain.NewOffboardingRequest("U2", "Grace", "", "UADMIN")
	assert.NoError(t, repo.Save(ctx, pending))

	removed, err := repo.PurgeProcessedOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "U2")
	assert.NoError(t, err)
}

func TestPartialPurgeOlderThan(t *testing.T) {
	repo := NewPartialSubmissionRepository()
	ctx := context.Background()

	stale := &domain.PartialSubmission{SlackUserID: "U1", UpdatedAt: time.Now().Add(-72 * time.Hour)}
	fresh := &domain.PartialSubmission{SlackUserID: "U2", UpdatedAt: time.Now()}
	assert.NoError(t, repo.Save(ctx, stale))
	assert.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.PurgeOlderThan(ctx, time.Now().Add(-48*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Get(ctx, "U2")
	assert.NoError(t, err)
}

func TestStepExecutionLifecycle(t *testing.T) {
	repo := NewStepExecutionRepository()
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, domain.NewStepExecution("U1", "EX1")))

	exec, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.Equal(t, "EX1", exec.ExecutionID)

	assert.NoError(t, repo.Delete(ctx, "U1"))
	_, err = repo.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStepExecutionPurgeOlderThan(t *testing.T) {
	repo := NewStepExecutionRepository()
	ctx := context.Background()

	stale := &domain.StepExecution{SlackUserID: "U1", ExecutionID: "EX1", StartedAt: time.Now().Add(-72 * time.Hour)}
	assert.NoError(t, repo.Save(ctx, stale))
	assert.NoError(t, repo.Save(ctx, domain.NewStepExecution("U2", "EX2")))

	removed, err := repo.PurgeOlderThan(ctx, time.Now().Add(-48*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "U1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Get(ctx, "U2")
	assert.NoError(t, err)
}

func TestStoreListsAllRequests(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.NoError(t, store.OnboardingRepository.Create(ctx,
		domain.NewOnboardingRequest("U1", "D1", "Ada", "")))
	assert.NoError(t, store.OnboardingRepository.Create(ctx,
		domain.NewOnboardingRequest("U2", "D2", "Grace", "")))

	reqs, err := store.OnboardingRepository.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, reqs, 2)
}
