package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ContextLab/lab-manual/internal/domain"
)

// ErrRequestExists is returned when a create would clobber an active request.
var ErrRequestExists = errors.New("an active onboarding request already exists for this user")

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("request not found")

type OnboardingRepository interface {
	// Create stores a new request. Fails with ErrRequestExists if the user
	// already has one; the existing request is left untouched.
	Create(ctx context.Context, req *domain.OnboardingRequest) error
	Get(ctx context.Context, slackUserID string) (*domain.OnboardingRequest, error)
	Save(ctx context.Context, req *domain.OnboardingRequest) error
	Delete(ctx context.Context, slackUserID string) error
	List(ctx context.Context) ([]domain.OnboardingRequest, error)
	// PurgeTerminalOlderThan removes completed/rejected/errored requests not
	// updated since cutoff and returns how many were removed.
	PurgeTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type OffboardingRepository interface {
	Save(ctx context.Context, req *domain.OffboardingRequest) error
	Get(ctx context.Context, slackUserID string) (*domain.OffboardingRequest, error)
	Delete(ctx context.Context, slackUserID string) error
	PurgeProcessedOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type StepExecutionRepository interface {
	Save(ctx context.Context, exec *domain.StepExecution) error
	Get(ctx context.Context, slackUserID string) (*domain.StepExecution, error)
	Delete(ctx context.Context, slackUserID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type PartialSubmissionRepository interface {
	Save(ctx context.Context, partial *domain.PartialSubmission) error
	Get(ctx context.Context, slackUserID string) (*domain.PartialSubmission, error)
	Delete(ctx context.Context, slackUserID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
