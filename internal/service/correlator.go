package service

import (
	"context"
	"errors"
	"time"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/repository"
	"github.com/ContextLab/lab-manual/internal/workflow"
)

type workflowCorrelator struct {
	partials   repository.PartialSubmissionRepository
	requests   repository.OnboardingRepository
	onboarding OnboardingService
	msgr       Messenger
}

// NewWorkflowCorrelator matches the two workflow-builder messages that carry
// one member's onboarding data. The first message is held as a partial
// submission; the second completes the set and promotes it into the regular
// onboarding flow.
func NewWorkflowCorrelator(
	partials repository.PartialSubmissionRepository,
	requests repository.OnboardingRepository,
	onboarding OnboardingService,
	msgr Messenger,
) WorkflowCorrelator {
	return &workflowCorrelator{
		partials:   partials,
		requests:   requests,
		onboarding: onboarding,
		msgr:       msgr,
	}
}

func (c *workflowCorrelator) HandleWorkflowMessage(ctx context.Context, channelID, ts, text string) error {
	submitter := workflow.ExtractSubmitter(text)
	if submitter == "" {
		logger.Debug("ignoring intake message without a submitter mention", "channel", channelID, "ts", ts)
		return nil
	}

	fields := workflow.Parse(text)
	logger.Info("workflow message received", "submitter", submitter,
		"has_github", fields.GitHubUsername != "", "has_bio", fields.Bio != "")

	partial, err := c.partials.Get(ctx, submitter)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		partial = &domain.PartialSubmission{SlackUserID: submitter}
	case err != nil:
		return err
	}

	partial.Fields.Merge(fields)
	partial.UpdatedAt = time.Now()

	if !complete(partial.Fields) {
		return c.partials.Save(ctx, partial)
	}

	if err := c.promote(ctx, submitter, partial.Fields); err != nil {
		// Keep the partial so a retry (or the next message) can finish the job.
		if saveErr := c.partials.Save(ctx, partial); saveErr != nil {
			logger.Error("failed to keep partial after promotion failure", "submitter", submitter, "error", saveErr)
		}
		return err
	}

	if err := c.partials.Delete(ctx, submitter); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("failed to delete promoted partial", "submitter", submitter, "error", err)
	}
	return nil
}

// complete reports whether the merged fields cover both workflow forms: the
// account form contributes the GitHub handle, the profile form the bio.
func complete(f domain.SubmissionFields) bool {
	return f.GitHubUsername != "" && f.Bio != ""
}

// promote turns a completed partial into a regular onboarding request. When
// the member has no open request one is created first, preferring the
// submitted name and email over the chat profile's.
func (c *workflowCorrelator) promote(ctx context.Context, submitter string, fields domain.SubmissionFields) error {
	req, err := c.requests.Get(ctx, submitter)
	if errors.Is(err, repository.ErrNotFound) {
		req, err = c.createRequest(ctx, submitter, fields)
	}
	if err != nil {
		return err
	}

	if fields.Name != "" {
		req.Name = fields.Name
	}
	if fields.Email != "" {
		req.Email = fields.Email
	}
	if err := c.requests.Save(ctx, req); err != nil {
		return err
	}

	_, err = c.onboarding.SubmitProfile(ctx, submitter, fields.GitHubUsername, fields.Bio, fields.WebsiteURL)
	if err != nil {
		return err
	}
	logger.Info("workflow submission promoted", "submitter", submitter)
	return nil
}

func (c *workflowCorrelator) createRequest(ctx context.Context, submitter string, fields domain.SubmissionFields) (*domain.OnboardingRequest, error) {
	name, email, err := c.msgr.UserInfo(ctx, submitter)
	if err != nil {
		logger.Warn("failed to look up submitter profile", "submitter", submitter, "error", err)
	}
	if fields.Name != "" {
		name = fields.Name
	}
	if fields.Email != "" {
		email = fields.Email
	}

	dm, err := c.msgr.OpenDM(ctx, submitter)
	if err != nil {
		return nil, err
	}

	req := domain.NewOnboardingRequest(submitter, dm, name, email)
	if err := c.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}
