package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/repository"
)

type offboardingService struct {
	repo     repository.OffboardingRepository
	onboard  repository.OnboardingRepository
	msgr     Messenger
	notifier StepNotifier // nil when workflow steps are not used
	gate     adminGate
	cfg      OnboardingConfig
}

// NewOffboardingService wires the advisory offboarding flow. It never calls
// GitHub or Calendar: every removal is a manual step on the admin checklist.
// notifier may be nil when Workflow Builder intake is not deployed.
func NewOffboardingService(
	repo repository.OffboardingRepository,
	onboard repository.OnboardingRepository,
	msgr Messenger,
	notifier StepNotifier,
	cfg OnboardingConfig,
) OffboardingService {
	return &offboardingService{
		repo:     repo,
		onboard:  onboard,
		msgr:     msgr,
		notifier: notifier,
		gate:     adminGate{adminUserID: cfg.AdminUserID},
		cfg:      cfg,
	}
}

// Start records an offboarding request and posts the confirmation prompt to
// the admin. A member may initiate their own offboarding; the admin may
// initiate anyone's. A non-admin initiating someone else's gets an error.
func (s *offboardingService) Start(ctx context.Context, initiatorID, targetID string) (*domain.OffboardingRequest, error) {
	if initiatorID != targetID && !s.gate.authorize(initiatorID) {
		return nil, ErrNotAuthorized
	}

	name, email, err := s.msgr.UserInfo(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user <@%s>: %w", targetID, err)
	}

	req := domain.NewOffboardingRequest(targetID, name, email, initiatorID)

	// Carry the GitHub handle over from a past onboarding when we have one,
	// so the checklist names the right account.
	if onboarding, err := s.onboard.Get(ctx, targetID); err == nil {
		req.GitHubUsername = onboarding.GitHubUsername
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Warn("failed to look up onboarding record", "user_id", targetID, "error", err)
	}

	if err := s.repo.Save(ctx, req); err != nil {
		return nil, err
	}

	if err := s.msgr.PostOffboardingPrompt(ctx, req); err != nil {
		logger.Error("failed to post offboarding prompt", "user_id", targetID, "error", err)
	}

	logger.Info("offboarding started", "user_id", targetID, "initiated_by", initiatorID)
	return req, nil
}

// ExecuteStep handles a Workflow Builder offboarding submission. Unlike
// onboarding there is nothing to pause for: the admin prompt goes out and the
// step run completes right away.
func (s *offboardingService) ExecuteStep(ctx context.Context, executionID, submitterID string) error {
	if submitterID == "" {
		if s.notifier != nil {
			if err := s.notifier.FailStep(ctx, executionID, "Missing submitter: the workflow must pass the departing member"); err != nil {
				logger.Error("failed to fail workflow step", "execution_id", executionID, "error", err)
			}
		}
		return errors.New("workflow step missing submitter_id")
	}

	req, err := s.Start(ctx, submitterID, submitterID)
	if err != nil {
		if s.notifier != nil {
			if failErr := s.notifier.FailStep(ctx, executionID, "Could not start offboarding"); failErr != nil {
				logger.Error("failed to fail workflow step", "execution_id", executionID, "error", failErr)
			}
		}
		return err
	}

	if s.notifier != nil {
		outputs := map[string]string{
			"status":      "notified",
			"member_name": req.Name,
		}
		if err := s.notifier.CompleteStep(ctx, executionID, outputs); err != nil {
			logger.Error("failed to complete workflow step", "user_id", submitterID, "error", err)
		}
	}

	return nil
}

// Confirm finalizes the offboarding: the admin gets the manual checklist and
// the member gets a farewell. No external account is touched.
func (s *offboardingService) Confirm(ctx context.Context, actorID, userID string, removeGitHub, removeCalendars bool, ref MessageRef) error {
	if !s.gate.authorize(actorID) {
		return nil
	}

	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	req.RemoveGitHub = removeGitHub
	req.RemoveCalendars = removeCalendars
	req.Processed = true
	req.ProcessedAt = time.Now()
	if err := s.repo.Save(ctx, req); err != nil {
		return err
	}

	if ref.ChannelID != "" && ref.Timestamp != "" {
		text := fmt.Sprintf(":white_check_mark: *Offboarding Confirmed: %s*", req.Name)
		if err := s.msgr.UpdateMessage(ctx, ref.ChannelID, ref.Timestamp, text); err != nil {
			logger.Error("failed to update offboarding prompt", "user_id", userID, "error", err)
		}
	}

	checklist := ComposeOffboardingChecklist(req, s.cfg.OrgName)
	if _, err := s.msgr.PostMessage(ctx, s.cfg.AdminUserID, checklist); err != nil {
		logger.Error("failed to send offboarding checklist", "user_id", userID, "error", err)
	}

	dm, err := s.msgr.OpenDM(ctx, userID)
	if err != nil {
		logger.Error("failed to open DM for farewell", "user_id", userID, "error", err)
	} else if _, err := s.msgr.PostMessage(ctx, dm, ComposeFarewell()); err != nil {
		logger.Error("failed to send farewell", "user_id", userID, "error", err)
	}

	logger.Info("offboarding confirmed", "user_id", userID, "by", actorID,
		"remove_github", removeGitHub, "remove_calendars", removeCalendars)
	return nil
}

// Cancel drops an unconfirmed offboarding request.
func (s *offboardingService) Cancel(ctx context.Context, userID string, ref MessageRef) error {
	if err := s.repo.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if ref.ChannelID != "" && ref.Timestamp != "" {
		if err := s.msgr.UpdateMessage(ctx, ref.ChannelID, ref.Timestamp, "Offboarding cancelled."); err != nil {
			logger.Error("failed to update offboarding prompt", "user_id", userID, "error", err)
		}
	}

	logger.Info("offboarding cancelled", "user_id", userID)
	return nil
}
