package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/repository"
)

var (
	// ErrNotAuthorized is returned when a non-admin attempts to start a flow.
	// Interactive approve/reject actions never return it: those are silently
	// dropped instead.
	ErrNotAuthorized = errors.New("only the lab admin can do that")

	// ErrInvalidGitHubUsername wraps a failed username validation so the chat
	// layer can ask the member to correct it.
	ErrInvalidGitHubUsername = errors.New("invalid GitHub username")
)

// OnboardingConfig carries the static knobs of the onboarding lifecycle.
type OnboardingConfig struct {
	AdminUserID string
	OrgName     string
	DefaultTeam string
	// CalendarPolicy maps calendar names to the role granted on approval.
	CalendarPolicy map[string]string
	PhotoOutputDir string
	// PhotoBaseURL is the externally reachable prefix for processed photos.
	PhotoBaseURL string
}

type onboardingService struct {
	repo     repository.OnboardingRepository
	steps    repository.StepExecutionRepository // nil when workflow steps are not used
	github   GitHubService
	cal      CalendarService // nil when calendar integration is not configured
	bio      BioService      // nil when bio rewriting is not configured
	photos   PhotoProcessor
	msgr     Messenger
	notifier StepNotifier // nil when workflow steps are not used
	gate     adminGate
	cfg      OnboardingConfig
}

// NewOnboardingService wires the lifecycle state machine. cal and bio may be
// nil; the affected steps then degrade to recorded warnings. steps and
// notifier may be nil when Workflow Builder intake is not deployed.
func NewOnboardingService(
	repo repository.OnboardingRepository,
	steps repository.StepExecutionRepository,
	github GitHubService,
	cal CalendarService,
	bio BioService,
	photos PhotoProcessor,
	msgr Messenger,
	notifier StepNotifier,
	cfg OnboardingConfig,
) OnboardingService {
	return &onboardingService{
		repo:     repo,
		steps:    steps,
		github:   github,
		cal:      cal,
		bio:      bio,
		photos:   photos,
		msgr:     msgr,
		notifier: notifier,
		gate:     adminGate{adminUserID: cfg.AdminUserID},
		cfg:      cfg,
	}
}

func (s *onboardingService) Start(ctx context.Context, initiatorID, targetID string) (*domain.OnboardingRequest, error) {
	if !s.gate.authorize(initiatorID) {
		return nil, ErrNotAuthorized
	}

	if existing, err := s.repo.Get(ctx, targetID); err == nil {
		return nil, fmt.Errorf("%w: onboarding for <@%s> already in progress (status: %s)",
			repository.ErrRequestExists, targetID, existing.Status)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	name, email, err := s.msgr.UserInfo(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user <@%s>: %w", targetID, err)
	}

	channelID, err := s.msgr.OpenDM(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to open DM with <@%s>: %w", targetID, err)
	}

	req := domain.NewOnboardingRequest(targetID, channelID, name, email)
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	if err := s.msgr.PostWelcome(ctx, channelID, name); err != nil {
		logger.Error("failed to send welcome message", "user_id", targetID, "error", err)
	}

	logger.Info("onboarding started", "user_id", targetID, "name", name)
	return req, nil
}

func (s *onboardingService) SubmitProfile(ctx context.Context, userID, githubUsername, bioRaw, websiteURL string) (*domain.OnboardingRequest, error) {
	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	githubUsername = strings.TrimSpace(strings.TrimPrefix(githubUsername, "@"))
	if githubUsername != "" {
		if err := s.github.ValidateUsername(ctx, githubUsername); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGitHubUsername, err)
		}
	}

	req.GitHubUsername = githubUsername
	req.BioRaw = bioRaw
	req.WebsiteURL = strings.TrimSpace(websiteURL)

	if s.bio != nil && req.BioRaw != "" {
		edited, err := s.bio.EditBio(ctx, req.BioRaw, req.Name)
		if err != nil {
			logger.Warn("bio rewrite failed, keeping raw bio", "user_id", userID, "error", err)
		} else {
			req.BioEdited = edited
		}
	}

	req.UpdateStatus(domain.OnboardingStatusPendingApproval, "")
	if err := s.repo.Save(ctx, req); err != nil {
		return nil, err
	}

	s.sendApprovalRequest(ctx, req)
	logger.Info("profile submitted", "user_id", userID, "github", githubUsername)
	return req, nil
}

// ExecuteStep ingests a structured Workflow Builder submission: one shot
// carrying everything the conversational flow collects over several turns.
// The step run is resolved here only on input errors; otherwise it stays
// paused until Approve or Reject settles it.
func (s *onboardingService) ExecuteStep(ctx context.Context, executionID string, in StepInputs) error {
	if in.SubmitterID == "" {
		s.failStep(ctx, executionID, "Missing submitter: the workflow must pass the Slack user starting onboarding")
		return errors.New("workflow step missing submitter_id")
	}

	githubUsername := strings.TrimSpace(strings.TrimPrefix(in.GitHub, "@"))
	if githubUsername == "" {
		s.failStep(ctx, executionID, "Missing GitHub username: onboarding needs one to send the organization invitation")
		return errors.New("workflow step missing github username")
	}
	if err := s.github.ValidateUsername(ctx, githubUsername); err != nil {
		s.failStep(ctx, executionID, fmt.Sprintf("GitHub username `%s` could not be verified", githubUsername))
		return fmt.Errorf("%w: %v", ErrInvalidGitHubUsername, err)
	}

	req, err := s.repo.Get(ctx, in.SubmitterID)
	if errors.Is(err, repository.ErrNotFound) {
		name, email := in.Name, in.Email
		if name == "" || email == "" {
			if lookedUpName, lookedUpEmail, infoErr := s.msgr.UserInfo(ctx, in.SubmitterID); infoErr != nil {
				logger.Warn("profile lookup failed, keeping workflow-provided fields",
					"user_id", in.SubmitterID, "error", infoErr)
			} else {
				if name == "" {
					name = lookedUpName
				}
				if email == "" {
					email = lookedUpEmail
				}
			}
		}

		channelID, dmErr := s.msgr.OpenDM(ctx, in.SubmitterID)
		if dmErr != nil {
			s.failStep(ctx, executionID, "Could not open a DM with the submitter")
			return fmt.Errorf("failed to open DM with <@%s>: %w", in.SubmitterID, dmErr)
		}

		req = domain.NewOnboardingRequest(in.SubmitterID, channelID, name, email)
		if err := s.repo.Create(ctx, req); err != nil {
			s.failStep(ctx, executionID, "Could not record the onboarding request")
			return err
		}
	} else if err != nil {
		s.failStep(ctx, executionID, "Could not load the onboarding request")
		return err
	}

	req.GitHubUsername = githubUsername
	req.BioRaw = in.Bio
	req.WebsiteURL = strings.TrimSpace(in.WebsiteURL)

	if s.bio != nil && req.BioRaw != "" {
		if edited, err := s.bio.EditBio(ctx, req.BioRaw, req.Name); err != nil {
			logger.Warn("bio rewrite failed, keeping raw bio", "user_id", req.SlackUserID, "error", err)
		} else {
			req.BioEdited = edited
		}
	}

	if len(in.Photo) > 0 {
		if originalPath, processedPath, err := s.photos.Process(in.Photo, s.cfg.PhotoOutputDir, req.SlackUserID); err != nil {
			logger.Warn("workflow photo processing failed", "user_id", req.SlackUserID, "error", err)
		} else {
			req.PhotoOriginalPath = originalPath
			req.PhotoProcessedPath = processedPath
		}
	}

	req.UpdateStatus(domain.OnboardingStatusPendingApproval, "")
	if err := s.repo.Save(ctx, req); err != nil {
		s.failStep(ctx, executionID, "Could not record the onboarding request")
		return err
	}

	if s.steps != nil {
		if err := s.steps.Save(ctx, domain.NewStepExecution(req.SlackUserID, executionID)); err != nil {
			logger.Error("failed to record step execution", "user_id", req.SlackUserID, "error", err)
		}
	}

	if _, err := s.msgr.PostMessage(ctx, req.SlackChannelID, ComposeStepAcknowledgment(req.Name)); err != nil {
		logger.Error("failed to acknowledge workflow submission", "user_id", req.SlackUserID, "error", err)
	}

	s.sendApprovalRequest(ctx, req)
	logger.Info("workflow step submitted", "user_id", req.SlackUserID, "github", githubUsername)
	return nil
}

func (s *onboardingService) failStep(ctx context.Context, executionID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.FailStep(ctx, executionID, message); err != nil {
		logger.Error("failed to fail workflow step", "execution_id", executionID, "error", err)
	}
}

// resolveStep settles the paused workflow step run, if any, once the admin
// verdict lands. The execution record is removed either way.
func (s *onboardingService) resolveStep(ctx context.Context, req *domain.OnboardingRequest, approved bool) {
	if s.steps == nil || s.notifier == nil {
		return
	}

	exec, err := s.steps.Get(ctx, req.SlackUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return
	} else if err != nil {
		logger.Error("failed to load step execution", "user_id", req.SlackUserID, "error", err)
		return
	}

	if approved {
		outputs := map[string]string{
			"status":      string(req.Status),
			"member_name": req.Name,
		}
		if err := s.notifier.CompleteStep(ctx, exec.ExecutionID, outputs); err != nil {
			logger.Error("failed to complete workflow step", "user_id", req.SlackUserID, "error", err)
		}
	} else {
		s.failStep(ctx, exec.ExecutionID, "Onboarding request was rejected")
	}

	if err := s.steps.Delete(ctx, req.SlackUserID); err != nil {
		logger.Error("failed to delete step execution", "user_id", req.SlackUserID, "error", err)
	}
}

// sendApprovalRequest posts the interactive approval message to the admin and
// records where it landed so it can be edited once resolved. Failures leave
// the request in pending_approval; the admin can still act via the status
// command.
func (s *onboardingService) sendApprovalRequest(ctx context.Context, req *domain.OnboardingRequest) {
	teams, err := s.github.ListTeams(ctx)
	if err != nil {
		logger.Error("failed to list teams for approval message", "error", err)
	}

	channelID, ts, err := s.msgr.PostApprovalRequest(ctx, req, teams, s.cfg.DefaultTeam)
	if err != nil {
		logger.Error("failed to post approval request", "user_id", req.SlackUserID, "error", err)
		return
	}

	req.ApprovalChannelID = channelID
	req.ApprovalMessageTS = ts
	if err := s.repo.Save(ctx, req); err != nil {
		logger.Error("failed to record approval message location", "user_id", req.SlackUserID, "error", err)
	}
}

func (s *onboardingService) AttachPhoto(ctx context.Context, userID string, data []byte) (*domain.OnboardingRequest, error) {
	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	originalPath, processedPath, err := s.photos.Process(data, s.cfg.PhotoOutputDir, userID)
	if err != nil {
		return nil, err
	}

	req.PhotoOriginalPath = originalPath
	req.PhotoProcessedPath = processedPath
	req.UpdateStatus(req.Status, "") // stamp UpdatedAt without changing state
	if err := s.repo.Save(ctx, req); err != nil {
		return nil, err
	}

	if err := s.msgr.UploadPhoto(ctx, req.SlackChannelID, processedPath,
		fmt.Sprintf("%s's lab photo", req.Name),
		"Here's your photo with the lab border! :frame_with_picture:"); err != nil {
		logger.Error("failed to echo processed photo", "user_id", userID, "error", err)
	}

	logger.Info("photo processed", "user_id", userID, "path", processedPath)
	return req, nil
}

func (s *onboardingService) Approve(ctx context.Context, actorID, userID string, teamIDs []int64, ref MessageRef) error {
	if !s.gate.authorize(actorID) {
		return nil
	}

	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	req.GitHubTeams = teamIDs
	req.ApprovedBy = actorID
	req.UpdateStatus(domain.OnboardingStatusGitHubPending, "")
	if err := s.repo.Save(ctx, req); err != nil {
		return err
	}

	s.resolveApprovalMessage(ctx, req, ref, "Approved", ":white_check_mark:")
	s.processApproval(ctx, req)
	s.resolveStep(ctx, req, true)
	return nil
}

// processApproval runs the three post-approval steps. Each step is
// best-effort: a failure is recorded and the run continues, and the request
// only reaches completed when every step succeeded. A panic anywhere in the
// run is converted into the error status instead of taking down the caller.
func (s *onboardingService) processApproval(ctx context.Context, req *domain.OnboardingRequest) {
	runID := uuid.NewString()
	log := logger.Get().With("run_id", runID, "user_id", req.SlackUserID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("approval processing panicked", "panic", r)
			req.UpdateStatus(domain.OnboardingStatusError, fmt.Sprintf("approval processing failed: %v", r))
			if err := s.repo.Save(ctx, req); err != nil {
				log.Error("failed to record error status", "error", err)
			}
		}
	}()

	outcomes := &Outcomes{}

	// GitHub organization invitation.
	if req.GitHubUsername == "" {
		outcomes.Warnf(":warning: No GitHub username provided, skipping organization invitation")
	} else if err := s.github.InviteUser(ctx, req.GitHubUsername, req.GitHubTeams, "direct_member"); err != nil {
		log.Error("github invitation failed", "error", err)
		outcomes.Errorf(":x: GitHub invitation failed: %v", err)
	} else {
		req.GitHubInvitationSent = true
		outcomes.Successf(":white_check_mark: GitHub invitation sent to `%s`", req.GitHubUsername)
	}
	if err := s.repo.Save(ctx, req); err != nil {
		log.Error("failed to save request", "error", err)
	}

	// Calendar shares, one share per calendar, each independent.
	switch {
	case s.cal == nil:
		outcomes.Warnf(":warning: Calendar service not configured, skipping calendar invitations")
	case req.Email == "":
		outcomes.Warnf(":warning: No email address on file, skipping calendar invitations")
	default:
		req.CalendarPermissions = clonePolicy(s.cfg.CalendarPolicy)
		req.UpdateStatus(domain.OnboardingStatusCalendarPending, "")
		if err := s.repo.Save(ctx, req); err != nil {
			log.Error("failed to save request", "error", err)
		}

		anyShared := false
		results := s.cal.ShareAll(ctx, req.Email, req.CalendarPermissions)
		for _, name := range sortedKeys(results) {
			if err := results[name]; err != nil {
				log.Error("calendar share failed", "calendar", name, "error", err)
				outcomes.Errorf(":x: Failed to share \"%s\": %v", name, err)
			} else {
				anyShared = true
				outcomes.Successf(":white_check_mark: Shared \"%s\" calendar (%s)", name, req.CalendarPermissions[name])
			}
		}
		req.CalendarInvitesSent = anyShared
	}

	// Website readiness is a pure check of the request's artifacts.
	req.UpdateStatus(domain.OnboardingStatusReadyForWebsite, "")
	if err := s.repo.Save(ctx, req); err != nil {
		log.Error("failed to save request", "error", err)
	}
	if req.WebsiteReady() {
		outcomes.Successf(":white_check_mark: Photo and bio are ready for the lab website")
	} else {
		outcomes.Warnf(":warning: Website content incomplete: missing %s",
			strings.Join(req.MissingWebsiteArtifacts(), ", "))
	}

	summary := ComposeProgressSummary(req, outcomes, s.photoURL(req))
	if _, err := s.msgr.PostMessage(ctx, s.cfg.AdminUserID, summary); err != nil {
		log.Error("failed to send progress summary to admin", "error", err)
	}

	if _, err := s.msgr.PostMessage(ctx, req.SlackChannelID, ComposeCongratulations(req)); err != nil {
		log.Error("failed to send congratulations", "error", err)
	}

	if outcomes.Clean() {
		req.UpdateStatus(domain.OnboardingStatusCompleted, "")
	}
	if err := s.repo.Save(ctx, req); err != nil {
		log.Error("failed to save request", "error", err)
	}

	log.Info("approval processing finished",
		"status", req.Status,
		"successes", len(outcomes.Successes()),
		"issues", len(outcomes.Issues()))
}

func (s *onboardingService) Reject(ctx context.Context, actorID, userID string, ref MessageRef) error {
	if !s.gate.authorize(actorID) {
		return nil
	}

	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	req.UpdateStatus(domain.OnboardingStatusRejected, "")
	if err := s.repo.Save(ctx, req); err != nil {
		return err
	}

	s.resolveApprovalMessage(ctx, req, ref, "Rejected", ":x:")
	s.resolveStep(ctx, req, false)

	if _, err := s.msgr.PostMessage(ctx, req.SlackChannelID, ComposeRejection()); err != nil {
		logger.Error("failed to send rejection notice", "user_id", userID, "error", err)
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		logger.Error("failed to delete rejected request", "user_id", userID, "error", err)
	}

	logger.Info("onboarding rejected", "user_id", userID, "by", actorID)
	return nil
}

func (s *onboardingService) RequestChanges(ctx context.Context, actorID, userID, feedback string, ref MessageRef) error {
	if !s.gate.authorize(actorID) {
		return nil
	}

	req, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	req.UpdateStatus(domain.OnboardingStatusPendingInfo, "")
	if err := s.repo.Save(ctx, req); err != nil {
		return err
	}

	s.resolveApprovalMessage(ctx, req, ref, "Changes Requested", ":pencil2:")

	if err := s.msgr.PostChangesRequested(ctx, req.SlackChannelID, feedback); err != nil {
		logger.Error("failed to relay feedback", "user_id", userID, "error", err)
	}

	logger.Info("changes requested", "user_id", userID, "by", actorID)
	return nil
}

func (s *onboardingService) Get(ctx context.Context, userID string) (*domain.OnboardingRequest, error) {
	return s.repo.Get(ctx, userID)
}

// resolveApprovalMessage overwrites the interactive approval message with a
// static verdict so its buttons cannot be clicked twice. The recorded
// location wins; ref is the fallback when the post-time save was lost.
func (s *onboardingService) resolveApprovalMessage(ctx context.Context, req *domain.OnboardingRequest, ref MessageRef, verdict, emoji string) {
	channelID, ts := req.ApprovalChannelID, req.ApprovalMessageTS
	if channelID == "" || ts == "" {
		channelID, ts = ref.ChannelID, ref.Timestamp
	}
	if channelID == "" || ts == "" {
		return
	}

	text := fmt.Sprintf("%s *Onboarding Request - %s*\n\n%s", emoji, verdict, req.Summary())
	if err := s.msgr.UpdateMessage(ctx, channelID, ts, text); err != nil {
		logger.Error("failed to update approval message", "user_id", req.SlackUserID, "error", err)
	}
}

func (s *onboardingService) photoURL(req *domain.OnboardingRequest) string {
	if req.PhotoProcessedPath == "" || s.cfg.PhotoBaseURL == "" {
		return ""
	}
	base := strings.TrimRight(s.cfg.PhotoBaseURL, "/")
	return base + path.Join("/photos", filepath.Base(req.PhotoProcessedPath))
}

func clonePolicy(policy map[string]string) map[string]string {
	out := make(map[string]string, len(policy))
	for k, v := range policy {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
