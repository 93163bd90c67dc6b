package service

import (
	"context"

	"github.com/ContextLab/lab-manual/internal/domain"
)

// MessageRef identifies an interactive message so it can be edited in place
// once the action it carries has been resolved.
type MessageRef struct {
	ChannelID string
	Timestamp string
}

// GitHubService wraps organization membership management. Adapters surface a
// plain error result and carry no business logic.
type GitHubService interface {
	ValidateUsername(ctx context.Context, username string) error
	ListTeams(ctx context.Context) ([]domain.Team, error)
	IsMember(ctx context.Context, username string) (bool, error)
	// InviteUser must be idempotent for existing members: they are added to
	// the requested teams instead of erroring.
	InviteUser(ctx context.Context, username string, teamIDs []int64, role string) error
	RemoveMember(ctx context.Context, username string) error
	PendingInvitations(ctx context.Context) ([]domain.PendingInvitation, error)
}

// CalendarService wraps shared-calendar ACL management.
type CalendarService interface {
	Share(ctx context.Context, calendarName, email, role string) error
	// ShareAll attempts each calendar independently and reports a per-calendar
	// result; one calendar's failure never blocks the others.
	ShareAll(ctx context.Context, email string, policy map[string]string) map[string]error
	Revoke(ctx context.Context, calendarName, email string) error
	CurrentRole(ctx context.Context, calendarName, email string) (string, error)
}

// BioService rewrites a member bio into the lab's house style.
type BioService interface {
	// EditBio fails closed on blank input: it returns an error without
	// calling the model.
	EditBio(ctx context.Context, rawBio, name string) (string, error)
}

// PhotoProcessor validates and frames member photos.
type PhotoProcessor interface {
	Validate(data []byte) error
	Process(data []byte, outputDir, memberID string) (originalPath, processedPath string, err error)
}

// Messenger delivers outbound chat messages. All sends are fire-and-forget
// from the lifecycle's perspective: delivery failures are logged by callers
// and never roll back a committed state transition.
type Messenger interface {
	OpenDM(ctx context.Context, userID string) (channelID string, err error)
	PostMessage(ctx context.Context, channelID, text string) (ts string, err error)
	UpdateMessage(ctx context.Context, channelID, ts, text string) error
	UserInfo(ctx context.Context, userID string) (name, email string, err error)
	UploadPhoto(ctx context.Context, channelID, path, title, comment string) error

	// Interactive messages, rendered by the chat layer.
	PostWelcome(ctx context.Context, channelID, name string) error
	PostApprovalRequest(ctx context.Context, req *domain.OnboardingRequest, teams []domain.Team, defaultTeam string) (channelID, ts string, err error)
	PostChangesRequested(ctx context.Context, channelID, feedback string) error
	PostOffboardingPrompt(ctx context.Context, req *domain.OffboardingRequest) error
}

// StepNotifier resolves a paused Workflow Builder step run. Implemented by
// the chat layer; nil when the deployment has no workflow steps.
type StepNotifier interface {
	CompleteStep(ctx context.Context, executionID string, outputs map[string]string) error
	FailStep(ctx context.Context, executionID, message string) error
}

// StepInputs carries the structured fields a Workflow Builder custom step
// collected before invoking us. Photo holds the already-downloaded upload
// bytes when the workflow included one; nil otherwise.
type StepInputs struct {
	SubmitterID string
	Name        string
	Email       string
	GitHub      string
	Bio         string
	WebsiteURL  string
	Photo       []byte
}

// OnboardingService owns the request lifecycle state machine.
type OnboardingService interface {
	Start(ctx context.Context, initiatorID, targetID string) (*domain.OnboardingRequest, error)
	SubmitProfile(ctx context.Context, userID, githubUsername, bioRaw, websiteURL string) (*domain.OnboardingRequest, error)
	AttachPhoto(ctx context.Context, userID string, data []byte) (*domain.OnboardingRequest, error)
	Approve(ctx context.Context, actorID, userID string, teamIDs []int64, ref MessageRef) error
	Reject(ctx context.Context, actorID, userID string, ref MessageRef) error
	RequestChanges(ctx context.Context, actorID, userID, feedback string, ref MessageRef) error
	Get(ctx context.Context, userID string) (*domain.OnboardingRequest, error)
	// ExecuteStep ingests one structured workflow-step submission. The step
	// run stays paused until the admin verdict resolves it; input problems
	// fail the run immediately.
	ExecuteStep(ctx context.Context, executionID string, in StepInputs) error
}

// OffboardingService owns the advisory offboarding checklist flow.
type OffboardingService interface {
	Start(ctx context.Context, initiatorID, targetID string) (*domain.OffboardingRequest, error)
	Confirm(ctx context.Context, actorID, userID string, removeGitHub, removeCalendars bool, ref MessageRef) error
	Cancel(ctx context.Context, userID string, ref MessageRef) error
	// ExecuteStep handles the workflow-step variant of Start: the admin is
	// prompted and the step run completes immediately.
	ExecuteStep(ctx context.Context, executionID, submitterID string) error
}

// WorkflowCorrelator matches the two independently-timed workflow-builder
// messages that carry one member's onboarding data.
type WorkflowCorrelator interface {
	HandleWorkflowMessage(ctx context.Context, channelID, ts, text string) error
}
