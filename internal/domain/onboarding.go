package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type OnboardingStatus string

const (
	OnboardingStatusPendingInfo     OnboardingStatus = "pending_info"     // waiting for member to provide info
	OnboardingStatusPendingApproval OnboardingStatus = "pending_approval" // waiting for admin approval
	OnboardingStatusGitHubPending   OnboardingStatus = "github_pending"   // GitHub invite sent, awaiting acceptance
	OnboardingStatusCalendarPending OnboardingStatus = "calendar_pending" // calendar invites being sent
	OnboardingStatusPhotoPending    OnboardingStatus = "photo_pending"    // waiting for photo upload
	OnboardingStatusProcessing      OnboardingStatus = "processing"       // processing bio/photo
	OnboardingStatusReadyForWebsite OnboardingStatus = "ready_for_website"
	OnboardingStatusCompleted       OnboardingStatus = "completed"
	OnboardingStatusRejected        OnboardingStatus = "rejected"
	OnboardingStatusError           OnboardingStatus = "error"
)

// Terminal reports whether no further transitions are expected from the status.
func (s OnboardingStatus) Terminal() bool {
	switch s {
	case OnboardingStatusCompleted, OnboardingStatusRejected, OnboardingStatusError:
		return true
	}
	return false
}

// OnboardingRequest tracks everything needed to onboard one new lab member.
// Keyed by the member's Slack user ID; at most one active request per member.
type OnboardingRequest struct {
	// Slack identifiers
	SlackUserID    string `json:"slack_user_id"`
	SlackChannelID string `json:"slack_channel_id"` // DM channel with the new member

	// Basic info
	Name  string `json:"name"`
	Email string `json:"email"`

	// GitHub
	GitHubUsername       string  `json:"github_username"`
	GitHubTeams          []int64 `json:"github_teams"`
	GitHubInvitationSent bool    `json:"github_invitation_sent"`

	// Google Calendar
	CalendarPermissions map[string]string `json:"calendar_permissions"` // calendar name -> role
	CalendarInvitesSent bool              `json:"calendar_invites_sent"`

	// Website info
	BioRaw     string `json:"bio_raw"`
	BioEdited  string `json:"bio_edited"`
	WebsiteURL string `json:"website_url"`

	// Photo
	PhotoOriginalPath  string `json:"photo_original_path,omitempty"`
	PhotoProcessedPath string `json:"photo_processed_path,omitempty"`

	// Status tracking
	Status       OnboardingStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	ErrorMessage string           `json:"error_message"`

	// Admin approval tracking
	ApprovalMessageTS string `json:"approval_message_ts"` // ts of the approval message in Slack
	ApprovalChannelID string `json:"approval_channel_id"`
	ApprovedBy        string `json:"approved_by"`
}

// NewOnboardingRequest creates a request in the initial pending_info state.
func NewOnboardingRequest(slackUserID, slackChannelID, name, email string) *OnboardingRequest {
	now := time.Now()
	return &OnboardingRequest{
		SlackUserID:    slackUserID,
		SlackChannelID: slackChannelID,
		Name:           name,
		Email:          email,
		Status:         OnboardingStatusPendingInfo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateStatus sets the status, stamps UpdatedAt and records an error message if given.
func (r *OnboardingRequest) UpdateStatus(status OnboardingStatus, errorMessage string) {
	r.Status = status
	r.UpdatedAt = time.Now()
	if errorMessage != "" {
		r.ErrorMessage = errorMessage
	}
}

// ToRecord serializes the request to its JSON transport form.
func (r *OnboardingRequest) ToRecord() ([]byte, error) {
	return json.Marshal(r)
}

// RequestFromRecord restores a request from its JSON transport form. Every
// field survives the round trip, including team selections, calendar grants
// and the status value.
func RequestFromRecord(data []byte) (*OnboardingRequest, error) {
	var req OnboardingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode onboarding record: %w", err)
	}
	return &req, nil
}

// WebsiteReady reports whether both website artifacts are in place. Pure
// predicate; never touches external services.
func (r *OnboardingRequest) WebsiteReady() bool {
	return r.BioEdited != "" && r.PhotoProcessedPath != ""
}

// MissingWebsiteArtifacts names the artifacts still needed for the website.
func (r *OnboardingRequest) MissingWebsiteArtifacts() []string {
	var missing []string
	if r.BioEdited == "" {
		missing = append(missing, "edited bio")
	}
	if r.PhotoProcessedPath == "" {
		missing = append(missing, "processed photo")
	}
	return missing
}

// Summary renders a short mrkdwn summary of the request for admin messages.
func (r *OnboardingRequest) Summary() string {
	lines := []string{
		fmt.Sprintf("*Name:* %s", orDefault(r.Name, "Not provided")),
		fmt.Sprintf("*Email:* %s", orDefault(r.Email, "Not provided")),
		fmt.Sprintf("*GitHub:* %s", orDefault(r.GitHubUsername, "Not provided")),
		fmt.Sprintf("*Status:* %s", r.Status),
	}

	if len(r.GitHubTeams) > 0 {
		ids := make([]string, len(r.GitHubTeams))
		for i, id := range r.GitHubTeams {
			ids[i] = fmt.Sprintf("%d", id)
		}
		lines = append(lines, fmt.Sprintf("*GitHub Teams:* %s", strings.Join(ids, ", ")))
	}

	if r.BioRaw != "" {
		preview := r.BioRaw
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		lines = append(lines, fmt.Sprintf("*Bio:* %s", preview))
	}

	if r.WebsiteURL != "" {
		lines = append(lines, fmt.Sprintf("*Website:* %s", r.WebsiteURL))
	}

	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
