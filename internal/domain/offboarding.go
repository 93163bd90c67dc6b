package domain

import "time"

// OffboardingRequest tracks an offboarding request. There is no status enum:
// presence in the store means the request is awaiting admin confirmation, and
// the revoke flags record what the admin selected. Processing only ever
// produces a manual checklist; no access is revoked automatically.
type OffboardingRequest struct {
	SlackUserID     string    `json:"slack_user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	GitHubUsername  string    `json:"github_username"`
	InitiatedBy     string    `json:"initiated_by"`
	RemoveGitHub    bool      `json:"remove_github"`
	RemoveCalendars bool      `json:"remove_calendars"`
	Processed       bool      `json:"processed"`
	CreatedAt       time.Time `json:"created_at"`
	ProcessedAt     time.Time `json:"processed_at,omitempty"`
}

// NewOffboardingRequest creates an offboarding request awaiting confirmation.
func NewOffboardingRequest(slackUserID, name, email, initiatedBy string) *OffboardingRequest {
	return &OffboardingRequest{
		SlackUserID: slackUserID,
		Name:        name,
		Email:       email,
		InitiatedBy: initiatedBy,
		CreatedAt:   time.Now(),
	}
}
