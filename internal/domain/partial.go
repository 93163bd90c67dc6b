package domain

import "time"

// SubmissionFields holds the profile fields extracted from one workflow
// message. Zero values mean the field has not arrived yet.
type SubmissionFields struct {
	GitHubUsername string `json:"github_username,omitempty"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	Bio            string `json:"bio,omitempty"`
	WebsiteURL     string `json:"website_url,omitempty"`
}

// Merge overlays non-empty fields from other onto f.
func (f *SubmissionFields) Merge(other SubmissionFields) {
	if other.GitHubUsername != "" {
		f.GitHubUsername = other.GitHubUsername
	}
	if other.Email != "" {
		f.Email = other.Email
	}
	if other.Name != "" {
		f.Name = other.Name
	}
	if other.Bio != "" {
		f.Bio = other.Bio
	}
	if other.WebsiteURL != "" {
		f.WebsiteURL = other.WebsiteURL
	}
}

// PartialSubmission correlates the two independently-timed workflow messages
// that together carry one member's onboarding data. It lives in the partial
// store until a second message completes the set, then is promoted into a
// full OnboardingRequest and deleted.
type PartialSubmission struct {
	SlackUserID string           `json:"slack_user_id"`
	Fields      SubmissionFields `json:"fields"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
