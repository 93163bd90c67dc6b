package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/service"
)

func TestComposeProgressSummary(t *testing.T) {
	req := domain.NewOnboardingRequest(memberID, "DMEMBER", "Ada Lovelace", "ada@dartmouth.edu")
	req.BioEdited = "Ada studies brains."
	req.PhotoProcessedPath = "/tmp/photos/UNEW123_bordered.png"

	o := &service.Outcomes{}
	o.Successf(":white_check_mark: GitHub invitation sent to `octocat`")
	o.Errorf(":x: Failed to share \"Out of lab\": boom")

	summary := service.ComposeProgressSummary(req, o, "http://localhost:8080/photos/UNEW123_bordered.png")
	assert.Contains(t, summary, "Onboarding Progress: Ada Lovelace")
	assert.Contains(t, summary, "*Completed:*")
	assert.Contains(t, summary, "GitHub invitation sent")
	assert.Contains(t, summary, "*Issues:*")
	assert.Contains(t, summary, "Out of lab")
	assert.Contains(t, summary, "*Website Update:*")
	assert.Contains(t, summary, "http://localhost:8080/photos/UNEW123_bordered.png")
	assert.Contains(t, summary, "Ada studies brains.")
}

func TestComposeProgressSummaryOmitsWebsiteWhenNotReady(t *testing.T) {
	req := domain.NewOnboardingRequest(memberID, "DMEMBER", "Ada Lovelace", "ada@dartmouth.edu")

	o := &service.Outcomes{}
	o.Warnf(":warning: Website content incomplete")

	summary := service.ComposeProgressSummary(req, o, "")
	assert.NotContains(t, summary, "*Website Update:*")
	assert.NotContains(t, summary, "*Completed:*")
	assert.Contains(t, summary, "*Issues:*")
}

func TestComposeCongratulationsReflectsWhatActuallyHappened(t *testing.T) {
	req := domain.NewOnboardingRequest(memberID, "DMEMBER", "Ada Lovelace", "ada@dartmouth.edu")

	msg := service.ComposeCongratulations(req)
	assert.NotContains(t, msg, "GitHub")
	assert.NotContains(t, msg, "Calendars")
	assert.Contains(t, msg, "Website")

	req.GitHubInvitationSent = true
	req.CalendarInvitesSent = true
	msg = service.ComposeCongratulations(req)
	assert.Contains(t, msg, "GitHub")
	assert.Contains(t, msg, "Calendars")
}

func TestComposeOffboardingChecklistFallsBackToName(t *testing.T) {
	req := domain.NewOffboardingRequest(memberID, "Ada Lovelace", "ada@dartmouth.edu", adminID)
	req.RemoveGitHub = true

	checklist := service.ComposeOffboardingChecklist(req, "ContextLab")
	// No GitHub handle on file, so the checklist names the member instead.
	assert.Contains(t, checklist, "Ada Lovelace")
	assert.Contains(t, checklist, "https://github.com/orgs/ContextLab/people")
}
