package service

import (
	"fmt"
	"strings"

	"github.com/ContextLab/lab-manual/internal/domain"
)

// Message composition for the approval flow. These are pure functions of the
// request's final field values: they read the side-effect flags set during
// orchestration and never re-derive success from anything else.

// ComposeProgressSummary renders the admin-facing summary of an approval run.
// photoURL may be empty when no processed photo exists.
func ComposeProgressSummary(req *domain.OnboardingRequest, outcomes *Outcomes, photoURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Onboarding Progress: %s*\n", req.Name)

	if successes := outcomes.Successes(); len(successes) > 0 {
		b.WriteString("\n*Completed:*\n")
		for _, line := range successes {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if issues := outcomes.Issues(); len(issues) > 0 {
		b.WriteString("\n*Issues:*\n")
		for _, line := range issues {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if req.WebsiteReady() {
		b.WriteString("\n*Website Update:*\n")
		fmt.Fprintf(&b, "The processed photo has been saved to: `%s`\n", req.PhotoProcessedPath)
		if photoURL != "" {
			fmt.Fprintf(&b, "Download: %s\n", photoURL)
		}
		fmt.Fprintf(&b, "\n*Edited bio:*\n>%s", req.BioEdited)
	}

	return strings.TrimRight(b.String(), "\n")
}

// ComposeCongratulations renders the subject-facing approval message.
func ComposeCongratulations(req *domain.OnboardingRequest) string {
	lines := []string{":tada: *Your onboarding has been approved!*"}

	if req.GitHubInvitationSent {
		lines = append(lines,
			":octocat: *GitHub:* Check your email for an invitation to join the ContextLab organization. "+
				"Once you accept, you'll have access to our repositories.")
	}

	if req.CalendarInvitesSent {
		lines = append(lines,
			":calendar: *Calendars:* You should receive invitations to the lab calendars shortly. "+
				"Add them to your Google Calendar to stay up to date.")
	}

	lines = append(lines, ":globe_with_meridians: *Website:* Your profile will be added to context-lab.com soon!")
	return strings.Join(lines, "\n\n")
}

// ComposeStepAcknowledgment renders the DM sent after a workflow submission
// is accepted, telling the member their request awaits the admin verdict.
func ComposeStepAcknowledgment(name string) string {
	return fmt.Sprintf(":wave: Hi %s! Your onboarding details were received and sent to the lab admin for approval. "+
		"We'll let you know here as soon as there's news.", name)
}

// ComposeRejection renders the subject-facing rejection notice.
func ComposeRejection() string {
	return "Your onboarding request was not approved. Please contact the lab admin for more information."
}

// ComposeOffboardingChecklist renders the admin checklist of manual steps.
// Line items are conditional on the revoke flags; the website step is always
// present since it has no automation. Nothing here performs a removal:
// irreversible actions require the admin to click through the external
// consoles themselves.
func ComposeOffboardingChecklist(req *domain.OffboardingRequest, org string) string {
	var items []string

	if req.RemoveGitHub {
		handle := req.GitHubUsername
		if handle == "" {
			handle = req.Name
		}
		items = append(items, fmt.Sprintf(
			":octocat: *GitHub:* Please manually remove `%s` from the %s organization at:\nhttps://github.com/orgs/%s/people",
			handle, org, org))
	}

	if req.RemoveCalendars {
		items = append(items, fmt.Sprintf(
			":calendar: *Calendars:* Please remove `%s` from the following calendars:\n• Contextual Dynamics Lab\n• Out of lab\n• CDL Resources",
			req.Email))
	}

	items = append(items, fmt.Sprintf(
		":globe_with_meridians: *Website:* Please remove %s's profile from:\nhttps://www.context-lab.com/people",
		req.Name))

	var b strings.Builder
	fmt.Fprintf(&b, "*Offboarding Checklist: %s*\n\nPlease complete the following manual steps:\n", req.Name)
	for _, item := range items {
		b.WriteString("\n")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ComposeFarewell renders the subject-facing offboarding notice.
func ComposeFarewell() string {
	return ":wave: *Offboarding Confirmed*\n\n" +
		"The lab admin has been notified and will process your offboarding. " +
		"Thank you for your contributions to the CDL!\n\n" +
		"If you have any questions or need continued access for ongoing collaborations, " +
		"please contact the lab admin."
}
