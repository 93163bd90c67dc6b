package slackbot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/ContextLab/lab-manual/internal/domain"
)

// Action and callback identifiers shared between block builders and the
// interaction router.
const (
	actionOpenForm        = "onboarding_open_form"
	actionApprove         = "onboarding_approve"
	actionRequestChanges  = "onboarding_request_changes"
	actionReject          = "onboarding_reject"
	actionTeamSelect      = "onboarding_team_select"
	actionOffboardConfirm = "offboarding_confirm"
	actionOffboardCancel  = "offboarding_cancel"
	actionOffboardOptions = "offboarding_options"

	blockApprovalActions = "approval_actions"
	blockApprovalTeams   = "approval_teams"
	blockOffboardActions = "offboarding_actions"
	blockOffboardOptions = "offboarding_options"

	callbackProfileForm  = "onboarding_profile_form"
	callbackFeedbackForm = "onboarding_feedback_form"

	inputGitHub   = "input_github"
	inputBio      = "input_bio"
	inputWebsite  = "input_website"
	inputFeedback = "input_feedback"
)

const (
	valueRemoveGitHub    = "remove_github"
	valueRemoveCalendars = "remove_calendars"
)

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

// welcomeBlocks greets a new member and offers the profile form.
func welcomeBlocks(name string) []slack.Block {
	intro := fmt.Sprintf(
		":wave: Welcome to the Contextual Dynamics Lab, %s!\n\n"+
			"I'll help you get set up with lab resources. I'll need a few things from you:\n"+
			"• Your GitHub username\n"+
			"• A short bio for the lab website\n"+
			"• A profile photo (just upload it here whenever you're ready)",
		name)

	return []slack.Block{
		slack.NewSectionBlock(mrkdwn(intro), nil, nil),
		slack.NewActionBlock("welcome_actions",
			slack.NewButtonBlockElement(actionOpenForm, "open", plain("Get Started")).
				WithStyle(slack.StylePrimary),
		),
	}
}

// approvalBlocks renders the admin approval request: the request summary, the
// calendar access that approval will grant, a team checkbox group (default
// team pre-selected) and the three verdict buttons. Button values carry the
// subject's user ID.
func approvalBlocks(req *domain.OnboardingRequest, teams []domain.Team, defaultTeam string, calendarPolicy map[string]string) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(":inbox_tray: *New Onboarding Request*"), nil, nil),
		slack.NewSectionBlock(mrkdwn(req.Summary()), nil, nil),
	}

	if req.BioEdited != "" {
		blocks = append(blocks,
			slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*Edited bio:*\n>%s", req.BioEdited)), nil, nil))
	}

	if len(calendarPolicy) > 0 {
		names := make([]string, 0, len(calendarPolicy))
		for name := range calendarPolicy {
			names = append(names, name)
		}
		sort.Strings(names)
		grants := make([]string, 0, len(names))
		for _, name := range names {
			grants = append(grants, fmt.Sprintf("%s (%s)", name, calendarPolicy[name]))
		}
		blocks = append(blocks, slack.NewContextBlock("approval_calendars",
			mrkdwn("*Calendar access on approval:* "+strings.Join(grants, ", "))))
	}

	if len(teams) > 0 {
		var options []*slack.OptionBlockObject
		var initial []*slack.OptionBlockObject
		for _, t := range teams {
			var desc *slack.TextBlockObject
			if t.Description != "" {
				desc = plain(t.Description)
			}
			opt := slack.NewOptionBlockObject(strconv.FormatInt(t.ID, 10), plain(t.Name), desc)
			options = append(options, opt)
			if t.Name == defaultTeam {
				initial = append(initial, opt)
			}
		}
		checkboxes := slack.NewCheckboxGroupsBlockElement(actionTeamSelect, options...)
		checkboxes.InitialOptions = initial
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(mrkdwn("*GitHub teams:*"), nil, slack.NewAccessory(checkboxes), slack.SectionBlockOptionBlockID(blockApprovalTeams)),
		)
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewActionBlock(blockApprovalActions,
			slack.NewButtonBlockElement(actionApprove, req.SlackUserID, plain("Approve")).
				WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(actionRequestChanges, req.SlackUserID, plain("Request Changes")),
			slack.NewButtonBlockElement(actionReject, req.SlackUserID, plain("Reject")).
				WithStyle(slack.StyleDanger),
		),
	)
	return blocks
}

// offboardingBlocks renders the admin confirmation prompt with the optional
// revoke reminders and confirm/cancel buttons.
func offboardingBlocks(req *domain.OffboardingRequest) []slack.Block {
	header := fmt.Sprintf(
		":outbox_tray: *Offboarding Request*\n\n*Member:* %s\n*Email:* %s\n*Initiated by:* <@%s>",
		req.Name, req.Email, req.InitiatedBy)

	options := []*slack.OptionBlockObject{
		slack.NewOptionBlockObject(valueRemoveGitHub,
			plain("Include GitHub removal on the checklist"), nil),
		slack.NewOptionBlockObject(valueRemoveCalendars,
			plain("Include calendar removal on the checklist"), nil),
	}
	checkboxes := slack.NewCheckboxGroupsBlockElement(actionOffboardOptions, options...)
	checkboxes.InitialOptions = options

	return []slack.Block{
		slack.NewSectionBlock(mrkdwn(header), nil, nil),
		slack.NewSectionBlock(mrkdwn("*Checklist items:*"), nil, slack.NewAccessory(checkboxes), slack.SectionBlockOptionBlockID(blockOffboardOptions)),
		slack.NewActionBlock(blockOffboardActions,
			slack.NewButtonBlockElement(actionOffboardConfirm, req.SlackUserID, plain("Confirm Offboarding")).
				WithStyle(slack.StyleDanger),
			slack.NewButtonBlockElement(actionOffboardCancel, req.SlackUserID, plain("Cancel")),
		),
	}
}

// changesRequestedBlocks relays admin feedback to the member.
func changesRequestedBlocks(feedback string) []slack.Block {
	text := ":pencil2: *The lab admin has requested some changes to your onboarding info:*"
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(text), nil, nil),
	}
	if feedback != "" {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(fmt.Sprintf(">%s", feedback)), nil, nil))
	}
	blocks = append(blocks,
		slack.NewSectionBlock(mrkdwn("Click below to update your information."), nil, nil),
		slack.NewActionBlock("changes_actions",
			slack.NewButtonBlockElement(actionOpenForm, "open", plain("Update Info")).
				WithStyle(slack.StylePrimary),
		),
	)
	return blocks
}

// profileFormView is the modal the member fills in with GitHub handle, bio
// and optional website.
func profileFormView() slack.ModalViewRequest {
	github := slack.NewPlainTextInputBlockElement(plain("e.g. octocat"), inputGitHub)
	bio := slack.NewPlainTextInputBlockElement(plain("A few sentences about you and your research interests"), inputBio)
	bio.Multiline = true
	website := slack.NewPlainTextInputBlockElement(plain("https://..."), inputWebsite)

	githubBlock := slack.NewInputBlock(inputGitHub, plain("GitHub username"), nil, github)
	bioBlock := slack.NewInputBlock(inputBio, plain("Bio"), plain("This will be lightly edited for the lab website."), bio)
	websiteBlock := slack.NewInputBlock(inputWebsite, plain("Personal website"), nil, website)
	websiteBlock.Optional = true

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: callbackProfileForm,
		Title:      plain("Lab Onboarding"),
		Submit:     plain("Submit"),
		Close:      plain("Cancel"),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{githubBlock, bioBlock, websiteBlock},
		},
	}
}

// feedbackFormView is the modal the admin fills in when requesting changes.
// metadata carries the subject's user ID and the approval message location.
func feedbackFormView(metadata string) slack.ModalViewRequest {
	feedback := slack.NewPlainTextInputBlockElement(plain("What needs to change?"), inputFeedback)
	feedback.Multiline = true

	feedbackBlock := slack.NewInputBlock(inputFeedback, plain("Feedback for the member"), nil, feedback)

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackFeedbackForm,
		PrivateMetadata: metadata,
		Title:           plain("Request Changes"),
		Submit:          plain("Send"),
		Close:           plain("Cancel"),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{feedbackBlock},
		},
	}
}
