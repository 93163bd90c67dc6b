package slackbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/repository"
	"github.com/ContextLab/lab-manual/internal/service"
)

// Router owns the socket-mode event loop and translates Slack events into
// lifecycle service calls. It is the only place that reads interaction
// payloads; everything below it works with plain values.
type Router struct {
	api    *slack.Client
	socket *socketmode.Client

	onboarding  service.OnboardingService
	offboarding service.OffboardingService
	correlator  service.WorkflowCorrelator
	github      service.GitHubService
	requests    repository.OnboardingRepository

	adminUserID   string
	intakeChannel string
	botUserID     string
}

// NewRouter wires the event loop. correlator may be nil when no intake
// channel is configured.
func NewRouter(
	api *slack.Client,
	socket *socketmode.Client,
	onboarding service.OnboardingService,
	offboarding service.OffboardingService,
	correlator service.WorkflowCorrelator,
	github service.GitHubService,
	requests repository.OnboardingRepository,
	adminUserID, intakeChannel string,
) *Router {
	return &Router{
		api:           api,
		socket:        socket,
		onboarding:    onboarding,
		offboarding:   offboarding,
		correlator:    correlator,
		github:        github,
		requests:      requests,
		adminUserID:   adminUserID,
		intakeChannel: intakeChannel,
	}
}

// Run connects to Slack and processes events until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	auth, err := r.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test failed: %w", err)
	}
	r.botUserID = auth.UserID
	logger.Info("connected to slack", "bot_user_id", r.botUserID)

	go func() {
		for evt := range r.socket.Events {
			r.dispatch(ctx, evt)
		}
	}()

	return r.socket.RunContext(ctx)
}

func (r *Router) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.Debug("connecting to slack socket mode")
	case socketmode.EventTypeConnectionError:
		logger.Error("slack socket mode connection error")
	case socketmode.EventTypeConnected:
		logger.Debug("slack socket mode connected")

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		response := r.handleSlashCommand(ctx, cmd)
		r.socket.Ack(*evt.Request, map[string]any{
			"response_type": "ephemeral",
			"text":          response,
		})

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		r.handleInteraction(ctx, evt, callback)

	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		r.socket.Ack(*evt.Request)
		r.handleEvent(ctx, apiEvent)
	}
}

// --- slash commands ---

func (r *Router) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) string {
	logger.Info("slash command", "command", cmd.Command, "user_id", cmd.UserID)

	switch cmd.Command {
	case "/lab-onboard":
		return r.commandOnboard(ctx, cmd)
	case "/lab-offboard":
		return r.commandOffboard(ctx, cmd)
	case "/lab-status":
		return r.commandStatus(ctx, cmd)
	case "/lab-ping":
		return "pong :table_tennis_paddle_and_ball:"
	case "/lab-help":
		return helpText
	default:
		return fmt.Sprintf("Unknown command: %s", cmd.Command)
	}
}

const helpText = "*Lab manual bot commands:*\n" +
	"• `/lab-onboard @user` - start onboarding a new member (admin only)\n" +
	"• `/lab-offboard [@user]` - start offboarding (yourself, or anyone if admin)\n" +
	"• `/lab-status` - list active onboarding requests (admin only)\n" +
	"• `/lab-ping` - check that the bot is alive"

func (r *Router) commandOnboard(ctx context.Context, cmd slack.SlashCommand) string {
	target := parseMention(cmd.Text)
	if target == "" {
		return "Usage: `/lab-onboard @user`"
	}

	req, err := r.onboarding.Start(ctx, cmd.UserID, target)
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		return "Only the lab admin can initiate onboarding."
	case errors.Is(err, repository.ErrRequestExists):
		return err.Error()
	case err != nil:
		logger.Error("failed to start onboarding", "target", target, "error", err)
		return "Something went wrong starting the onboarding. Check the logs."
	}
	return fmt.Sprintf("Started onboarding for *%s*. I've sent them a welcome message.", req.Name)
}

func (r *Router) commandOffboard(ctx context.Context, cmd slack.SlashCommand) string {
	target := parseMention(cmd.Text)
	if target == "" {
		target = cmd.UserID
	}

	req, err := r.offboarding.Start(ctx, cmd.UserID, target)
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		return "Only the lab admin can offboard other members."
	case err != nil:
		logger.Error("failed to start offboarding", "target", target, "error", err)
		return "Something went wrong starting the offboarding. Check the logs."
	}
	return fmt.Sprintf("Offboarding request for *%s* sent to the admin for confirmation.", req.Name)
}

func (r *Router) commandStatus(ctx context.Context, cmd slack.SlashCommand) string {
	if cmd.UserID != r.adminUserID {
		logger.Debug("ignoring status command from non-admin", "user_id", cmd.UserID)
		return "Nothing to show."
	}

	reqs, err := r.requests.List(ctx)
	if err != nil {
		logger.Error("failed to list requests", "error", err)
		return "Failed to list requests."
	}

	var b strings.Builder
	if len(reqs) == 0 {
		b.WriteString("No active onboarding requests.\n")
	} else {
		fmt.Fprintf(&b, "*%d onboarding request(s):*\n", len(reqs))
		for _, req := range reqs {
			fmt.Fprintf(&b, "• <@%s> (%s) - %s\n", req.SlackUserID, req.Name, req.Status)
		}
	}

	if invites, err := r.github.PendingInvitations(ctx); err != nil {
		logger.Error("failed to list pending invitations", "error", err)
	} else if len(invites) > 0 {
		fmt.Fprintf(&b, "\n*%d pending GitHub invitation(s):*\n", len(invites))
		for _, inv := range invites {
			who := inv.Login
			if who == "" {
				who = inv.Email
			}
			fmt.Fprintf(&b, "• %s (invited %s)\n", who, inv.CreatedAt.Format("2006-01-02"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var commandMention = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)

// parseMention extracts a user ID from the escaped mention Slack puts in
// command text ("<@U123|name>"), falling back to a bare U... token.
func parseMention(text string) string {
	text = strings.TrimSpace(text)
	if m := commandMention.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if strings.HasPrefix(text, "U") && !strings.ContainsAny(text, " <>@") {
		return text
	}
	return ""
}

// --- interactions ---

func (r *Router) handleInteraction(ctx context.Context, evt socketmode.Event, callback slack.InteractionCallback) {
	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		r.socket.Ack(*evt.Request)
		for _, action := range callback.ActionCallback.BlockActions {
			r.handleBlockAction(ctx, callback, action)
		}

	case slack.InteractionTypeViewSubmission:
		r.handleViewSubmission(ctx, evt, callback)

	default:
		r.socket.Ack(*evt.Request)
	}
}

func (r *Router) handleBlockAction(ctx context.Context, callback slack.InteractionCallback, action *slack.BlockAction) {
	ref := service.MessageRef{ChannelID: callback.Channel.ID, Timestamp: callback.Message.Timestamp}
	actorID := callback.User.ID

	logger.Debug("block action", "action_id", action.ActionID, "actor", actorID)

	switch action.ActionID {
	case actionOpenForm:
		if _, err := r.api.OpenViewContext(ctx, callback.TriggerID, profileFormView()); err != nil {
			logger.Error("failed to open profile form", "error", err)
		}

	case actionTeamSelect, actionOffboardOptions:
		// Selection state is read when a verdict button is clicked.

	case actionApprove:
		teamIDs := r.selectedTeamIDs(callback)
		if err := r.onboarding.Approve(ctx, actorID, action.Value, teamIDs, ref); err != nil {
			logger.Error("approve failed", "user_id", action.Value, "error", err)
		}

	case actionRequestChanges:
		metadata := fmt.Sprintf("%s|%s|%s", action.Value, ref.ChannelID, ref.Timestamp)
		if _, err := r.api.OpenViewContext(ctx, callback.TriggerID, feedbackFormView(metadata)); err != nil {
			logger.Error("failed to open feedback form", "error", err)
		}

	case actionReject:
		if err := r.onboarding.Reject(ctx, actorID, action.Value, ref); err != nil {
			logger.Error("reject failed", "user_id", action.Value, "error", err)
		}

	case actionOffboardConfirm:
		removeGitHub, removeCalendars := r.selectedOffboardOptions(callback)
		if err := r.offboarding.Confirm(ctx, actorID, action.Value, removeGitHub, removeCalendars, ref); err != nil {
			logger.Error("offboarding confirm failed", "user_id", action.Value, "error", err)
		}

	case actionOffboardCancel:
		if err := r.offboarding.Cancel(ctx, action.Value, ref); err != nil {
			logger.Error("offboarding cancel failed", "user_id", action.Value, "error", err)
		}

	default:
		logger.Debug("unhandled block action", "action_id", action.ActionID)
	}
}

// selectedTeamIDs reads the team checkbox state from the message at
// click time.
func (r *Router) selectedTeamIDs(callback slack.InteractionCallback) []int64 {
	if callback.BlockActionState == nil {
		return nil
	}
	var ids []int64
	for _, actions := range callback.BlockActionState.Values {
		state, ok := actions[actionTeamSelect]
		if !ok {
			continue
		}
		for _, opt := range state.SelectedOptions {
			id, err := strconv.ParseInt(opt.Value, 10, 64)
			if err != nil {
				logger.Warn("unparseable team option", "value", opt.Value)
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Router) selectedOffboardOptions(callback slack.InteractionCallback) (removeGitHub, removeCalendars bool) {
	if callback.BlockActionState == nil {
		// Checkboxes start fully selected, so a missing state means untouched.
		return true, true
	}
	found := false
	for _, actions := range callback.BlockActionState.Values {
		state, ok := actions[actionOffboardOptions]
		if !ok {
			continue
		}
		found = true
		for _, opt := range state.SelectedOptions {
			switch opt.Value {
			case valueRemoveGitHub:
				removeGitHub = true
			case valueRemoveCalendars:
				removeCalendars = true
			}
		}
	}
	if !found {
		return true, true
	}
	return removeGitHub, removeCalendars
}

func (r *Router) handleViewSubmission(ctx context.Context, evt socketmode.Event, callback slack.InteractionCallback) {
	switch callback.View.CallbackID {
	case callbackProfileForm:
		values := callback.View.State.Values
		github := values[inputGitHub][inputGitHub].Value
		bio := values[inputBio][inputBio].Value
		website := values[inputWebsite][inputWebsite].Value

		_, err := r.onboarding.SubmitProfile(ctx, callback.User.ID, github, bio, website)
		if errors.Is(err, service.ErrInvalidGitHubUsername) {
			r.socket.Ack(*evt.Request, slack.NewErrorsViewSubmissionResponse(map[string]string{
				inputGitHub: "That GitHub username doesn't seem to exist. Please double-check it.",
			}))
			return
		}
		r.socket.Ack(*evt.Request)
		if err != nil {
			logger.Error("profile submission failed", "user_id", callback.User.ID, "error", err)
			return
		}
		if _, _, err := r.api.PostMessageContext(ctx, callback.User.ID,
			slack.MsgOptionText(":white_check_mark: Thanks! Your info has been sent to the lab admin for approval. "+
				"Don't forget to upload a profile photo here if you haven't yet.", false)); err != nil {
			logger.Error("failed to confirm submission", "user_id", callback.User.ID, "error", err)
		}

	case callbackFeedbackForm:
		r.socket.Ack(*evt.Request)
		parts := strings.SplitN(callback.View.PrivateMetadata, "|", 3)
		if len(parts) != 3 {
			logger.Error("malformed feedback form metadata", "metadata", callback.View.PrivateMetadata)
			return
		}
		userID := parts[0]
		ref := service.MessageRef{ChannelID: parts[1], Timestamp: parts[2]}
		feedback := callback.View.State.Values[inputFeedback][inputFeedback].Value

		if err := r.onboarding.RequestChanges(ctx, callback.User.ID, userID, feedback, ref); err != nil {
			logger.Error("request changes failed", "user_id", userID, "error", err)
		}

	default:
		r.socket.Ack(*evt.Request)
	}
}

// --- events API ---

func (r *Router) handleEvent(ctx context.Context, apiEvent slackevents.EventsAPIEvent) {
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		r.handleMessage(ctx, ev)
	case *slackevents.FileSharedEvent:
		r.handleFileShared(ctx, ev)
	case *slackevents.WorkflowStepExecuteEvent:
		r.handleWorkflowStep(ctx, ev)
	}
}

// Workflow Builder custom step callback IDs, matching the app manifest.
const (
	stepOnboarding  = "lab_onboarding_step"
	stepOffboarding = "lab_offboarding_step"
)

// handleWorkflowStep dispatches a Workflow Builder custom-step run. The
// services own resolving the run; input problems fail it, and the onboarding
// variant stays paused until the admin verdict.
func (r *Router) handleWorkflowStep(ctx context.Context, ev *slackevents.WorkflowStepExecuteEvent) {
	executionID := ev.WorkflowStep.WorkflowStepExecuteID
	logger.Info("workflow step execute", "callback_id", ev.CallbackID, "execution_id", executionID)

	switch ev.CallbackID {
	case stepOnboarding:
		in := service.StepInputs{
			SubmitterID: r.stepInput(ev, "submitter_id"),
			Name:        r.stepInput(ev, "name"),
			Email:       r.stepInput(ev, "email"),
			GitHub:      r.stepInput(ev, "github_username"),
			Bio:         r.stepInput(ev, "bio"),
			WebsiteURL:  r.stepInput(ev, "website_url"),
			Photo:       r.downloadStepPhoto(ctx, r.stepInput(ev, "photo_url")),
		}
		if err := r.onboarding.ExecuteStep(ctx, executionID, in); err != nil {
			logger.Error("onboarding step failed", "execution_id", executionID, "error", err)
		}

	case stepOffboarding:
		if err := r.offboarding.ExecuteStep(ctx, executionID, r.stepInput(ev, "submitter_id")); err != nil {
			logger.Error("offboarding step failed", "execution_id", executionID, "error", err)
		}

	default:
		logger.Debug("unhandled workflow step", "callback_id", ev.CallbackID)
	}
}

func (r *Router) stepInput(ev *slackevents.WorkflowStepExecuteEvent, name string) string {
	if ev.WorkflowStep.Inputs == nil {
		return ""
	}
	element, ok := (*ev.WorkflowStep.Inputs)[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(parseMentionOrValue(element.Value))
}

// parseMentionOrValue unwraps an escaped mention when Workflow Builder passed
// one through ("<@U123>"), otherwise returns the raw value.
func parseMentionOrValue(value string) string {
	if m := commandMention.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return value
}

// downloadStepPhoto fetches the workflow-provided photo, best effort. A bad
// or missing URL never blocks the submission.
func (r *Router) downloadStepPhoto(ctx context.Context, url string) []byte {
	if url == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := r.api.GetFileContext(ctx, url, &buf); err != nil {
		logger.Warn("failed to download workflow photo", "url", url, "error", err)
		return nil
	}
	return buf.Bytes()
}

// handleMessage feeds intake-channel posts to the workflow correlator.
// Workflow-builder posts arrive as bot messages, so bot messages are only
// filtered when they are our own.
func (r *Router) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	if r.correlator == nil || ev.Channel != r.intakeChannel {
		return
	}
	if ev.User == r.botUserID {
		return
	}
	if ev.SubType == "message_changed" || ev.SubType == "message_deleted" {
		return
	}

	if err := r.correlator.HandleWorkflowMessage(ctx, ev.Channel, ev.TimeStamp, ev.Text); err != nil {
		logger.Error("failed to handle workflow message", "ts", ev.TimeStamp, "error", err)
	}
}

// handleFileShared runs an uploaded image through the photo pipeline when the
// uploader has an open onboarding request.
func (r *Router) handleFileShared(ctx context.Context, ev *slackevents.FileSharedEvent) {
	if _, err := r.onboarding.Get(ctx, ev.UserID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error("failed to look up request for upload", "user_id", ev.UserID, "error", err)
		}
		return
	}

	file, _, _, err := r.api.GetFileInfoContext(ctx, ev.FileID, 0, 0)
	if err != nil {
		logger.Error("failed to fetch file info", "file_id", ev.FileID, "error", err)
		return
	}
	if !strings.HasPrefix(file.Mimetype, "image/") {
		logger.Debug("ignoring non-image upload", "file_id", ev.FileID, "mimetype", file.Mimetype)
		return
	}

	var buf bytes.Buffer
	if err := r.api.GetFileContext(ctx, file.URLPrivateDownload, &buf); err != nil {
		logger.Error("failed to download photo", "file_id", ev.FileID, "error", err)
		return
	}

	req, err := r.onboarding.AttachPhoto(ctx, ev.UserID, buf.Bytes())
	if err != nil {
		logger.Error("photo processing failed", "user_id", ev.UserID, "error", err)
		if _, _, msgErr := r.api.PostMessageContext(ctx, ev.ChannelID,
			slack.MsgOptionText(fmt.Sprintf(":warning: I couldn't process that photo: %v\nPlease try a different image (JPEG or PNG, at least 200x200).", err), false)); msgErr != nil {
			logger.Error("failed to report photo error", "user_id", ev.UserID, "error", msgErr)
		}
		return
	}
	logger.Info("photo attached", "user_id", ev.UserID, "path", req.PhotoProcessedPath)
}
