package slackbot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/logger"
	"github.com/ContextLab/lab-manual/internal/service"
)

// Messenger implements service.Messenger over the Slack Web API. All
// interactive rendering lives here; the lifecycle services only see plain
// text and opaque message references.
type Messenger struct {
	api            *slack.Client
	adminUserID    string
	calendarPolicy map[string]string
}

// NewMessenger wraps an authenticated Slack client. calendarPolicy is shown on
// approval requests so the admin knows what approval grants; it may be nil.
func NewMessenger(api *slack.Client, adminUserID string, calendarPolicy map[string]string) *Messenger {
	return &Messenger{api: api, adminUserID: adminUserID, calendarPolicy: calendarPolicy}
}

func (m *Messenger) OpenDM(ctx context.Context, userID string) (string, error) {
	logger.ExternalServiceCall("slack", "OpenDM", "user_id", userID)
	channel, _, _, err := m.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	logger.ExternalServiceResult("slack", "OpenDM", err, "user_id", userID)
	if err != nil {
		return "", fmt.Errorf("failed to open DM with %s: %w", userID, err)
	}
	return channel.ID, nil
}

func (m *Messenger) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	logger.ExternalServiceCall("slack", "PostMessage", "channel", channelID)
	_, ts, err := m.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	logger.ExternalServiceResult("slack", "PostMessage", err, "channel", channelID)
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	return ts, nil
}

func (m *Messenger) UpdateMessage(ctx context.Context, channelID, ts, text string) error {
	logger.ExternalServiceCall("slack", "UpdateMessage", "channel", channelID, "ts", ts)
	_, _, _, err := m.api.UpdateMessageContext(ctx, channelID, ts,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(), // drop the interactive blocks
	)
	logger.ExternalServiceResult("slack", "UpdateMessage", err, "channel", channelID)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

func (m *Messenger) UserInfo(ctx context.Context, userID string) (name, email string, err error) {
	logger.ExternalServiceCall("slack", "UserInfo", "user_id", userID)
	user, err := m.api.GetUserInfoContext(ctx, userID)
	logger.ExternalServiceResult("slack", "UserInfo", err, "user_id", userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to look up user %s: %w", userID, err)
	}

	name = user.Profile.DisplayName
	if name == "" {
		name = user.RealName
	}
	if name == "" {
		name = user.Name
	}
	return name, user.Profile.Email, nil
}

func (m *Messenger) UploadPhoto(ctx context.Context, channelID, path, title, comment string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat photo: %w", err)
	}

	logger.ExternalServiceCall("slack", "UploadPhoto", "channel", channelID, "path", path)
	_, err = m.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        channelID,
		File:           path,
		FileSize:       int(fi.Size()),
		Filename:       filepath.Base(path),
		Title:          title,
		InitialComment: comment,
	})
	logger.ExternalServiceResult("slack", "UploadPhoto", err, "channel", channelID)
	if err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}
	return nil
}

func (m *Messenger) PostWelcome(ctx context.Context, channelID, name string) error {
	logger.ExternalServiceCall("slack", "PostWelcome", "channel", channelID)
	_, _, err := m.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(welcomeBlocks(name)...))
	logger.ExternalServiceResult("slack", "PostWelcome", err, "channel", channelID)
	if err != nil {
		return fmt.Errorf("failed to post welcome message: %w", err)
	}
	return nil
}

func (m *Messenger) PostApprovalRequest(ctx context.Context, req *domain.OnboardingRequest, teams []domain.Team, defaultTeam string) (string, string, error) {
	logger.ExternalServiceCall("slack", "PostApprovalRequest", "user_id", req.SlackUserID)
	channelID, ts, err := m.api.PostMessageContext(ctx, m.adminUserID,
		slack.MsgOptionBlocks(approvalBlocks(req, teams, defaultTeam, m.calendarPolicy)...))
	logger.ExternalServiceResult("slack", "PostApprovalRequest", err, "user_id", req.SlackUserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to post approval request: %w", err)
	}
	return channelID, ts, nil
}

func (m *Messenger) PostChangesRequested(ctx context.Context, channelID, feedback string) error {
	logger.ExternalServiceCall("slack", "PostChangesRequested", "channel", channelID)
	_, _, err := m.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(changesRequestedBlocks(feedback)...))
	logger.ExternalServiceResult("slack", "PostChangesRequested", err, "channel", channelID)
	if err != nil {
		return fmt.Errorf("failed to relay feedback: %w", err)
	}
	return nil
}

func (m *Messenger) PostOffboardingPrompt(ctx context.Context, req *domain.OffboardingRequest) error {
	logger.ExternalServiceCall("slack", "PostOffboardingPrompt", "user_id", req.SlackUserID)
	_, _, err := m.api.PostMessageContext(ctx, m.adminUserID,
		slack.MsgOptionBlocks(offboardingBlocks(req)...))
	logger.ExternalServiceResult("slack", "PostOffboardingPrompt", err, "user_id", req.SlackUserID)
	if err != nil {
		return fmt.Errorf("failed to post offboarding prompt: %w", err)
	}
	return nil
}

// CompleteStep marks a paused Workflow Builder step run as finished, handing
// its outputs to the next step in the workflow.
func (m *Messenger) CompleteStep(ctx context.Context, executionID string, outputs map[string]string) error {
	logger.ExternalServiceCall("slack", "CompleteStep", "execution_id", executionID)
	err := m.api.WorkflowStepCompleted(executionID, slack.WorkflowStepCompletedRequestOptionOutput(outputs))
	logger.ExternalServiceResult("slack", "CompleteStep", err, "execution_id", executionID)
	if err != nil {
		return fmt.Errorf("failed to complete workflow step: %w", err)
	}
	return nil
}

// FailStep marks a Workflow Builder step run as failed with a member-visible
// message.
func (m *Messenger) FailStep(ctx context.Context, executionID, message string) error {
	logger.ExternalServiceCall("slack", "FailStep", "execution_id", executionID)
	err := m.api.WorkflowStepFailed(executionID, message)
	logger.ExternalServiceResult("slack", "FailStep", err, "execution_id", executionID)
	if err != nil {
		return fmt.Errorf("failed to fail workflow step: %w", err)
	}
	return nil
}

var (
	_ service.Messenger    = (*Messenger)(nil)
	_ service.StepNotifier = (*Messenger)(nil)
)
