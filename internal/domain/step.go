package domain

import "time"

// StepExecution records a paused Workflow Builder step run awaiting the admin
// verdict. The execution ID is what lets the step be completed or failed after
// the workflow has yielded; one execution per subject at a time.
type StepExecution struct {
	SlackUserID string    `json:"slack_user_id"`
	ExecutionID string    `json:"execution_id"`
	StartedAt   time.Time `json:"started_at"`
}

// NewStepExecution records a paused step run for the given subject.
func NewStepExecution(slackUserID, executionID string) *StepExecution {
	return &StepExecution{
		SlackUserID: slackUserID,
		ExecutionID: executionID,
		StartedAt:   time.Now(),
	}
}
