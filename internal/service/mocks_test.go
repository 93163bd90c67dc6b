package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/service"
)

// MockOnboardingRepo
type MockOnboardingRepo struct {
	mock.Mock
}

func (m *MockOnboardingRepo) Create(ctx context.Context, req *domain.OnboardingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockOnboardingRepo) Get(ctx context.Context, slackUserID string) (*domain.OnboardingRequest, error) {
	args := m.Called(ctx, slackUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingRequest), args.Error(1)
}
func (m *MockOnboardingRepo) Save(ctx context.Context, req *domain.OnboardingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockOnboardingRepo) Delete(ctx context.Context, slackUserID string) error {
	args := m.Called(ctx, slackUserID)
	return args.Error(0)
}
func (m *MockOnboardingRepo) List(ctx context.Context) ([]domain.OnboardingRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OnboardingRequest), args.Error(1)
}
func (m *MockOnboardingRepo) PurgeTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockOffboardingRepo
type MockOffboardingRepo struct {
	mock.Mock
}

func (m *MockOffboardingRepo) Save(ctx context.Context, req *domain.OffboardingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockOffboardingRepo) Get(ctx context.Context, slackUserID string) (*domain.OffboardingRequest, error) {
	args := m.Called(ctx, slackUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OffboardingRequest), args.Error(1)
}
func (m *MockOffboardingRepo) Delete(ctx context.Context, slackUserID string) error {
	args := m.Called(ctx, slackUserID)
	return args.Error(0)
}
func (m *MockOffboardingRepo) PurgeProcessedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockPartialRepo
type MockPartialRepo struct {
	mock.Mock
}

func (m *MockPartialRepo) Save(ctx context.Context, partial *domain.PartialSubmission) error {
	args := m.Called(ctx, partial)
	return args.Error(0)
}
func (m *MockPartialRepo) Get(ctx context.Context, slackUserID string) (*domain.PartialSubmission, error) {
	args := m.Called(ctx, slackUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartialSubmission), args.Error(1)
}
func (m *MockPartialRepo) Delete(ctx context.Context, slackUserID string) error {
	args := m.Called(ctx, slackUserID)
	return args.Error(0)
}
func (m *MockPartialRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockStepRepo
type MockStepRepo struct {
	mock.Mock
}

func (m *MockStepRepo) Save(ctx context.Context, exec *domain.StepExecution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}
func (m *MockStepRepo) Get(ctx context.Context, slackUserID string) (*domain.StepExecution, error) {
	args := m.Called(ctx, slackUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StepExecution), args.Error(1)
}
func (m *MockStepRepo) Delete(ctx context.Context, slackUserID string) error {
	args := m.Called(ctx, slackUserID)
	return args.Error(0)
}
func (m *MockStepRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockStepNotifier
type MockStepNotifier struct {
	mock.Mock
}

func (m *MockStepNotifier) CompleteStep(ctx context.Context, executionID string, outputs map[string]string) error {
	args := m.Called(ctx, executionID, outputs)
	return args.Error(0)
}
func (m *MockStepNotifier) FailStep(ctx context.Context, executionID, message string) error {
	args := m.Called(ctx, executionID, message)
	return args.Error(0)
}

// MockGitHub
type MockGitHub struct {
	mock.Mock
}

func (m *MockGitHub) ValidateUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
func (m *MockGitHub) ListTeams(ctx context.Context) ([]domain.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Team), args.Error(1)
}
func (m *MockGitHub) IsMember(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *MockGitHub) InviteUser(ctx context.Context, username string, teamIDs []int64, role string) error {
	args := m.Called(ctx, username, teamIDs, role)
	return args.Error(0)
}
func (m *MockGitHub) RemoveMember(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
func (m *MockGitHub) PendingInvitations(ctx context.Context) ([]domain.PendingInvitation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingInvitation), args.Error(1)
}

// MockCalendar
type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) Share(ctx context.Context, calendarName, email, role string) error {
	args := m.Called(ctx, calendarName, email, role)
	return args.Error(0)
}
func (m *MockCalendar) ShareAll(ctx context.Context, email string, policy map[string]string) map[string]error {
	args := m.Called(ctx, email, policy)
	return args.Get(0).(map[string]error)
}
func (m *MockCalendar) Revoke(ctx context.Context, calendarName, email string) error {
	args := m.Called(ctx, calendarName, email)
	return args.Error(0)
}
func (m *MockCalendar) CurrentRole(ctx context.Context, calendarName, email string) (string, error) {
	args := m.Called(ctx, calendarName, email)
	return args.String(0), args.Error(1)
}

// MockBio
type MockBio struct {
	mock.Mock
}

func (m *MockBio) EditBio(ctx context.Context, rawBio, name string) (string, error) {
	args := m.Called(ctx, rawBio, name)
	return args.String(0), args.Error(1)
}

// MockPhoto
type MockPhoto struct {
	mock.Mock
}

func (m *MockPhoto) Validate(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}
func (m *MockPhoto) Process(data []byte, outputDir, memberID string) (string, string, error) {
	args := m.Called(data, outputDir, memberID)
	return args.String(0), args.String(1), args.Error(2)
}

// MockMessenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) OpenDM(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
func (m *MockMessenger) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	args := m.Called(ctx, channelID, text)
	return args.String(0), args.Error(1)
}
func (m *MockMessenger) UpdateMessage(ctx context.Context, channelID, ts, text string) error {
	args := m.Called(ctx, channelID, ts, text)
	return args.Error(0)
}
func (m *MockMessenger) UserInfo(ctx context.Context, userID string) (string, string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockMessenger) UploadPhoto(ctx context.Context, channelID, path, title, comment string) error {
	args := m.Called(ctx, channelID, path, title, comment)
	return args.Error(0)
}
func (m *MockMessenger) PostWelcome(ctx context.Context, channelID, name string) error {
	args := m.Called(ctx, channelID, name)
	return args.Error(0)
}
func (m *MockMessenger) PostApprovalRequest(ctx context.Context, req *domain.OnboardingRequest, teams []domain.Team, defaultTeam string) (string, string, error) {
	args := m.Called(ctx, req, teams, defaultTeam)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockMessenger) PostChangesRequested(ctx context.Context, channelID, feedback string) error {
	args := m.Called(ctx, channelID, feedback)
	return args.Error(0)
}
func (m *MockMessenger) PostOffboardingPrompt(ctx context.Context, req *domain.OffboardingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

var _ service.Messenger = (*MockMessenger)(nil)
var _ service.StepNotifier = (*MockStepNotifier)(nil)
var _ service.GitHubService = (*MockGitHub)(nil)
var _ service.CalendarService = (*MockCalendar)(nil)
var _ service.BioService = (*MockBio)(nil)
var _ service.PhotoProcessor = (*MockPhoto)(nil)
