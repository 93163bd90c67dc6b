package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/logger"
)

type githubService struct {
	client *github.Client
	org    string
}

// NewGitHubService returns a GitHubService backed by the GitHub REST API,
// scoped to a single organization.
func NewGitHubService(token, org string) GitHubService {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &githubService{
		client: github.NewClient(httpClient),
		org:    org,
	}
}

func (s *githubService) ValidateUsername(ctx context.Context, username string) error {
	logger.ExternalServiceCall("github", "ValidateUsername", "username", username)
	_, _, err := s.client.Users.Get(ctx, username)
	logger.ExternalServiceResult("github", "ValidateUsername", err, "username", username)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("GitHub user %q not found", username)
		}
		return fmt.Errorf("failed to look up GitHub user %q: %w", username, err)
	}
	return nil
}

func (s *githubService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	logger.ExternalServiceCall("github", "ListTeams", "org", s.org)
	var teams []domain.Team
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := s.client.Teams.ListTeams(ctx, s.org, opts)
		if err != nil {
			logger.ExternalServiceResult("github", "ListTeams", err, "org", s.org)
			return nil, fmt.Errorf("failed to list teams for %s: %w", s.org, err)
		}
		for _, t := range page {
			teams = append(teams, domain.Team{
				ID:          t.GetID(),
				Name:        t.GetName(),
				Slug:        t.GetSlug(),
				Description: t.GetDescription(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	logger.ExternalServiceResult("github", "ListTeams", nil, "org", s.org, "count", len(teams))
	return teams, nil
}

func (s *githubService) IsMember(ctx context.Context, username string) (bool, error) {
	logger.ExternalServiceCall("github", "IsMember", "org", s.org, "username", username)
	member, _, err := s.client.Organizations.IsMember(ctx, s.org, username)
	logger.ExternalServiceResult("github", "IsMember", err, "username", username, "member", member)
	if err != nil {
		return false, fmt.Errorf("failed to check membership for %q: %w", username, err)
	}
	return member, nil
}

// InviteUser invites username to the organization with the given team
// assignments. If the user already belongs to the organization the invitation
// is skipped and the user is added to the requested teams instead, so the
// call is safe to repeat.
func (s *githubService) InviteUser(ctx context.Context, username string, teamIDs []int64, role string) error {
	logger.ExternalServiceCall("github", "InviteUser", "org", s.org, "username", username, "teams", teamIDs)

	user, _, err := s.client.Users.Get(ctx, username)
	if err != nil {
		logger.ExternalServiceResult("github", "InviteUser", err, "username", username)
		if isNotFound(err) {
			return fmt.Errorf("GitHub user %q not found", username)
		}
		return fmt.Errorf("failed to look up GitHub user %q: %w", username, err)
	}

	member, _, err := s.client.Organizations.IsMember(ctx, s.org, username)
	if err != nil {
		logger.ExternalServiceResult("github", "InviteUser", err, "username", username)
		return fmt.Errorf("failed to check membership for %q: %w", username, err)
	}

	if member {
		err := s.addToTeams(ctx, username, teamIDs)
		logger.ExternalServiceResult("github", "InviteUser", err, "username", username, "already_member", true)
		return err
	}

	if role == "" {
		role = "direct_member"
	}
	inviteeID := user.GetID()
	_, _, err = s.client.Organizations.CreateOrgInvitation(ctx, s.org, &github.CreateOrgInvitationOptions{
		InviteeID: &inviteeID,
		Role:      &role,
		TeamID:    teamIDs,
	})
	logger.ExternalServiceResult("github", "InviteUser", err, "username", username)
	if err != nil {
		return fmt.Errorf("failed to invite %q to %s: %w", username, s.org, err)
	}
	return nil
}

func (s *githubService) addToTeams(ctx context.Context, username string, teamIDs []int64) error {
	if len(teamIDs) == 0 {
		return nil
	}
	org, _, err := s.client.Organizations.Get(ctx, s.org)
	if err != nil {
		return fmt.Errorf("failed to resolve organization %s: %w", s.org, err)
	}
	for _, teamID := range teamIDs {
		_, _, err := s.client.Teams.AddTeamMembershipByID(ctx, org.GetID(), teamID, username, &github.TeamAddTeamMembershipOptions{
			Role: "member",
		})
		if err != nil {
			return fmt.Errorf("failed to add %q to team %d: %w", username, teamID, err)
		}
	}
	return nil
}

func (s *githubService) RemoveMember(ctx context.Context, username string) error {
	logger.ExternalServiceCall("github", "RemoveMember", "org", s.org, "username", username)
	_, err := s.client.Organizations.RemoveOrgMembership(ctx, username, s.org)
	logger.ExternalServiceResult("github", "RemoveMember", err, "username", username)
	if err != nil {
		return fmt.Errorf("failed to remove %q from %s: %w", username, s.org, err)
	}
	return nil
}

func (s *githubService) PendingInvitations(ctx context.Context) ([]domain.PendingInvitation, error) {
	logger.ExternalServiceCall("github", "PendingInvitations", "org", s.org)
	var invites []domain.PendingInvitation
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := s.client.Organizations.ListPendingOrgInvitations(ctx, s.org, opts)
		if err != nil {
			logger.ExternalServiceResult("github", "PendingInvitations", err)
			return nil, fmt.Errorf("failed to list pending invitations for %s: %w", s.org, err)
		}
		for _, inv := range page {
			invites = append(invites, domain.PendingInvitation{
				ID:        inv.GetID(),
				Login:     inv.GetLogin(),
				Email:     inv.GetEmail(),
				CreatedAt: inv.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	logger.ExternalServiceResult("github", "PendingInvitations", nil, "count", len(invites))
	return invites, nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == 404
	}
	return false
}
