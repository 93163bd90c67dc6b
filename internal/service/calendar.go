package service

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/ContextLab/lab-manual/internal/logger"
)

type calendarService struct {
	svc *calendar.Service
	// calendars maps a human-readable calendar name to its calendar ID.
	calendars map[string]string
}

// NewCalendarService returns a CalendarService backed by the Google Calendar
// ACL API, authenticated with a service account credentials file. calendars
// maps calendar names to calendar IDs.
func NewCalendarService(ctx context.Context, credentialsFile string, calendars map[string]string) (CalendarService, error) {
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return &calendarService{svc: svc, calendars: calendars}, nil
}

func (s *calendarService) calendarID(name string) (string, error) {
	id, ok := s.calendars[name]
	if !ok {
		return "", fmt.Errorf("calendar %q not configured", name)
	}
	return id, nil
}

func (s *calendarService) Share(ctx context.Context, calendarName, email, role string) error {
	logger.ExternalServiceCall("calendar", "Share", "calendar", calendarName, "email", email, "role", role)

	switch role {
	case "reader", "writer", "owner":
	default:
		err := fmt.Errorf("invalid calendar role %q", role)
		logger.ExternalServiceResult("calendar", "Share", err, "calendar", calendarName)
		return err
	}

	id, err := s.calendarID(calendarName)
	if err != nil {
		logger.ExternalServiceResult("calendar", "Share", err)
		return err
	}

	rule := &calendar.AclRule{
		Role: role,
		Scope: &calendar.AclRuleScope{
			Type:  "user",
			Value: email,
		},
	}
	_, err = s.svc.Acl.Insert(id, rule).SendNotifications(true).Context(ctx).Do()
	logger.ExternalServiceResult("calendar", "Share", err, "calendar", calendarName, "email", email)
	if err != nil {
		return fmt.Errorf("failed to share %q with %s: %w", calendarName, email, err)
	}
	return nil
}

// ShareAll shares each calendar in policy independently. The returned map has
// one entry per calendar name, a nil value meaning success.
func (s *calendarService) ShareAll(ctx context.Context, email string, policy map[string]string) map[string]error {
	results := make(map[string]error, len(policy))

	names := make([]string, 0, len(policy))
	for name := range policy {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		results[name] = s.Share(ctx, name, email, policy[name])
	}
	return results
}

func (s *calendarService) Revoke(ctx context.Context, calendarName, email string) error {
	logger.ExternalServiceCall("calendar", "Revoke", "calendar", calendarName, "email", email)

	id, err := s.calendarID(calendarName)
	if err != nil {
		logger.ExternalServiceResult("calendar", "Revoke", err)
		return err
	}

	ruleID, err := s.findRule(ctx, id, email)
	if err != nil {
		logger.ExternalServiceResult("calendar", "Revoke", err, "calendar", calendarName)
		return err
	}
	if ruleID == "" {
		logger.ExternalServiceResult("calendar", "Revoke", nil, "calendar", calendarName, "found", false)
		return nil
	}

	err = s.svc.Acl.Delete(id, ruleID).Context(ctx).Do()
	logger.ExternalServiceResult("calendar", "Revoke", err, "calendar", calendarName, "email", email)
	if err != nil {
		return fmt.Errorf("failed to revoke %s access to %q: %w", email, calendarName, err)
	}
	return nil
}

func (s *calendarService) CurrentRole(ctx context.Context, calendarName, email string) (string, error) {
	logger.ExternalServiceCall("calendar", "CurrentRole", "calendar", calendarName, "email", email)

	id, err := s.calendarID(calendarName)
	if err != nil {
		logger.ExternalServiceResult("calendar", "CurrentRole", err)
		return "", err
	}

	acl, err := s.svc.Acl.List(id).Context(ctx).Do()
	logger.ExternalServiceResult("calendar", "CurrentRole", err, "calendar", calendarName)
	if err != nil {
		return "", fmt.Errorf("failed to list ACL for %q: %w", calendarName, err)
	}
	for _, rule := range acl.Items {
		if rule.Scope != nil && rule.Scope.Type == "user" && rule.Scope.Value == email {
			return rule.Role, nil
		}
	}
	return "", nil
}

func (s *calendarService) findRule(ctx context.Context, calendarID, email string) (string, error) {
	acl, err := s.svc.Acl.List(calendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list calendar ACL: %w", err)
	}
	for _, rule := range acl.Items {
		if rule.Scope != nil && rule.Scope.Type == "user" && rule.Scope.Value == email {
			return rule.Id, nil
		}
	}
	return "", nil
}
