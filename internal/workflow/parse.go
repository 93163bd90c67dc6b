// Package workflow parses the messages Slack workflow-builder forms post
// into the intake channel. The forms are maintained outside this codebase,
// so parsing is deliberately forgiving: labeled lines are preferred and
// pattern fallbacks catch reformatted messages.
package workflow

import (
	"regexp"
	"strings"

	"github.com/ContextLab/lab-manual/internal/domain"
)

var (
	mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)
	emailPattern   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
	// Slack wraps bare email addresses in mailto links.
	mailtoPattern = regexp.MustCompile(`<mailto:([^|>]+)(?:\|[^>]*)?>`)
	handlePattern = regexp.MustCompile(`(?:github\.com/|@)([A-Za-z0-9-]{1,39})`)
)

// ExtractSubmitter returns the Slack user ID of the first user mention in the
// message, or "" if there is none. Workflow forms always mention the
// submitter in the lead line ("New submission from <@U123>").
func ExtractSubmitter(text string) string {
	m := mentionPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Parse extracts whatever profile fields the message carries. Fields the
// message does not mention are left zero so the caller can merge messages.
func Parse(text string) domain.SubmissionFields {
	var fields domain.SubmissionFields

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := splitLabeled(line)
		if !ok {
			continue
		}
		switch normalizeLabel(label) {
		case "github", "github username", "github handle":
			fields.GitHubUsername = cleanHandle(value)
		case "email", "email address":
			fields.Email = cleanEmail(value)
		case "name", "full name", "preferred name":
			fields.Name = value
		case "bio", "about", "about you":
			fields.Bio = value
		case "website", "website url", "personal website", "url":
			fields.WebsiteURL = cleanURL(value)
		}
	}

	// Fallbacks for reformatted messages that dropped the labels. User
	// mentions are scrubbed first so "<@U123>" is never taken for a handle.
	scrubbed := mentionPattern.ReplaceAllString(text, "")
	if fields.Email == "" {
		if m := mailtoPattern.FindStringSubmatch(scrubbed); m != nil {
			fields.Email = m[1]
		} else if m := emailPattern.FindString(scrubbed); m != "" {
			fields.Email = m
		}
	}
	if fields.GitHubUsername == "" {
		if m := handlePattern.FindStringSubmatch(scrubbed); m != nil {
			fields.GitHubUsername = m[1]
		}
	}

	return fields
}

// splitLabeled splits a "*Label:* value" or "Label: value" line.
func splitLabeled(line string) (label, value string, ok bool) {
	line = strings.TrimSpace(line)
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label = strings.TrimSpace(strings.Trim(line[:idx], "*_ \t"))
	value = strings.TrimSpace(strings.Trim(line[idx+1:], "*_ \t"))
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func cleanHandle(value string) string {
	value = strings.TrimSpace(value)
	if m := handlePattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return strings.TrimPrefix(value, "@")
}

func cleanEmail(value string) string {
	if m := mailtoPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if m := emailPattern.FindString(value); m != "" {
		return m
	}
	return strings.TrimSpace(value)
}

// cleanURL strips Slack's <url|label> link wrapper.
func cleanURL(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		value = value[1 : len(value)-1]
		if idx := strings.Index(value, "|"); idx >= 0 {
			value = value[:idx]
		}
	}
	return value
}
