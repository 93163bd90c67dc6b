package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ContextLab/lab-manual/internal/logger"
)

type bioService struct {
	client openai.Client
	model  string
}

// NewBioService returns a BioService that rewrites bios with a chat
// completion model.
func NewBioService(apiKey, model string) BioService {
	return &bioService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

const bioStyleGuidelines = `Rewrite the bio below for a research lab's member directory. Follow these rules:
- Third person, referring to the member by first name.
- At most five sentences.
- Keep every factual claim from the original; never invent degrees, affiliations, or interests.
- Plain prose, no markdown, no contact information.
- Warm but professional tone.`

const bioExample = `Example input (member "Jordan"):
I'm a second year grad student interested in memory and naturalistic experiments. before this I was at UCSD. outside the lab I climb and bake bread

Example output:
Jordan is a second-year graduate student studying memory through naturalistic experiments. Before joining the lab, Jordan studied at UC San Diego. Outside the lab, Jordan enjoys climbing and baking bread.`

var (
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
)

func (s *bioService) EditBio(ctx context.Context, rawBio, name string) (string, error) {
	if strings.TrimSpace(rawBio) == "" {
		return "", fmt.Errorf("bio is empty")
	}

	prompt := fmt.Sprintf("%s\n\n%s\n\nMember name: %s\n\nBio to rewrite:\n%s",
		bioStyleGuidelines, bioExample, name, rawBio)

	logger.ExternalServiceCall("openai", "EditBio", "model", s.model, "member", name)
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(s.model),
		MaxTokens: openai.Int(500),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	logger.ExternalServiceResult("openai", "EditBio", err, "member", name)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite bio: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("bio rewrite returned no choices")
	}

	edited := strings.TrimSpace(resp.Choices[0].Message.Content)
	if edited == "" {
		return "", fmt.Errorf("bio rewrite returned empty text")
	}

	for _, warning := range checkBioStyle(edited, name) {
		logger.Warn("Edited bio deviates from style guidelines", "member", name, "issue", warning)
	}
	return edited, nil
}

// checkBioStyle reports soft style violations in an edited bio. Violations
// are logged, never enforced.
func checkBioStyle(bio, name string) []string {
	var issues []string

	if n := strings.Count(bio, ".") + strings.Count(bio, "!") + strings.Count(bio, "?"); n > 5 {
		issues = append(issues, fmt.Sprintf("more than five sentences (%d)", n))
	}

	lower := " " + strings.ToLower(bio) + " "
	for _, pronoun := range []string{" i ", " i'm ", " my ", " me ", " we ", " our "} {
		if strings.Contains(lower, pronoun) {
			issues = append(issues, "contains first-person pronouns")
			break
		}
	}

	if first := strings.Fields(name); len(first) > 0 && !strings.Contains(bio, first[0]) {
		issues = append(issues, "does not mention the member's first name")
	}

	if phonePattern.MatchString(bio) {
		issues = append(issues, "appears to contain a phone number")
	}
	if emailPattern.MatchString(bio) {
		issues = append(issues, "appears to contain an email address")
	}
	return issues
}
