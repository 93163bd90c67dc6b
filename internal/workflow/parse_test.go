package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSubmitter(t *testing.T) {
	assert.Equal(t, "U12345", ExtractSubmitter("New submission from <@U12345>"))
	assert.Equal(t, "U12345", ExtractSubmitter("New submission from <@U12345|ada>"))
	assert.Equal(t, "", ExtractSubmitter("no mention here"))
}

func TestParseLabeledFields(t *testing.T) {
	text := "New onboarding submission from <@U12345>\n" +
		"*Name:* Ada Lovelace\n" +
		"*Email:* <mailto:ada@dartmouth.edu|ada@dartmouth.edu>\n" +
		"*GitHub username:* @octocat\n" +
		"*Website:* <https://ada.example.com|ada.example.com>"

	fields := Parse(text)
	assert.Equal(t, "Ada Lovelace", fields.Name)
	assert.Equal(t, "ada@dartmouth.edu", fields.Email)
	assert.Equal(t, "octocat", fields.GitHubUsername)
	assert.Equal(t, "https://ada.example.com", fields.WebsiteURL)
	assert.Empty(t, fields.Bio)
}

func TestParseBioMessage(t *testing.T) {
	text := "Submission from <@U12345>\n" +
		"Bio: I work on memory and naturalistic experiments."

	fields := Parse(text)
	assert.Equal(t, "I work on memory and naturalistic experiments.", fields.Bio)
	assert.Empty(t, fields.GitHubUsername)
}

func TestParseFallbacksWithoutLabels(t *testing.T) {
	text := "<@U12345> joined: reach them at ada@dartmouth.edu, code at github.com/octocat"

	fields := Parse(text)
	assert.Equal(t, "ada@dartmouth.edu", fields.Email)
	assert.Equal(t, "octocat", fields.GitHubUsername)
}

func TestParseLabelVariants(t *testing.T) {
	text := "from <@U12345>\n" +
		"GitHub handle: octocat\n" +
		"Email address: ada@dartmouth.edu\n" +
		"Personal website: https://ada.example.com"

	fields := Parse(text)
	assert.Equal(t, "octocat", fields.GitHubUsername)
	assert.Equal(t, "ada@dartmouth.edu", fields.Email)
	assert.Equal(t, "https://ada.example.com", fields.WebsiteURL)
}

func TestParseIgnoresEmptyValues(t *testing.T) {
	fields := Parse("*Name:*   \n*Email:*")
	assert.Empty(t, fields.Name)
	assert.Empty(t, fields.Email)
}
