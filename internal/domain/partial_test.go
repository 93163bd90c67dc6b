package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionFieldsMerge(t *testing.T) {
	fields := SubmissionFields{
		GitHubUsername: "octocat",
		Email:          "ada@dartmouth.edu",
	}

	fields.Merge(SubmissionFields{
		Bio:        "I work on memory.",
		WebsiteURL: "https://ada.example.com",
	})
	assert.Equal(t, "octocat", fields.GitHubUsername)
	assert.Equal(t, "I work on memory.", fields.Bio)
	assert.Equal(t, "https://ada.example.com", fields.WebsiteURL)

	// Later non-empty values win, empty values never clobber.
	fields.Merge(SubmissionFields{GitHubUsername: "newhandle"})
	assert.Equal(t, "newhandle", fields.GitHubUsername)
	assert.Equal(t, "ada@dartmouth.edu", fields.Email)
}
