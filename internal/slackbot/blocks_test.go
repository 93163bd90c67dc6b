package slackbot

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ContextLab/lab-manual/internal/domain"
)

func TestApprovalBlocks(t *testing.T) {
	req := domain.NewOnboardingRequest("U123", "D1", "Ada Lovelace", "ada@dartmouth.edu")
	req.GitHubUsername = "octocat"
	teams := []domain.Team{
		{ID: 42, Name: "Lab default"},
		{ID: 7, Name: "Admins", Description: "org admins"},
	}

	policy := map[string]string{"Lab Calendar": "reader", "Resources": "writer"}
	blocks := approvalBlocks(req, teams, "Lab default", policy)
	require.NotEmpty(t, blocks)

	var buttons []*slack.ButtonBlockElement
	var checkboxes *slack.CheckboxGroupsBlockElement
	var contexts []*slack.ContextBlock
	for _, b := range blocks {
		switch blk := b.(type) {
		case *slack.ActionBlock:
			for _, el := range blk.Elements.ElementSet {
				if btn, ok := el.(*slack.ButtonBlockElement); ok {
					buttons = append(buttons, btn)
				}
			}
		case *slack.SectionBlock:
			if blk.Accessory != nil && blk.Accessory.CheckboxGroupsBlockElement != nil {
				checkboxes = blk.Accessory.CheckboxGroupsBlockElement
			}
		case *slack.ContextBlock:
			contexts = append(contexts, blk)
		}
	}

	require.Len(t, buttons, 3)
	for _, btn := range buttons {
		// Every verdict button carries the subject so the click handler can
		// find the request.
		assert.Equal(t, "U123", btn.Value)
	}

	require.NotNil(t, checkboxes)
	assert.Len(t, checkboxes.Options, 2)
	require.Len(t, checkboxes.InitialOptions, 1)
	assert.Equal(t, "42", checkboxes.InitialOptions[0].Value)

	require.Len(t, contexts, 1)
	policyText, ok := contexts[0].ContextElements.Elements[0].(*slack.TextBlockObject)
	require.True(t, ok)
	assert.Contains(t, policyText.Text, "Lab Calendar (reader)")
	assert.Contains(t, policyText.Text, "Resources (writer)")
}

func TestApprovalBlocksWithoutPolicyOmitsContext(t *testing.T) {
	req := domain.NewOnboardingRequest("U123", "D1", "Ada Lovelace", "ada@dartmouth.edu")

	blocks := approvalBlocks(req, nil, "", nil)
	for _, b := range blocks {
		_, isContext := b.(*slack.ContextBlock)
		assert.False(t, isContext)
	}
}

func TestOffboardingBlocksPreselectEverything(t *testing.T) {
	req := domain.NewOffboardingRequest("U123", "Ada Lovelace", "ada@dartmouth.edu", "UADMIN")

	blocks := offboardingBlocks(req)
	var checkboxes *slack.CheckboxGroupsBlockElement
	for _, b := range blocks {
		if sec, ok := b.(*slack.SectionBlock); ok && sec.Accessory != nil {
			checkboxes = sec.Accessory.CheckboxGroupsBlockElement
		}
	}
	require.NotNil(t, checkboxes)
	assert.Len(t, checkboxes.InitialOptions, 2)
}

func TestProfileFormView(t *testing.T) {
	view := profileFormView()
	assert.Equal(t, callbackProfileForm, view.CallbackID)
	require.Len(t, view.Blocks.BlockSet, 3)

	website, ok := view.Blocks.BlockSet[2].(*slack.InputBlock)
	require.True(t, ok)
	assert.True(t, website.Optional)
}

func TestFeedbackFormViewCarriesMetadata(t *testing.T) {
	view := feedbackFormView("U123|DADMIN|1.23")
	assert.Equal(t, callbackFeedbackForm, view.CallbackID)
	assert.Equal(t, "U123|DADMIN|1.23", view.PrivateMetadata)
}
