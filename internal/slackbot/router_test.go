package slackbot

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestParseMention(t *testing.T) {
	assert.Equal(t, "U12345", parseMention("<@U12345>"))
	assert.Equal(t, "U12345", parseMention("<@U12345|ada>"))
	assert.Equal(t, "U12345", parseMention("  <@U12345> please  "))
	assert.Equal(t, "U12345", parseMention("U12345"))
	assert.Equal(t, "", parseMention(""))
	assert.Equal(t, "", parseMention("not a mention"))
}

func TestParseMentionOrValue(t *testing.T) {
	assert.Equal(t, "U12345", parseMentionOrValue("<@U12345>"))
	assert.Equal(t, "U12345", parseMentionOrValue("<@U12345|ada>"))
	assert.Equal(t, "octocat", parseMentionOrValue("octocat"))
	assert.Equal(t, "https://example.com/photo.png", parseMentionOrValue("https://example.com/photo.png"))
}

func stateWith(actionID string, values ...string) *slack.BlockActionStates {
	opts := make([]slack.OptionBlockObject, len(values))
	for i, v := range values {
		opts[i] = slack.OptionBlockObject{Value: v}
	}
	return &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"some_block": {
				actionID: {SelectedOptions: opts},
			},
		},
	}
}

func TestSelectedTeamIDs(t *testing.T) {
	r := &Router{}

	callback := slack.InteractionCallback{BlockActionState: stateWith(actionTeamSelect, "42", "7")}
	assert.ElementsMatch(t, []int64{42, 7}, r.selectedTeamIDs(callback))

	// Unparseable options are skipped rather than failing the approval.
	callback = slack.InteractionCallback{BlockActionState: stateWith(actionTeamSelect, "42", "not-a-number")}
	assert.Equal(t, []int64{42}, r.selectedTeamIDs(callback))

	assert.Nil(t, r.selectedTeamIDs(slack.InteractionCallback{}))
}

func TestSelectedOffboardOptions(t *testing.T) {
	r := &Router{}

	// Untouched checkboxes default to everything selected.
	gh, cal := r.selectedOffboardOptions(slack.InteractionCallback{})
	assert.True(t, gh)
	assert.True(t, cal)

	callback := slack.InteractionCallback{BlockActionState: stateWith(actionOffboardOptions, valueRemoveGitHub)}
	gh, cal = r.selectedOffboardOptions(callback)
	assert.True(t, gh)
	assert.False(t, cal)

	callback = slack.InteractionCallback{BlockActionState: stateWith(actionOffboardOptions)}
	gh, cal = r.selectedOffboardOptions(callback)
	assert.False(t, gh)
	assert.False(t, cal)
}
