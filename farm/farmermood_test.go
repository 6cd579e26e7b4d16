package farm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

func TestKeywordMoodClassifier(t *testing.T) {
	c := KeywordMoodClassifier{}

	cases := []struct {
		input string
		want  Mood
	}{
		{"I am so worried about my cotton this year", MoodStressed},
		{"The loan repayment is killing me", MoodStressed},
		{"The drought destroyed half my field", MoodStressed},
		{"We are expecting a good harvest this season!", MoodHopeful},
		{"Feeling grateful, the rains came on time", MoodHopeful},
		{"Just checking the app", MoodNeutral},
		{"What is the weather tomorrow", MoodNeutral},
		{"", MoodUnknown},
		{"   ", MoodUnknown},
		{"WORRIED about prices", MoodStressed},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.input), "input: %q", tc.input)
	}
}

func TestKeywordMoodClassifier_StressedWinsOverHopeful(t *testing.T) {
	c := KeywordMoodClassifier{}

	got := c.Classify("I had hope for a good harvest but the flood took everything")
	assert.Equal(t, MoodStressed, got)
}

func TestMoodReplies_Deterministic(t *testing.T) {
	assert.Contains(t, moodReplies[MoodStressed], "1800-180-1551")
	assert.NotEmpty(t, moodReplies[MoodHopeful])
	assert.NotEmpty(t, moodReplies[MoodNeutral])
	assert.Contains(t, moodReplies[MoodUnknown], "tell me a little more")
}

func TestFarmerMoodAgent_SetsStateAndReplies(t *testing.T) {
	a := NewFarmerMoodAgent(KeywordMoodClassifier{})
	assert.Equal(t, "farmer_mood_agent", a.Name())

	emit := make(chan core.Event, 4)
	turnCtx := core.NewTurnContext(
		context.Background(),
		"farmer-1", "session-1", "turn-1",
		core.AgentInfo{},
		core.NewUserText("I am worried about my crop loan"),
		emit, nil,
		core.NewSession("farmer-1", "session-1"),
		nil, nil, nil,
	)

	err := a.Run(turnCtx)
	assert.NoError(t, err)

	var final core.Event
	select {
	case final = <-emit:
	default:
		t.Fatal("no event emitted")
	}

	assert.True(t, final.IsFinalResponse())
	assert.Contains(t, final.Content.Text(), "1800-180-1551")
	assert.Equal(t, string(MoodStressed), final.Actions.StateDelta["farmer_mood"])
}
