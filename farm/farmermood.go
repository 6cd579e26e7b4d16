package farm

import (
	"strings"

	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
)

// Mood classifies the farmer's emotional state from their message.
type Mood string

// Recognized moods. MoodUnknown means the classifier could not commit to a
// reading and the agent re-asks with a fixed prompt.
const (
	MoodStressed Mood = "stressed"
	MoodHopeful  Mood = "hopeful"
	MoodNeutral  Mood = "neutral"
	MoodUnknown  Mood = "unknown"
)

// MoodClassifier maps a farmer utterance to a mood. Implementations must be
// deterministic so the mood delegate's replies are reproducible.
type MoodClassifier interface {
	Classify(input string) Mood
}

// KeywordMoodClassifier classifies by keyword matching. Stressed markers win
// over hopeful ones when both appear, erring toward support.
type KeywordMoodClassifier struct{}

var stressedMarkers = []string{
	"stress", "worried", "worry", "anxious", "scared", "afraid",
	"loss", "debt", "loan", "failed", "failing", "ruined", "hopeless",
	"give up", "destroyed", "drought", "flood",
}

var hopefulMarkers = []string{
	"hope", "happy", "good harvest", "great", "excited", "optimistic",
	"profit", "bumper", "wonderful", "thankful", "grateful",
}

// Classify implements MoodClassifier.
func (KeywordMoodClassifier) Classify(input string) Mood {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return MoodUnknown
	}
	for _, marker := range stressedMarkers {
		if strings.Contains(text, marker) {
			return MoodStressed
		}
	}
	for _, marker := range hopefulMarkers {
		if strings.Contains(text, marker) {
			return MoodHopeful
		}
	}
	return MoodNeutral
}

// Fixed replies per mood. Stressed farmers get a real helpline and
// encouragement; the unknown reply is a fixed re-ask, never a guess.
var moodReplies = map[Mood]string{
	MoodStressed: "It sounds like things are weighing on you right now, and that is completely understandable. " +
		"Please remember the Kisan Call Centre at 1800-180-1551 gives free advice from agricultural experts any time. " +
		"Many farmers have come through hard seasons like this one, and you are not facing it alone.",
	MoodHopeful: "That is wonderful to hear! A positive season lifts the whole village. " +
		"Keep that energy going, and feel free to ask me about prices or crop care whenever you need.",
	MoodNeutral: "Thanks for checking in. How are things going on your farm this week - anything on your mind about your crops?",
	MoodUnknown: "I want to make sure I understand how you are feeling. " +
		"Could you tell me a little more about how your season has been going?",
}

// NewFarmerMoodAgent builds the deterministic mood check-in delegate. The
// classified mood is recorded in session state under "farmer_mood".
func NewFarmerMoodAgent(classifier MoodClassifier) *agent.StaticAgent {
	if classifier == nil {
		classifier = KeywordMoodClassifier{}
	}

	responder := agent.ResponderFunc(func(turnCtx *core.TurnContext, input string) (string, error) {
		mood := classifier.Classify(input)
		turnCtx.SetState("farmer_mood", string(mood))
		return moodReplies[mood], nil
	})

	a := agent.NewStaticAgent("farmer_mood_agent", responder)
	a.SetDescription("Checks in on the farmer's wellbeing and responds with support, encouragement or a follow-up question.")
	return a
}
