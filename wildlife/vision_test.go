package wildlife

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetection_TargetAnimal(t *testing.T) {
	d, err := ParseDetection("Animal: Wild Boar, Confidence: 92%")
	assert.NoError(t, err)
	assert.Equal(t, "wild boar", d.Animal)
	assert.InDelta(t, 0.92, d.Confidence, 1e-9)
	assert.True(t, d.IsTarget())
	assert.True(t, d.IsConfirmed())

	d, err = ParseDetection("animal: leopard, confidence: 80.5 %")
	assert.NoError(t, err)
	assert.Equal(t, "leopard", d.Animal)
	assert.InDelta(t, 0.805, d.Confidence, 1e-9)
	assert.True(t, d.IsConfirmed())
}

func TestParseDetection_BelowThreshold(t *testing.T) {
	d, err := ParseDetection("Animal: Lion, Confidence: 60%")
	assert.NoError(t, err)
	assert.True(t, d.IsTarget())
	assert.False(t, d.IsConfirmed())

	// Exactly at threshold counts.
	d, err = ParseDetection("Animal: Lion, Confidence: 75%")
	assert.NoError(t, err)
	assert.True(t, d.IsConfirmed())
}

func TestParseDetection_OtherAnimal(t *testing.T) {
	d, err := ParseDetection("Other Animal: Cow")
	assert.NoError(t, err)
	assert.True(t, d.Other)
	assert.Equal(t, "cow", d.Animal)
	assert.False(t, d.IsTarget())
	assert.False(t, d.IsConfirmed())
}

func TestParseDetection_EmptyField(t *testing.T) {
	d, err := ParseDetection("Empty Field")
	assert.NoError(t, err)
	assert.True(t, d.Empty)
	assert.False(t, d.IsTarget())

	d, err = ParseDetection("  empty field  ")
	assert.NoError(t, err)
	assert.True(t, d.Empty)
}

func TestParseDetection_IgnoresRecommendationSuffix(t *testing.T) {
	d, err := ParseDetection("Animal: Leopard, Confidence: 88%\nRecommendation: alert the farmer")
	assert.NoError(t, err)
	assert.Equal(t, "leopard", d.Animal)
	assert.True(t, d.IsConfirmed())

	d, err = ParseDetection("Other Animal: Cow\nRecommendation: none")
	assert.NoError(t, err)
	assert.True(t, d.Other)
	assert.Equal(t, "cow", d.Animal)
}

func TestParseDetection_NonTargetInDetectionShape(t *testing.T) {
	// A target-shaped reply naming an untracked species is parsed but never
	// confirmed.
	d, err := ParseDetection("Animal: Deer, Confidence: 99%")
	assert.NoError(t, err)
	assert.False(t, d.IsTarget())
	assert.False(t, d.IsConfirmed())
}

func TestParseDetection_Unparseable(t *testing.T) {
	for _, input := range []string{
		"",
		"I think I see something moving",
		"Animal: leopard",
		"Confidence: 80%",
	} {
		_, err := ParseDetection(input)
		assert.Error(t, err, "input: %q", input)
	}
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionAlertImmediately, ParseAction("ALERT_IMMEDIATELY"))
	assert.Equal(t, ActionAlertImmediately, ParseAction("alert_immediately"))
	assert.Equal(t, ActionIgnore, ParseAction(" IGNORE "))
	assert.Equal(t, ActionMonitor, ParseAction("MONITOR"))

	// Anything unrecognized falls back to monitoring.
	assert.Equal(t, ActionMonitor, ParseAction("not sure, maybe check later"))
	assert.Equal(t, ActionMonitor, ParseAction(""))
}
