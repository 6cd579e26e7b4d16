// Package wildlife watches farm camera frames for dangerous animals. Frames
// are classified by a vision-capable model; confirmed sightings of target
// species become detection records and, when urgent, alerts.
package wildlife

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// detectionPrompt forces the vision model into one of three parseable reply
// shapes.
const detectionPrompt = "You are analyzing a single frame from a farm surveillance camera in India.\n" +
	"If the frame shows a wild boar, leopard or lion, reply with exactly one line:\n" +
	"Animal: <animal name>, Confidence: <number>%\n" +
	"If it shows any other animal, reply: Other Animal: <animal name>\n" +
	"If no animal is visible, reply: Empty Field\n" +
	"Reply with nothing else."

// actionPrompt asks a text model whether a confirmed sighting warrants an
// immediate alert.
const actionPrompt = "A farm camera confirmed a sighting: %s (confidence %.0f%%).\n" +
	"These animals can destroy crops or endanger people. Reply with exactly one word:\n" +
	"ALERT_IMMEDIATELY if the farmer must be warned now, MONITOR if the camera should " +
	"keep watching, or IGNORE if no action is needed."

// ConfidenceThreshold is the minimum confidence for a sighting to count.
const ConfidenceThreshold = 0.75

// Detection is the parsed outcome of one frame classification.
type Detection struct {
	Animal     string  // lowercased target or other animal name
	Confidence float64 // 0..1, zero for other/empty
	Other      bool    // a non-target animal
	Empty      bool    // nothing in frame
}

// Action is the alerting decision for a confirmed sighting.
type Action string

// Recognized actions. Unparseable decisions default to ActionMonitor, never
// to silence or to a false alarm.
const (
	ActionAlertImmediately Action = "ALERT_IMMEDIATELY"
	ActionMonitor          Action = "MONITOR"
	ActionIgnore           Action = "IGNORE"
)

var targetAnimals = map[string]bool{
	"boar":      true,
	"wild boar": true,
	"leopard":   true,
	"lion":      true,
}

var detectionRe = regexp.MustCompile(`(?i)animal:\s*([a-z ]+?)\s*,\s*confidence:\s*([0-9]+(?:\.[0-9]+)?)\s*%`)

// ParseDetection interprets the vision model's reply.
func ParseDetection(text string) (Detection, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "empty field") {
		return Detection{Empty: true}, nil
	}
	if strings.HasPrefix(lower, "other animal:") {
		name := strings.TrimSpace(trimmed[len("other animal:"):])
		// Some replies append a Recommendation line; only the name matters.
		if i := strings.IndexByte(name, '\n'); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		return Detection{Animal: strings.ToLower(name), Other: true}, nil
	}

	m := detectionRe.FindStringSubmatch(trimmed)
	if m == nil {
		return Detection{}, fmt.Errorf("unparseable detection reply: %q", trimmed)
	}
	pct, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Detection{}, fmt.Errorf("unparseable confidence in %q: %w", trimmed, err)
	}

	return Detection{
		Animal:     strings.ToLower(strings.TrimSpace(m[1])),
		Confidence: pct / 100,
	}, nil
}

// IsTarget reports whether the detection names a tracked dangerous species.
func (d Detection) IsTarget() bool {
	return !d.Empty && !d.Other && targetAnimals[d.Animal]
}

// IsConfirmed reports whether the detection is a target sighting above the
// confidence threshold.
func (d Detection) IsConfirmed() bool {
	return d.IsTarget() && d.Confidence >= ConfidenceThreshold
}

// ParseAction interprets the decision model's reply, defaulting to MONITOR.
func ParseAction(text string) Action {
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.Contains(upper, string(ActionAlertImmediately)):
		return ActionAlertImmediately
	case strings.Contains(upper, string(ActionIgnore)):
		return ActionIgnore
	default:
		return ActionMonitor
	}
}
