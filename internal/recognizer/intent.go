package recognizer

import (
	"strings"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// intentRule maps trigger phrases to an action. Rules are evaluated in
// order; the first match wins. CaptureAfter names trigger forms whose
// trailing words become the command parameter ("navigate to downtown").
type intentRule struct {
	Action       string
	Triggers     []string
	CaptureAfter []string
}

var intentRules = []intentRule{
	// Emergency set first; these must match before anything else.
	{Action: "stop", Triggers: []string{"stop", "stop talking", "be quiet", "shut up", "emergency stop"}},
	{Action: "pause", Triggers: []string{"pause", "hold on", "wait"}},
	{Action: "cancel", Triggers: []string{"cancel", "never mind", "nevermind", "forget it"}},
	{Action: "help", Triggers: []string{"help", "what can i say", "what can you do"}},

	{Action: "navigate", CaptureAfter: []string{"navigate to", "take me to", "directions to", "drive to"}},
	{Action: "reroute", Triggers: []string{"reroute", "find another route"}, CaptureAfter: []string{"avoid"}},
	{Action: "add_stop", CaptureAfter: []string{"add a stop at", "stop by"}},

	{Action: "book", CaptureAfter: []string{"book", "reserve", "make a reservation at"}},
	{Action: "browse", Triggers: []string{"browse"}, CaptureAfter: []string{"show me", "browse"}},
	{Action: "search", CaptureAfter: []string{"search for", "look up"}},

	{Action: "play", Triggers: []string{"play", "tell me a story", "start the story"}},
	{Action: "resume", Triggers: []string{"resume", "keep going", "continue"}},
	{Action: "next", Triggers: []string{"next", "skip"}},
	{Action: "previous", Triggers: []string{"previous", "go back"}},
	{Action: "volume", Triggers: []string{"volume up", "volume down", "louder", "quieter"}},
	{Action: "mute", Triggers: []string{"mute"}},
	{Action: "unmute", Triggers: []string{"unmute"}},
}

// Match maps a final transcript to a CommandPattern. The second return is
// false when no intent matches; callers treat that as a recognition
// miss, re-prompting rather than failing.
func Match(transcript string) (model.CommandPattern, bool) {
	text := normalize(transcript)
	if text == "" {
		return model.CommandPattern{}, false
	}

	for _, rule := range intentRules {
		for _, trig := range rule.Triggers {
			if text == trig {
				return model.NewCommand(rule.Action, nil, 0.95), true
			}
			if strings.HasPrefix(text, trig+" ") {
				return model.NewCommand(rule.Action, nil, 0.75), true
			}
		}
		for _, prefix := range rule.CaptureAfter {
			if strings.HasPrefix(text, prefix+" ") {
				param := strings.TrimSpace(strings.TrimPrefix(text, prefix))
				conf := 0.9
				if param == "" {
					conf = 0.5
				}
				var params []string
				if param != "" {
					params = []string{param}
				}
				return model.NewCommand(rule.Action, params, conf), true
			}
		}
	}

	return model.CommandPattern{}, false
}

var affirmative = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true,
	"confirm": true, "do it": true, "go ahead": true, "okay": true, "ok": true,
}

var negative = map[string]bool{
	"no": true, "nope": true, "cancel": true, "never mind": true,
	"nevermind": true, "don't": true, "stop": true,
}

// IsAffirmative reports whether the transcript confirms a pending action.
func IsAffirmative(transcript string) bool {
	return affirmative[normalize(transcript)]
}

// IsNegative reports whether the transcript declines a pending action.
func IsNegative(transcript string) bool {
	return negative[normalize(transcript)]
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!?,")
	return strings.Join(strings.Fields(s), " ")
}
