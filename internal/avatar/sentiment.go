package avatar

import (
	"strings"

	"github.com/NOLA9TECH-AI/G-Bot/internal/anim"
)

// sentimentRules map keywords in the bot's final text to reactive gestures.
// First match wins, scanned in order.
var sentimentRules = []struct {
	emote    anim.Animation
	keywords []string
}{
	{anim.Celebrate, []string{"celebrate", "victory", "congrat", "we won", "let's go"}},
	{anim.Flex, []string{"flex", "muscle", "strong", "powerful"}},
	{anim.Alert, []string{"alert", "danger", "warning", "watch out", "careful"}},
	{anim.Sulk, []string{"sorry", "sadly", "unfortunately"}},
	{anim.Ponder, []string{"ponder", "let me think", "hmm", "wonder"}},
	{anim.Dance, []string{"dance", "dancing", "groove"}},
}

// DetectEmote scans bot text for a sentiment keyword and returns the matching
// gesture.
func DetectEmote(text string) (anim.Animation, bool) {
	lower := strings.ToLower(text)
	for _, rule := range sentimentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.emote, true
			}
		}
	}
	return "", false
}
