package anim

import "strings"

// Animation names the motions callers may request. Semantic names (Celebrate,
// Ponder, ...) let higher layers request intents without knowing the asset's
// literal clip names.
type Animation string

const (
	Idle     Animation = "Idle"
	Walking  Animation = "Walking"
	Running  Animation = "Running"
	Dance    Animation = "Dance"
	Wave     Animation = "Wave"
	Jump     Animation = "Jump"
	Sitting  Animation = "Sitting"
	Standing Animation = "Standing"
	Yes      Animation = "Yes"
	No       Animation = "No"
	Punch    Animation = "Punch"
	ThumbsUp Animation = "ThumbsUp"
	Death    Animation = "Death"

	// Semantic mappings
	Celebrate Animation = "Celebrate"
	Ponder    Animation = "Ponder"
	Alert     Animation = "Alert"
	Shutdown  Animation = "Shutdown"
	Flex      Animation = "Flex"
	Shock     Animation = "Shock"
	Sulk      Animation = "Sulk"
	Greet     Animation = "Greet"
)

// aliases maps semantic animation names to concrete clip names. Swap this
// table when the underlying asset changes; callers stay untouched.
var aliases = map[Animation]Animation{
	Celebrate: ThumbsUp,
	Ponder:    Sitting,
	Alert:     Jump,
	Shutdown:  Death,
	Flex:      Punch,
	Shock:     Jump,
	Sulk:      No,
	Greet:     Wave,
}

// looping classifies clips that repeat by default: locomotion, idle, dance.
var looping = map[Animation]bool{
	Idle:    true,
	Walking: true,
	Running: true,
	Dance:   true,
}

// ResolveClip maps a possibly-semantic animation name to a concrete clip name.
// Dance variants ("Dance_Hiphop" etc.) all collapse to the Dance clip.
func ResolveClip(name Animation) Animation {
	if strings.HasPrefix(string(name), "Dance_") {
		return Dance
	}
	if clip, ok := aliases[name]; ok {
		return clip
	}
	return name
}

// LoopsByDefault reports whether a concrete clip repeats unless told otherwise.
func LoopsByDefault(clip Animation) bool {
	return looping[clip]
}
