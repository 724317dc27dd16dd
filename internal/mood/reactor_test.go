package mood

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = float32(1.0 / 60.0)

func TestPrecedence_UserTintOverMoodOverTheme(t *testing.T) {
	r := NewReactor("cyberpunk", zerolog.Nop())

	theme := r.Target()
	assert.Equal(t, themeAccents["cyberpunk"], theme)

	r.SetMood(MoodAngry)
	assert.Equal(t, moodColors[MoodAngry], r.Target(), "mood beats theme")

	require.NoError(t, r.SetUserTint("#112233"))
	tint, _ := ParseHex("#112233")
	assert.Equal(t, tint, r.Target(), "user tint beats mood")

	r.ClearUserTint()
	assert.Equal(t, moodColors[MoodAngry], r.Target())

	r.SetMood(MoodNone)
	assert.Equal(t, theme, r.Target())
}

func TestTalkingFallsThroughToTheme(t *testing.T) {
	r := NewReactor("blood", zerolog.Nop())
	r.SetMood(MoodTalking)
	assert.Equal(t, themeAccents["blood"], r.Target())
}

func TestUpdate_EasesWithoutSnapping(t *testing.T) {
	r := NewReactor("cyberpunk", zerolog.Nop())
	start := r.Color()

	r.SetMood(MoodPainting)
	target := r.Target()
	require.NotEqual(t, start, target)

	r.Update(frame)
	mid := r.Color()
	assert.NotEqual(t, start, mid, "color must move")
	assert.NotEqual(t, target, mid, "color must not snap")

	// Distance to target shrinks every frame.
	prev := target.Sub(mid).Len()
	for i := 0; i < 240; i++ {
		r.Update(frame)
		d := target.Sub(r.Color()).Len()
		assert.LessOrEqual(t, d, prev+1e-6)
		prev = d
	}
	assert.InDelta(t, 0, float64(prev), 0.02, "color converges to target")
}

func TestSetTheme_UnknownKeepsAccent(t *testing.T) {
	r := NewReactor("emerald", zerolog.Nop())
	before := r.Target()
	r.SetTheme("neon-lavender")
	assert.Equal(t, before, r.Target())
	assert.Equal(t, "emerald", r.Theme())
}

func TestDeriveMood(t *testing.T) {
	assert.Equal(t, MoodLoading, DeriveMood(true, true))
	assert.Equal(t, MoodTalking, DeriveMood(false, true))
	assert.Equal(t, MoodNone, DeriveMood(false, false))
}

func TestCalm(t *testing.T) {
	r := NewReactor("frost", zerolog.Nop())
	assert.True(t, r.Calm())
	r.SetMood(MoodLoading)
	assert.False(t, r.Calm())
}

func TestSetOnMoodChange(t *testing.T) {
	r := NewReactor("frost", zerolog.Nop())

	var seen []Mood
	r.SetOnMoodChange(func(m Mood) { seen = append(seen, m) })

	r.SetMood(MoodHappy)
	r.SetMood(MoodHappy) // unchanged, no event
	r.SetMood(MoodNone)

	assert.Equal(t, []Mood{MoodHappy, MoodNone}, seen)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff0080")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, float64(c.X()), 1e-6)
	assert.InDelta(t, 0.0, float64(c.Y()), 1e-6)
	assert.InDelta(t, 0x80/255.0, float64(c.Z()), 1e-6)

	_, err = ParseHex("red")
	assert.Error(t, err)
}
