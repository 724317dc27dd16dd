package avatar

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NOLA9TECH-AI/G-Bot/internal/anim"
	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
	"github.com/NOLA9TECH-AI/G-Bot/internal/config"
	"github.com/NOLA9TECH-AI/G-Bot/internal/mood"
	"github.com/NOLA9TECH-AI/G-Bot/internal/scene"
)

const frame = float32(1.0 / 60.0)

func testModel() *scene.Model {
	return &scene.Model{
		Name: "robot",
		Clips: []scene.Clip{
			{Name: "Idle", Duration: 4.0},
			{Name: "Walking", Duration: 1.1},
			{Name: "Running", Duration: 0.8},
			{Name: "Dance", Duration: 2.5},
			{Name: "Wave", Duration: 3.0},
			{Name: "Jump", Duration: 1.5},
			{Name: "Sitting", Duration: 5.0},
			{Name: "Yes", Duration: 1.0},
			{Name: "No", Duration: 1.0},
			{Name: "Punch", Duration: 1.2},
			{Name: "ThumbsUp", Duration: 2.0},
			{Name: "Death", Duration: 3.3},
		},
		Bounds: scene.Sphere{Radius: 1.0},
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return NewController(testModel(), config.DefaultConfig(), bus.NewEventBus(), zerolog.Nop())
}

func TestSetScale_Clamps(t *testing.T) {
	c := newTestController(t)

	assert.Equal(t, 1.5, c.SetScale(1.5))
	assert.Equal(t, MaxScale, c.SetScale(10.0))
	assert.Equal(t, MinScale, c.SetScale(0.01))
	assert.Equal(t, MinScale, c.Scale())
}

func TestSetStyle_ValidatesAndNormalizes(t *testing.T) {
	c := newTestController(t)

	require.NoError(t, c.SetStyle(" Gold "))
	assert.Equal(t, "gold", c.Style())

	assert.Error(t, c.SetStyle("tuxedo"))
	assert.Equal(t, "gold", c.Style())
}

func TestSetTheme_RejectsUnknown(t *testing.T) {
	c := newTestController(t)

	require.NoError(t, c.SetTheme("frost"))
	assert.Equal(t, "frost", c.Reactor().Theme())

	assert.Error(t, c.SetTheme("beige"))
	assert.Equal(t, "frost", c.Reactor().Theme())
}

func TestToggleCommandWindow(t *testing.T) {
	c := newTestController(t)

	assert.True(t, c.ToggleCommandWindow(nil))
	assert.False(t, c.ToggleCommandWindow(nil))

	show := true
	assert.True(t, c.ToggleCommandWindow(&show))
	assert.True(t, c.ToggleCommandWindow(&show), "explicit set is not a flip")
	assert.True(t, c.CommandWindowVisible())
}

func TestTriggerEmote_CaseInsensitive(t *testing.T) {
	c := newTestController(t)

	require.NoError(t, c.TriggerEmote("wave"))
	assert.Equal(t, anim.Wave, c.Blender().Active())

	require.NoError(t, c.TriggerEmote("CELEBRATE"))
	assert.Equal(t, anim.ThumbsUp, c.Blender().Active())

	assert.Error(t, c.TriggerEmote("  "))
}

func TestTriggerEmote_DanceVariantsCollapse(t *testing.T) {
	c := newTestController(t)

	require.NoError(t, c.TriggerEmote("Dance_Hiphop"))
	assert.Equal(t, anim.Dance, c.Blender().Active())
}

func TestLifecycle_ConnectedGreets(t *testing.T) {
	c := newTestController(t)
	c.OnConnected()
	assert.Equal(t, anim.Wave, c.Blender().Active())
}

func TestLifecycle_TalkingNodsAndSetsMood(t *testing.T) {
	c := newTestController(t)

	c.OnBotTalking()
	assert.Equal(t, anim.Yes, c.Blender().Active())
	assert.Equal(t, mood.MoodTalking, c.Reactor().Current())

	c.OnTurnComplete("", "plain answer")
	assert.Equal(t, mood.MoodNone, c.Reactor().Current())
}

func TestLifecycle_InterruptShakesHead(t *testing.T) {
	c := newTestController(t)

	c.OnBotTalking()
	c.OnInterrupted()
	assert.Equal(t, anim.No, c.Blender().Active())
	assert.Equal(t, mood.MoodNone, c.Reactor().Current())
}

func TestLifecycle_SentimentGestureOnTurnComplete(t *testing.T) {
	c := newTestController(t)

	c.OnTurnComplete("did we win?", "Yes, time to celebrate!")
	assert.Equal(t, anim.ThumbsUp, c.Blender().Active())
}

func TestMoodPriority_PaintingBeatsLoading(t *testing.T) {
	c := newTestController(t)

	c.SetLoading(true)
	assert.Equal(t, mood.MoodLoading, c.Reactor().Current())

	c.SetPainting(true)
	assert.Equal(t, mood.MoodPainting, c.Reactor().Current())

	c.SetPainting(false)
	assert.Equal(t, mood.MoodLoading, c.Reactor().Current())

	c.SetLoading(false)
	assert.Equal(t, mood.MoodNone, c.Reactor().Current())
}

func TestUpdate_DrivesSubsystems(t *testing.T) {
	c := newTestController(t)

	c.TriggerEmote("Jump")
	for i := 0; i < 60; i++ {
		c.Update(frame)
	}
	assert.Equal(t, anim.Jump, c.Blender().Active())

	// Jump lasts 1.5s and returns to idle on its own.
	for i := 0; i < 60; i++ {
		c.Update(frame)
	}
	assert.Equal(t, anim.Idle, c.Blender().Active())
}

func TestNilModelIsSafe(t *testing.T) {
	c := NewController(nil, config.DefaultConfig(), bus.NewEventBus(), zerolog.Nop())
	assert.NotPanics(t, func() {
		c.OnConnected()
		c.TriggerEmote("Wave")
		c.Update(frame)
	})
}

func TestDetectEmote(t *testing.T) {
	cases := []struct {
		text  string
		emote anim.Animation
		ok    bool
	}{
		{"Congratulations, you did it!", anim.Celebrate, true},
		{"Watch out, danger ahead.", anim.Alert, true},
		{"Look at these muscles.", anim.Flex, true},
		{"Hmm, let me think about that.", anim.Ponder, true},
		{"Unfortunately that failed.", anim.Sulk, true},
		{"Time to dance!", anim.Dance, true},
		{"The weather is mild today.", "", false},
	}
	for _, tc := range cases {
		emote, ok := DetectEmote(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		if tc.ok {
			assert.Equal(t, tc.emote, emote, tc.text)
		}
	}
}
