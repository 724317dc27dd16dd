// Package mood drives the avatar's accent color from theme, mood, and user
// tint. The color never snaps: every frame it eases toward its target, so
// transitions stay smooth across theme flips and mood changes.
package mood

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Mood is the avatar's visual mood.
type Mood string

const (
	MoodNone     Mood = "none"
	MoodTalking  Mood = "talking"
	MoodLoading  Mood = "loading"
	MoodPainting Mood = "painting"
	MoodHappy    Mood = "happy"
	MoodAngry    Mood = "angry"
	MoodSad      Mood = "sad"
	MoodCurious  Mood = "curious"
	MoodExcited  Mood = "excited"
)

// lerpFactor is the per-frame blend factor at the 60 fps reference rate.
const lerpFactor float32 = 0.05

// themeAccents maps theme names to their accent color.
var themeAccents = map[string]mgl32.Vec3{
	"cyberpunk": hexColor(0x39ff14),
	"hood":      hexColor(0xffd700),
	"toxic":     hexColor(0xccff00),
	"frost":     hexColor(0x00ffff),
	"blood":     hexColor(0xff0000),
	"void":      hexColor(0x9400d3),
	"sunset":    hexColor(0xff4500),
	"emerald":   hexColor(0x50c878),
	"midnight":  hexColor(0x191970),
}

// moodColors maps moods to their glow color. Moods without an entry (none,
// talking) fall through to the theme accent.
var moodColors = map[Mood]mgl32.Vec3{
	MoodHappy:    hexColor(0x00ff88),
	MoodAngry:    hexColor(0xff1100),
	MoodLoading:  hexColor(0xffaa00),
	MoodPainting: hexColor(0xff00cc),
	MoodExcited:  hexColor(0x00ffff),
	MoodSad:      hexColor(0x3355ff),
	MoodCurious:  hexColor(0xbb66ff),
}

// Reactor resolves the accent color target from layered inputs and eases the
// live color toward it each frame.
//
// Precedence: explicit user tint > mood > theme default.
type Reactor struct {
	mu     sync.Mutex
	logger zerolog.Logger

	theme    string
	mood     Mood
	userTint *mgl32.Vec3

	current mgl32.Vec3
	target  mgl32.Vec3

	onMoodChange func(Mood)
}

// NewReactor creates a reactor seeded with the theme's accent so startup does
// not flash from black.
func NewReactor(theme string, logger zerolog.Logger) *Reactor {
	r := &Reactor{
		logger: logger.With().Str("component", "mood").Logger(),
		theme:  theme,
		mood:   MoodNone,
	}
	r.target = r.resolveTarget()
	r.current = r.target
	return r
}

// SetOnMoodChange registers a hook fired when the mood actually changes.
func (r *Reactor) SetOnMoodChange(fn func(Mood)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMoodChange = fn
}

// SetTheme switches the theme accent. Unknown themes keep the previous accent.
func (r *Reactor) SetTheme(theme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := themeAccents[theme]; !ok {
		r.logger.Warn().Str("theme", theme).Msg("Unknown theme, keeping current accent")
		return
	}
	r.theme = theme
	r.target = r.resolveTarget()
}

// Theme returns the active theme name.
func (r *Reactor) Theme() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.theme
}

// SetMood sets the visual mood.
func (r *Reactor) SetMood(m Mood) {
	r.mu.Lock()
	changed := r.mood != m
	r.mood = m
	r.target = r.resolveTarget()
	hook := r.onMoodChange
	r.mu.Unlock()

	if changed && hook != nil {
		hook(m)
	}
}

// Current returns the active mood.
func (r *Reactor) Current() Mood {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mood
}

// Calm reports whether no mood stronger than idle chatter is set. The life
// scheduler keys off this.
func (r *Reactor) Calm() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mood == MoodNone
}

// SetUserTint pins the accent to an explicit user-chosen color, overriding
// mood and theme until cleared.
func (r *Reactor) SetUserTint(hex string) error {
	c, err := ParseHex(hex)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userTint = &c
	r.target = r.resolveTarget()
	return nil
}

// ClearUserTint removes the explicit tint.
func (r *Reactor) ClearUserTint() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userTint = nil
	r.target = r.resolveTarget()
}

// resolveTarget applies the precedence order. Caller holds the lock.
func (r *Reactor) resolveTarget() mgl32.Vec3 {
	if r.userTint != nil {
		return *r.userTint
	}
	if c, ok := moodColors[r.mood]; ok {
		return c
	}
	if c, ok := themeAccents[r.theme]; ok {
		return c
	}
	return hexColor(0x39ff14)
}

// Update eases the live color toward the target. The factor is frame-rate
// compensated so the blend speed is stable regardless of refresh rate.
func (r *Reactor) Update(dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := lerpFactor
	if dt > 0 {
		f = 1 - float32(math.Pow(float64(1-lerpFactor), float64(dt*60)))
	}
	r.current = r.current.Add(r.target.Sub(r.current).Mul(f))
}

// Color returns the live accent color.
func (r *Reactor) Color() mgl32.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Target returns the color currently being eased toward.
func (r *Reactor) Target() mgl32.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// DeriveMood resolves the baseline mood from activity flags: loading beats
// talking beats none.
func DeriveMood(loading, talking bool) Mood {
	switch {
	case loading:
		return MoodLoading
	case talking:
		return MoodTalking
	default:
		return MoodNone
	}
}

// KnownThemes returns the theme names accepted by SetTheme.
func KnownThemes() []string {
	out := make([]string, 0, len(themeAccents))
	for name := range themeAccents {
		out = append(out, name)
	}
	return out
}

// ParseHex parses "#rrggbb" or "rrggbb" into a linear color vector.
func ParseHex(s string) (mgl32.Vec3, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return mgl32.Vec3{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return hexColor(uint32(v)), nil
}

func hexColor(v uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((v>>16)&0xff) / 255.0,
		float32((v>>8)&0xff) / 255.0,
		float32(v&0xff) / 255.0,
	}
}
