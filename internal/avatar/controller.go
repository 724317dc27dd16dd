// Package avatar owns the avatar's runtime state: animation, locomotion,
// mood color, scale, outfit style and the reactions tied to the live session
// lifecycle.
package avatar

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/anim"
	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
	"github.com/NOLA9TECH-AI/G-Bot/internal/config"
	"github.com/NOLA9TECH-AI/G-Bot/internal/mood"
	"github.com/NOLA9TECH-AI/G-Bot/internal/nav"
	"github.com/NOLA9TECH-AI/G-Bot/internal/scene"
)

// Scale bounds for set_robot_scale.
const (
	MinScale = 0.5
	MaxScale = 2.0
)

// Styles the robot can wear.
var knownStyles = map[string]bool{
	"cyber":   true,
	"street":  true,
	"gold":    true,
	"stealth": true,
}

// Controller is the single owner of avatar state. All mutation goes through
// it; the render loop drives it once per frame via Update.
type Controller struct {
	mu     sync.Mutex
	logger zerolog.Logger
	events *bus.EventBus

	model   *scene.Model
	blender *anim.Blender
	nav     *nav.Controller
	reactor *mood.Reactor
	life    *anim.LifeScheduler

	scale     float64
	style     string
	artStyle  string
	cmdWindow bool

	loading  bool
	talking  bool
	painting bool
}

// NewController wires the animation, navigation and mood subsystems from
// config. A nil model is allowed; animation triggers become no-ops until a
// model is present.
func NewController(model *scene.Model, cfg *config.Config, events *bus.EventBus, logger zerolog.Logger) *Controller {
	log := logger.With().Str("component", "avatar").Logger()

	var registry *anim.Registry
	if model != nil {
		registry = anim.NewRegistry(model)
	}
	blender := anim.NewBlender(registry, float32(cfg.Animation.FadeDuration.Seconds()), logger)

	c := &Controller{
		logger:   log,
		events:   events,
		model:    model,
		blender:  blender,
		scale:    clampScale(cfg.Avatar.Scale),
		style:    cfg.Avatar.Style,
		artStyle: cfg.Avatar.ArtStyle,
	}

	blender.SetOnTrigger(func(clip anim.Animation) {
		events.Publish(bus.Event{Type: bus.EventTypeAnimationTriggered, Data: map[string]any{
			"clip": string(clip),
		}})
	})

	c.nav = nav.NewController(nav.Config{
		WalkSpeed:     float32(cfg.Nav.WalkSpeed),
		RunSpeed:      float32(cfg.Nav.RunSpeed),
		RunDistance:   float32(cfg.Nav.RunDistance),
		ArriveEpsilon: float32(cfg.Nav.ArriveEpsilon),
	}, blender, logger)
	c.nav.SetOnArrive(func(pos mgl32.Vec3) {
		events.Publish(bus.Event{Type: bus.EventTypeNavArrived, Data: map[string]any{
			"x": pos.X(), "z": pos.Z(),
		}})
	})

	c.reactor = mood.NewReactor(cfg.Theme, logger)
	c.reactor.SetOnMoodChange(func(m mood.Mood) {
		events.Publish(bus.Event{Type: bus.EventTypeMoodChanged, Data: map[string]any{
			"mood": string(m),
		}})
	})
	if cfg.Avatar.Tint != "" {
		if err := c.reactor.SetUserTint(cfg.Avatar.Tint); err != nil {
			log.Warn().Err(err).Str("tint", cfg.Avatar.Tint).Msg("Ignoring bad configured tint")
		}
	}

	c.life = anim.NewLifeScheduler(blender, c.reactor.Calm,
		cfg.Animation.LifeMinInterval, cfg.Animation.LifeMaxInterval, logger)

	return c
}

// Blender exposes the animation blender for render-side weight sampling.
func (c *Controller) Blender() *anim.Blender { return c.blender }

// Nav exposes the navigation controller for render-side transform sampling.
func (c *Controller) Nav() *nav.Controller { return c.nav }

// Reactor exposes the mood reactor for render-side color sampling.
func (c *Controller) Reactor() *mood.Reactor { return c.reactor }

// Life exposes the idle-life scheduler so the app can run it.
func (c *Controller) Life() *anim.LifeScheduler { return c.life }

// Update advances every frame-driven subsystem by dt seconds.
func (c *Controller) Update(dt float32) {
	c.blender.Update(dt)
	c.nav.Update(dt)
	c.reactor.Update(dt)
}

// PointerDown routes a pointer event: a hit on the avatar greets, a hit on
// the ground starts navigation there.
func (c *Controller) PointerDown(x, y float32, cam scene.Camera) {
	bounds := scene.Sphere{}
	if c.model != nil {
		bounds = c.model.Bounds
		bounds.Radius *= float32(c.Scale())
	}
	c.nav.PointerDown(x, y, cam, bounds)
}

// TriggerEmote plays a gesture by name, case-insensitively. Unknown names
// fall through to the blender, which ignores clips the model lacks.
func (c *Controller) TriggerEmote(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty emote name")
	}
	c.blender.Trigger(canonicalEmote(name), false)
	return nil
}

// SetScale applies a uniform scale, clamped to [MinScale, MaxScale], and
// returns the value actually applied.
func (c *Controller) SetScale(scale float64) float64 {
	applied := clampScale(scale)

	c.mu.Lock()
	changed := c.scale != applied
	c.scale = applied
	c.mu.Unlock()

	if changed {
		c.logger.Info().Float64("scale", applied).Msg("Scale changed")
		c.events.Publish(bus.Event{Type: bus.EventTypeScaleChanged, Data: map[string]any{
			"scale": applied,
		}})
	}
	return applied
}

// Scale returns the current uniform scale.
func (c *Controller) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// SetStyle switches the robot's outfit.
func (c *Controller) SetStyle(style string) error {
	style = strings.ToLower(strings.TrimSpace(style))
	if !knownStyles[style] {
		return fmt.Errorf("unknown style %q", style)
	}

	c.mu.Lock()
	changed := c.style != style
	c.style = style
	c.mu.Unlock()

	if changed {
		c.events.Publish(bus.Event{Type: bus.EventTypeStyleChanged, Data: map[string]any{
			"style": style,
		}})
	}
	return nil
}

// Style returns the current outfit style.
func (c *Controller) Style() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// SetTheme switches the environment theme.
func (c *Controller) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	known := false
	for _, t := range mood.KnownThemes() {
		if t == theme {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown theme %q", theme)
	}

	c.reactor.SetTheme(theme)
	c.events.Publish(bus.Event{Type: bus.EventTypeThemeChanged, Data: map[string]any{
		"theme": theme,
	}})
	return nil
}

// SetUserTint pins the glow color, overriding mood and theme. An empty hex
// clears the override.
func (c *Controller) SetUserTint(hex string) error {
	if strings.TrimSpace(hex) == "" {
		c.reactor.ClearUserTint()
		return nil
	}
	return c.reactor.SetUserTint(hex)
}

// SetArtStyle sets the default style for generated images.
func (c *Controller) SetArtStyle(style string) {
	c.mu.Lock()
	c.artStyle = strings.TrimSpace(style)
	c.mu.Unlock()
}

// ArtStyle returns the current art style.
func (c *Controller) ArtStyle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artStyle
}

// ToggleCommandWindow flips or sets command window visibility and returns the
// new state.
func (c *Controller) ToggleCommandWindow(visible *bool) bool {
	c.mu.Lock()
	if visible != nil {
		c.cmdWindow = *visible
	} else {
		c.cmdWindow = !c.cmdWindow
	}
	state := c.cmdWindow
	c.mu.Unlock()

	c.events.Publish(bus.Event{Type: bus.EventTypeWindowToggled, Data: map[string]any{
		"visible": state,
	}})
	return state
}

// CommandWindowVisible reports the command window state.
func (c *Controller) CommandWindowVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmdWindow
}

// OnConnected greets the viewer once the session opens.
func (c *Controller) OnConnected() {
	c.blender.Trigger(anim.Greet, false)
}

// OnBotTalking marks the start of a model utterance: an acknowledgment nod
// and the talking mood.
func (c *Controller) OnBotTalking() {
	c.mu.Lock()
	c.talking = true
	c.mu.Unlock()

	c.blender.Trigger(anim.Yes, false)
	c.applyMood()
}

// OnInterrupted reacts to a barge-in.
func (c *Controller) OnInterrupted() {
	c.mu.Lock()
	c.talking = false
	c.mu.Unlock()

	c.blender.Trigger(anim.No, false)
	c.applyMood()
}

// OnTurnComplete ends the utterance and plays a sentiment gesture if the
// bot's final text carries one.
func (c *Controller) OnTurnComplete(userText, botText string) {
	c.mu.Lock()
	c.talking = false
	c.mu.Unlock()

	if emote, ok := DetectEmote(botText); ok {
		c.blender.Trigger(emote, false)
	}
	c.applyMood()
}

// SetLoading flags an in-flight request, e.g. between user turn end and the
// first model audio.
func (c *Controller) SetLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
	c.applyMood()
}

// SetPainting flags an in-flight image generation.
func (c *Controller) SetPainting(painting bool) {
	c.mu.Lock()
	c.painting = painting
	c.mu.Unlock()
	c.applyMood()
}

// applyMood recomputes the baseline mood from the activity flags. Painting
// beats loading beats talking.
func (c *Controller) applyMood() {
	c.mu.Lock()
	painting, loading, talking := c.painting, c.loading, c.talking
	c.mu.Unlock()

	if painting {
		c.reactor.SetMood(mood.MoodPainting)
		return
	}
	c.reactor.SetMood(mood.DeriveMood(loading, talking))
}

func clampScale(scale float64) float64 {
	if scale < MinScale {
		return MinScale
	}
	if scale > MaxScale {
		return MaxScale
	}
	return scale
}

// canonicalEmote maps arbitrary-case gesture names to animation names.
func canonicalEmote(name string) anim.Animation {
	if strings.HasPrefix(strings.ToLower(name), "dance_") {
		return anim.Animation("Dance_" + name[len("dance_"):])
	}
	lower := strings.ToLower(name)
	for _, a := range []anim.Animation{
		anim.Idle, anim.Walking, anim.Running, anim.Dance, anim.Wave,
		anim.Jump, anim.Sitting, anim.Standing, anim.Yes, anim.No,
		anim.Punch, anim.ThumbsUp, anim.Death,
		anim.Celebrate, anim.Ponder, anim.Alert, anim.Shutdown,
		anim.Flex, anim.Shock, anim.Sulk, anim.Greet,
	} {
		if strings.ToLower(string(a)) == lower {
			return a
		}
	}
	return anim.Animation(name)
}
