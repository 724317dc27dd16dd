package anim

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultFadeDuration is the shared cross-fade interval: the outgoing action
// fades out over this window while the incoming one fades in. Hard cuts snap
// skeletal poses visibly.
const DefaultFadeDuration float32 = 0.3

// Blender cross-fades between actions and owns the one-shot return-to-idle
// schedule. It is driven by the render loop via Update(dt); Trigger may be
// called from any event handler.
//
// Invariant: at most one action is fading in as the authoritative action; all
// others only ever fade toward zero weight.
type Blender struct {
	mu     sync.Mutex
	logger zerolog.Logger

	registry *Registry
	fadeDur  float32

	active *Action
	fading []*Action

	clock    float32 // accumulated simulated time
	returnAt float32 // deadline for auto-return to idle; <0 means none

	onTrigger func(clip Animation)
}

// NewBlender creates a blender over a registry. A nil registry is legal: the
// asset failed to load and every trigger becomes a silent no-op.
func NewBlender(registry *Registry, fadeDur float32, logger zerolog.Logger) *Blender {
	if fadeDur <= 0 {
		fadeDur = DefaultFadeDuration
	}
	return &Blender{
		logger:   logger.With().Str("component", "blender").Logger(),
		registry: registry,
		fadeDur:  fadeDur,
		returnAt: -1,
	}
}

// SetOnTrigger registers a hook invoked after a clip actually starts (not on
// no-op retriggers).
func (b *Blender) SetOnTrigger(fn func(clip Animation)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrigger = fn
}

// Trigger starts the named animation, cross-fading from whatever is active.
// Semantic names resolve through the alias table. Triggering the action that
// is already active is a no-op so duplicate events don't restart playback.
func (b *Blender) Trigger(name Animation, loopForever bool) {
	b.mu.Lock()
	fired := b.triggerLocked(name, loopForever)
	fn := b.onTrigger
	b.mu.Unlock()

	// The hook runs outside the lock so it may call back into the blender.
	if fired != "" && fn != nil {
		fn(fired)
	}
}

// triggerLocked starts the clip and returns its concrete name, or "" when the
// trigger was a no-op. The caller fires onTrigger after releasing b.mu.
func (b *Blender) triggerLocked(name Animation, loopForever bool) Animation {
	if b.registry == nil {
		b.logger.Debug().Str("anim", string(name)).Msg("Trigger before model load, ignoring")
		return ""
	}

	clip := ResolveClip(name)
	action := b.registry.Lookup(clip)
	if action == nil {
		b.logger.Debug().Str("anim", string(name)).Str("clip", string(clip)).Msg("Unknown clip, ignoring")
		return ""
	}

	if action == b.active {
		return ""
	}

	// A new trigger supersedes any pending return-to-idle; a stale timer
	// would otherwise cut the new animation short.
	b.returnAt = -1

	if b.active != nil {
		b.active.fadeIn = false
		b.fading = append(b.fading, b.active)
	}
	// If the clip was still fading out from an earlier run, pull it out of
	// the fading set; its weight resumes rising from where it is.
	for i, f := range b.fading {
		if f == action {
			b.fading = append(b.fading[:i], b.fading[i+1:]...)
			break
		}
	}

	action.elapsed = 0
	action.fadeIn = true
	if loopForever || LoopsByDefault(clip) {
		action.Loop = LoopRepeat
	} else {
		action.Loop = LoopOnce
	}
	b.active = action

	if action.Loop == LoopOnce {
		scale := action.TimeScale
		if scale <= 0 {
			scale = 1
		}
		b.returnAt = b.clock + action.Clip.Duration/scale
	}

	b.logger.Debug().
		Str("clip", string(clip)).
		Bool("loop", action.Loop == LoopRepeat).
		Msg("Animation triggered")

	return clip
}

// Update advances fades and playback time by dt seconds. Called once per
// rendered frame.
func (b *Blender) Update(dt float32) {
	b.mu.Lock()

	b.clock += dt
	step := dt / b.fadeDur

	if b.active != nil {
		b.active.weight += step
		if b.active.weight > 1 {
			b.active.weight = 1
		}
		b.active.elapsed += dt * b.active.TimeScale
	}

	kept := b.fading[:0]
	for _, f := range b.fading {
		f.weight -= step
		if f.weight > 0 {
			f.elapsed += dt * f.TimeScale
			kept = append(kept, f)
		} else {
			f.weight = 0
		}
	}
	b.fading = kept

	var fired Animation
	if b.returnAt >= 0 && b.clock >= b.returnAt {
		b.returnAt = -1
		fired = b.triggerLocked(Idle, false)
	}
	fn := b.onTrigger
	b.mu.Unlock()

	if fired != "" && fn != nil {
		fn(fired)
	}
}

// Active returns the concrete clip name of the authoritative action, or ""
// before the first trigger.
func (b *Blender) Active() Animation {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return ""
	}
	return Animation(b.active.Clip.Name)
}

// ActiveElapsed returns the playback time of the active action.
func (b *Blender) ActiveElapsed() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return 0
	}
	return b.active.elapsed
}

// Weights returns a snapshot of all nonzero action weights by clip name.
func (b *Blender) Weights() map[Animation]float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[Animation]float32, 1+len(b.fading))
	if b.active != nil {
		out[Animation(b.active.Clip.Name)] = b.active.weight
	}
	for _, f := range b.fading {
		out[Animation(f.Clip.Name)] = f.weight
	}
	return out
}
