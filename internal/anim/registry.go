package anim

import (
	"github.com/NOLA9TECH-AI/G-Bot/internal/scene"
)

// LoopMode controls whether an action plays once or repeats.
type LoopMode int

const (
	LoopOnce LoopMode = iota
	LoopRepeat
)

// Action is a playable instance bound to one clip on one model instance.
type Action struct {
	Clip      scene.Clip
	Loop      LoopMode
	TimeScale float32

	weight  float32
	elapsed float32
	fadeIn  bool
}

// Weight returns the action's current blend weight.
func (a *Action) Weight() float32 { return a.weight }

// Elapsed returns the playback time accumulated since the action last started.
func (a *Action) Elapsed() float32 { return a.elapsed }

// Registry exposes named, playable actions for a loaded model. Built once at
// startup; the action map itself is immutable afterward.
type Registry struct {
	actions map[Animation]*Action
}

// NewRegistry binds one action per clip of the model.
func NewRegistry(model *scene.Model) *Registry {
	r := &Registry{actions: make(map[Animation]*Action, len(model.Clips))}
	for _, clip := range model.Clips {
		r.actions[Animation(clip.Name)] = &Action{
			Clip:      clip,
			TimeScale: 1.0,
		}
	}
	return r
}

// Lookup returns the action for a concrete clip name, nil if the asset has no
// such clip.
func (r *Registry) Lookup(clip Animation) *Action {
	return r.actions[clip]
}

// SetTimeScale adjusts playback speed for a clip. Out-of-range values are
// clamped to a sane band rather than rejected.
func (r *Registry) SetTimeScale(clip Animation, scale float32) {
	a := r.actions[clip]
	if a == nil {
		return
	}
	if scale < 0.1 {
		scale = 0.1
	}
	if scale > 4.0 {
		scale = 4.0
	}
	a.TimeScale = scale
}
