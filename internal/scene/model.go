// Package scene provides model/clip loading and pointer ray tests for the
// avatar. Shading and scene aesthetics live in the render layer, not here.
package scene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Clip is an immutable named animation asset.
type Clip struct {
	Name     string
	Duration float32 // seconds
}

// Model holds the loaded asset's clip inventory and a coarse bound used for
// pointer hit tests. Loaded once at startup; immutable thereafter.
type Model struct {
	Name   string
	Clips  []Clip
	Bounds Sphere
}

// Sphere is a world-space bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// LoadModel parses a glTF/GLB asset and extracts its animation clips. The
// duration of a clip is the maximum keyframe time across its samplers.
func LoadModel(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	m := &Model{
		Name:   baseName(path),
		Bounds: Sphere{Center: mgl32.Vec3{0, 1, 0}, Radius: 1.5},
	}

	for _, anim := range doc.Animations {
		clip := Clip{Name: anim.Name}
		for _, sampler := range anim.Samplers {
			if sampler == nil {
				continue
			}
			input := doc.Accessors[sampler.Input]
			if len(input.Max) > 0 && float32(input.Max[0]) > clip.Duration {
				clip.Duration = float32(input.Max[0])
			}
		}
		m.Clips = append(m.Clips, clip)
	}

	if len(m.Clips) == 0 {
		return nil, fmt.Errorf("model %s has no animation clips", path)
	}

	return m, nil
}

// ClipNames returns the clip names in asset order.
func (m *Model) ClipNames() []string {
	names := make([]string, len(m.Clips))
	for i, c := range m.Clips {
		names[i] = c.Name
	}
	return names
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		path = path[:i]
	}
	return path
}
