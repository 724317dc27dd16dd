// Package nav translates pointer input into world-space movement targets and
// drives locomotion animations during transit.
package nav

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/anim"
	"github.com/NOLA9TECH-AI/G-Bot/internal/scene"
)

// headingLerp is the per-frame exponential smoothing factor for turning.
// Rotation toward the target is gradual, never instant.
const headingLerp float32 = 0.1

// arrivalGestures fire when the avatar reaches a navigation target.
var arrivalGestures = []anim.Animation{anim.Wave, anim.Yes, anim.Jump}

// Config carries locomotion tuning.
type Config struct {
	WalkSpeed     float32 // world units/s
	RunSpeed      float32
	RunDistance   float32 // run when remaining distance exceeds this
	ArriveEpsilon float32
}

// DefaultConfig returns locomotion defaults.
func DefaultConfig() Config {
	return Config{
		WalkSpeed:     1.2,
		RunSpeed:      3.0,
		RunDistance:   4.0,
		ArriveEpsilon: 0.1,
	}
}

// Controller owns the avatar's world transform and the optional navigation
// target. It is driven per frame by the render loop; pointer events may come
// from any handler.
type Controller struct {
	mu     sync.Mutex
	logger zerolog.Logger

	cfg     Config
	blender *anim.Blender
	rng     *rand.Rand

	position mgl32.Vec3
	heading  float32 // yaw, radians

	target     *mgl32.Vec3
	faceViewer bool
	viewerYaw  float32

	onArrive func(pos mgl32.Vec3)
}

// NewController creates a navigation controller anchored at the origin.
func NewController(cfg Config, blender *anim.Blender, logger zerolog.Logger) *Controller {
	if cfg.WalkSpeed <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		logger:  logger.With().Str("component", "nav").Logger(),
		cfg:     cfg,
		blender: blender,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetOnArrive registers a hook fired when a navigation target is reached.
func (c *Controller) SetOnArrive(fn func(pos mgl32.Vec3)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onArrive = fn
}

// Position returns the avatar's current world position.
func (c *Controller) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Heading returns the avatar's yaw in radians.
func (c *Controller) Heading() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heading
}

// HasTarget reports whether a navigation target is set.
func (c *Controller) HasTarget() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target != nil
}

// PointerDown handles a primary pointer/tap at normalized device coordinates.
// A hit on the avatar itself greets and cancels movement; a miss projects the
// ray onto the ground plane and walks there.
func (c *Controller) PointerDown(x, y float32, cam scene.Camera, bounds scene.Sphere) {
	ray := cam.PointerRay(x, y)

	c.mu.Lock()
	bounds.Center = bounds.Center.Add(c.position)

	if ray.HitSphere(bounds) {
		// Greeting takes priority over movement.
		c.target = nil
		c.faceViewer = true
		c.viewerYaw = yawToward(c.position, cam.Position)
		c.mu.Unlock()

		c.logger.Debug().Msg("Avatar tapped, greeting")
		c.blender.Trigger(anim.Greet, false)
		return
	}

	if point, ok := ray.HitGround(); ok {
		c.target = &point
		c.faceViewer = false
		c.logger.Debug().
			Float32("x", point.X()).
			Float32("z", point.Z()).
			Msg("Navigation target set")
	}
	c.mu.Unlock()
}

// SetTarget sets a navigation target directly (used by the run-to-viewer
// sequence and tests).
func (c *Controller) SetTarget(point mgl32.Vec3) {
	c.mu.Lock()
	c.target = &point
	c.faceViewer = false
	c.mu.Unlock()
}

// Update advances locomotion by dt seconds. While a target is set the heading
// turns with exponential smoothing and the position steps by
// min(speed*dt, remaining) so the avatar never overshoots.
func (c *Controller) Update(dt float32) {
	c.mu.Lock()

	if c.target == nil {
		if c.faceViewer {
			c.heading = lerpAngle(c.heading, c.viewerYaw, headingLerp)
		}
		c.mu.Unlock()
		return
	}

	delta := c.target.Sub(c.position)
	delta[1] = 0
	remaining := delta.Len()

	if remaining <= c.cfg.ArriveEpsilon {
		target := *c.target
		if remaining > 1e-6 {
			c.heading = float32(math.Atan2(float64(delta.X()), float64(delta.Z())))
		}
		c.position = target
		c.target = nil
		onArrive := c.onArrive
		c.mu.Unlock()

		c.logger.Debug().Msg("Arrived at target")
		gesture := arrivalGestures[c.rng.Intn(len(arrivalGestures))]
		c.blender.Trigger(gesture, false)
		if onArrive != nil {
			onArrive(target)
		}
		return
	}

	desired := float32(math.Atan2(float64(delta.X()), float64(delta.Z())))
	c.heading = lerpAngle(c.heading, desired, headingLerp)

	speed := c.cfg.WalkSpeed
	locomotion := anim.Walking
	if remaining > c.cfg.RunDistance {
		speed = c.cfg.RunSpeed
		locomotion = anim.Running
	}

	step := speed * dt
	if step > remaining {
		step = remaining
	}
	c.position = c.position.Add(delta.Normalize().Mul(step))
	c.mu.Unlock()

	// No-op when already walking/running, so retriggering per frame is safe.
	c.blender.Trigger(locomotion, false)
}

// yawToward returns the yaw that faces from one point to another.
func yawToward(from, to mgl32.Vec3) float32 {
	d := to.Sub(from)
	return float32(math.Atan2(float64(d.X()), float64(d.Z())))
}

// lerpAngle interpolates between angles along the shortest arc.
func lerpAngle(from, to, t float32) float32 {
	diff := float64(to - from)
	for diff > math.Pi {
		diff -= 2 * math.Pi
	}
	for diff < -math.Pi {
		diff += 2 * math.Pi
	}
	return from + float32(diff)*t
}
