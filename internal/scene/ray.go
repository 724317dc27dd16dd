package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space ray from the camera through a pointer position.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // normalized
}

// Camera carries the view parameters needed to unproject pointer input.
type Camera struct {
	Position mgl32.Vec3
	View     mgl32.Mat4
	Proj     mgl32.Mat4
}

// PointerRay converts normalized device coordinates (x, y in [-1, 1], y up)
// into a world-space ray.
func (c Camera) PointerRay(x, y float32) Ray {
	inv := c.Proj.Mul4(c.View).Inv()

	near := inv.Mul4x1(mgl32.Vec4{x, y, -1, 1})
	far := inv.Mul4x1(mgl32.Vec4{x, y, 1, 1})

	nearW := near.Vec3().Mul(1 / near.W())
	farW := far.Vec3().Mul(1 / far.W())

	return Ray{
		Origin:    nearW,
		Direction: farW.Sub(nearW).Normalize(),
	}
}

// HitSphere reports whether the ray intersects the sphere.
func (r Ray) HitSphere(s Sphere) bool {
	oc := r.Origin.Sub(s.Center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return false
	}
	t := -b - float32(math.Sqrt(float64(disc)))
	return t > 0 || -b+float32(math.Sqrt(float64(disc))) > 0
}

// HitGround returns the intersection of the ray with the y=0 ground plane,
// or false if the ray is parallel to or points away from it.
func (r Ray) HitGround() (mgl32.Vec3, bool) {
	if mgl32.Abs(r.Direction.Y()) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := -r.Origin.Y() / r.Direction.Y()
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Mul(t)), true
}
