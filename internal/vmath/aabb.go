package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box
type AABB struct {
	Min, Max mgl64.Vec3
}

// FromCenterSize builds a box around center with full extents size
func FromCenterSize(center, size mgl64.Vec3) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Center of the box
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the full extents
func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxDimension is the largest extent along any axis
func (b AABB) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s.X(), math.Max(s.Y(), s.Z()))
}

// Intersects reports overlap; touching faces count as overlapping
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y() &&
		b.Min.Z() <= o.Max.Z() && b.Max.Z() >= o.Min.Z()
}

// Contains reports whether o lies entirely inside b
func (b AABB) Contains(o AABB) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// ContainsPoint reports whether p lies inside or on b
func (b AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Translate shifts the box by d
func (b AABB) Translate(d mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Expand grows the box by m on every side
func (b AABB) Expand(m float64) AABB {
	d := mgl64.Vec3{m, m, m}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}
