package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis unit vectors
var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}
)

// HeadingDir returns the unit forward vector on the road plane for a heading
func HeadingDir(heading float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}
}

// Reflect mirrors v about the plane with unit normal n
func Reflect(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// SafeNormalize returns the unit vector of v, or fallback when v is zero
func SafeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return fallback
	}
	return v.Mul(1 / l)
}
