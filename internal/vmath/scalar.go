// Package vmath holds the scalar and vector helpers used by the simulation.
package vmath

import (
	"math"
	"math/rand"
)

// Clamp restricts v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b, t is not clamped
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InverseLerp returns where v sits between a and b, 0 when a == b
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

// Smoothstep is the cubic Hermite ease between edge0 and edge1
func Smoothstep(edge0, edge1, x float64) float64 {
	t := Clamp(InverseLerp(edge0, edge1, x), 0, 1)
	return t * t * (3 - 2*t)
}

// RandRange returns a uniform value in [lo, hi)
func RandRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// Distance2D is the distance between two points on the road plane
func Distance2D(ax, az, bx, bz float64) float64 {
	return math.Hypot(bx-ax, bz-az)
}

// Angle2D is the heading from a to b on the road plane. Heading 0 faces +Z,
// positive headings turn toward +X.
func Angle2D(ax, az, bx, bz float64) float64 {
	return math.Atan2(bx-ax, bz-az)
}

// MoveToward steps current toward target by at most maxDelta
func MoveToward(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// SmoothDamp moves current toward target with a critically damped spring.
// velocity carries state between calls. The result never overshoots target.
func SmoothDamp(current, target float64, velocity *float64, smoothTime, maxSpeed, dt float64) float64 {
	if dt <= 0 {
		return current
	}
	smoothTime = math.Max(0.0001, smoothTime)
	omega := 2 / smoothTime

	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current - target
	origTarget := target

	maxChange := maxSpeed * smoothTime
	change = Clamp(change, -maxChange, maxChange)
	target = current - change

	temp := (*velocity + omega*change) * dt
	*velocity = (*velocity - omega*temp) * exp
	out := target + (change+temp)*exp

	if (origTarget-current > 0) == (out > origTarget) {
		out = origTarget
		*velocity = (out - origTarget) / dt
	}
	return out
}
