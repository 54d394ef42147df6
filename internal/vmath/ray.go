package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const rayEpsilon = 1e-9

// Ray is a half-line from Origin along the unit vector Dir
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at distance t
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Cone is an upright cone with its base disk centred on Base and the apex
// Height units above it
type Cone struct {
	Base   mgl64.Vec3
	Radius float64
	Height float64
}

// ContainsPoint reports whether p lies inside the solid cone
func (c Cone) ContainsPoint(p mgl64.Vec3) bool {
	y := p.Y() - c.Base.Y()
	if y < 0 || y > c.Height || c.Height <= 0 {
		return false
	}
	limit := c.Radius * (1 - y/c.Height)
	return Distance2D(p.X(), p.Z(), c.Base.X(), c.Base.Z()) <= limit
}

// IntersectAABB returns the distance to the first hit on b and the normal of
// the face that was hit. An origin inside the box hits at distance 0 with
// the normal opposing the ray.
func (r Ray) IntersectAABB(b AABB) (float64, mgl64.Vec3, bool) {
	if b.ContainsPoint(r.Origin) {
		return 0, r.Dir.Mul(-1), true
	}

	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	var normal mgl64.Vec3

	for axis := 0; axis < 3; axis++ {
		o := r.Origin[axis]
		d := r.Dir[axis]
		lo := b.Min[axis]
		hi := b.Max[axis]

		if math.Abs(d) < rayEpsilon {
			if o < lo || o > hi {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}

		if t1 > tmin {
			tmin = t1
			normal = mgl64.Vec3{}
			normal[axis] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}

	if tmax < 0 || tmin < 0 {
		return 0, mgl64.Vec3{}, false
	}
	return tmin, normal, true
}

// IntersectCone returns the distance to the first hit on the cone's lateral
// surface or base disk. An origin inside the cone hits at distance 0.
func (r Ray) IntersectCone(c Cone) (float64, mgl64.Vec3, bool) {
	if c.ContainsPoint(r.Origin) {
		return 0, r.Dir.Mul(-1), true
	}
	if c.Height <= 0 || c.Radius <= 0 {
		return 0, mgl64.Vec3{}, false
	}

	best := math.Inf(1)
	var bestNormal mgl64.Vec3

	apexY := c.Base.Y() + c.Height
	k := c.Radius / c.Height
	k2 := k * k

	ox := r.Origin.X() - c.Base.X()
	oz := r.Origin.Z() - c.Base.Z()
	oy := apexY - r.Origin.Y()
	dx, dy, dz := r.Dir.X(), r.Dir.Y(), r.Dir.Z()

	qa := dx*dx + dz*dz - k2*dy*dy
	qb := 2 * (ox*dx + oz*dz + k2*oy*dy)
	qc := ox*ox + oz*oz - k2*oy*oy

	lateral := func(t float64) {
		if t < 0 || t >= best {
			return
		}
		s := oy - t*dy
		if s < 0 || s > c.Height {
			return
		}
		px := ox + t*dx
		pz := oz + t*dz
		best = t
		bestNormal = SafeNormalize(mgl64.Vec3{px, k2 * s, pz}, AxisY)
	}

	if math.Abs(qa) < rayEpsilon {
		if math.Abs(qb) > rayEpsilon {
			lateral(-qc / qb)
		}
	} else {
		disc := qb*qb - 4*qa*qc
		if disc >= 0 {
			sq := math.Sqrt(disc)
			lateral((-qb - sq) / (2 * qa))
			lateral((-qb + sq) / (2 * qa))
		}
	}

	if math.Abs(dy) > rayEpsilon {
		t := (c.Base.Y() - r.Origin.Y()) / dy
		if t >= 0 && t < best {
			p := r.At(t)
			if Distance2D(p.X(), p.Z(), c.Base.X(), c.Base.Z()) <= c.Radius {
				best = t
				bestNormal = AxisY.Mul(-1)
			}
		}
	}

	if math.IsInf(best, 1) {
		return 0, mgl64.Vec3{}, false
	}
	return best, bestNormal, true
}
