package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// CollisionResult describes the nearest confirmed hit of a query
type CollisionResult struct {
	Hit      bool
	Obstacle ObstacleView
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // narrow-phase ray distance from the car centre
}

// BoundaryResult reports which road edges the car body touches
type BoundaryResult struct {
	Left        bool
	Right       bool
	Penetration float64 // how far past the edge, 0 when inside
}

// probeDirs are the six axis directions of the narrow phase
var probeDirs = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// CollisionDetector tests the car against obstacles. It keeps no obstacle
// state between calls; the probe rays are scratch space rebuilt per query.
type CollisionDetector struct {
	probes [6]vmath.Ray
}

// NewCollisionDetector creates a detector
func NewCollisionDetector() *CollisionDetector {
	return &CollisionDetector{}
}

// CheckCollisions runs the broad phase (AABB overlap) and, on overlap only,
// the narrow phase (six axis rays from the car centre). A hit is accepted
// when the nearest ray hit is within NarrowPhaseRatio of the car's largest
// dimension. The nearest accepted obstacle is reported.
func (d *CollisionDetector) CheckCollisions(car vmath.AABB, obstacles []ObstacleView) CollisionResult {
	var best CollisionResult
	best.Distance = math.Inf(1)

	center := car.Center()
	threshold := config.NarrowPhaseRatio * car.MaxDimension()
	d.resetProbes(center)

	for i := range obstacles {
		o := &obstacles[i]
		if !o.Active {
			continue
		}
		if !car.Intersects(o.Bounds) {
			continue
		}

		probe, dist, normal, ok := d.narrowPhase(o)
		if !ok || dist > threshold || dist >= best.Distance {
			continue
		}

		best = CollisionResult{
			Hit:      true,
			Obstacle: *o,
			Point:    d.probes[probe].At(dist),
			Normal:   normal,
			Distance: dist,
		}
	}

	if !best.Hit {
		return CollisionResult{}
	}
	return best
}

func (d *CollisionDetector) resetProbes(origin mgl64.Vec3) {
	for i := range d.probes {
		d.probes[i] = vmath.Ray{Origin: origin, Dir: probeDirs[i]}
	}
}

// narrowPhase returns the index and result of the nearest probe hit
func (d *CollisionDetector) narrowPhase(o *ObstacleView) (int, float64, mgl64.Vec3, bool) {
	probe := -1
	nearest := math.Inf(1)
	var normal mgl64.Vec3

	for i := range d.probes {
		dist, n, ok := intersect(d.probes[i], o)
		if ok && dist < nearest {
			probe = i
			nearest = dist
			normal = n
		}
	}
	return probe, nearest, normal, probe >= 0
}

func intersect(r vmath.Ray, o *ObstacleView) (float64, mgl64.Vec3, bool) {
	if o.Kind.Shape() == ShapeCone {
		return r.IntersectCone(o.Cone())
	}
	return r.IntersectAABB(o.Bounds)
}

// CheckRoadBoundaries reports whether the car body reaches a road edge
func (d *CollisionDetector) CheckRoadBoundaries(car vmath.AABB, halfWidth float64) BoundaryResult {
	var res BoundaryResult
	if car.Min.X() <= -halfWidth {
		res.Left = true
		res.Penetration = math.Max(res.Penetration, -halfWidth-car.Min.X())
	}
	if car.Max.X() >= halfWidth {
		res.Right = true
		res.Penetration = math.Max(res.Penetration, car.Max.X()-halfWidth)
	}
	return res
}

// PredictCollision projects the car forward by velocity*lookAhead and
// repeats the collision test. Used for anticipation effects only.
func (d *CollisionDetector) PredictCollision(car vmath.AABB, velocity mgl64.Vec3, lookAhead float64, obstacles []ObstacleView) CollisionResult {
	return d.CheckCollisions(car.Translate(velocity.Mul(lookAhead)), obstacles)
}

// IsPathClear casts a single ray of finite length against obstacles
func (d *CollisionDetector) IsPathClear(origin, dir mgl64.Vec3, maxDistance float64, obstacles []ObstacleView) bool {
	ray := vmath.Ray{Origin: origin, Dir: vmath.SafeNormalize(dir, vmath.AxisZ)}
	for i := range obstacles {
		o := &obstacles[i]
		if !o.Active {
			continue
		}
		if dist, _, ok := intersect(ray, o); ok && dist <= maxDistance {
			return false
		}
	}
	return true
}

// CalculateCollisionResponse reflects velocity about the impact normal and
// scales it by the restitution coefficient
func (d *CollisionDetector) CalculateCollisionResponse(velocity, normal mgl64.Vec3, restitution float64) mgl64.Vec3 {
	n := vmath.SafeNormalize(normal, mgl64.Vec3{})
	return vmath.Reflect(velocity, n).Mul(restitution)
}
