package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// Pattern is a named template for placing obstacles at one coordinate
type Pattern uint8

const (
	PatternSingleBarrier Pattern = iota
	PatternDoubleBarrier
	PatternWallGap
	PatternSlalom
	PatternNarrowPassage
	PatternMovingPair

	patternCount
)

var patternNames = [...]string{
	PatternSingleBarrier: "single_barrier",
	PatternDoubleBarrier: "double_barrier",
	PatternWallGap:       "wall_gap",
	PatternSlalom:        "slalom",
	PatternNarrowPassage: "narrow_passage",
	PatternMovingPair:    "moving_pair",
}

// String returns the pattern name
func (p Pattern) String() string {
	if p < patternCount {
		return patternNames[p]
	}
	return "unknown"
}

// SpawnPattern places one pattern instance at z and returns its id
func (m *ObstacleManager) SpawnPattern(p Pattern, z float64) uint64 {
	if !m.initialized {
		return 0
	}
	m.placePattern(p, z)
	return m.nextPattern
}

// placePattern places p at z and returns the longitudinal depth it covers
func (m *ObstacleManager) placePattern(p Pattern, z float64) float64 {
	m.nextPattern++
	b := patternBuilder{m: m, id: m.nextPattern}

	var depth float64
	switch p {
	case PatternSingleBarrier:
		depth = b.singleBarrier(z)
	case PatternDoubleBarrier:
		depth = b.doubleBarrier(z)
	case PatternWallGap:
		depth = b.wallGap(z)
	case PatternSlalom:
		depth = b.slalom(z)
	case PatternNarrowPassage:
		depth = b.narrowPassage(z)
	case PatternMovingPair:
		depth = b.movingPair(z)
	}

	if b.farthest != nil {
		b.farthest.Scoring = true
	}
	return depth
}

// patternBuilder places the obstacles of one pattern instance and tracks
// which of them lies farthest down the road
type patternBuilder struct {
	m        *ObstacleManager
	id       uint64
	farthest *Obstacle
}

func (b *patternBuilder) add(kind ObstacleKind, class ScoreClass, x, z float64, size mgl64.Vec3) *Obstacle {
	o := b.m.place(kind, class, b.id, mgl64.Vec3{x, 0, z}, size)
	if o != nil && (b.farthest == nil || o.Position.Z() >= b.farthest.Position.Z()) {
		b.farthest = o
	}
	return o
}

func (b *patternBuilder) barrierSize() mgl64.Vec3 {
	return defaultSize(KindBarrier)
}

func (b *patternBuilder) singleBarrier(z float64) float64 {
	limit := config.RoadHalfWidth - config.BarrierWidth/2
	x := vmath.RandRange(b.m.rng, -limit, limit)
	b.add(KindBarrier, ClassPlain, x, z, b.barrierSize())
	return config.BarrierDepth
}

// doubleBarrier places two barriers symmetric about a random centre, leaving
// a gap in [DoubleGapMin, DoubleGapMax] between their inner faces
func (b *patternBuilder) doubleBarrier(z float64) float64 {
	gap := vmath.RandRange(b.m.rng, config.DoubleGapMin, config.DoubleGapMax)
	center := vmath.RandRange(b.m.rng, -config.DoubleCenterRange, config.DoubleCenterRange)
	offset := gap/2 + config.BarrierWidth/2

	b.add(KindBarrier, ClassPlain, center-offset, z, b.barrierSize())
	b.add(KindBarrier, ClassPlain, center+offset, z, b.barrierSize())
	return config.BarrierDepth
}

// wallGap spans the road with wall pieces except for one gap that narrows
// as difficulty rises
func (b *patternBuilder) wallGap(z float64) float64 {
	half := config.RoadHalfWidth
	gap := math.Max(config.WallGapMin, config.WallGapBase/b.m.Difficulty())
	center := vmath.RandRange(b.m.rng, -half+gap/2, half-gap/2)

	leftW := (center - gap/2) + half
	if leftW > 0.01 {
		b.add(KindWall, ClassWall, -half+leftW/2, z,
			mgl64.Vec3{leftW, config.WallHeight, config.WallDepth})
	}
	rightW := half - (center + gap/2)
	if rightW > 0.01 {
		b.add(KindWall, ClassWall, half-rightW/2, z,
			mgl64.Vec3{rightW, config.WallHeight, config.WallDepth})
	}
	return config.WallDepth
}

// slalom alternates cones left and right; the count grows with difficulty
func (b *patternBuilder) slalom(z float64) float64 {
	count := config.SlalomBaseCount + int(math.Floor(b.m.Difficulty()))
	if count > config.SlalomMaxCount {
		count = config.SlalomMaxCount
	}
	side := 1.0
	if b.m.rng.Intn(2) == 0 {
		side = -1.0
	}

	size := defaultSize(KindCone)
	for i := 0; i < count; i++ {
		b.add(KindCone, ClassPlain, side*config.SlalomOffset, z+float64(i)*config.SlalomSpacing, size)
		side = -side
	}
	return float64(count-1)*config.SlalomSpacing + size.Z()
}

// narrowPassage forms a corridor just wider than the car from two barrier pairs
func (b *patternBuilder) narrowPassage(z float64) float64 {
	center := vmath.RandRange(b.m.rng, -config.DoubleCenterRange, config.DoubleCenterRange)
	offset := config.PassageWidth/2 + config.BarrierWidth/2

	for _, dz := range [2]float64{0, config.PassageDepth} {
		b.add(KindBarrier, ClassNarrowPassage, center-offset, z+dz, b.barrierSize())
		b.add(KindBarrier, ClassNarrowPassage, center+offset, z+dz, b.barrierSize())
	}
	return config.PassageDepth + config.BarrierDepth
}

// movingPair places two barriers oscillating laterally in opposite directions
func (b *patternBuilder) movingPair(z float64) float64 {
	for _, side := range [2]float64{-1, 1} {
		o := b.add(KindBarrier, ClassMovingBarrier, side*config.MovingPairOffset, z, b.barrierSize())
		if o == nil {
			continue
		}
		o.Moving = true
		o.Movement = Movement{
			Direction: mgl64.Vec3{side, 0, 0},
			Speed:     vmath.RandRange(b.m.rng, config.OscillationSpeedMin, config.OscillationSpeedMax),
			Range:     config.OscillationRange,
			Anchor:    o.Position,
		}
	}
	return config.BarrierDepth
}
