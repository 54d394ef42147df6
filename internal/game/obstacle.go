package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// ObstacleKind selects the pool and geometry of an obstacle
type ObstacleKind uint8

const (
	KindBarrier ObstacleKind = iota
	KindWall
	KindCone

	obstacleKindCount
)

// String returns the kind name
func (k ObstacleKind) String() string {
	switch k {
	case KindBarrier:
		return "barrier"
	case KindWall:
		return "wall"
	case KindCone:
		return "cone"
	default:
		return "unknown"
	}
}

// Shape is the narrow-phase geometry of a kind
func (k ObstacleKind) Shape() Shape {
	if k == KindCone {
		return ShapeCone
	}
	return ShapeBox
}

// Shape of the collision geometry
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeCone
)

// ScoreClass decides the reward multiplier for clearing an obstacle
type ScoreClass uint8

const (
	ClassPlain ScoreClass = iota
	ClassWall
	ClassMovingBarrier
	ClassNarrowPassage
)

// Multiplier returns the avoidance reward multiplier
func (c ScoreClass) Multiplier() float64 {
	switch c {
	case ClassWall:
		return 1.5
	case ClassMovingBarrier:
		return 2.0
	case ClassNarrowPassage:
		return 2.5
	default:
		return 1.0
	}
}

// String returns the class name
func (c ScoreClass) String() string {
	switch c {
	case ClassPlain:
		return "obstacle"
	case ClassWall:
		return "wall"
	case ClassMovingBarrier:
		return "moving_barrier"
	case ClassNarrowPassage:
		return "narrow_passage"
	default:
		return "unknown"
	}
}

// Movement describes a reflecting lateral oscillation
type Movement struct {
	Direction mgl64.Vec3
	Speed     float64
	Range     float64
	Anchor    mgl64.Vec3
}

// Obstacle is one pooled slot. Only the ObstacleManager mutates it.
type Obstacle struct {
	ID        int
	Kind      ObstacleKind
	Class     ScoreClass
	Position  mgl64.Vec3 // ground point under the centre
	Size      mgl64.Vec3
	Active    bool
	Moving    bool
	Movement  Movement
	PatternID uint64
	Scoring   bool // the pattern's farthest obstacle, awards on pass
	Forfeit   bool // something in the pattern was hit
	Passed    bool

	slot int
	mesh Transform
}

// Bounds returns the obstacle's axis-aligned box
func (o *Obstacle) Bounds() vmath.AABB {
	center := o.Position.Add(mgl64.Vec3{0, o.Size.Y() / 2, 0})
	return vmath.FromCenterSize(center, o.Size)
}

// View returns the read-only copy handed to collision and presentation
func (o *Obstacle) View() ObstacleView {
	return ObstacleView{
		ID:        o.ID,
		Kind:      o.Kind,
		Class:     o.Class,
		Position:  o.Position,
		Size:      o.Size,
		Bounds:    o.Bounds(),
		Active:    o.Active,
		Moving:    o.Moving,
		Movement:  o.Movement,
		PatternID: o.PatternID,
	}
}

// ObstacleView is an immutable snapshot of an obstacle
type ObstacleView struct {
	ID        int
	Kind      ObstacleKind
	Class     ScoreClass
	Position  mgl64.Vec3
	Size      mgl64.Vec3
	Bounds    vmath.AABB
	Active    bool
	Moving    bool
	Movement  Movement
	PatternID uint64
}

// Cone returns the cone geometry for cone-shaped obstacles
func (v ObstacleView) Cone() vmath.Cone {
	return vmath.Cone{
		Base:   v.Position,
		Radius: v.Size.X() / 2,
		Height: v.Size.Y(),
	}
}

func defaultSize(kind ObstacleKind) mgl64.Vec3 {
	switch kind {
	case KindWall:
		return mgl64.Vec3{config.BarrierWidth, config.WallHeight, config.WallDepth}
	case KindCone:
		return mgl64.Vec3{config.ConeRadius * 2, config.ConeHeight, config.ConeRadius * 2}
	default:
		return mgl64.Vec3{config.BarrierWidth, config.BarrierHeight, config.BarrierDepth}
	}
}
