package game

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// ObstacleManager spawns obstacle patterns ahead of the car, recycles the
// ones left behind and animates moving obstacles.
//
// All obstacles live in fixed per-kind pools allocated by Initialize. The
// pool size is a hard cap: placements beyond it are dropped, never queued.
type ObstacleManager struct {
	log       zerolog.Logger
	metrics   *Metrics
	presenter Presenter

	pools  [obstacleKindCount]*obstaclePool
	active []*Obstacle // swap-removed, capacity fixed at the pool total
	views  []ObstacleView

	rng  *rand.Rand
	seed int64

	elapsed     float64 // difficulty clock, seconds
	lastSpawnZ  float64
	nextPattern uint64
	dropped     int

	initialized bool
}

// NewObstacleManager creates a manager. presenter and metrics may be nil.
func NewObstacleManager(log zerolog.Logger, seed int64, presenter Presenter, metrics *Metrics) *ObstacleManager {
	return &ObstacleManager{
		log:       log.With().Str("component", "obstacles").Logger(),
		metrics:   metrics,
		presenter: presenter,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Initialize allocates the pools once and spawns the initial batch
func (m *ObstacleManager) Initialize() {
	if m.pools[0] == nil {
		total := 0
		for k := ObstacleKind(0); k < obstacleKindCount; k++ {
			pool := newObstaclePool(k, config.PoolSizePerKind)
			if m.presenter != nil {
				for i := range pool.slots {
					mesh := m.presenter.ObstacleMesh(k, i)
					mesh.SetVisible(false)
					pool.slots[i].mesh = mesh
				}
			}
			m.pools[k] = pool
			total += pool.capacity()
		}
		m.active = make([]*Obstacle, 0, total)
		m.views = make([]ObstacleView, 0, total)
	}
	m.initialized = true
	m.restart()

	m.log.Debug().
		Int("active", len(m.active)).
		Float64("lastSpawnZ", m.lastSpawnZ).
		Msg("Obstacle pools initialized")
}

// Reset returns every obstacle to its pool and respawns the initial batch.
// The RNG is reseeded, so the result matches the post-Initialize state.
func (m *ObstacleManager) Reset() {
	if !m.initialized {
		return
	}
	m.restart()
}

// SetSeed changes the seed used by the next Reset
func (m *ObstacleManager) SetSeed(seed int64) {
	m.seed = seed
}

func (m *ObstacleManager) restart() {
	for _, o := range m.active {
		m.pools[o.Kind].release(o)
		m.hide(o)
	}
	m.active = m.active[:0]
	for _, p := range m.pools {
		p.refill()
	}

	m.rng.Seed(m.seed)
	m.elapsed = 0
	m.lastSpawnZ = config.InitialSpawnZ
	m.nextPattern = 0
	m.dropped = 0

	m.spawnAhead(0)
}

// Update runs the cleanup, spawn and motion passes for one tick
func (m *ObstacleManager) Update(dt float64, carPos mgl64.Vec3) {
	if !m.initialized {
		return
	}
	if dt > 0 {
		m.elapsed += dt
	}

	m.cleanup(carPos.Z())
	m.spawnAhead(carPos.Z())
	m.animate(dt)
}

// cleanup despawns everything more than DespawnDistance behind the car
func (m *ObstacleManager) cleanup(carZ float64) {
	limit := carZ - config.DespawnDistance
	for i := 0; i < len(m.active); {
		o := m.active[i]
		if o.Position.Z() < limit {
			m.removeAt(i)
			continue
		}
		i++
	}
}

func (m *ObstacleManager) spawnAhead(carZ float64) {
	for m.lastSpawnZ < carZ+config.SpawnDistance {
		spacing := vmath.RandRange(m.rng, config.MinSpawnSpacing, config.MaxSpawnSpacing) / m.Difficulty()
		spacing = math.Max(spacing, config.SpawnSpacingFloor)
		z := m.lastSpawnZ + spacing

		pattern := Pattern(m.rng.Intn(int(patternCount)))
		depth := m.placePattern(pattern, z)
		m.lastSpawnZ = z + depth
	}
}

func (m *ObstacleManager) animate(dt float64) {
	if dt <= 0 {
		return
	}
	for _, o := range m.active {
		if !o.Moving {
			continue
		}
		mv := &o.Movement
		o.Position = o.Position.Add(mv.Direction.Mul(mv.Speed * dt))

		disp := o.Position.X() - mv.Anchor.X()
		edge := config.RoadHalfWidth - o.Size.X()/2
		switch {
		case math.Abs(disp) > mv.Range:
			o.Position[0] = mv.Anchor.X() + math.Copysign(mv.Range, disp)
			mv.Direction = mv.Direction.Mul(-1)
		case math.Abs(o.Position.X()) > edge:
			o.Position[0] = math.Copysign(edge, o.Position.X())
			mv.Direction = mv.Direction.Mul(-1)
		}

		if o.mesh != nil {
			o.mesh.SetPosition(o.Position)
		}
	}
}

// place draws one obstacle from its pool. An exhausted pool skips silently.
func (m *ObstacleManager) place(kind ObstacleKind, class ScoreClass, pattern uint64, pos, size mgl64.Vec3) *Obstacle {
	o := m.pools[kind].acquire()
	if o == nil {
		m.dropped++
		m.metrics.droppedSpawn(kind)
		m.log.Debug().
			Str("kind", kind.String()).
			Float64("z", pos.Z()).
			Msg("Obstacle pool exhausted, placement skipped")
		return nil
	}

	o.Class = class
	o.Position = pos
	o.Size = size
	o.Active = true
	o.Moving = false
	o.Movement = Movement{}
	o.PatternID = pattern
	o.Scoring = false
	o.Forfeit = false
	o.Passed = false

	m.active = append(m.active, o)

	if o.mesh != nil {
		o.mesh.SetPosition(o.Position)
		o.mesh.SetVisible(true)
	}
	return o
}

func (m *ObstacleManager) removeAt(i int) {
	o := m.active[i]
	last := len(m.active) - 1
	m.active[i] = m.active[last]
	m.active[last] = nil
	m.active = m.active[:last]

	m.pools[o.Kind].release(o)
	m.hide(o)
}

func (m *ObstacleManager) hide(o *Obstacle) {
	if o.mesh != nil {
		o.mesh.SetVisible(false)
	}
}

// ActiveObstacles returns views of the active set. The slice is reused on
// the next call and must not be retained.
func (m *ObstacleManager) ActiveObstacles() []ObstacleView {
	m.views = m.views[:0]
	for _, o := range m.active {
		m.views = append(m.views, o.View())
	}
	return m.views
}

// ActiveCount returns how many obstacles are in play
func (m *ObstacleManager) ActiveCount() int {
	return len(m.active)
}

// Capacity is the total number of pooled slots
func (m *ObstacleManager) Capacity() int {
	return int(obstacleKindCount) * config.PoolSizePerKind
}

// Remove despawns the obstacle with the given id; unknown ids are ignored
func (m *ObstacleManager) Remove(id int) {
	for i, o := range m.active {
		if o.ID == id {
			m.removeAt(i)
			return
		}
	}
}

// ForfeitPattern stops every obstacle of a pattern from awarding avoidance
func (m *ObstacleManager) ForfeitPattern(pattern uint64) {
	for _, o := range m.active {
		if o.PatternID == pattern {
			o.Forfeit = true
		}
	}
}

// CollectPassed appends to dst every scoring obstacle whose far edge is now
// behind rearZ and whose pattern was not hit. Each is reported once.
func (m *ObstacleManager) CollectPassed(rearZ float64, dst []ObstacleView) []ObstacleView {
	for _, o := range m.active {
		if !o.Scoring || o.Passed || o.Forfeit {
			continue
		}
		if o.Bounds().Max.Z() < rearZ {
			o.Passed = true
			dst = append(dst, o.View())
		}
	}
	return dst
}

// Difficulty is 1 + elapsed/30, capped at MaxDifficulty
func (m *ObstacleManager) Difficulty() float64 {
	return math.Min(1+m.elapsed/config.DifficultyRampTime, config.MaxDifficulty)
}

// IncreaseDifficulty advances the difficulty clock by one ramp step
func (m *ObstacleManager) IncreaseDifficulty() {
	maxElapsed := (config.MaxDifficulty - 1) * config.DifficultyRampTime
	m.elapsed = math.Min(m.elapsed+config.DifficultyRampTime, maxElapsed)
}

// LastSpawnZ is the coordinate up to which obstacles have been placed
func (m *ObstacleManager) LastSpawnZ() float64 {
	return m.lastSpawnZ
}

// DroppedSpawns counts placements skipped since the last reset
func (m *ObstacleManager) DroppedSpawns() int {
	return m.dropped
}

// Dispose returns everything to the pools and releases mesh handles
func (m *ObstacleManager) Dispose() {
	if !m.initialized {
		return
	}
	for _, o := range m.active {
		m.pools[o.Kind].release(o)
	}
	m.active = m.active[:0]
	for _, p := range m.pools {
		for i := range p.slots {
			if p.slots[i].mesh != nil {
				p.slots[i].mesh.SetVisible(false)
				p.slots[i].mesh = nil
			}
		}
		p.refill()
	}
	m.initialized = false
}
