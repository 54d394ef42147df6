package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race/roadrush/config"
)

type recordingTransform struct {
	position mgl64.Vec3
	rotation mgl64.Vec3
	visible  bool
}

func (t *recordingTransform) SetPosition(p mgl64.Vec3) { t.position = p }
func (t *recordingTransform) SetRotation(r mgl64.Vec3) { t.rotation = r }
func (t *recordingTransform) SetVisible(v bool)        { t.visible = v }
func (t *recordingTransform) Visible() bool            { return t.visible }

type recordingPresenter struct {
	vehicle   *recordingTransform
	camera    *recordingTransform
	obstacles []*recordingTransform
	renders   int
	released  bool
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{
		vehicle: &recordingTransform{},
		camera:  &recordingTransform{},
	}
}

func (p *recordingPresenter) VehicleMesh() Transform { return p.vehicle }
func (p *recordingPresenter) Camera() Transform      { return p.camera }
func (p *recordingPresenter) Render()                { p.renders++ }
func (p *recordingPresenter) Release()               { p.released = true }

func (p *recordingPresenter) ObstacleMesh(ObstacleKind, int) Transform {
	t := &recordingTransform{}
	p.obstacles = append(p.obstacles, t)
	return t
}

func (p *recordingPresenter) visibleObstacles() int {
	n := 0
	for _, t := range p.obstacles {
		if t.visible {
			n++
		}
	}
	return n
}

type testSession struct {
	*Session
	sched     *ManualScheduler
	presenter *recordingPresenter
	store     *memStore
	now       time.Time
}

func newTestSession(t *testing.T, lives int) *testSession {
	t.Helper()
	ts := &testSession{
		sched:     &ManualScheduler{},
		presenter: newRecordingPresenter(),
		store:     newMemStore(),
		now:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	settings := config.DefaultSettings()
	settings.Lives = lives
	settings.Seed = 42

	ts.Session = NewSession(Options{
		ID:        "test",
		Settings:  settings,
		Store:     ts.store,
		Scheduler: ts.sched,
		Presenter: ts.presenter,
		Logger:    zerolog.Nop(),
		Context:   context.Background(),
	})
	return ts
}

// fire advances the fake clock by dt and runs the armed frame
func (ts *testSession) fire(dt time.Duration) bool {
	ts.now = ts.now.Add(dt)
	return ts.sched.Fire(ts.now)
}

// blockCar places a barrier on top of the car
func (ts *testSession) blockCar() {
	pos := ts.car.Position()
	ts.obstacles.place(KindBarrier, ClassPlain, 1<<40, pos, defaultSize(KindBarrier))
}

func TestSession_StartsInMenu(t *testing.T) {
	ts := newTestSession(t, 3)

	assert.Equal(t, StateMenu, ts.State())
	assert.False(t, ts.sched.Pending())
	assert.True(t, ts.Car().Ready())
	assert.Positive(t, ts.Obstacles().ActiveCount())
}

func TestSession_StartArmsFrames(t *testing.T) {
	ts := newTestSession(t, 3)

	var transitions []GameState
	ts.OnStateChange(func(_, to GameState) { transitions = append(transitions, to) })
	stats := 0
	ts.OnStats(func(Stats) { stats++ })

	require.NoError(t, ts.Start())
	assert.Equal(t, StatePlaying, ts.State())
	assert.True(t, ts.sched.Pending())

	for i := 0; i < 10; i++ {
		require.True(t, ts.fire(16*time.Millisecond))
	}

	assert.Equal(t, []GameState{StatePlaying}, transitions)
	assert.Equal(t, 10, stats)
	assert.Equal(t, 10, ts.presenter.renders)
	assert.True(t, ts.sched.Pending())

	err := ts.Start()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSession_FirstFrameAndDeltaClamp(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())

	ts.fire(time.Hour)
	assert.Zero(t, ts.Score().State().SurvivalTime, "first frame runs with dt = 0")

	ts.fire(5 * time.Second)
	assert.InDelta(t, config.MaxFrameDelta, ts.Score().State().SurvivalTime, 1e-9)
}

func TestSession_DrivingAccumulatesScore(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())
	ts.SetInput(InputState{Keys: ActionAccelerate})

	for i := 0; i < 30; i++ {
		ts.fire(16 * time.Millisecond)
	}

	st := ts.Stats()
	assert.Positive(t, st.Speed)
	assert.Positive(t, st.Distance)
	assert.Positive(t, st.Score)
	assert.Equal(t, 3, st.Lives)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, ts.Car().Position().Add(cameraOffset), ts.presenter.camera.position)
}

func TestSession_PauseStopsScheduling(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())
	ts.fire(16 * time.Millisecond)

	require.NoError(t, ts.TogglePause())
	assert.Equal(t, StatePaused, ts.State())
	assert.False(t, ts.sched.Pending())

	before := ts.Score().State()
	ts.Frame(ts.now.Add(time.Second))
	assert.Equal(t, before, ts.Score().State())

	require.NoError(t, ts.TogglePause())
	assert.Equal(t, StatePlaying, ts.State())
	assert.True(t, ts.sched.Pending())

	// resume frame does not see the paused interval
	ts.fire(10 * time.Second)
	assert.Equal(t, before.SurvivalTime, ts.Score().State().SurvivalTime)
}

func TestSession_PauseKeyEdge(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())

	ts.SetInput(InputState{Keys: ActionPause})
	assert.Equal(t, StatePaused, ts.State())

	ts.SetInput(InputState{Keys: ActionPause | ActionAccelerate})
	assert.Equal(t, StatePaused, ts.State(), "held key does not toggle again")

	ts.SetInput(InputState{})
	ts.SetInput(InputState{Keys: ActionPause})
	assert.Equal(t, StatePlaying, ts.State())
}

func TestSession_FocusLost(t *testing.T) {
	ts := newTestSession(t, 3)

	ts.FocusLost()
	assert.Equal(t, StateMenu, ts.State())

	require.NoError(t, ts.Start())
	ts.FocusLost()
	assert.Equal(t, StatePaused, ts.State())
	assert.False(t, ts.sched.Pending())
}

func TestSession_CollisionCostsLife(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())
	ts.fire(16 * time.Millisecond)

	ts.blockCar()
	ts.fire(16 * time.Millisecond)

	assert.Equal(t, 2, ts.Score().Lives())
	assert.Equal(t, StatePlaying, ts.State())
	assert.True(t, ts.sched.Pending())
	for _, v := range ts.Obstacles().ActiveObstacles() {
		assert.NotEqual(t, uint64(1<<40), v.PatternID, "hit obstacle is removed")
	}
}

// placeBehind puts an obstacle of the given pattern just behind the car's
// rear edge, off to the side of the car
func (ts *testSession) placeBehind(t *testing.T, kind ObstacleKind, class ScoreClass, pattern uint64, scoring bool) *Obstacle {
	t.Helper()
	rear := ts.car.BoundingVolume().Min.Z()
	pos := mgl64.Vec3{config.RoadWidth / 3, 0, rear - 8}
	o := ts.obstacles.place(kind, class, pattern, pos, defaultSize(kind))
	require.NotNil(t, o)
	o.Scoring = scoring
	return o
}

func TestSession_CleanPassAwardsPattern(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())
	ts.fire(0)
	before := ts.Score().State()
	require.Zero(t, before.ObstaclesAvoided)

	ts.placeBehind(t, KindWall, ClassWall, 1<<41, true)
	ts.Step(0)

	st := ts.Score().State()
	assert.Equal(t, 1, st.ObstaclesAvoided)
	assert.Equal(t, 1, st.Combo)
	assert.InDelta(t, config.AvoidanceBasePoints*ClassWall.Multiplier(), st.Score-before.Score, 1e-9)

	// reported once
	ts.Step(0)
	assert.Equal(t, 1, ts.Score().State().ObstaclesAvoided)

	// a second pattern inside the window extends the combo
	ts.placeBehind(t, KindBarrier, ClassNarrowPassage, 1<<42, true)
	ts.Step(0)

	next := ts.Score().State()
	assert.Equal(t, 2, next.ObstaclesAvoided)
	assert.Equal(t, 2, next.Combo)
	want := config.AvoidanceBasePoints*ClassNarrowPassage.Multiplier() + 2*config.ComboUnitBonus
	assert.InDelta(t, want, next.Score-st.Score, 1e-9)
}

func TestSession_HitPatternIsNotAwarded(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())
	ts.fire(0)

	const pattern = 1 << 43
	ts.placeBehind(t, KindWall, ClassWall, pattern, true)
	ts.obstacles.place(KindBarrier, ClassWall, pattern, ts.car.Position(), defaultSize(KindBarrier))
	ts.Step(0)

	st := ts.Score().State()
	assert.Equal(t, 2, st.Lives)
	assert.Zero(t, st.ObstaclesAvoided)
	assert.Zero(t, st.Combo)

	ts.Step(0)
	assert.Zero(t, ts.Score().State().ObstaclesAvoided, "forfeited pattern stays unscored")
}

func TestSession_LastLifeEndsGameSameTick(t *testing.T) {
	ts := newTestSession(t, 1)

	var final []FinalStats
	ts.OnGameOver(func(f FinalStats) { final = append(final, f) })
	var lastStats Stats
	ts.OnStats(func(s Stats) { lastStats = s })

	require.NoError(t, ts.Start())
	for i := 0; i < 20; i++ {
		ts.fire(100 * time.Millisecond)
	}
	require.Equal(t, StatePlaying, ts.State())

	ts.blockCar()
	ts.fire(100 * time.Millisecond)

	assert.Equal(t, StateGameOver, ts.State())
	assert.False(t, ts.sched.Pending())
	assert.Zero(t, lastStats.Lives)

	require.Len(t, final, 1)
	assert.Positive(t, final[0].FinalScore)
	assert.True(t, final[0].NewRecord)
	assert.Equal(t, final[0].FinalScore, final[0].HighScore)
	assert.Equal(t, float64(final[0].FinalScore), ts.store.values[config.HighScoreKey])

	// frames after game over are ignored
	assert.False(t, ts.fire(time.Second))
	ts.Frame(ts.now)
	assert.Len(t, final, 1)
}

func TestSession_RestartReproducesRoad(t *testing.T) {
	ts := newTestSession(t, 1)
	require.NoError(t, ts.Start())
	initial := snapshot(ts.Obstacles())

	ts.SetInput(InputState{Keys: ActionAccelerate})
	for i := 0; i < 30; i++ {
		ts.fire(50 * time.Millisecond)
	}
	ts.blockCar()
	ts.fire(50 * time.Millisecond)
	require.Equal(t, StateGameOver, ts.State())

	require.NoError(t, ts.Restart())
	assert.Equal(t, StatePlaying, ts.State())
	assert.Equal(t, initial, snapshot(ts.Obstacles()))
	assert.Equal(t, Telemetry{}, ts.Car().Telemetry())
	assert.Equal(t, 1, ts.Score().Lives())
	assert.Positive(t, ts.Score().State().HighScore)

	require.NoError(t, ts.TogglePause())
	assert.Error(t, ts.Restart())
}

func TestSession_ToMenu(t *testing.T) {
	ts := newTestSession(t, 1)
	assert.Error(t, ts.ToMenu())

	require.NoError(t, ts.Start())
	ts.fire(0)
	ts.blockCar()
	ts.fire(16 * time.Millisecond)
	require.Equal(t, StateGameOver, ts.State())

	require.NoError(t, ts.ToMenu())
	assert.Equal(t, StateMenu, ts.State())
	require.NoError(t, ts.Start())
}

func TestSession_SettingsOverlay(t *testing.T) {
	t.Run("from menu", func(t *testing.T) {
		ts := newTestSession(t, 3)
		require.NoError(t, ts.OpenSettings())
		assert.Equal(t, StateSettings, ts.State())
		assert.Error(t, ts.OpenSettings())

		require.NoError(t, ts.CloseSettings())
		assert.Equal(t, StateMenu, ts.State())
		assert.False(t, ts.sched.Pending())
	})

	t.Run("from playing", func(t *testing.T) {
		ts := newTestSession(t, 3)
		require.NoError(t, ts.Start())
		ts.fire(16 * time.Millisecond)
		before := ts.Score().State()

		require.NoError(t, ts.OpenSettings())
		assert.False(t, ts.sched.Pending())
		ts.Frame(ts.now.Add(time.Second))
		assert.Equal(t, before, ts.Score().State())

		require.NoError(t, ts.CloseSettings())
		assert.Equal(t, StatePlaying, ts.State())
		assert.True(t, ts.sched.Pending())
	})

	t.Run("close without open", func(t *testing.T) {
		ts := newTestSession(t, 3)
		assert.True(t, errors.Is(ts.CloseSettings(), ErrInvalidTransition))
	})
}

func TestSession_ApplySettings(t *testing.T) {
	ts := newTestSession(t, 3)

	ts.ApplySettings(config.Settings{Sensitivity: 10, Lives: 20, Seed: 42})
	require.NoError(t, ts.Start())

	assert.Equal(t, config.MaxLives, ts.Score().Lives())
	assert.Equal(t, config.MaxSensitivity, ts.Car().sensitivity)
}

func TestSession_NoShakeWhenDisabled(t *testing.T) {
	ts := newTestSession(t, 3)
	ts.ApplySettings(config.Settings{Sensitivity: 1, Lives: 3, Seed: 42, ShakeEnabled: false})
	require.NoError(t, ts.Start())
	ts.fire(0)

	ts.blockCar()
	ts.fire(16 * time.Millisecond)

	assert.Equal(t, 2, ts.Score().Lives())
	assert.False(t, ts.shake.Active())
}

func TestSession_FrameObservers(t *testing.T) {
	ts := newTestSession(t, 3)
	var views []FrameView
	ts.OnFrame(func(v FrameView) {
		v.Obstacles = append([]ObstacleView(nil), v.Obstacles...)
		views = append(views, v)
	})

	require.NoError(t, ts.Start())
	ts.fire(0)
	ts.fire(16 * time.Millisecond)

	require.Len(t, views, 2)
	assert.Equal(t, uint64(2), views[1].Tick)
	assert.Len(t, views[1].Obstacles, ts.Obstacles().ActiveCount())
}

func TestSession_Dispose(t *testing.T) {
	ts := newTestSession(t, 3)
	require.NoError(t, ts.Start())

	ts.Dispose()
	ts.Dispose()

	assert.True(t, ts.Disposed())
	assert.False(t, ts.sched.Pending())
	assert.True(t, ts.presenter.released)
	assert.Zero(t, ts.presenter.visibleObstacles())

	ts.Frame(ts.now.Add(time.Second))
	assert.Zero(t, ts.Score().State().SurvivalTime)
}
