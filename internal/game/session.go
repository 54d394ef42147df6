// Package game implements the simulation core: car physics, obstacle
// generation, collision detection, scoring and the session state machine.
package game

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// Stats is the snapshot published after every PLAYING tick
type Stats struct {
	Tick             uint64
	Score            int64
	Distance         float64
	Speed            float64
	Lives            int
	Combo            int
	Level            int
	ObstaclesAvoided int
	TimeElapsed      float64
}

// FinalStats is published once at the PLAYING -> GAME_OVER edge
type FinalStats struct {
	Stats
	FinalScore int64
	HighScore  int64
	NewRecord  bool
}

// FrameView is the per-tick scene handed to frame observers. Obstacles is
// reused on the next tick and must not be retained.
type FrameView struct {
	Tick      uint64
	Car       Telemetry
	Camera    mgl64.Vec3
	Obstacles []ObstacleView
}

// Camera rig relative to the car
var cameraOffset = mgl64.Vec3{0, 5, -10}

// Options configures a Session. Zero values are usable: no presenter, no
// persistence, a ManualScheduler and a disabled logger.
type Options struct {
	ID        string
	Settings  config.Settings
	Store     HighScoreStore
	Scheduler FrameScheduler
	Presenter Presenter
	Metrics   *Metrics
	Logger    zerolog.Logger
	Context   context.Context
}

// Session orchestrates one player's game. It owns the subsystems and runs
// them in a fixed order each tick: input, car, obstacles, collisions,
// score, effects, presentation, publish.
//
// A Session is not safe for concurrent use. Every method, including the
// frame callback, must run on the same goroutine (see Loop).
type Session struct {
	ID string

	ctx       context.Context
	log       zerolog.Logger
	settings  config.Settings
	scheduler FrameScheduler
	presenter Presenter
	metrics   *Metrics

	car        *CarController
	obstacles  *ObstacleManager
	collisions *CollisionDetector
	score      *ScoreManager
	shake      *ShakeEffect
	camera     Transform

	state         GameState
	overlayReturn GameState
	input         InputState
	lastFrame     time.Time
	tick          uint64
	passed        []ObstacleView
	lastStats     Stats
	disposed      bool

	statsObservers    []func(Stats)
	stateObservers    []func(from, to GameState)
	gameOverObservers []func(FinalStats)
	frameObservers    []func(FrameView)
}

// NewSession builds all subsystems and leaves the session in MENU
func NewSession(opts Options) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = &ManualScheduler{}
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	settings := opts.Settings.Clamp()

	log := opts.Logger.With().Str("session", opts.ID).Logger()
	seed := resolveSeed(settings.Seed)

	s := &Session{
		ID:         opts.ID,
		ctx:        opts.Context,
		log:        log,
		settings:   settings,
		scheduler:  opts.Scheduler,
		presenter:  opts.Presenter,
		metrics:    opts.Metrics,
		car:        NewCarController(settings.Sensitivity),
		obstacles:  NewObstacleManager(log, seed, opts.Presenter, opts.Metrics),
		collisions: NewCollisionDetector(),
		score:      NewScoreManager(log, opts.Store, settings.Lives),
		shake:      NewShakeEffect(seed),
		camera:     opts.Presenter.Camera(),
		state:      StateMenu,
	}

	s.obstacles.Initialize()
	s.car.AttachMesh(opts.Presenter.VehicleMesh())
	s.car.Reset()
	s.passed = make([]ObstacleView, 0, s.obstacles.Capacity())

	if err := s.score.LoadHighScore(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to load high score")
	}

	return s
}

func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// OnStats registers a tick-rate stats observer
func (s *Session) OnStats(fn func(Stats)) {
	s.statsObservers = append(s.statsObservers, fn)
}

// OnStateChange registers a state transition observer
func (s *Session) OnStateChange(fn func(from, to GameState)) {
	s.stateObservers = append(s.stateObservers, fn)
}

// OnGameOver registers a game-over observer
func (s *Session) OnGameOver(fn func(FinalStats)) {
	s.gameOverObservers = append(s.gameOverObservers, fn)
}

// OnFrame registers a per-tick scene observer
func (s *Session) OnFrame(fn func(FrameView)) {
	s.frameObservers = append(s.frameObservers, fn)
}

// State returns the current state
func (s *Session) State() GameState {
	return s.state
}

// Start begins a game from MENU
func (s *Session) Start() error {
	if s.state != StateMenu {
		return &TransitionError{From: s.state, To: StatePlaying}
	}
	s.resetGame()
	return s.enterPlaying()
}

// Restart begins a fresh game from GAME_OVER or MENU
func (s *Session) Restart() error {
	if s.state != StateGameOver && s.state != StateMenu {
		return &TransitionError{From: s.state, To: StatePlaying}
	}
	s.resetGame()
	return s.enterPlaying()
}

// ToMenu returns to the menu after a game over
func (s *Session) ToMenu() error {
	return s.transition(StateMenu)
}

// TogglePause flips between PLAYING and PAUSED
func (s *Session) TogglePause() error {
	switch s.state {
	case StatePlaying:
		return s.pause()
	case StatePaused:
		return s.enterPlaying()
	default:
		return &TransitionError{From: s.state, To: StatePaused}
	}
}

// FocusLost pauses a running game so the next frame does not see the
// whole unfocused interval as one delta
func (s *Session) FocusLost() {
	if s.state == StatePlaying {
		if err := s.pause(); err != nil {
			s.log.Error().Err(err).Msg("Failed to pause on focus loss")
		}
	}
}

// OpenSettings suspends the current state under the settings overlay
func (s *Session) OpenSettings() error {
	from := s.state
	if err := s.transition(StateSettings); err != nil {
		return err
	}
	s.overlayReturn = from
	s.scheduler.Cancel()
	return nil
}

// CloseSettings returns to the state the overlay suspended
func (s *Session) CloseSettings() error {
	if s.state != StateSettings {
		return &TransitionError{From: s.state, To: s.overlayReturn}
	}
	to := s.overlayReturn
	from := s.state
	s.state = to
	s.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("State changed")
	s.notifyState(from, to)

	if to == StatePlaying {
		s.lastFrame = time.Time{}
		s.scheduler.Request(s.Frame)
	}
	return nil
}

// ApplySettings takes pre-clamped settings. Sensitivity applies at once;
// lives and seed apply from the next game.
func (s *Session) ApplySettings(settings config.Settings) {
	s.settings = settings.Clamp()
	s.car.SetSensitivity(s.settings.Sensitivity)
	s.score.SetInitialLives(s.settings.Lives)
	if !s.settings.ShakeEnabled {
		s.shake.Stop()
	}
}

// SetInput records the live key map and drag vector. A fresh press of
// the pause key toggles pause.
func (s *Session) SetInput(in InputState) {
	pauseEdge := in.Pressed(ActionPause) && !s.input.Pressed(ActionPause)
	s.input = in
	if pauseEdge && (s.state == StatePlaying || s.state == StatePaused) {
		if err := s.TogglePause(); err != nil {
			s.log.Error().Err(err).Msg("Pause toggle failed")
		}
	}
}

// Frame is the display-refresh callback. It derives dt from the callback
// clock, clamps it, runs one tick and re-arms itself while still playing.
func (s *Session) Frame(now time.Time) {
	if s.state != StatePlaying || s.disposed {
		return
	}

	dt := 0.0
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame).Seconds()
	}
	s.lastFrame = now
	dt = vmath.Clamp(dt, 0, config.MaxFrameDelta)

	s.Step(dt)

	if s.state == StatePlaying {
		s.scheduler.Request(s.Frame)
	}
}

// Step runs one PLAYING tick of dt seconds
func (s *Session) Step(dt float64) {
	if s.state != StatePlaying {
		return
	}
	s.tick++
	s.metrics.tick()

	// input -> physics
	s.car.HandleInput(s.input)
	s.car.Update(dt)

	// obstacles
	carPos := s.car.Position()
	s.obstacles.Update(dt, carPos)

	// collisions
	carBounds := s.car.BoundingVolume()
	hit := s.collisions.CheckCollisions(carBounds, s.obstacles.ActiveObstacles())
	if hit.Hit {
		s.handleCollision(hit)
	}

	// score
	s.score.Update(dt, s.car.Speed())
	s.awardPassed(s.car.BoundingVolume().Min.Z())
	if m := s.score.CheckMilestones(); m.Any() {
		s.log.Debug().
			Bool("distance", m.Distance).
			Bool("combo", m.Combo).
			Bool("time", m.Time).
			Msg("Milestone reached")
	}

	// effects and presentation
	shakeOffset := s.shake.Update(dt)
	camPos := s.car.Position().Add(cameraOffset).Add(shakeOffset)
	s.camera.SetPosition(camPos)
	s.presenter.Render()

	s.publish(camPos)

	if s.score.Lives() <= 0 {
		s.gameOver()
	}
}

func (s *Session) handleCollision(hit CollisionResult) {
	lives := s.score.LoseLife()
	s.car.ApplyCollisionImpulse()
	s.obstacles.Remove(hit.Obstacle.ID)
	s.obstacles.ForfeitPattern(hit.Obstacle.PatternID)
	if s.settings.ShakeEnabled {
		s.shake.Start(config.ShakeIntensity, config.ShakeDuration)
	}
	s.metrics.collision(hit.Obstacle.Kind)

	s.log.Debug().
		Int("obstacle", hit.Obstacle.ID).
		Str("kind", hit.Obstacle.Kind.String()).
		Int("lives", lives).
		Msg("Collision")
}

// awardPassed scores every pattern whose scoring obstacle is now behind
// the car's rear edge without any of its obstacles having been hit
func (s *Session) awardPassed(rearZ float64) {
	s.passed = s.obstacles.CollectPassed(rearZ, s.passed[:0])
	difficulty := s.obstacles.Difficulty()
	for _, o := range s.passed {
		s.score.AwardObstacleAvoidance(o.Class, difficulty)
		s.metrics.avoidedObstacle(o.Class)
	}
}

// Stats returns the latest snapshot
func (s *Session) Stats() Stats {
	st := s.score.State()
	return Stats{
		Tick:             s.tick,
		Score:            int64(st.Score),
		Distance:         st.Distance,
		Speed:            s.car.Speed(),
		Lives:            st.Lives,
		Combo:            st.Combo,
		Level:            int(s.obstacles.Difficulty()),
		ObstaclesAvoided: st.ObstaclesAvoided,
		TimeElapsed:      st.SurvivalTime,
	}
}

func (s *Session) publish(camPos mgl64.Vec3) {
	s.lastStats = s.Stats()
	for _, fn := range s.statsObservers {
		fn(s.lastStats)
	}

	if len(s.frameObservers) == 0 {
		return
	}
	view := FrameView{
		Tick:      s.tick,
		Car:       s.car.Telemetry(),
		Camera:    camPos,
		Obstacles: s.obstacles.ActiveObstacles(),
	}
	for _, fn := range s.frameObservers {
		fn(view)
	}
}

func (s *Session) gameOver() {
	final := FinalStats{
		Stats:      s.Stats(),
		FinalScore: s.score.CalculateFinalScore(),
	}

	newRecord, err := s.score.CheckHighScore(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to check high score")
	}
	final.NewRecord = newRecord
	final.HighScore = int64(s.score.State().HighScore)

	if err := s.transition(StateGameOver); err != nil {
		s.log.Error().Err(err).Msg("Game over transition rejected")
		return
	}
	s.scheduler.Cancel()

	s.log.Info().
		Int64("finalScore", final.FinalScore).
		Float64("distance", final.Distance).
		Float64("time", final.TimeElapsed).
		Bool("newRecord", final.NewRecord).
		Msg("Game over")

	for _, fn := range s.gameOverObservers {
		fn(final)
	}
}

func (s *Session) pause() error {
	if err := s.transition(StatePaused); err != nil {
		return err
	}
	s.scheduler.Cancel()
	return nil
}

// enterPlaying transitions to PLAYING and arms the first frame. The first
// frame after (re)entry runs with dt = 0.
func (s *Session) enterPlaying() error {
	if err := s.transition(StatePlaying); err != nil {
		return err
	}
	s.lastFrame = time.Time{}
	s.scheduler.Request(s.Frame)
	return nil
}

func (s *Session) resetGame() {
	if s.settings.Seed == 0 {
		s.obstacles.SetSeed(time.Now().UnixNano())
	} else {
		s.obstacles.SetSeed(s.settings.Seed)
	}
	s.obstacles.Reset()
	s.car.Reset()
	s.score.SetInitialLives(s.settings.Lives)
	s.score.Reset()
	s.shake.Stop()
	s.input = InputState{}
	s.tick = 0

	if err := s.score.LoadHighScore(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to load high score")
	}
}

func (s *Session) transition(to GameState) error {
	from := s.state
	if !canTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	s.state = to
	s.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("State changed")
	s.notifyState(from, to)
	return nil
}

func (s *Session) notifyState(from, to GameState) {
	for _, fn := range s.stateObservers {
		fn(from, to)
	}
}

// Car exposes read-only accessors of the vehicle
func (s *Session) Car() *CarController {
	return s.car
}

// Obstacles exposes the obstacle manager
func (s *Session) Obstacles() *ObstacleManager {
	return s.obstacles
}

// Score exposes the score manager
func (s *Session) Score() *ScoreManager {
	return s.score
}

// Dispose cancels any armed frame and releases pooled resources
func (s *Session) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.scheduler.Cancel()
	s.obstacles.Dispose()
	s.presenter.Release()
	s.statsObservers = nil
	s.stateObservers = nil
	s.gameOverObservers = nil
	s.frameObservers = nil
	s.log.Debug().Msg("Session disposed")
}

// Disposed reports whether Dispose has run
func (s *Session) Disposed() bool {
	return s.disposed
}
