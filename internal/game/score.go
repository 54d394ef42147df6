package game

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
)

// HighScoreStore persists the best final score
type HighScoreStore interface {
	Get(ctx context.Context, key string) (float64, error)
	Set(ctx context.Context, key string, value float64) error
}

// ScoreState is the running tally of one game
type ScoreState struct {
	Score            float64
	Distance         float64
	Lives            int
	Combo            int
	ComboTimer       float64 // seconds left before the combo lapses
	MaxCombo         int
	SurvivalTime     float64
	HighScore        float64
	ObstaclesAvoided int
}

// Milestones flags thresholds crossed on this tick
type Milestones struct {
	Distance bool
	Combo    bool
	Time     bool
}

// Any reports whether any milestone fired
func (m Milestones) Any() bool {
	return m.Distance || m.Combo || m.Time
}

// ScoreManager converts telemetry and avoidance events into score.
//
// All timing uses the simulation clock advanced by Update, so the combo
// window freezes while the game is paused.
type ScoreManager struct {
	log          zerolog.Logger
	store        HighScoreStore
	initialLives int

	state      ScoreState
	clock      float64
	lastAward  float64
	comboEvent bool // an award landed on a combo step since the last Update
}

// NewScoreManager creates a manager; store may be nil (in-memory high score)
func NewScoreManager(log zerolog.Logger, store HighScoreStore, lives int) *ScoreManager {
	sm := &ScoreManager{
		log:          log.With().Str("component", "score").Logger(),
		store:        store,
		initialLives: lives,
	}
	sm.Reset()
	return sm
}

// Reset starts a new tally, keeping the known high score
func (sm *ScoreManager) Reset() {
	hs := sm.state.HighScore
	sm.state = ScoreState{
		Lives:     sm.initialLives,
		HighScore: hs,
	}
	sm.clock = 0
	sm.lastAward = 0
	sm.comboEvent = false
}

// SetInitialLives changes the lives granted by the next Reset
func (sm *ScoreManager) SetInitialLives(lives int) {
	sm.initialLives = lives
}

// Update accrues the continuous score components for dt seconds
func (sm *ScoreManager) Update(dt, speed float64) {
	sm.comboEvent = false
	if dt <= 0 {
		return
	}
	s := &sm.state

	sm.clock += dt
	s.SurvivalTime += dt

	if speed > 0 {
		d := speed * dt
		s.Distance += d
		s.Score += d * config.DistancePointsPerUnit
	}
	if speed > config.SpeedBonusThreshold {
		s.Score += (speed - config.SpeedBonusThreshold) * config.SpeedBonusRate * dt
	}
	s.Score += config.SurvivalPointsPerSecond * dt

	// the window is inclusive: a gap of exactly ComboWindow keeps the combo
	if s.Combo > 0 {
		gap := sm.clock - sm.lastAward
		s.ComboTimer = math.Max(config.ComboWindow-gap, 0)
		if gap > config.ComboWindow {
			s.Combo = 0
		}
	}
}

// AwardObstacleAvoidance grants the reward for clearing an obstacle and
// returns it. While a combo is live, awards within ComboWindow of the
// previous one extend it and add combo*ComboUnitBonus; otherwise the combo
// restarts at 1.
func (sm *ScoreManager) AwardObstacleAvoidance(class ScoreClass, difficulty float64) float64 {
	s := &sm.state
	reward := config.AvoidanceBasePoints * class.Multiplier() * difficulty

	if s.Combo > 0 && sm.clock-sm.lastAward <= config.ComboWindow {
		s.Combo++
		reward += float64(s.Combo) * config.ComboUnitBonus
	} else {
		s.Combo = 1
	}
	if s.Combo > s.MaxCombo {
		s.MaxCombo = s.Combo
	}
	if s.Combo%config.MilestoneComboStep == 0 {
		sm.comboEvent = true
	}

	s.ComboTimer = config.ComboWindow
	sm.lastAward = sm.clock

	s.Score += reward
	s.ObstaclesAvoided++
	return reward
}

// LoseLife removes a life, zeroes the combo and returns the lives left
func (sm *ScoreManager) LoseLife() int {
	s := &sm.state
	if s.Lives > 0 {
		s.Lives--
	}
	s.Combo = 0
	s.ComboTimer = 0
	return s.Lives
}

// CalculateFinalScore adds the end-of-game bonuses to the running score
func (sm *ScoreManager) CalculateFinalScore() int64 {
	s := sm.state
	return FinalScore(s.Score, s.SurvivalTime, s.Distance, s.MaxCombo)
}

// FinalScore is non-decreasing in each argument
func FinalScore(score, survival, distance float64, maxCombo int) int64 {
	total := int64(math.Floor(score))
	total += int64(math.Floor(survival)) * config.FinalSurvivalBonus
	total += int64(math.Floor(distance/config.DistanceMilestone)) * config.DistanceMilestoneBonus
	total += int64(maxCombo) * config.MaxComboBonus
	return total
}

// LoadHighScore refreshes the cached high score from the store
func (sm *ScoreManager) LoadHighScore(ctx context.Context) error {
	if sm.store == nil {
		return nil
	}
	hs, err := sm.store.Get(ctx, config.HighScoreKey)
	if err != nil {
		return fmt.Errorf("loading high score: %w", err)
	}
	sm.state.HighScore = hs
	return nil
}

// CheckHighScore compares the final score with the stored record and
// persists it when beaten. Reports whether a new record was set.
func (sm *ScoreManager) CheckHighScore(ctx context.Context) (bool, error) {
	final := float64(sm.CalculateFinalScore())

	if err := sm.LoadHighScore(ctx); err != nil {
		return false, err
	}
	if final <= sm.state.HighScore {
		return false, nil
	}

	if sm.store != nil {
		if err := sm.store.Set(ctx, config.HighScoreKey, final); err != nil {
			return false, fmt.Errorf("saving high score: %w", err)
		}
	}
	sm.state.HighScore = final
	sm.log.Info().Float64("highScore", final).Msg("New high score")
	return true, nil
}

// CheckMilestones reports thresholds crossed on this tick. The distance and
// time windows are narrow; a tick that skips over them misses the milestone.
func (sm *ScoreManager) CheckMilestones() Milestones {
	s := sm.state
	var m Milestones

	if s.Distance >= config.DistanceMilestone &&
		math.Mod(s.Distance, config.DistanceMilestone) < config.MilestoneDistanceWindow {
		m.Distance = true
	}
	m.Combo = sm.comboEvent
	if s.SurvivalTime >= config.MilestoneTimeStep &&
		math.Mod(s.SurvivalTime, config.MilestoneTimeStep) < 1.0/config.TargetFrameRate {
		m.Time = true
	}
	return m
}

// State returns a copy of the tally
func (sm *ScoreManager) State() ScoreState {
	return sm.state
}

// Lives returns the remaining lives
func (sm *ScoreManager) Lives() int {
	return sm.state.Lives
}
