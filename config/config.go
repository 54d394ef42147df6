package config

import "time"

// Game constants - tuned for a 60Hz display-driven tick
const (
	// Road / vehicle dimensions (world units)
	RoadWidth     = 14.0
	RoadHalfWidth = RoadWidth / 2.0
	CarWidth      = 2.0
	CarHeight     = 1.2
	CarLength     = 4.0

	// Timing
	TargetFrameRate   = 60 // Hz
	BroadcastRate     = 20 // Hz
	FrameInterval     = time.Second / TargetFrameRate
	BroadcastInterval = time.Second / BroadcastRate
	MaxFrameDelta     = 0.1 // seconds, cap after stalls or refocus

	// Physics / Gameplay
	MaxSpeed          = 50.0
	ReverseSpeedCap   = -MaxSpeed * 0.2
	Acceleration      = 15.0
	Braking           = 25.0
	Friction          = 5.0
	MinSteerSpeed     = 1.0
	TurnRate          = 1.8 // rad/s at full speed
	MaxHeading        = 0.6 // rad
	HeadingReturnRate = 2.5 // rad/s
	AnalogDeadZone    = 0.1
	MaxLean           = 0.25
	LeanFactor        = 0.04
	LeanSmoothTime    = 0.15

	// Collision response
	ImpulseSpeedFactor = 0.3
	KnockbackDistance  = 2.0
	NarrowPhaseRatio   = 0.6
	Restitution        = 0.5
	LookAheadTime      = 0.5

	// Obstacle generation
	PoolSizePerKind     = 24
	InitialSpawnZ       = 40.0
	SpawnDistance       = 150.0
	DespawnDistance     = 30.0
	MinSpawnSpacing     = 25.0
	MaxSpawnSpacing     = 45.0
	SpawnSpacingFloor   = 10.0
	DifficultyRampTime  = 30.0 // seconds per +1 difficulty
	MaxDifficulty       = 5.0
	DoubleGapMin        = 4.0
	DoubleGapMax        = 7.0
	DoubleCenterRange   = 1.5
	WallGapMin          = 3.5
	WallGapBase         = 9.0
	SlalomBaseCount     = 3
	SlalomMaxCount      = 8
	SlalomOffset        = 3.0
	SlalomSpacing       = 8.0
	PassageWidth        = 3.0
	PassageDepth        = 6.0
	MovingPairOffset    = 2.5
	OscillationRange    = 3.0
	OscillationSpeedMin = 2.0
	OscillationSpeedMax = 4.0

	// Obstacle dimensions
	BarrierWidth  = 2.0
	BarrierHeight = 1.0
	BarrierDepth  = 1.0
	WallHeight    = 2.0
	WallDepth     = 1.0
	ConeRadius    = 0.5
	ConeHeight    = 1.0

	// Scoring
	InitialLives            = 3
	DistancePointsPerUnit   = 1.0
	SpeedBonusThreshold     = 30.0
	SpeedBonusRate          = 0.5
	SurvivalPointsPerSecond = 10.0
	AvoidanceBasePoints     = 100.0
	ComboWindow             = 2.0 // seconds of simulation time
	ComboUnitBonus          = 25.0
	FinalSurvivalBonus      = 10
	DistanceMilestone       = 1000.0
	DistanceMilestoneBonus  = 500
	MaxComboBonus           = 100
	MilestoneDistanceWindow = 5.0
	MilestoneComboStep      = 5
	MilestoneTimeStep       = 30.0
	HighScoreKey            = "roadrush.highscore"

	// Effects
	ShakeDuration  = 0.3
	ShakeIntensity = 0.4

	// Server
	MaxSessionsPerServer = 200
	MaxInputsPerTick     = 3
	SessionIdleTimeout   = 10 * time.Minute
	CleanupInterval      = 30 * time.Second
	StatsLogInterval     = 5 * time.Minute
)

// ServerConfig holds listener and storage settings
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableCORS bool   `mapstructure:"enableCORS"`
	LogLevel   string `mapstructure:"logLevel"`
	Graylog    string `mapstructure:"graylog"` // GELF UDP address, empty disables
	DBDriver   string `mapstructure:"dbDriver"`
	DBDSN      string `mapstructure:"dbDSN"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:       "0.0.0.0",
		Port:       8080,
		EnableCORS: true,
		LogLevel:   "info",
		DBDriver:   "sqlite",
		DBDSN:      "roadrush.db",
	}
}
