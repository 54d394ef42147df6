package network

// Message types
const (
	// Client -> Server
	MsgTypeInput    uint8 = 0x01
	MsgTypeCommand  uint8 = 0x02
	MsgTypeSettings uint8 = 0x03
	MsgTypePing     uint8 = 0x04

	// Server -> Client
	MsgTypeStats       uint8 = 0x10
	MsgTypeStateChange uint8 = 0x11
	MsgTypeGameOver    uint8 = 0x12
	MsgTypeFrame       uint8 = 0x13
	MsgTypeSessionInfo uint8 = 0x14
	MsgTypePong        uint8 = 0x15
	MsgTypeError       uint8 = 0xFF
)

// Command codes carried by MsgTypeCommand
const (
	CmdStart         uint8 = 1
	CmdTogglePause   uint8 = 2
	CmdRestart       uint8 = 3
	CmdMenu          uint8 = 4
	CmdOpenSettings  uint8 = 5
	CmdCloseSettings uint8 = 6
	CmdFocusLost     uint8 = 7
)

// Key flags (bit field), same layout as game.Action
const (
	KeyAccelerate uint8 = 1 << 0
	KeyBrake      uint8 = 1 << 1
	KeyLeft       uint8 = 1 << 2
	KeyRight      uint8 = 1 << 3
	KeyPause      uint8 = 1 << 4
)

// Input flags
const (
	InputFlagAnalog uint8 = 1 << 0 // steering/throttle carry a touch drag
)

// Obstacle flags in frame records
const (
	ObstacleFlagMoving uint8 = 1 << 0
)

// Settings flags
const (
	SettingsFlagShake uint8 = 1 << 0
)

// Fixed record sizes
const (
	inputSize       = 6
	commandSize     = 2
	settingsSize    = 15
	pingSize        = 9
	statsRecordSize = 32
	statsSize       = 1 + statsRecordSize
	gameOverSize    = 1 + statsRecordSize + 17
	frameHeaderSize = 26
	obstacleSize    = 12
	maxFrameRecords = 255
)

// InputMessage from client (6 bytes)
type InputMessage struct {
	MsgType  uint8
	Sequence uint8
	Keys     uint8
	Steering int8 // -127 to 127 -> -1.0 to 1.0
	Throttle int8 // -127 to 127 -> -1.0 to 1.0
	Flags    uint8
}

// CommandMessage from client (2 bytes)
type CommandMessage struct {
	MsgType uint8
	Code    uint8
}

// SettingsMessage from client (15 bytes)
type SettingsMessage struct {
	MsgType     uint8
	Sensitivity float32
	Lives       uint8
	Flags       uint8
	Seed        int64
}

// StatsData is the 32-byte stats record shared by Stats and GameOver
type StatsData struct {
	Tick             uint32
	Score            int64
	Distance         float32
	Speed            float32
	TimeElapsed      float32
	ObstaclesAvoided uint32
	Combo            uint16
	Lives            uint8
	Level            uint8
}

// GameOverData closes a game
type GameOverData struct {
	Stats      StatsData
	FinalScore int64
	HighScore  int64
	NewRecord  bool
}

// CarData is the car pose in a frame
type CarData struct {
	X       float32
	Z       float32
	Heading float32
	Lean    float32
	Speed   float32
}

// ObstacleData in a frame (12 bytes per obstacle)
type ObstacleData struct {
	ID    uint16
	Kind  uint8
	Flags uint8
	X     int16 // scaled by 100
	Width uint16 // scaled by 100
	Z     float32
}

// FrameData is one scene snapshot
type FrameData struct {
	Tick      uint32
	Car       CarData
	Obstacles []ObstacleData
}

// SessionInfoData greets a new connection
type SessionInfoData struct {
	SessionID string
	State     uint8
	HighScore int64
}

// ErrorMessage to client
type ErrorMessage struct {
	MsgType uint8
	Code    uint8
	Message string
}

// Error codes
const (
	ErrorCodeInvalidMessage uint8 = 1
	ErrorCodeServerFull     uint8 = 2
	ErrorCodeInvalidCommand uint8 = 3
	ErrorCodeServerError    uint8 = 4
)
