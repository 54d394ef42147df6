package sessions

import (
	"math"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/game"
	"github.com/race/roadrush/internal/network"
)

// InputFromMessage maps a wire input onto the game's control intent. The
// analog axes only count when the client flags them.
func InputFromMessage(msg *network.InputMessage) game.InputState {
	in := game.InputState{Keys: game.Action(msg.Keys)}
	if msg.Flags&network.InputFlagAnalog != 0 {
		in.DragX, in.DragY = network.DecodeSteeringThrottle(msg.Steering, msg.Throttle)
	}
	return in
}

// SettingsFromMessage converts and clamps client settings
func SettingsFromMessage(msg *network.SettingsMessage) config.Settings {
	return config.Settings{
		Sensitivity:  float64(msg.Sensitivity),
		Lives:        int(msg.Lives),
		Seed:         msg.Seed,
		ShakeEnabled: msg.Flags&network.SettingsFlagShake != 0,
	}.Clamp()
}

// StatsData converts a stats snapshot to its wire record
func StatsData(s game.Stats) network.StatsData {
	return network.StatsData{
		Tick:             uint32(s.Tick),
		Score:            s.Score,
		Distance:         float32(s.Distance),
		Speed:            float32(s.Speed),
		TimeElapsed:      float32(s.TimeElapsed),
		ObstaclesAvoided: uint32(s.ObstaclesAvoided),
		Combo:            uint16(min(s.Combo, math.MaxUint16)),
		Lives:            uint8(min(max(s.Lives, 0), math.MaxUint8)),
		Level:            uint8(min(max(s.Level, 0), math.MaxUint8)),
	}
}

// GameOverData converts the final summary to its wire record
func GameOverData(f game.FinalStats) network.GameOverData {
	return network.GameOverData{
		Stats:      StatsData(f.Stats),
		FinalScore: f.FinalScore,
		HighScore:  f.HighScore,
		NewRecord:  f.NewRecord,
	}
}

// FrameData converts a scene snapshot to its wire record
func FrameData(v game.FrameView) network.FrameData {
	f := network.FrameData{
		Tick: uint32(v.Tick),
		Car: network.CarData{
			X:       float32(v.Car.Position.X()),
			Z:       float32(v.Car.Position.Z()),
			Heading: float32(v.Car.Heading),
			Lean:    float32(v.Car.Lean),
			Speed:   float32(v.Car.Speed),
		},
		Obstacles: make([]network.ObstacleData, 0, len(v.Obstacles)),
	}

	for _, o := range v.Obstacles {
		var flags uint8
		if o.Moving {
			flags |= network.ObstacleFlagMoving
		}
		f.Obstacles = append(f.Obstacles, network.ObstacleData{
			ID:    uint16(o.ID),
			Kind:  uint8(o.Kind),
			Flags: flags,
			X:     network.ScaleCentimetres(o.Position.X()),
			Width: uint16(network.ScaleCentimetres(o.Size.X())),
			Z:     float32(o.Position.Z()),
		})
	}
	return f
}
