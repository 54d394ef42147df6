package game

import (
	"math"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// Action is a logical key binding
type Action uint8

// Key flags (bit field), shared with the wire protocol
const (
	ActionAccelerate Action = 1 << 0
	ActionBrake      Action = 1 << 1
	ActionSteerLeft  Action = 1 << 2
	ActionSteerRight Action = 1 << 3
	ActionPause      Action = 1 << 4
)

// InputState is the live control intent: a pressed/released key map and
// an optional normalized touch-drag vector.
type InputState struct {
	Keys  Action
	DragX float64 // -1.0 (left) to 1.0 (right)
	DragY float64 // -1.0 (brake) to 1.0 (throttle)
}

// Pressed reports whether action is currently held
func (in InputState) Pressed(a Action) bool {
	return in.Keys&a != 0
}

// Controls decodes the input into a throttle in [-1, 1] and a steering
// axis in [-1, 1]. Analog drag overrides keys outside the dead zone.
func (in InputState) Controls() (throttle, steer float64) {
	if in.Pressed(ActionAccelerate) {
		throttle = 1
	}
	if in.Pressed(ActionBrake) {
		throttle = -1
	}
	if in.Pressed(ActionSteerLeft) {
		steer = -1
	}
	if in.Pressed(ActionSteerRight) {
		steer = 1
	}

	if math.Abs(in.DragY) > config.AnalogDeadZone {
		throttle = vmath.Clamp(in.DragY, -1, 1)
	}
	if math.Abs(in.DragX) > config.AnalogDeadZone {
		steer = vmath.Clamp(in.DragX, -1, 1)
	}
	return throttle, steer
}
