package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/vmath"
)

// VehicleState is the kinematic state of the player's car. Y stays on the
// road plane; X is lateral, Z is longitudinal.
type VehicleState struct {
	Position  mgl64.Vec3
	Heading   float64 // radians, 0 faces +Z
	Speed     float64 // signed forward speed
	SteerRate float64 // rad/s applied this tick
	Velocity  mgl64.Vec3
	Lean      float64 // visual banking only
}

// Telemetry is a read-only view for HUD and stats
type Telemetry struct {
	Position  mgl64.Vec3
	Speed     float64
	Heading   float64
	SteerRate float64
	Lean      float64
}

// CarController integrates player input into vehicle motion
type CarController struct {
	vehicle     *VehicleState // nil until Reset
	input       InputState
	sensitivity float64
	leanVel     float64
	mesh        Transform
}

// NewCarController creates a controller with no vehicle yet. Every method is
// safe to call before Reset; mutators are no-ops until then.
func NewCarController(sensitivity float64) *CarController {
	return &CarController{sensitivity: sensitivity}
}

// AttachMesh sets the presentation handle that mirrors the vehicle pose
func (c *CarController) AttachMesh(t Transform) {
	c.mesh = t
	c.syncMesh()
}

// SetSensitivity changes steering sensitivity (pre-clamped by config)
func (c *CarController) SetSensitivity(s float64) {
	c.sensitivity = s
}

// HandleInput records the current control intent
func (c *CarController) HandleInput(in InputState) {
	c.input = in
}

// Reset restores the vehicle to its initial pose at the start line
func (c *CarController) Reset() {
	c.vehicle = &VehicleState{}
	c.input = InputState{}
	c.leanVel = 0
	c.syncMesh()
}

// Update advances vehicle state by dt seconds
func (c *CarController) Update(dt float64) {
	v := c.vehicle
	if v == nil {
		return
	}
	if dt < 0 {
		dt = 0
	}

	throttle, steer := c.input.Controls()

	accForce := 0.0
	if throttle > 0 {
		accForce = config.Acceleration * throttle
	} else if throttle < 0 {
		accForce = config.Braking * throttle
	}

	// Friction only when coasting, never crosses zero
	if accForce == 0 {
		v.Speed = vmath.MoveToward(v.Speed, 0, config.Friction*dt)
	}

	v.Speed += accForce * dt
	v.Speed = vmath.Clamp(v.Speed, config.ReverseSpeedCap, config.MaxSpeed)

	// Steering authority grows with speed
	speedRatio := math.Abs(v.Speed) / config.MaxSpeed
	if math.Abs(steer) > 0.01 && math.Abs(v.Speed) > config.MinSteerSpeed {
		v.SteerRate = steer * config.TurnRate * speedRatio * c.sensitivity
		v.Heading += v.SteerRate * dt
	} else {
		v.SteerRate = 0
		v.Heading = vmath.MoveToward(v.Heading, 0, config.HeadingReturnRate*dt)
	}
	v.Heading = vmath.Clamp(v.Heading, -config.MaxHeading, config.MaxHeading)

	v.Velocity = vmath.HeadingDir(v.Heading).Mul(v.Speed)
	v.Position = v.Position.Add(v.Velocity.Mul(dt))

	lateralVel := v.Velocity.X()
	if c.clampLateral() {
		lateralVel = 0
	}

	leanTarget := vmath.Clamp(-lateralVel*config.LeanFactor, -config.MaxLean, config.MaxLean)
	v.Lean = vmath.SmoothDamp(v.Lean, leanTarget, &c.leanVel, config.LeanSmoothTime, math.Inf(1), dt)

	c.syncMesh()
}

// ApplyCollisionImpulse damps speed and knocks the car back along its heading
func (c *CarController) ApplyCollisionImpulse() {
	v := c.vehicle
	if v == nil {
		return
	}
	v.Speed *= config.ImpulseSpeedFactor
	back := vmath.HeadingDir(v.Heading).Mul(-config.KnockbackDistance)
	v.Position = v.Position.Add(back)
	v.Velocity = vmath.HeadingDir(v.Heading).Mul(v.Speed)
	c.clampLateral()
	c.syncMesh()
}

// clampLateral keeps the car body on the road; reports whether it clamped
func (c *CarController) clampLateral() bool {
	limit := DrivableHalfWidth()
	x := c.vehicle.Position.X()
	clamped := vmath.Clamp(x, -limit, limit)
	c.vehicle.Position[0] = clamped
	return clamped != x
}

// DrivableHalfWidth is how far the car centre may move from the road centre
func DrivableHalfWidth() float64 {
	return config.RoadHalfWidth - config.CarWidth/2
}

// BoundingVolume returns the car's axis-aligned box
func (c *CarController) BoundingVolume() vmath.AABB {
	if c.vehicle == nil {
		return vmath.AABB{}
	}
	center := c.vehicle.Position.Add(mgl64.Vec3{0, config.CarHeight / 2, 0})
	return vmath.FromCenterSize(center, mgl64.Vec3{config.CarWidth, config.CarHeight, config.CarLength})
}

// Position returns the ground point under the car
func (c *CarController) Position() mgl64.Vec3 {
	if c.vehicle == nil {
		return mgl64.Vec3{}
	}
	return c.vehicle.Position
}

// Speed returns signed forward speed
func (c *CarController) Speed() float64 {
	if c.vehicle == nil {
		return 0
	}
	return c.vehicle.Speed
}

// Heading returns the yaw angle in radians
func (c *CarController) Heading() float64 {
	if c.vehicle == nil {
		return 0
	}
	return c.vehicle.Heading
}

// Velocity returns the heading-projected velocity
func (c *CarController) Velocity() mgl64.Vec3 {
	if c.vehicle == nil {
		return mgl64.Vec3{}
	}
	return c.vehicle.Velocity
}

// Lean returns the visual banking angle
func (c *CarController) Lean() float64 {
	if c.vehicle == nil {
		return 0
	}
	return c.vehicle.Lean
}

// Telemetry returns a snapshot of the vehicle
func (c *CarController) Telemetry() Telemetry {
	if c.vehicle == nil {
		return Telemetry{}
	}
	v := c.vehicle
	return Telemetry{
		Position:  v.Position,
		Speed:     v.Speed,
		Heading:   v.Heading,
		SteerRate: v.SteerRate,
		Lean:      v.Lean,
	}
}

// Ready reports whether Reset has created the vehicle
func (c *CarController) Ready() bool {
	return c.vehicle != nil
}

func (c *CarController) syncMesh() {
	if c.mesh == nil || c.vehicle == nil {
		return
	}
	c.mesh.SetPosition(c.vehicle.Position)
	c.mesh.SetRotation(mgl64.Vec3{0, c.vehicle.Heading, c.vehicle.Lean})
}
