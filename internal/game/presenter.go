package game

import "github.com/go-gl/mathgl/mgl64"

// Transform is a handle the presentation layer hands out for one visual
// object. The core only positions it and toggles visibility.
type Transform interface {
	SetPosition(p mgl64.Vec3)
	SetRotation(r mgl64.Vec3) // Euler angles, radians
	SetVisible(v bool)
	Visible() bool
}

// Presenter is the opaque rendering collaborator
type Presenter interface {
	VehicleMesh() Transform
	ObstacleMesh(kind ObstacleKind, slot int) Transform
	Camera() Transform
	Render()
	Release()
}

// nopTransform is used when no presenter is wired (headless sessions)
type nopTransform struct {
	visible bool
}

func (t *nopTransform) SetPosition(mgl64.Vec3) {}
func (t *nopTransform) SetRotation(mgl64.Vec3) {}
func (t *nopTransform) SetVisible(v bool)      { t.visible = v }
func (t *nopTransform) Visible() bool          { return t.visible }

// NopPresenter renders nothing
type NopPresenter struct{}

func (NopPresenter) VehicleMesh() Transform                   { return &nopTransform{} }
func (NopPresenter) ObstacleMesh(ObstacleKind, int) Transform { return &nopTransform{} }
func (NopPresenter) Camera() Transform                        { return &nopTransform{} }
func (NopPresenter) Render()                                  {}
func (NopPresenter) Release()                                 {}
