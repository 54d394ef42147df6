package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestShakeEffect(t *testing.T) {
	s := NewShakeEffect(1)
	assert.False(t, s.Active())
	assert.Equal(t, mgl64.Vec3{}, s.Update(0.1))

	s.Start(0.4, 0.3)
	assert.True(t, s.Active())

	off := s.Update(0.1)
	amp := 0.4 * (0.2 / 0.3)
	assert.LessOrEqual(t, math.Abs(off.X()), amp+1e-9)
	assert.LessOrEqual(t, math.Abs(off.Y()), amp+1e-9)
	assert.Zero(t, off.Z())

	assert.Equal(t, mgl64.Vec3{}, s.Update(0.3))
	assert.False(t, s.Active())
}

func TestShakeEffect_StopAndZeroDuration(t *testing.T) {
	s := NewShakeEffect(1)

	s.Start(1, 0)
	assert.False(t, s.Active())

	s.Start(1, 1)
	s.Stop()
	assert.False(t, s.Active())
	assert.Equal(t, mgl64.Vec3{}, s.Update(0.1))
}
