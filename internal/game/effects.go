package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/roadrush/internal/vmath"
)

// ShakeEffect is a time-bounded camera shake ticked by the session. The
// amplitude falls linearly to zero over the duration.
type ShakeEffect struct {
	rng       *rand.Rand
	duration  float64
	remaining float64
	intensity float64
}

// NewShakeEffect creates an idle effect
func NewShakeEffect(seed int64) *ShakeEffect {
	return &ShakeEffect{rng: rand.New(rand.NewSource(seed))}
}

// Start (re)starts the shake
func (s *ShakeEffect) Start(intensity, duration float64) {
	if duration <= 0 {
		return
	}
	s.intensity = intensity
	s.duration = duration
	s.remaining = duration
}

// Stop ends the shake immediately
func (s *ShakeEffect) Stop() {
	s.remaining = 0
}

// Active reports whether the shake is still running
func (s *ShakeEffect) Active() bool {
	return s.remaining > 0
}

// Update advances the shake and returns this tick's camera offset
func (s *ShakeEffect) Update(dt float64) mgl64.Vec3 {
	if s.remaining <= 0 {
		return mgl64.Vec3{}
	}
	s.remaining -= dt
	if s.remaining <= 0 {
		s.remaining = 0
		return mgl64.Vec3{}
	}

	amp := s.intensity * (s.remaining / s.duration)
	return mgl64.Vec3{
		vmath.RandRange(s.rng, -amp, amp),
		vmath.RandRange(s.rng, -amp, amp),
		0,
	}
}
