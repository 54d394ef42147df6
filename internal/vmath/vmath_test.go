package vmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLerpSmoothstep(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))

	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, 0.25, InverseLerp(0, 4, 1))
	assert.Equal(t, 0.0, InverseLerp(3, 3, 9))

	assert.Equal(t, 0.0, Smoothstep(0, 1, -2))
	assert.Equal(t, 1.0, Smoothstep(0, 1, 3))
	assert.InDelta(t, 0.5, Smoothstep(0, 1, 0.5), 1e-12)
}

func TestRandRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := RandRange(rng, -2, 3)
		require.GreaterOrEqual(t, v, -2.0)
		require.Less(t, v, 3.0)
	}
	assert.Equal(t, 4.0, RandRange(rng, 4, 4))
}

func TestDistanceAndAngle2D(t *testing.T) {
	assert.Equal(t, 5.0, Distance2D(0, 0, 3, 4))
	assert.InDelta(t, 0, Angle2D(0, 0, 0, 10), 1e-12)
	assert.InDelta(t, math.Pi/2, Angle2D(0, 0, 10, 0), 1e-12)
}

func TestMoveToward(t *testing.T) {
	assert.Equal(t, 1.0, MoveToward(0, 5, 1))
	assert.Equal(t, 5.0, MoveToward(4.5, 5, 1))
	assert.Equal(t, -1.0, MoveToward(0, -5, 1))
}

func TestSmoothDamp_ConvergesWithoutOvershoot(t *testing.T) {
	v := 0.0
	x := 0.0
	for i := 0; i < 600; i++ {
		x = SmoothDamp(x, 1, &v, 0.2, math.Inf(1), 1.0/60)
		require.LessOrEqual(t, x, 1.0)
	}
	assert.InDelta(t, 1.0, x, 1e-3)

	v = 0
	assert.Equal(t, 3.0, SmoothDamp(3, 10, &v, 0.2, 100, 0))
}

func TestReflect(t *testing.T) {
	got := Reflect(mgl64.Vec3{1, 0, -1}, mgl64.Vec3{0, 0, 1})
	assert.True(t, got.ApproxEqual(mgl64.Vec3{1, 0, 1}))
}

func TestHeadingDir(t *testing.T) {
	assert.True(t, HeadingDir(0).ApproxEqual(AxisZ))
	assert.True(t, HeadingDir(math.Pi/2).ApproxEqualThreshold(AxisX, 1e-9))
}

func TestAABB(t *testing.T) {
	a := FromCenterSize(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{2, 2, 4})
	assert.True(t, a.Center().ApproxEqual(mgl64.Vec3{0, 1, 0}))
	assert.Equal(t, 4.0, a.MaxDimension())

	b := a.Translate(mgl64.Vec3{1.5, 0, 0})
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(a.Translate(mgl64.Vec3{3, 0, 0})))

	inner := FromCenterSize(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 1})
	assert.True(t, a.Contains(inner))
	assert.False(t, inner.Contains(a))
	assert.True(t, inner.Expand(0.5).Size().ApproxEqual(mgl64.Vec3{2, 2, 2}))
}

func TestRayIntersectAABB(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, 0, 4}, Max: mgl64.Vec3{1, 2, 6}}

	tests := []struct {
		name   string
		ray    Ray
		hit    bool
		dist   float64
		normal mgl64.Vec3
	}{
		{"forward hit", Ray{mgl64.Vec3{0, 1, 0}, AxisZ}, true, 4, mgl64.Vec3{0, 0, -1}},
		{"miss sideways", Ray{mgl64.Vec3{3, 1, 0}, AxisZ}, false, 0, mgl64.Vec3{}},
		{"behind", Ray{mgl64.Vec3{0, 1, 10}, AxisZ}, false, 0, mgl64.Vec3{}},
		{"from side", Ray{mgl64.Vec3{-5, 1, 5}, AxisX}, true, 4, mgl64.Vec3{-1, 0, 0}},
		{"inside", Ray{mgl64.Vec3{0, 1, 5}, AxisX}, true, 0, mgl64.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, n, ok := tt.ray.IntersectAABB(box)
			require.Equal(t, tt.hit, ok)
			if ok {
				assert.InDelta(t, tt.dist, d, 1e-9)
				assert.True(t, n.ApproxEqual(tt.normal), "normal %v", n)
			}
		})
	}
}

func TestRayIntersectCone(t *testing.T) {
	cone := Cone{Base: mgl64.Vec3{0, 0, 10}, Radius: 1, Height: 2}

	// horizontal ray at half height sees a radius of 0.5
	d, n, ok := Ray{mgl64.Vec3{0, 1, 0}, AxisZ}.IntersectCone(cone)
	require.True(t, ok)
	assert.InDelta(t, 9.5, d, 1e-9)
	assert.Less(t, n.Z(), 0.0)
	assert.Greater(t, n.Y(), 0.0)

	// above the apex misses
	_, _, ok = Ray{mgl64.Vec3{0, 2.5, 0}, AxisZ}.IntersectCone(cone)
	assert.False(t, ok)

	// passes beside the narrow top but would hit a box of the same footprint
	_, _, ok = Ray{mgl64.Vec3{0.8, 1.5, 0}, AxisZ}.IntersectCone(cone)
	assert.False(t, ok)

	// straight down onto the slope
	d, _, ok = Ray{mgl64.Vec3{0.5, 5, 10}, AxisY.Mul(-1)}.IntersectCone(cone)
	require.True(t, ok)
	assert.InDelta(t, 4, d, 1e-9)

	// up into the base disk
	d, n, ok = Ray{mgl64.Vec3{0.2, -3, 10}, AxisY}.IntersectCone(cone)
	require.True(t, ok)
	assert.InDelta(t, 3, d, 1e-9)
	assert.True(t, n.ApproxEqual(mgl64.Vec3{0, -1, 0}))

	// inside
	d, _, ok = Ray{mgl64.Vec3{0, 0.5, 10}, AxisX}.IntersectCone(cone)
	require.True(t, ok)
	assert.Equal(t, 0.0, d)
}
