package globe

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestSurfaceRadius(t *testing.T) {
	for _, size := range []float64{0, 0.001, 1, 37.5, 75, 100, 1e6} {
		if got := SurfaceRadius(size); got < GlobeRadius {
			t.Errorf("SurfaceRadius(%f) = %f; want >= %f", size, got, GlobeRadius)
		}
	}
	assert.InDelta(t, 150.0, SurfaceRadius(100), 1e-9)
}

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		size     float64
		want     mgl64.Vec3
	}{
		{"equator prime meridian", 0, 0, 0, mgl64.Vec3{-75, 0, 0}},
		{"north pole", 90, 0, 0, mgl64.Vec3{0, 75, 0}},
		{"south pole", -90, 0, 0, mgl64.Vec3{0, -75, 0}},
		{"equator 90E", 0, 90, 0, mgl64.Vec3{0, 0, 75}},
		{"raised", 0, 180, 100, mgl64.Vec3{150, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.lat, tt.lng, tt.size)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.want[i], p.Position[i], 1e-9, "component %d", i)
			}
		})
	}
}

func TestProjectFacesCenter(t *testing.T) {
	for _, ll := range [][2]float64{{0, 0}, {45, 45}, {-30, 120}, {89.9, -10}, {90, 0}, {-90, 0}} {
		p := Project(ll[0], ll[1], 10)
		forward := p.Orientation.Mul4x1(mgl64.Vec4{0, 0, 1, 0}).Vec3()
		toCenter := p.Position.Mul(-1).Normalize()
		assert.InDelta(t, 1.0, forward.Dot(toCenter), 1e-6, "lat=%f lng=%f", ll[0], ll[1])
		assert.InDelta(t, 1.0, p.Orientation.Det(), 1e-6, "orientation must be a rotation")
	}
}

func TestProjectNomadOffset(t *testing.T) {
	got := ProjectNomad(40, -70, 5).Position
	want := Project(40-NomadLatOffset, -70, 5).Position
	assert.True(t, got.ApproxEqualThreshold(want, 1e-9), "got %v want %v", got, want)

	plain := Project(40, -70, 5).Position
	assert.False(t, got.ApproxEqualThreshold(plain, 1e-3))
	assert.InDelta(t, plain.Len(), got.Len(), 1e-9)
}

func TestPlacementMatrix(t *testing.T) {
	p := Project(10, 20, 0)
	origin := mgl64.TransformCoordinate(mgl64.Vec3{}, p.Matrix())
	assert.True(t, origin.ApproxEqualThreshold(p.Position, 1e-9))

	ahead := mgl64.TransformCoordinate(mgl64.Vec3{0, 0, 1}, p.Matrix())
	assert.InDelta(t, GlobeRadius-1, ahead.Len(), 1e-9)
	assert.False(t, math.IsNaN(ahead.X()))
}
