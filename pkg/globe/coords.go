package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GlobeRadius is the radius of the rendered sphere. Point and camera
// distances are expressed relative to it.
const GlobeRadius = 75.0

// NomadLatOffset is subtracted from the nomad's latitude, in degrees, before
// it is placed. The point layer is placed without it.
const NomadLatOffset = 3.0

var worldUp = mgl64.Vec3{0, 1, 0}

// Placement is a position above the globe together with the rotation that
// turns an object's +Z axis toward the globe center.
type Placement struct {
	Position    mgl64.Vec3
	Orientation mgl64.Mat4
}

// Matrix returns the full model transform: translate after rotate.
func (p Placement) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).Mul4(p.Orientation)
}

// Project places a point-layer marker. size is in percent of GlobeRadius
// above the surface.
func Project(lat, lng, size float64) Placement {
	return place(90-lat, lng, size)
}

// ProjectNomad places the nomad marker. It differs from Project only by
// NomadLatOffset.
func ProjectNomad(lat, lng, size float64) Placement {
	return place(90-lat-NomadLatOffset, lng, size)
}

// SurfaceRadius is the distance from the globe center for a given size.
// It is never below GlobeRadius for size >= 0.
func SurfaceRadius(size float64) float64 {
	return (1 + size/100.0) * GlobeRadius
}

func place(colatitude, lng, size float64) Placement {
	phi := colatitude * math.Pi / 180
	theta := (180 - lng) * math.Pi / 180
	radius := SurfaceRadius(size)

	pos := mgl64.Vec3{
		radius * math.Sin(phi) * math.Cos(theta),
		radius * math.Cos(phi),
		radius * math.Sin(phi) * math.Sin(theta),
	}
	return Placement{Position: pos, Orientation: orientToward(pos, mgl64.Vec3{})}
}

// orientToward builds the rotation that points +Z from eye to target with +Y
// as the up hint. When the forward vector is parallel to up (the poles) it is
// nudged along Z so the basis stays well-formed.
func orientToward(eye, target mgl64.Vec3) mgl64.Mat4 {
	z := target.Sub(eye)
	if z.Len() == 0 {
		z = mgl64.Vec3{0, 0, 1}
	}
	z = z.Normalize()

	x := worldUp.Cross(z)
	if x.Len() == 0 {
		z[2] += 0.0001
		z = z.Normalize()
		x = worldUp.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	return mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
}
