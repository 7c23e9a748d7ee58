package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	MinDistance = 350.0
	MaxDistance = 1000.0

	// ZoomEasing is the share of the remaining distance covered each frame.
	ZoomEasing = 0.3
	// IdleSpin is added to Rotation.X every frame, in radians.
	IdleSpin = 0.001

	startDistance = 100000.0
	piHalf        = math.Pi / 2
)

// Vec2 is a pair of angles or screen coordinates.
type Vec2 struct {
	X, Y float64
}

// CameraState is the orbit state the camera is derived from.
type CameraState struct {
	Distance       float64
	DistanceTarget float64
	Rotation       Vec2
	Target         Vec2
}

// CameraRig eases Distance toward DistanceTarget and spins the globe.
type CameraRig struct {
	CameraState

	// ZoomSpeed is applied as a zoom delta every frame.
	ZoomSpeed float64
	// FollowTarget eases Rotation toward Target by this share per frame.
	// Zero leaves Rotation to the idle spin alone.
	FollowTarget float64
}

// NewCameraRig starts far away so the first frames fly in.
func NewCameraRig() *CameraRig {
	return &CameraRig{CameraState: CameraState{
		Distance:       startDistance,
		DistanceTarget: MaxDistance,
		Target:         Vec2{X: math.Pi * 3 / 2, Y: math.Pi / 6.0},
	}}
}

// Zoom moves the distance target closer by delta and clamps it. Deltas that
// are NaN or infinite are ignored.
func (r *CameraRig) Zoom(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	r.DistanceTarget -= delta
	r.DistanceTarget = clamp(r.DistanceTarget, MinDistance, MaxDistance)
}

// Update advances one frame.
func (r *CameraRig) Update() {
	r.Zoom(r.ZoomSpeed)
	r.Rotation.X += IdleSpin
	if r.FollowTarget > 0 {
		r.Rotation.X += (r.Target.X - r.Rotation.X) * r.FollowTarget
		r.Rotation.Y += (r.Target.Y - r.Rotation.Y) * r.FollowTarget
	}
	r.Distance += (r.DistanceTarget - r.Distance) * ZoomEasing
}

// Position is the camera position for the current state. Y follows
// sin(Rotation.Y) directly, unlike the marker placement in Project.
func (r *CameraRig) Position() mgl64.Vec3 {
	phi, theta := r.Rotation.X, r.Rotation.Y
	return mgl64.Vec3{
		r.Distance * math.Sin(phi) * math.Cos(theta),
		r.Distance * math.Sin(theta),
		r.Distance * math.Cos(phi) * math.Cos(theta),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
