// Package globe renders point data as markers on a rotating 3D globe with a
// keyboard-driven nomad marker, drag rotation, wheel zoom and a morph blend
// between data frames.
//
// A Globe is not safe for concurrent use. The host delivers events and steps
// the scheduler from one goroutine, so a handler always completes before the
// next frame reads its changes.
package globe

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Options control a single AddData call.
type Options struct {
	// Format defaults to FormatMagnitude.
	Format Format
	// Animated appends the data as a morph target of the current animated
	// base instead of replacing it.
	Animated bool
	// Name of the morph target. Defaults to morphTarget<N>.
	Name string
}

// Option configures New.
type Option func(*Globe)

// WithColorFunc sets the marker color function. The default is DefaultColor.
func WithColorFunc(fn ColorFunc) Option {
	return func(g *Globe) {
		if fn != nil {
			g.colorFn = fn
		}
	}
}

// WithScheduler replaces the default FrameScheduler.
func WithScheduler(s Scheduler) Option {
	return func(g *Globe) { g.scheduler = s }
}

// WithClock sets the clock used to time frames.
func WithClock(c clockwork.Clock) Option {
	return func(g *Globe) { g.clock = c }
}

// WithFollowTarget makes the camera rotation ease toward the drag target.
func WithFollowTarget(share float64) Option {
	return func(g *Globe) { g.rig.FollowTarget = share }
}

// Globe owns one scene, camera, input state and the point and nomad layers.
type Globe struct {
	surface   Surface
	renderer  Renderer
	scheduler Scheduler
	clock     clockwork.Clock
	colorFn   ColorFunc

	scene  *Scene
	camera *Camera
	rig    *CameraRig
	input  *InputController

	earth      *Object
	atmosphere *Object

	pointTemplate *Geometry
	nomadTemplate *Geometry

	base     *Geometry
	animated bool
	morphID  int
	points   *Object

	nomadGeometry *Geometry
	nomad         *Object

	time     float64
	disposed bool

	// OnFrame, if set, is called after every rendered frame with the time
	// the frame took.
	OnFrame func(elapsed time.Duration)
}

// New builds the scene, sizes the renderer to the surface and starts
// listening for input. The loop does not run until Animate.
func New(surface Surface, renderer Renderer, opts ...Option) *Globe {
	g := &Globe{
		surface:  surface,
		renderer: renderer,
		clock:    clockwork.NewRealClock(),
		colorFn:  DefaultColor,
		scene:    &Scene{},
		rig:      NewCameraRig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.scheduler == nil {
		g.scheduler = NewFrameScheduler(g.clock, 0)
	}

	w, h := surface.Size()
	g.camera = &Camera{FOV: 30, Aspect: float64(w) / float64(h), Near: 1, Far: 10000}
	g.camera.Position = mgl64.Vec3{0, 0, g.rig.Distance}

	sphere := SphereGeometry(GlobeRadius, 40, 30)
	g.earth = NewObject("earth", &Mesh{
		Geometry: sphere,
		Material: Material{Color: color.RGBA{26, 29, 35, 255}, Shading: ShadeRim},
	})
	g.earth.Rotation[1] = math.Pi
	g.scene.Add(g.earth)

	g.atmosphere = NewObject("atmosphere", &Mesh{
		Geometry: sphere,
		Material: Material{Color: color.RGBA{255, 255, 255, 255}, BackSide: true, Additive: true, Shading: ShadeGlow},
	})
	g.atmosphere.Scale = mgl64.Vec3{1.1, 1.1, 1.1}
	g.scene.Add(g.atmosphere)

	g.pointTemplate = BoxGeometry(0.75, 0.75, 1).Translate(0, 0, -0.5)
	g.nomadTemplate = OctahedronGeometry(10).Translate(0, 0, -0.5)

	renderer.SetSize(w, h)
	g.input = newInputController(surface, g.rig, func() *Object { return g.nomad }, renderer.SetSize)
	return g
}

// AddData ingests a flat record slice into the point layer. An unsupported
// format fails before the current data is touched. The result is not drawn
// until CreatePoints.
func (g *Globe) AddData(records []float64, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatMagnitude
	}
	points, err := DecodePoints(records, opts.Format)
	if err != nil {
		return fmt.Errorf("add data: %w", err)
	}

	merger := &Merger{Template: g.pointTemplate, Color: g.colorFn, SizeScale: GlobeRadius}
	if !opts.Animated {
		g.base = merger.Build(points, false)
		g.animated = false
		return nil
	}

	base := g.base
	if base == nil || !g.animated {
		base = merger.Build(points, true)
	}
	frame := merger.Build(points, false)
	if len(frame.Vertices) != len(base.Vertices) {
		return fmt.Errorf("add data: %w: %d instances, base has %d", ErrFrameMismatch, frame.Instances(), base.Instances())
	}

	appending := g.animated && g.base != nil
	id := 0
	if appending {
		id = g.morphID + 1
	}
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("morphTarget%d", id)
	}
	if appending {
		if _, ok := base.MorphDictionary()[name]; ok {
			return fmt.Errorf("add data: %w: %q", ErrDuplicateTarget, name)
		}
	}
	g.morphID = id
	g.base = base.withMorphTarget(MorphTarget{Name: name, Positions: frame.Vertices})
	g.animated = true
	log.Debug().Str("component", "globe").Str("target", name).Int("points", len(points)).Msg("added morph target")
	return nil
}

// ClearData drops ingested data that has not been drawn yet, so the next
// animated AddData starts a new series. The current point layer stays.
func (g *Globe) ClearData() {
	g.base = nil
	g.animated = false
	g.morphID = 0
}

// CreatePoints turns the ingested data into the drawable point layer,
// replacing any previous one. Without ingested points it does nothing.
func (g *Globe) CreatePoints() {
	if g.base.Empty() {
		return
	}
	mesh := &Mesh{Geometry: g.base, Material: Material{Color: White, FaceColors: true}}
	if g.animated {
		mesh.Geometry = padMorphTargets(g.base)
		mesh.MorphInfluences = make([]float64, len(mesh.Geometry.MorphTargets))
	}
	if g.points != nil {
		g.scene.Remove(g.points)
	}
	g.points = NewObject("points", mesh)
	g.scene.Add(g.points)
}

// CreateNomad places the nomad from the first record of records.
func (g *Globe) CreateNomad(records []float64) error {
	if len(records) < 3 {
		return fmt.Errorf("create nomad: %w: need 3 values, got %d", ErrShortRecord, len(records))
	}
	merger := &Merger{
		Template:  g.nomadTemplate,
		Color:     func(float64) color.RGBA { return NomadColor },
		SizeScale: GlobeRadius / 3,
		Place:     ProjectNomad,
	}
	g.nomadGeometry = merger.Build([]DataPoint{{Lat: records[0], Lng: records[1], Magnitude: records[2]}}, false)
	return nil
}

// AddNomad makes the nomad drawable, replacing any previous one. Without a
// CreateNomad call it does nothing.
func (g *Globe) AddNomad() {
	if g.nomadGeometry.Empty() {
		return
	}
	if g.nomad != nil {
		g.scene.Remove(g.nomad)
	}
	g.nomad = NewObject("nomad", &Mesh{
		Geometry: g.nomadGeometry,
		Material: Material{Color: White, FaceColors: true},
	})
	g.scene.Add(g.nomad)
}

// Animate starts the render loop. Calling it again while running does
// nothing.
func (g *Globe) Animate() {
	if g.disposed || g.scheduler.Running() {
		return
	}
	g.scheduler.Start(g.tick)
}

// SetTime blends the point layer's morph targets for t. With no animated
// point layer only the time is recorded.
func (g *Globe) SetTime(t float64) {
	g.time = t
	if g.points == nil || len(g.points.Mesh.MorphInfluences) == 0 {
		return
	}
	blendInfluences(g.points.Mesh.Geometry.MorphDictionary(), g.points.Mesh.MorphInfluences, t)
}

// Time returns the last value passed to SetTime.
func (g *Globe) Time() float64 {
	return g.time
}

// Dispose stops the loop and releases every listener. It is safe to call
// more than once.
func (g *Globe) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	g.scheduler.Stop()
	g.input.release()
	log.Debug().Str("component", "globe").Msg("disposed")
}

func (g *Globe) Scene() *Scene { return g.scene }
func (g *Globe) Camera() *Camera { return g.camera }
func (g *Globe) Renderer() Renderer { return g.renderer }
func (g *Globe) Rig() *CameraRig { return g.rig }
func (g *Globe) Input() *InputController { return g.input }
func (g *Globe) Points() *Object { return g.points }
func (g *Globe) Nomad() *Object { return g.nomad }
func (g *Globe) PendingGeometry() *Geometry { return g.base }
func (g *Globe) NomadGeometry() *Geometry { return g.nomadGeometry }
func (g *Globe) Scheduler() Scheduler { return g.scheduler }
