// Package render draws a globe scene with Ebiten and hosts it in a window.
package render

import (
	"image"
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

// Background is the clear color behind the globe.
var Background = color.RGBA{8, 10, 15, 255}

var whiteSubImage *ebiten.Image

// white is the source image for untextured triangles.
func white() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// Overlay draws on top of the globe surface and below the markers.
type Overlay interface {
	DrawOverlay(dst *ebiten.Image, pr Projection)
}

// Projection maps world positions to the frame being drawn.
type Projection struct {
	p projector
}

// Project returns the screen position of p. ok is false when p is behind
// the camera or hidden by the globe.
func (pr Projection) Project(p mgl64.Vec3) (x, y float32, ok bool) {
	if occluded(pr.p.eye, p, occluderRadius) {
		return 0, 0, false
	}
	sx, sy, _, vis := pr.p.project(p)
	return float32(sx), float32(sy), vis
}

// Renderer implements globe.Renderer by rasterizing the scene into an
// offscreen frame. The host copies Frame to the screen.
type Renderer struct {
	width, height int
	frame         *ebiten.Image

	Overlays []Overlay
	// OnRender, if set, receives the triangle count and time of each frame.
	OnRender func(triangles int, elapsed time.Duration)

	tris []tri
}

// NewRenderer returns a renderer for a width x height frame.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{}
	r.SetSize(width, height)
	return r
}

// SetSize implements globe.Renderer.
func (r *Renderer) SetSize(width, height int) {
	if width == r.width && height == r.height && r.frame != nil {
		return
	}
	r.width, r.height = width, height
	if r.frame != nil {
		r.frame.Deallocate()
		r.frame = nil
	}
	if width > 0 && height > 0 {
		r.frame = ebiten.NewImage(width, height)
	}
}

// Size is the current frame size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Frame is the last rendered frame. It is nil while the size is zero.
func (r *Renderer) Frame() *ebiten.Image {
	return r.frame
}

// Render implements globe.Renderer. Objects without per-face colors form the
// globe body and are drawn first, then overlays, then the markers that are
// not hidden behind the globe.
func (r *Renderer) Render(scene *globe.Scene, cam *globe.Camera) {
	if r.frame == nil {
		return
	}
	start := time.Now()
	r.frame.Fill(Background)
	pr := newProjector(cam, r.width, r.height)

	r.tris = r.tris[:0]
	for _, obj := range scene.Objects {
		if obj.Mesh != nil && !obj.Mesh.Material.FaceColors {
			r.tris = collect(obj, pr, false, r.tris)
		}
	}
	body := len(r.tris)
	sortFarToNear(r.tris)
	r.draw(r.tris)

	for _, o := range r.Overlays {
		o.DrawOverlay(r.frame, Projection{p: pr})
	}

	r.tris = r.tris[:0]
	for _, obj := range scene.Objects {
		if obj.Mesh != nil && obj.Mesh.Material.FaceColors {
			r.tris = collect(obj, pr, true, r.tris)
		}
	}
	sortFarToNear(r.tris)
	r.draw(r.tris)

	if r.OnRender != nil {
		r.OnRender(body+len(r.tris), time.Since(start))
	}
}

func (r *Renderer) draw(tris []tri) {
	for _, b := range batches(tris, 1.5, 1.5) {
		op := &ebiten.DrawTrianglesOptions{}
		if b.additive {
			op.Blend = ebiten.BlendLighter
		}
		r.frame.DrawTriangles(b.vertices, b.indices, white(), op)
	}
}

var _ globe.Renderer = (*Renderer)(nil)
