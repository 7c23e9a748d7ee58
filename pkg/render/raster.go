package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

// maxBatchVertices keeps every index of a batch within uint16.
const maxBatchVertices = math.MaxUint16

// occluderRadius is the sphere that hides markers on the far side. It sits a
// hair under the surface so markers resting on it stay visible.
var occluderRadius = globe.GlobeRadius * 0.995

// projector maps world positions to screen pixels for one camera.
type projector struct {
	viewProj mgl64.Mat4
	eye      mgl64.Vec3
	w, h     float64
}

func newProjector(cam *globe.Camera, w, h int) projector {
	return projector{
		viewProj: cam.Projection().Mul4(cam.View()),
		eye:      cam.Position,
		w:        float64(w),
		h:        float64(h),
	}
}

// project returns the screen position of p and its distance along the view
// axis. ok is false behind the camera.
func (pr projector) project(p mgl64.Vec3) (x, y, depth float64, ok bool) {
	clip := pr.viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, false
	}
	nx, ny := clip.X()/clip.W(), clip.Y()/clip.W()
	x = (nx*0.5 + 0.5) * pr.w
	y = (1 - (ny*0.5 + 0.5)) * pr.h
	return x, y, clip.W(), true
}

// occluded reports whether the sphere of radius r at the origin lies between
// the eye and p.
func occluded(eye, p mgl64.Vec3, r float64) bool {
	d := p.Sub(eye)
	a := d.Dot(d)
	if a == 0 {
		return false
	}
	b := 2 * eye.Dot(d)
	c := eye.Dot(eye) - r*r
	disc := b*b - 4*a*c
	if disc <= 0 {
		return false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	return (t0 > 0 && t0 < 1) || (t1 > 0 && t1 < 1)
}

// tri is a projected, shaded triangle ready for drawing.
type tri struct {
	xs, ys   [3]float32
	depth    float64
	color    color.RGBA
	additive bool
}

// collect projects and shades the faces of obj that survive culling.
func collect(obj *globe.Object, pr projector, occlude bool, out []tri) []tri {
	mesh := obj.Mesh
	if mesh == nil || mesh.Geometry.Empty() || !obj.Visible {
		return out
	}
	model := obj.Matrix()
	local := mesh.Positions()
	world := make([]mgl64.Vec3, len(local))
	for i, v := range local {
		world[i] = mgl64.TransformCoordinate(v, model)
	}

	mat := mesh.Material
	for _, f := range mesh.Geometry.Faces {
		a, b, c := world[f.A], world[f.B], world[f.C]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() == 0 {
			continue
		}
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		cos := n.Normalize().Dot(pr.eye.Sub(centroid).Normalize())
		if mat.BackSide == (cos > 0) {
			continue
		}
		if occlude && occluded(pr.eye, centroid, occluderRadius) {
			continue
		}

		var t tri
		ok := true
		var d float64
		for i, v := range [3]mgl64.Vec3{a, b, c} {
			x, y, depth, vis := pr.project(v)
			if !vis {
				ok = false
				break
			}
			t.xs[i], t.ys[i] = float32(x), float32(y)
			d += depth
		}
		if !ok {
			continue
		}
		t.depth = d / 3

		base := mat.Color
		if mat.FaceColors {
			base = f.Color
		}
		t.color = shade(mat.Shading, base, cos)
		t.additive = mat.Additive
		out = append(out, t)
	}
	return out
}

// shade lights a face whose normal makes cos with the direction to the eye.
func shade(s globe.Shading, base color.RGBA, cos float64) color.RGBA {
	switch s {
	case globe.ShadeRim:
		rim := math.Pow(math.Max(1.05-cos, 0), 3) * 255
		return color.RGBA{addClamp(base.R, rim), addClamp(base.G, rim), addClamp(base.B, rim), 255}
	case globe.ShadeGlow:
		i := math.Min(math.Pow(math.Max(0.8-cos, 0), 12), 1)
		return color.RGBA{
			uint8(float64(base.R) * i),
			uint8(float64(base.G) * i),
			uint8(float64(base.B) * i),
			uint8(255 * i),
		}
	}
	return base
}

func addClamp(c uint8, v float64) uint8 {
	return uint8(math.Min(float64(c)+v, 255))
}

// sortFarToNear orders triangles for the painter's algorithm.
func sortFarToNear(tris []tri) {
	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth > tris[j].depth })
}

// batch is one DrawTriangles call.
type batch struct {
	vertices []ebiten.Vertex
	indices  []uint16
	additive bool
}

// batches splits tris into draw calls, keeping their order. A new batch
// starts whenever the blend mode changes or the vertex budget runs out.
func batches(tris []tri, srcX, srcY float32) []batch {
	var out []batch
	var cur *batch
	for _, t := range tris {
		if cur == nil || cur.additive != t.additive || len(cur.vertices)+3 > maxBatchVertices {
			out = append(out, batch{additive: t.additive})
			cur = &out[len(out)-1]
		}
		r := float32(t.color.R) / 255
		g := float32(t.color.G) / 255
		b := float32(t.color.B) / 255
		a := float32(t.color.A) / 255
		base := uint16(len(cur.vertices))
		for i := 0; i < 3; i++ {
			cur.vertices = append(cur.vertices, ebiten.Vertex{
				DstX: t.xs[i], DstY: t.ys[i],
				SrcX: srcX, SrcY: srcY,
				ColorR: r, ColorG: g, ColorB: b, ColorA: a,
			})
		}
		cur.indices = append(cur.indices, base, base+1, base+2)
	}
	return out
}
