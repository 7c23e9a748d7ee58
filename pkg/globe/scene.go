package globe

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Shading tells the renderer how to light a mesh.
type Shading int

const (
	// ShadeFlat uses face or material colors as-is.
	ShadeFlat Shading = iota
	// ShadeRim brightens faces that turn away from the viewer.
	ShadeRim
	// ShadeGlow is a halo that fades toward the faces looking at the viewer.
	ShadeGlow
)

// Material describes how a mesh is painted.
type Material struct {
	Color      color.RGBA
	FaceColors bool
	BackSide   bool
	Additive   bool
	Shading    Shading
}

// Mesh pairs a geometry with its material and morph weights.
type Mesh struct {
	Geometry        *Geometry
	Material        Material
	MorphInfluences []float64
}

// Positions returns the vertex positions with morph influences applied.
func (m *Mesh) Positions() []mgl64.Vec3 {
	base := m.Geometry.Vertices
	if len(m.MorphInfluences) == 0 {
		return base
	}
	out := make([]mgl64.Vec3, len(base))
	copy(out, base)
	for i, w := range m.MorphInfluences {
		if w == 0 || i >= len(m.Geometry.MorphTargets) {
			continue
		}
		target := m.Geometry.MorphTargets[i].Positions
		for v := range out {
			if v < len(target) {
				out[v] = out[v].Add(target[v].Sub(base[v]).Mul(w))
			}
		}
	}
	return out
}

// Object places a mesh in the scene.
type Object struct {
	Name     string
	Mesh     *Mesh
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
	Visible  bool
}

// NewObject returns a visible object at the origin with unit scale.
func NewObject(name string, mesh *Mesh) *Object {
	return &Object{Name: name, Mesh: mesh, Scale: mgl64.Vec3{1, 1, 1}, Visible: true}
}

// Matrix is translate * rotate(X, Y, Z) * scale.
func (o *Object) Matrix() mgl64.Mat4 {
	m := mgl64.Translate3D(o.Position.X(), o.Position.Y(), o.Position.Z())
	m = m.Mul4(mgl64.HomogRotate3DX(o.Rotation.X()))
	m = m.Mul4(mgl64.HomogRotate3DY(o.Rotation.Y()))
	m = m.Mul4(mgl64.HomogRotate3DZ(o.Rotation.Z()))
	return m.Mul4(mgl64.Scale3D(o.Scale.X(), o.Scale.Y(), o.Scale.Z()))
}

// Scene is the ordered list of objects handed to the renderer.
type Scene struct {
	Objects []*Object
}

// Add appends o.
func (s *Scene) Add(o *Object) {
	s.Objects = append(s.Objects, o)
}

// Remove drops o if present.
func (s *Scene) Remove(o *Object) {
	for i, obj := range s.Objects {
		if obj == o {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return
		}
	}
}

// Camera is a perspective camera. FOV is vertical, in degrees.
type Camera struct {
	FOV, Aspect, Near, Far float64
	Position               mgl64.Vec3
	Target                 mgl64.Vec3
}

// LookAt aims the camera at p.
func (c *Camera) LookAt(p mgl64.Vec3) {
	c.Target = p
}

// View is the world-to-camera transform.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, worldUp)
}

// Projection is the camera-to-clip transform.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Renderer draws a scene. The globe calls Render once per frame and SetSize
// whenever the surface is resized.
type Renderer interface {
	Render(scene *Scene, camera *Camera)
	SetSize(width, height int)
}
