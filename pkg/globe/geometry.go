package globe

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is one triangle of a Geometry, painted with a single color.
type Face struct {
	A, B, C int
	Color   color.RGBA
}

// MorphTarget is an alternate set of vertex positions, one per vertex of the
// geometry it belongs to.
type MorphTarget struct {
	Name      string
	Positions []mgl64.Vec3
}

// Geometry accumulates vertices and colored faces. Templates are merged into
// it one instance at a time.
type Geometry struct {
	Vertices     []mgl64.Vec3
	Faces        []Face
	MorphTargets []MorphTarget

	instances int
}

// NewGeometry returns an empty accumulator.
func NewGeometry() *Geometry {
	return &Geometry{}
}

// Instances is the number of templates merged into g.
func (g *Geometry) Instances() int {
	if g == nil {
		return 0
	}
	return g.instances
}

// Empty reports whether g has nothing to draw.
func (g *Geometry) Empty() bool {
	return g == nil || len(g.Faces) == 0
}

// Merge appends tpl transformed by m with every face painted c.
func (g *Geometry) Merge(tpl *Geometry, m mgl64.Mat4, c color.RGBA) {
	offset := len(g.Vertices)
	for _, v := range tpl.Vertices {
		g.Vertices = append(g.Vertices, mgl64.TransformCoordinate(v, m))
	}
	for _, f := range tpl.Faces {
		g.Faces = append(g.Faces, Face{A: f.A + offset, B: f.B + offset, C: f.C + offset, Color: c})
	}
	g.instances++
}

// Translate moves every vertex of g in place and returns g.
func (g *Geometry) Translate(x, y, z float64) *Geometry {
	d := mgl64.Vec3{x, y, z}
	for i := range g.Vertices {
		g.Vertices[i] = g.Vertices[i].Add(d)
	}
	return g
}

// MorphDictionary maps morph target names to their index.
func (g *Geometry) MorphDictionary() map[string]int {
	dict := make(map[string]int, len(g.MorphTargets))
	for i, t := range g.MorphTargets {
		dict[t.Name] = i
	}
	return dict
}

// withMorphTarget returns a shallow copy of g with one more morph target.
// The receiver is left untouched.
func (g *Geometry) withMorphTarget(t MorphTarget) *Geometry {
	next := *g
	next.MorphTargets = make([]MorphTarget, len(g.MorphTargets), len(g.MorphTargets)+1)
	copy(next.MorphTargets, g.MorphTargets)
	next.MorphTargets = append(next.MorphTargets, t)
	return &next
}

// BoxGeometry is an axis-aligned box centered on the origin. Faces wind
// counter-clockwise seen from outside.
func BoxGeometry(width, height, depth float64) *Geometry {
	hw, hh, hd := width/2, height/2, depth/2
	g := &Geometry{Vertices: make([]mgl64.Vec3, 8)}
	for i := range g.Vertices {
		x, y, z := -hw, -hh, -hd
		if i&4 != 0 {
			x = hw
		}
		if i&2 != 0 {
			y = hh
		}
		if i&1 != 0 {
			z = hd
		}
		g.Vertices[i] = mgl64.Vec3{x, y, z}
	}
	quads := [6][4]int{
		{5, 4, 6, 7}, // +X
		{0, 1, 3, 2}, // -X
		{3, 7, 6, 2}, // +Y
		{0, 4, 5, 1}, // -Y
		{1, 5, 7, 3}, // +Z
		{4, 0, 2, 6}, // -Z
	}
	for _, q := range quads {
		g.Faces = append(g.Faces, Face{A: q[0], B: q[1], C: q[2]}, Face{A: q[0], B: q[2], C: q[3]})
	}
	return g
}

// OctahedronGeometry has its six vertices on the axes at the given radius.
func OctahedronGeometry(radius float64) *Geometry {
	g := &Geometry{Vertices: []mgl64.Vec3{
		{radius, 0, 0}, {-radius, 0, 0},
		{0, radius, 0}, {0, -radius, 0},
		{0, 0, radius}, {0, 0, -radius},
	}}
	for _, f := range [8][3]int{
		{0, 2, 4}, {1, 4, 2}, {0, 4, 3}, {0, 5, 2},
		{1, 3, 4}, {1, 2, 5}, {0, 3, 5}, {1, 5, 3},
	} {
		g.Faces = append(g.Faces, Face{A: f[0], B: f[1], C: f[2]})
	}
	return g
}

// SphereGeometry is a UV sphere with the given number of segments around
// and from pole to pole.
func SphereGeometry(radius float64, widthSegments, heightSegments int) *Geometry {
	g := &Geometry{}
	grid := make([][]int, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]int, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			row[ix] = len(g.Vertices)
			g.Vertices = append(g.Vertices, mgl64.Vec3{
				-radius * math.Cos(u*2*math.Pi) * math.Sin(v*math.Pi),
				radius * math.Cos(v*math.Pi),
				radius * math.Sin(u*2*math.Pi) * math.Sin(v*math.Pi),
			})
		}
		grid[iy] = row
	}
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				g.Faces = append(g.Faces, Face{A: a, B: b, C: d})
			}
			if iy != heightSegments-1 {
				g.Faces = append(g.Faces, Face{A: b, B: c, C: d})
			}
		}
	}
	return g
}
