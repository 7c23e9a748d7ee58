package globe

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func faceNormal(g *Geometry, f Face) mgl64.Vec3 {
	a, b, c := g.Vertices[f.A], g.Vertices[f.B], g.Vertices[f.C]
	return b.Sub(a).Cross(c.Sub(a))
}

func faceCentroid(g *Geometry, f Face) mgl64.Vec3 {
	return g.Vertices[f.A].Add(g.Vertices[f.B]).Add(g.Vertices[f.C]).Mul(1.0 / 3)
}

func TestTemplatesWindOutward(t *testing.T) {
	tests := []struct {
		name     string
		geo      *Geometry
		vertices int
		faces    int
	}{
		{"box", BoxGeometry(0.75, 0.75, 1), 8, 12},
		{"octahedron", OctahedronGeometry(10), 6, 8},
		{"sphere", SphereGeometry(GlobeRadius, 40, 30), 41 * 31, 40*30*2 - 2*40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.geo.Vertices, tt.vertices)
			require.Len(t, tt.geo.Faces, tt.faces)
			for i, f := range tt.geo.Faces {
				n := faceNormal(tt.geo, f)
				if n.Len() < 1e-9 {
					continue
				}
				if d := n.Dot(faceCentroid(tt.geo, f)); d <= 0 {
					t.Errorf("face %d winds inward (dot=%f)", i, d)
				}
			}
		})
	}
}

func TestBoxTemplateTranslate(t *testing.T) {
	g := BoxGeometry(0.75, 0.75, 1).Translate(0, 0, -0.5)
	minZ, maxZ := 0.0, -1.0
	for _, v := range g.Vertices {
		if v.Z() < minZ {
			minZ = v.Z()
		}
		if v.Z() > maxZ {
			maxZ = v.Z()
		}
	}
	assert.InDelta(t, -1.0, minZ, 1e-12)
	assert.InDelta(t, 0.0, maxZ, 1e-12)
}

func TestGeometryMerge(t *testing.T) {
	tpl := BoxGeometry(1, 1, 1)
	red := color.RGBA{255, 0, 0, 255}
	green := color.RGBA{0, 255, 0, 255}

	g := NewGeometry()
	assert.True(t, g.Empty())
	g.Merge(tpl, mgl64.Ident4(), red)
	g.Merge(tpl, mgl64.Translate3D(10, 0, 0), green)

	assert.False(t, g.Empty())
	assert.Equal(t, 2, g.Instances())
	assert.Len(t, g.Vertices, 16)
	require.Len(t, g.Faces, 24)

	for i, f := range g.Faces {
		want := red
		lo, hi := 0, 8
		if i >= 12 {
			want, lo, hi = green, 8, 16
		}
		assert.Equal(t, want, f.Color, "face %d", i)
		for _, idx := range []int{f.A, f.B, f.C} {
			assert.True(t, idx >= lo && idx < hi, "face %d index %d outside its instance", i, idx)
		}
	}
	assert.InDelta(t, 10.5, g.Vertices[15].X(), 1e-12)

	// The template is untouched.
	assert.InDelta(t, 0.5, tpl.Vertices[7].X(), 1e-12)
	assert.Equal(t, color.RGBA{}, tpl.Faces[0].Color)
}

func TestNilGeometry(t *testing.T) {
	var g *Geometry
	assert.True(t, g.Empty())
	assert.Equal(t, 0, g.Instances())
}

func TestWithMorphTargetCopies(t *testing.T) {
	g := BoxGeometry(1, 1, 1)
	a := g.withMorphTarget(MorphTarget{Name: "a", Positions: g.Vertices})
	b := a.withMorphTarget(MorphTarget{Name: "b", Positions: g.Vertices})

	assert.Empty(t, g.MorphTargets)
	assert.Len(t, a.MorphTargets, 1)
	assert.Len(t, b.MorphTargets, 2)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, b.MorphDictionary())
}
