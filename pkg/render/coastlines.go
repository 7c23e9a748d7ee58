package render

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	geojson "github.com/paulmach/go.geojson"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

// coastlineLift raises outlines slightly above the surface, in the same size
// units as marker magnitudes.
const coastlineLift = 0.2

// Coastlines is an overlay of land outlines traced on the globe surface.
type Coastlines struct {
	Color color.RGBA
	Width float32

	lines [][]mgl64.Vec3
}

// LoadCoastlines reads the outlines of every line and polygon feature in a
// GeoJSON feature collection. Other geometry types are skipped.
func LoadCoastlines(data []byte) (*Coastlines, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("coastlines: %w", err)
	}
	c := &Coastlines{Color: color.RGBA{36, 42, 53, 255}, Width: 1}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		g := f.Geometry
		switch {
		case g.IsLineString():
			c.addRing(g.LineString)
		case g.IsMultiLineString():
			for _, l := range g.MultiLineString {
				c.addRing(l)
			}
		case g.IsPolygon():
			for _, ring := range g.Polygon {
				c.addRing(ring)
			}
		case g.IsMultiPolygon():
			for _, poly := range g.MultiPolygon {
				for _, ring := range poly {
					c.addRing(ring)
				}
			}
		}
	}
	return c, nil
}

func (c *Coastlines) addRing(coords [][]float64) {
	line := make([]mgl64.Vec3, 0, len(coords))
	for _, pt := range coords {
		if len(pt) < 2 {
			continue
		}
		line = append(line, globe.Project(pt[1], pt[0], coastlineLift).Position)
	}
	if len(line) > 1 {
		c.lines = append(c.lines, line)
	}
}

// Segments is the number of line segments in the overlay.
func (c *Coastlines) Segments() int {
	n := 0
	for _, l := range c.lines {
		n += len(l) - 1
	}
	return n
}

// DrawOverlay strokes every segment whose ends are both on the visible side.
func (c *Coastlines) DrawOverlay(dst *ebiten.Image, pr Projection) {
	for _, line := range c.lines {
		px, py, pok := pr.Project(line[0])
		for _, p := range line[1:] {
			x, y, ok := pr.Project(p)
			if ok && pok {
				vector.StrokeLine(dst, px, py, x, y, c.Width, c.Color, true)
			}
			px, py, pok = x, y, ok
		}
	}
}
