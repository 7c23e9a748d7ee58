package globe

import (
	"errors"
	"fmt"
)

// Format selects the record layout of a flat data slice.
type Format string

const (
	// FormatMagnitude is (lat, lng, magnitude) triples.
	FormatMagnitude Format = "magnitude"
	// FormatLegend is (lat, lng, magnitude, legend) quadruples.
	FormatLegend Format = "legend"
)

var (
	ErrUnsupportedFormat = errors.New("format not supported")
	ErrFrameMismatch     = errors.New("frame does not match the animated base")
	ErrShortRecord       = errors.New("record too short")
	ErrDuplicateTarget   = errors.New("morph target name already in use")
)

// Stride is the number of values per record.
func (f Format) Stride() (int, error) {
	switch f {
	case FormatMagnitude:
		return 3, nil
	case FormatLegend:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// DataPoint is one decoded record.
type DataPoint struct {
	Lat, Lng  float64
	Magnitude float64
	Legend    int
	HasLegend bool
	// LegendValue is the legend field as read, before truncation.
	LegendValue float64
}

// colorKey is the value handed to a ColorFunc for p.
func (p DataPoint) colorKey() float64 {
	if p.HasLegend {
		return p.LegendValue
	}
	return p.Magnitude
}

// DecodePoints splits records into points. Trailing values that do not fill a
// whole record are dropped.
func DecodePoints(records []float64, format Format) ([]DataPoint, error) {
	stride, err := format.Stride()
	if err != nil {
		return nil, err
	}
	n := len(records) / stride
	points := make([]DataPoint, n)
	for i := range points {
		r := records[i*stride : (i+1)*stride]
		points[i] = DataPoint{Lat: r[0], Lng: r[1], Magnitude: r[2]}
		if format == FormatLegend {
			points[i].Legend = int(r[3])
			points[i].LegendValue = r[3]
			points[i].HasLegend = true
		}
	}
	return points, nil
}

// Merger turns points into one merged geometry by stamping a template at
// each point's placement.
type Merger struct {
	Template  *Geometry
	Color     ColorFunc
	SizeScale float64
	Place     func(lat, lng, size float64) Placement
}

// Ingest decodes records and merges every whole record. An unsupported format
// fails before anything is built.
func (m *Merger) Ingest(records []float64, format Format) (*Geometry, error) {
	points, err := DecodePoints(records, format)
	if err != nil {
		return nil, err
	}
	return m.Build(points, false), nil
}

// Build merges points into a fresh geometry. With flat set every point sits
// on the surface regardless of its magnitude.
func (m *Merger) Build(points []DataPoint, flat bool) *Geometry {
	place := m.Place
	if place == nil {
		place = Project
	}
	geo := NewGeometry()
	for _, p := range points {
		size := p.Magnitude * m.SizeScale
		if flat {
			size = 0
		}
		geo.Merge(m.Template, place(p.Lat, p.Lng, size).Matrix(), m.Color(p.colorKey()))
	}
	return geo
}
