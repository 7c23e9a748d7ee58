package sources

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

// GeoJSONRecords flattens the Point and MultiPoint features of a feature
// collection into records. The magnitude comes from the "magnitude" property
// and, for the legend format, the legend index from "legend". Missing
// properties are zero.
func GeoJSONRecords(data []byte, format globe.Format) ([]float64, error) {
	stride, err := format.Stride()
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding geojson: %w", err)
	}

	records := make([]float64, 0, len(fc.Features)*stride)
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		var points [][]float64
		switch {
		case f.Geometry.IsPoint():
			points = [][]float64{f.Geometry.Point}
		case f.Geometry.IsMultiPoint():
			points = f.Geometry.MultiPoint
		default:
			continue
		}
		magnitude := f.PropertyMustFloat64("magnitude", 0)
		legend := f.PropertyMustFloat64("legend", 0)
		for _, p := range points {
			if len(p) < 2 {
				continue
			}
			records = append(records, p[1], p[0], magnitude)
			if format == globe.FormatLegend {
				records = append(records, legend)
			}
		}
	}
	return records, nil
}
