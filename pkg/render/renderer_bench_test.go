package render

import (
	"math/rand"
	"testing"

	"github.com/sudorandom/debris-globe/pkg/globe"
)

// BenchmarkRender measures one frame of a globe with a few thousand markers.
// High allocations per op here usually mean per-frame buffers are not reused.
func BenchmarkRender(b *testing.B) {
	width, height := 1280, 720
	r := NewRenderer(width, height)
	s := &Game{width: width, height: height}
	g := globe.New(s, r)

	records := make([]float64, 0, 4*5000)
	for i := 0; i < 5000; i++ {
		records = append(records, rand.Float64()*180-90, rand.Float64()*360-180, rand.Float64(), float64(rand.Intn(3)))
	}
	if err := g.AddData(records, globe.Options{Format: globe.FormatLegend}); err != nil {
		b.Fatal(err)
	}
	g.CreatePoints()
	g.Rig().Distance = globe.MaxDistance
	g.Camera().Position = g.Rig().Position()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Render(g.Scene(), g.Camera())
	}
}
