package globe

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorFunc maps a record's magnitude (magnitude format) or legend index
// (legend format) to a marker color.
type ColorFunc func(x float64) color.RGBA

// White is used for legend indexes outside the palette.
var White = color.RGBA{255, 255, 255, 255}

// NomadColor paints the nomad marker.
var NomadColor = color.RGBA{0, 0, 255, 255}

// DefaultColor derives a hue from the magnitude: 0 is blue, larger values
// slide toward red and wrap around the color wheel.
func DefaultColor(x float64) color.RGBA {
	h := math.Mod(0.6-x*0.5, 1)
	if h < 0 {
		h++
	}
	r, g, b := colorful.Hsl(h*360, 1.0, 0.5).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

// PaletteColor returns a ColorFunc that looks the legend index up in
// palette. Indexes that are negative, fractional or past the end are white.
func PaletteColor(palette []color.RGBA) ColorFunc {
	return func(x float64) color.RGBA {
		i := int(x)
		if float64(i) != x || i < 0 || i >= len(palette) {
			return White
		}
		return palette[i]
	}
}
