package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// LegendItem is one swatch of the legend.
type LegendItem struct {
	Label string
	Color color.RGBA
}

// Status is the line of numbers drawn under the legend.
type Status struct {
	Points   int
	Time     float64
	FPS      float64
	Animated bool
}

func (s Status) String() string {
	line := fmt.Sprintf("%d points  %.0f FPS", s.Points, s.FPS)
	if s.Animated {
		line += fmt.Sprintf("  t=%.2f ([ ])", s.Time)
	}
	return line
}

// HUD draws the legend and status line over the frame.
type HUD struct {
	Legend []LegendItem
	// Status, if set, is called once per drawn frame.
	Status func() Status

	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource
}

// NewHUD loads the Go fonts. A font that fails to load leaves its text out.
func NewHUD(legend []LegendItem) *HUD {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	return &HUD{Legend: legend, fontSource: s, monoSource: m}
}

// hudMetrics scales the layout for large frames.
func hudMetrics(width int) (margin, fontSize, spacing, swatch float64) {
	if width > 2000 {
		return 80, 36, 56, 28
	}
	return 40, 18, 28, 14
}

// Draw paints the HUD onto screen.
func (h *HUD) Draw(screen *ebiten.Image) {
	w, ht := screen.Bounds().Dx(), screen.Bounds().Dy()
	margin, fontSize, spacing, swatch := hudMetrics(w)

	rows := len(h.Legend)
	if h.Status != nil {
		rows++
	}
	if rows == 0 {
		return
	}
	ly := float64(ht) - margin - float64(rows)*spacing

	if len(h.Legend) > 0 {
		boxW := 220.0
		if w > 2000 {
			boxW = 440
		}
		vector.DrawFilledRect(screen, float32(margin-10), float32(ly-10), float32(boxW), float32(float64(len(h.Legend))*spacing+10), color.RGBA{0, 0, 0, 100}, false)
		vector.StrokeRect(screen, float32(margin-10), float32(ly-10), float32(boxW), float32(float64(len(h.Legend))*spacing+10), 1, color.RGBA{36, 42, 53, 255}, false)
	}

	for i, it := range h.Legend {
		ty := ly + float64(i)*spacing
		vector.DrawFilledRect(screen, float32(margin), float32(ty), float32(swatch), float32(swatch), it.Color, false)
		if h.fontSource != nil {
			face := &text.GoTextFace{Source: h.fontSource, Size: fontSize}
			op := &text.DrawOptions{}
			op.GeoM.Translate(margin+swatch+12, ty+swatch/2-fontSize/2)
			op.ColorScale.Scale(1, 1, 1, 0.8)
			text.Draw(screen, it.Label, face, op)
		}
	}

	if h.Status != nil && h.monoSource != nil {
		face := &text.GoTextFace{Source: h.monoSource, Size: fontSize * 0.8}
		op := &text.DrawOptions{}
		op.GeoM.Translate(margin, ly+float64(len(h.Legend))*spacing+spacing/2)
		op.ColorScale.Scale(1, 1, 1, 0.5)
		text.Draw(screen, h.Status().String(), face, op)
	}
}
