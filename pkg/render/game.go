package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

const (
	// wheelUnit converts Ebiten wheel steps to browser wheelDeltaY units.
	wheelUnit = 120

	keyRepeatDelay    = 20
	keyRepeatInterval = 4

	// TimeStep is how far one press of [ or ] moves the morph time.
	TimeStep = 0.05
)

var keyMap = map[ebiten.Key]globe.Key{
	ebiten.KeyW:          globe.KeyW,
	ebiten.KeyA:          globe.KeyA,
	ebiten.KeyS:          globe.KeyS,
	ebiten.KeyD:          globe.KeyD,
	ebiten.KeyArrowUp:    globe.KeyArrowUp,
	ebiten.KeyArrowDown:  globe.KeyArrowDown,
	ebiten.KeyArrowLeft:  globe.KeyArrowLeft,
	ebiten.KeyArrowRight: globe.KeyArrowRight,
}

// Stepper advances the frame loop by however many frames are due.
type Stepper interface {
	Step() int
}

// Game hosts a globe in an Ebiten window. It polls input each tick,
// dispatches it as surface events, steps the frame loop and shows the last
// rendered frame.
type Game struct {
	globe.EventHub

	Renderer *Renderer
	HUD      *HUD
	Stepper  Stepper
	// Globe, if set, receives time scrubbing from the bracket keys.
	Globe *globe.Globe

	// BeforeFrame runs on every tick before the loop is stepped.
	BeforeFrame func()
	// MaxFrames ends the game once that many frames have rendered. OnCapture
	// then receives the final screen.
	MaxFrames int
	OnCapture func(screen *ebiten.Image)
	// CaptureDir receives a PNG of the screen whenever P is pressed.
	CaptureDir string
	// Done, once closed, ends the game on the next tick.
	Done <-chan struct{}

	width, height int
	hovering      bool
	cursorX       int
	cursorY       int
	frames        int
	captured      bool
	screenshot    bool
}

// NewGame returns a host whose surface starts at width x height.
func NewGame(width, height int, r *Renderer) *Game {
	return &Game{Renderer: r, width: width, height: height}
}

// Size implements globe.Surface.
func (g *Game) Size() (int, int) {
	return g.width, g.height
}

// Frames is the number of frames rendered so far.
func (g *Game) Frames() int {
	return g.frames
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.captured {
		return ebiten.Termination
	}
	select {
	case <-g.Done:
		return ebiten.Termination
	default:
	}
	g.pollPointer()
	g.pollKeys()
	if g.BeforeFrame != nil {
		g.BeforeFrame()
	}
	if g.Stepper != nil {
		g.frames += g.Stepper.Step()
	}
	return nil
}

func (g *Game) pollPointer() {
	x, y := ebiten.CursorPosition()
	inside := ebiten.IsFocused() && x >= 0 && y >= 0 && x < g.width && y < g.height
	if inside != g.hovering {
		g.hovering = inside
		kind := globe.PointerLeave
		if inside {
			kind = globe.PointerEnter
		}
		g.Dispatch(globe.Event{Kind: kind, X: float64(x), Y: float64(y)})
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inside {
		g.Dispatch(globe.Event{Kind: globe.PointerDown, X: float64(x), Y: float64(y)})
	}
	if x != g.cursorX || y != g.cursorY {
		g.cursorX, g.cursorY = x, y
		g.Dispatch(globe.Event{Kind: globe.PointerMove, X: float64(x), Y: float64(y)})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.Dispatch(globe.Event{Kind: globe.PointerUp, X: float64(x), Y: float64(y)})
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		g.Dispatch(globe.Event{Kind: globe.Wheel, Delta: dy * wheelUnit})
	}
}

func (g *Game) pollKeys() {
	for ek, k := range keyMap {
		if repeating(inpututil.KeyPressDuration(ek)) {
			g.Dispatch(globe.Event{Kind: globe.KeyDown, Key: k})
		}
	}
	if g.CaptureDir != "" && inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.screenshot = true
	}
	if g.Globe == nil {
		return
	}
	if repeating(inpututil.KeyPressDuration(ebiten.KeyBracketLeft)) {
		g.Globe.SetTime(g.Globe.Time() - TimeStep)
	}
	if repeating(inpututil.KeyPressDuration(ebiten.KeyBracketRight)) {
		g.Globe.SetTime(g.Globe.Time() + TimeStep)
	}
}

// repeating reports whether a key held for d ticks fires this tick.
func repeating(d int) bool {
	if d == 1 {
		return true
	}
	return d >= keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if f := g.Renderer.Frame(); f != nil {
		screen.DrawImage(f, nil)
	}
	if g.HUD != nil {
		g.HUD.Draw(screen)
	}
	if g.screenshot {
		g.screenshot = false
		CaptureAsync(screen, g.CaptureDir, "view")
	}
	if g.MaxFrames > 0 && g.frames >= g.MaxFrames && !g.captured {
		if g.OnCapture != nil {
			g.OnCapture(screen)
		}
		g.captured = true
		log.Debug().Str("component", "host").Int("frames", g.frames).Msg("frame limit reached")
	}
}

// Layout implements ebiten.Game. The surface follows the window size and a
// change is dispatched as a Resize event.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.Dispatch(globe.Event{Kind: globe.Resize, Width: outsideWidth, Height: outsideHeight})
	}
	return g.width, g.height
}

var _ globe.Surface = (*Game)(nil)
