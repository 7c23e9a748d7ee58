package globe

import "math"

const (
	// DragSpeed converts pointer pixels to radians at MaxDistance.
	DragSpeed = 0.005
	// WheelScale converts wheel delta to zoom delta.
	WheelScale = 0.3
)

// Nomad keyboard steps. phi and theta are 120 run through a
// radians-to-degrees conversion and then used as radians, so each key press
// moves by the same fixed amount whatever the view.
var (
	nomadPhi    = 180 / math.Pi * 120
	nomadTheta  = 180 / math.Pi * 120
	nomadRadius = 10.0
)

// MouseState is the drag snapshot. It is only meaningful while dragging.
type MouseState struct {
	Current      Vec2
	OnDown       Vec2
	TargetOnDown Vec2
}

// InputController turns surface events into camera and nomad changes.
type InputController struct {
	rig     *CameraRig
	surface Surface
	nomad   func() *Object
	resize  func(width, height int)

	mouse        MouseState
	dragging     bool
	overRenderer bool

	held []func()
	drag []func()
}

func newInputController(surface Surface, rig *CameraRig, nomad func() *Object, resize func(int, int)) *InputController {
	c := &InputController{rig: rig, surface: surface, nomad: nomad, resize: resize}
	c.held = []func(){
		surface.Listen(PointerDown, c.onPointerDown),
		surface.Listen(Wheel, c.onWheel),
		surface.Listen(PointerEnter, func(Event) { c.overRenderer = true }),
		surface.Listen(PointerLeave, func(Event) { c.overRenderer = false }),
		surface.Listen(KeyDown, c.onKeyDown),
		surface.Listen(Resize, c.onResize),
	}
	return c
}

// Dragging reports whether a drag is in progress.
func (c *InputController) Dragging() bool { return c.dragging }

// OverRenderer reports whether the pointer is over the surface.
func (c *InputController) OverRenderer() bool { return c.overRenderer }

// Mouse returns the current drag snapshot.
func (c *InputController) Mouse() MouseState { return c.mouse }

func (c *InputController) onPointerDown(ev Event) {
	if c.dragging {
		c.endDrag(ev)
	}
	c.drag = []func(){
		c.surface.Listen(PointerMove, c.onPointerMove),
		c.surface.Listen(PointerUp, c.endDrag),
		c.surface.Listen(PointerLeave, c.endDrag),
	}
	c.mouse.OnDown = Vec2{X: -ev.X, Y: ev.Y}
	c.mouse.TargetOnDown = c.rig.Target
	c.dragging = true
}

func (c *InputController) onPointerMove(ev Event) {
	c.mouse.Current = Vec2{X: -ev.X, Y: ev.Y}
	zoomDamp := c.rig.Distance / 1000

	t := &c.rig.Target
	t.X = c.mouse.TargetOnDown.X + (c.mouse.Current.X-c.mouse.OnDown.X)*DragSpeed*zoomDamp
	t.Y = c.mouse.TargetOnDown.Y + (c.mouse.Current.Y-c.mouse.OnDown.Y)*DragSpeed*zoomDamp
	t.Y = clamp(t.Y, -piHalf, piHalf)
}

func (c *InputController) endDrag(Event) {
	releaseAll(c.drag)
	c.drag = nil
	c.mouse = MouseState{}
	c.dragging = false
}

func (c *InputController) onWheel(ev Event) {
	if c.overRenderer {
		c.rig.Zoom(ev.Delta * WheelScale)
	}
}

func (c *InputController) onKeyDown(ev Event) {
	nomad := c.nomad()
	if nomad == nil {
		return
	}
	switch ev.Key {
	case KeyS, KeyArrowDown:
		nomad.Position[1] -= math.Sin(nomadTheta)
	case KeyW, KeyArrowUp:
		nomad.Position[1] += math.Sin(nomadTheta)
	case KeyA, KeyArrowLeft:
		nomad.Position[0] -= nomadRadius * math.Sin(nomadPhi) * math.Cos(nomadTheta)
	case KeyD, KeyArrowRight:
		nomad.Position[0] += nomadRadius * math.Sin(nomadPhi) * math.Cos(nomadTheta)
	}
}

func (c *InputController) onResize(ev Event) {
	if c.resize != nil {
		c.resize(ev.Width, ev.Height)
	}
}

// release drops every listener still held, drag listeners included.
func (c *InputController) release() {
	releaseAll(c.drag)
	releaseAll(c.held)
	c.drag, c.held = nil, nil
	c.mouse = MouseState{}
	c.dragging = false
}

func releaseAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
