package globe

// EventKind identifies a surface event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerEnter
	PointerLeave
	Wheel
	KeyDown
	Resize
)

// Key is a keyboard key as reported by the host.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
)

// Event is delivered to listeners. Only the fields relevant to Kind are set:
// X and Y for pointer events, Delta for Wheel (browser wheelDeltaY units,
// positive zooms in), Key for KeyDown, Width and Height for Resize.
type Event struct {
	Kind          EventKind
	X, Y          float64
	Delta         float64
	Key           Key
	Width, Height int
}

// Handler receives events.
type Handler func(Event)

// Surface is what the globe draws onto and listens to.
type Surface interface {
	Size() (width, height int)
	// Listen registers h for kind. The returned func removes it and is safe
	// to call more than once.
	Listen(kind EventKind, h Handler) (release func())
}

type listener struct {
	kind EventKind
	h    Handler
}

// EventHub is a listener registry hosts can embed to implement Surface.
type EventHub struct {
	listeners []*listener
}

// Listen implements Surface.
func (hub *EventHub) Listen(kind EventKind, h Handler) func() {
	l := &listener{kind: kind, h: h}
	hub.listeners = append(hub.listeners, l)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		for i, cur := range hub.listeners {
			if cur == l {
				hub.listeners = append(hub.listeners[:i], hub.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers ev to the listeners registered for its kind when the
// dispatch starts. Listeners added by a handler see the next event.
func (hub *EventHub) Dispatch(ev Event) {
	var targets []*listener
	for _, l := range hub.listeners {
		if l.kind == ev.Kind {
			targets = append(targets, l)
		}
	}
	for _, l := range targets {
		if hub.registered(l) {
			l.h(ev)
		}
	}
}

// Listeners counts the handlers currently registered for kind.
func (hub *EventHub) Listeners(kind EventKind) int {
	n := 0
	for _, l := range hub.listeners {
		if l.kind == kind {
			n++
		}
	}
	return n
}

func (hub *EventHub) registered(l *listener) bool {
	for _, cur := range hub.listeners {
		if cur == l {
			return true
		}
	}
	return false
}
