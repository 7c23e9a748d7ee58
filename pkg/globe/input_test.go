package globe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragMovesTarget(t *testing.T) {
	g, s, _ := newTestGlobe()
	g.Rig().Target = Vec2{}
	g.Rig().Distance = 600

	s.Dispatch(Event{Kind: PointerDown, X: 100, Y: 100})
	require.True(t, g.Input().Dragging())
	assert.Equal(t, Vec2{X: -100, Y: 100}, g.Input().Mouse().OnDown)

	s.Dispatch(Event{Kind: PointerMove, X: 120, Y: 100})
	assert.InDelta(t, -0.06, g.Rig().Target.X, 1e-12)
	assert.InDelta(t, 0, g.Rig().Target.Y, 1e-12)

	// Moves are relative to the press, not the previous move.
	s.Dispatch(Event{Kind: PointerMove, X: 80, Y: 100})
	assert.InDelta(t, 0.06, g.Rig().Target.X, 1e-12)
}

func TestDragClampsLatitude(t *testing.T) {
	g, s, _ := newTestGlobe()
	g.Rig().Target = Vec2{}
	g.Rig().Distance = 1000

	s.Dispatch(Event{Kind: PointerDown, X: 0, Y: 0})
	s.Dispatch(Event{Kind: PointerMove, X: 0, Y: 10000})
	assert.InDelta(t, math.Pi/2, g.Rig().Target.Y, 1e-12)

	s.Dispatch(Event{Kind: PointerMove, X: 0, Y: -10000})
	assert.InDelta(t, -math.Pi/2, g.Rig().Target.Y, 1e-12)
}

func TestDragListenersReleased(t *testing.T) {
	for _, end := range []EventKind{PointerUp, PointerLeave} {
		g, s, _ := newTestGlobe()
		assert.Equal(t, 0, s.Listeners(PointerMove))
		assert.Equal(t, 0, s.Listeners(PointerUp))
		assert.Equal(t, 1, s.Listeners(PointerLeave))

		s.Dispatch(Event{Kind: PointerDown, X: 5, Y: 5})
		assert.Equal(t, 1, s.Listeners(PointerMove))
		assert.Equal(t, 1, s.Listeners(PointerUp))
		assert.Equal(t, 2, s.Listeners(PointerLeave))

		s.Dispatch(Event{Kind: end})
		assert.False(t, g.Input().Dragging())
		assert.Equal(t, 0, s.Listeners(PointerMove), "after %v", end)
		assert.Equal(t, 0, s.Listeners(PointerUp), "after %v", end)
		assert.Equal(t, 1, s.Listeners(PointerLeave), "after %v", end)

		before := g.Rig().Target
		s.Dispatch(Event{Kind: PointerMove, X: 500, Y: 500})
		assert.Equal(t, before, g.Rig().Target, "moves after the drag are ignored")
	}
}

func TestRepeatedPointerDown(t *testing.T) {
	_, s, _ := newTestGlobe()
	s.Dispatch(Event{Kind: PointerDown})
	s.Dispatch(Event{Kind: PointerDown})
	assert.Equal(t, 1, s.Listeners(PointerMove))
	assert.Equal(t, 1, s.Listeners(PointerUp))
}

func TestWheelNeedsPointerOver(t *testing.T) {
	g, s, _ := newTestGlobe()
	g.Rig().DistanceTarget = 800

	s.Dispatch(Event{Kind: Wheel, Delta: 120})
	assert.Equal(t, 800.0, g.Rig().DistanceTarget)

	s.Dispatch(Event{Kind: PointerEnter})
	require.True(t, g.Input().OverRenderer())
	s.Dispatch(Event{Kind: Wheel, Delta: 120})
	assert.InDelta(t, 800-120*WheelScale, g.Rig().DistanceTarget, 1e-9)

	s.Dispatch(Event{Kind: Wheel, Delta: 120 * 100})
	assert.Equal(t, MinDistance, g.Rig().DistanceTarget)

	s.Dispatch(Event{Kind: PointerLeave})
	assert.False(t, g.Input().OverRenderer())
	s.Dispatch(Event{Kind: Wheel, Delta: -120})
	assert.Equal(t, MinDistance, g.Rig().DistanceTarget)
}

func TestNomadKeys(t *testing.T) {
	g, s, _ := newTestGlobe()

	// No nomad yet: keys are ignored.
	s.Dispatch(Event{Kind: KeyDown, Key: KeyW})

	require.NoError(t, g.CreateNomad([]float64{10, 20, 0.5}))
	g.AddNomad()
	require.NotNil(t, g.Nomad())

	up := math.Sin(nomadTheta)
	side := nomadRadius * math.Sin(nomadPhi) * math.Cos(nomadTheta)

	tests := []struct {
		keys []Key
		dx   float64
		dy   float64
	}{
		{[]Key{KeyW}, 0, up},
		{[]Key{KeyArrowUp}, 0, up},
		{[]Key{KeyS}, 0, -up},
		{[]Key{KeyArrowDown}, 0, -up},
		{[]Key{KeyD}, side, 0},
		{[]Key{KeyArrowRight}, side, 0},
		{[]Key{KeyA}, -side, 0},
		{[]Key{KeyArrowLeft}, -side, 0},
		{[]Key{KeyW, KeyW, KeyD}, side, 2 * up},
		{[]Key{KeyUnknown}, 0, 0},
	}
	for _, tt := range tests {
		start := g.Nomad().Position
		for _, k := range tt.keys {
			s.Dispatch(Event{Kind: KeyDown, Key: k})
		}
		end := g.Nomad().Position
		assert.InDelta(t, tt.dx, end.X()-start.X(), 1e-9, "keys %v", tt.keys)
		assert.InDelta(t, tt.dy, end.Y()-start.Y(), 1e-9, "keys %v", tt.keys)
		assert.Equal(t, start.Z(), end.Z())
	}
}

func TestResizeForwardsToRenderer(t *testing.T) {
	_, s, r := newTestGlobe()
	assert.Equal(t, 800, r.w)
	assert.Equal(t, 600, r.h)

	s.Dispatch(Event{Kind: Resize, Width: 1024, Height: 768})
	assert.Equal(t, 1024, r.w)
	assert.Equal(t, 768, r.h)
}

func TestEventHub(t *testing.T) {
	var hub EventHub
	var got []string

	release := hub.Listen(KeyDown, func(Event) { got = append(got, "a") })
	hub.Listen(KeyDown, func(Event) {
		got = append(got, "b")
		hub.Listen(KeyDown, func(Event) { got = append(got, "late") })
	})
	hub.Dispatch(Event{Kind: KeyDown})
	assert.Equal(t, []string{"a", "b"}, got)

	release()
	release()
	assert.Equal(t, 2, hub.Listeners(KeyDown))
	assert.Equal(t, 0, hub.Listeners(Wheel))
}

func TestEventHubReleaseDuringDispatch(t *testing.T) {
	var hub EventHub
	calls := 0
	var second func()
	hub.Listen(PointerUp, func(Event) { second() })
	second = hub.Listen(PointerUp, func(Event) { calls++ })

	hub.Dispatch(Event{Kind: PointerUp})
	assert.Equal(t, 0, calls, "a listener released mid-dispatch is skipped")
}
