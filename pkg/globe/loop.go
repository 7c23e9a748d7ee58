package globe

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const maxCatchUpFrames = 4

// Scheduler calls a frame callback repeatedly until stopped.
type Scheduler interface {
	Start(frame func())
	Stop()
	Running() bool
}

// FrameScheduler is stepped by the host once per host frame. With a zero
// interval every Step runs one frame; otherwise it runs one frame per
// interval elapsed on its clock, at most maxCatchUpFrames per Step.
type FrameScheduler struct {
	clock    clockwork.Clock
	interval time.Duration

	frame   func()
	next    time.Time
	running bool
}

// NewFrameScheduler returns a stopped scheduler. A nil clock means real time.
func NewFrameScheduler(clock clockwork.Clock, interval time.Duration) *FrameScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FrameScheduler{clock: clock, interval: interval}
}

// Start begins scheduling frame. The first frame is due immediately.
func (s *FrameScheduler) Start(frame func()) {
	s.frame = frame
	s.next = s.clock.Now()
	s.running = true
}

// Stop halts the loop. No frame runs after Stop returns.
func (s *FrameScheduler) Stop() {
	s.running = false
	s.frame = nil
}

// Running reports whether Start was called without a later Stop.
func (s *FrameScheduler) Running() bool {
	return s.running
}

// Step runs the frames that are due and returns how many ran.
func (s *FrameScheduler) Step() int {
	if !s.running {
		return 0
	}
	if s.interval <= 0 {
		s.frame()
		return 1
	}

	now := s.clock.Now()
	n := 0
	for s.running && !now.Before(s.next) && n < maxCatchUpFrames {
		s.frame()
		s.next = s.next.Add(s.interval)
		n++
	}
	if !now.Before(s.next) {
		// Too far behind: drop the backlog instead of spiralling.
		s.next = now.Add(s.interval)
	}
	return n
}

// tick is one frame of the render loop.
func (g *Globe) tick() {
	start := g.clock.Now()

	w, h := g.surface.Size()
	g.camera.Aspect = float64(w) / float64(h)

	g.rig.Update()
	g.camera.Position = g.rig.Position()
	g.camera.LookAt(g.earth.Position)

	g.renderer.Render(g.scene, g.camera)

	if g.OnFrame != nil {
		g.OnFrame(g.clock.Since(start))
	}
}
