package globe

type fakeSurface struct {
	EventHub
	w, h int
}

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

type fakeRenderer struct {
	renders    int
	w, h       int
	lastCamera Camera
	lastScene  *Scene
}

func (r *fakeRenderer) Render(scene *Scene, camera *Camera) {
	r.renders++
	r.lastCamera = *camera
	r.lastScene = scene
}

func (r *fakeRenderer) SetSize(w, h int) { r.w, r.h = w, h }

func newTestGlobe(opts ...Option) (*Globe, *fakeSurface, *fakeRenderer) {
	s := &fakeSurface{w: 800, h: 600}
	r := &fakeRenderer{}
	return New(s, r, opts...), s, r
}
