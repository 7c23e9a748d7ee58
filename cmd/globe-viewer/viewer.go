package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
	"github.com/sudorandom/debris-globe/internal/config"
	"github.com/sudorandom/debris-globe/pkg/globe"
	"github.com/sudorandom/debris-globe/pkg/observability"
	"github.com/sudorandom/debris-globe/pkg/render"
	"github.com/sudorandom/debris-globe/pkg/sources"
	"github.com/sudorandom/debris-globe/pkg/utils"
)

// liveBuffer is how many feed frames may wait for the next tick.
const liveBuffer = 16

// viewer wires a globe to the Ebiten host and its data sources.
type viewer struct {
	cfg     *config.Config
	game    *render.Game
	globe   *globe.Globe
	metrics *observability.Metrics
	store   *sources.FrameStore
	live    chan sources.Frame
}

func newViewer(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*viewer, error) {
	palette, err := cfg.PaletteColors()
	if err != nil {
		return nil, err
	}
	format := globe.Format(cfg.Format)

	renderer := render.NewRenderer(cfg.Width, cfg.Height)
	renderer.OnRender = metrics.ObserveRender
	game := render.NewGame(cfg.Width, cfg.Height, renderer)
	game.Done = ctx.Done()

	sched := globe.NewFrameScheduler(nil, 0)
	opts := []globe.Option{globe.WithScheduler(sched), globe.WithFollowTarget(cfg.Follow)}
	if format == globe.FormatLegend {
		opts = append(opts, globe.WithColorFunc(globe.PaletteColor(palette)))
	}
	g := globe.New(game, renderer, opts...)
	g.OnFrame = func(time.Duration) { metrics.AnimationTime.Set(g.Time()) }
	game.Stepper = sched
	game.Globe = g

	v := &viewer{cfg: cfg, game: game, globe: g, metrics: metrics}
	cache := utils.NewCache(cfg.CacheDir)

	frames, err := sources.LoadFrames(ctx, cache, cfg.Data, format)
	if err != nil {
		v.Close()
		return nil, err
	}
	if cfg.FramesDB != "" {
		v.store, err = sources.OpenFrameStore(cfg.FramesDB)
		if err != nil {
			v.Close()
			return nil, err
		}
		stored, err := v.store.All()
		if err != nil {
			v.Close()
			return nil, err
		}
		log.Info().Str("component", "viewer").Int("frames", len(stored)).Msg("loaded stored frames")
		frames = mergeFrames(frames, stored)
	}
	if err := v.apply(frames); err != nil {
		v.Close()
		return nil, err
	}

	if first := frames[0].Data; len(first) >= 3 {
		if err := g.CreateNomad(first); err != nil {
			v.Close()
			return nil, err
		}
		g.AddNomad()
	}

	if cfg.Coastlines != "" {
		coast, err := loadCoastlines(ctx, cache, cfg.Coastlines)
		if err != nil {
			v.Close()
			return nil, err
		}
		renderer.Overlays = append(renderer.Overlays, coast)
	}

	var legend []render.LegendItem
	if format == globe.FormatLegend {
		for i, label := range cfg.Labels {
			if i < len(palette) {
				legend = append(legend, render.LegendItem{Label: label, Color: palette[i]})
			}
		}
	}
	game.HUD = render.NewHUD(legend)
	game.HUD.Status = v.status
	return v, nil
}

// apply loads frames into the globe and counts what was ingested.
func (v *viewer) apply(frames []sources.Frame) error {
	if err := sources.Apply(v.globe, frames); err != nil {
		return err
	}
	v.globe.SetTime(v.globe.Time())
	for _, f := range frames {
		v.countPoints(f)
	}
	v.updateTargets()
	log.Info().Str("component", "viewer").Int("frames", len(frames)).Int("points", v.points()).Msg("data loaded")
	return nil
}

// mergeFrames appends the extra frames whose names are not taken yet.
func mergeFrames(frames, extra []sources.Frame) []sources.Frame {
	seen := make(map[string]bool, len(frames))
	for _, f := range frames {
		seen[f.Name] = true
	}
	for _, f := range extra {
		if seen[f.Name] {
			log.Warn().Str("component", "viewer").Str("frame", f.Name).Msg("skipping stored frame with a loaded name")
			continue
		}
		seen[f.Name] = true
		frames = append(frames, f)
	}
	return frames
}

func (v *viewer) countPoints(f sources.Frame) {
	if stride, err := f.Format.Stride(); err == nil {
		v.metrics.PointsIngested.WithLabelValues(string(f.Format)).Add(float64(len(f.Data) / stride))
	}
}

func (v *viewer) updateTargets() {
	if p := v.globe.Points(); p != nil {
		v.metrics.MorphTargets.Set(float64(len(p.Mesh.Geometry.MorphTargets)))
	}
}

func (v *viewer) points() int {
	if p := v.globe.Points(); p != nil {
		return p.Mesh.Geometry.Instances()
	}
	return 0
}

func (v *viewer) status() render.Status {
	s := render.Status{Points: v.points(), Time: v.globe.Time(), FPS: ebiten.ActualFPS()}
	if p := v.globe.Points(); p != nil {
		s.Animated = len(p.Mesh.MorphInfluences) > 0
	}
	return s
}

// startFeed receives frames in the background. They are applied on the game
// goroutine before each frame step.
func (v *viewer) startFeed(ctx context.Context, url string) {
	v.live = make(chan sources.Frame, liveBuffer)
	feed := &sources.Feed{
		URL:     url,
		Format:  globe.Format(v.cfg.Format),
		OnFrame: func(sources.Frame) { v.metrics.FeedFrames.Inc() },
	}
	go func() {
		v.metrics.FeedRunning.Set(1)
		defer v.metrics.FeedRunning.Set(0)
		if err := feed.Run(ctx, v.live); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("component", "viewer").Msg("feed stopped")
		}
	}()
	v.game.BeforeFrame = v.drainLive
}

func (v *viewer) drainLive() {
	for {
		select {
		case f := <-v.live:
			v.addLive(f)
		default:
			return
		}
	}
}

// addLive appends a feed frame as the newest morph target and keeps it in
// the frame store when one is open.
func (v *viewer) addLive(f sources.Frame) {
	err := v.globe.AddData(f.Data, globe.Options{Format: f.Format, Animated: true, Name: f.Name})
	if err != nil {
		log.Warn().Err(err).Str("component", "viewer").Str("frame", f.Name).Msg("dropping feed frame")
		return
	}
	v.globe.CreatePoints()
	v.globe.SetTime(v.globe.Time())
	v.countPoints(f)
	v.updateTargets()

	if v.store != nil && f.Name != "" {
		if err := v.store.Put(f); err != nil {
			log.Warn().Err(err).Str("component", "viewer").Str("frame", f.Name).Msg("storing feed frame")
		}
	}
}

func (v *viewer) Close() {
	v.globe.Dispose()
	if v.store != nil {
		if err := v.store.Close(); err != nil {
			log.Error().Err(err).Str("component", "viewer").Msg("closing frame store")
		}
		v.store = nil
	}
}

func loadCoastlines(ctx context.Context, cache *utils.Cache, src string) (*render.Coastlines, error) {
	rc, err := sources.Open(ctx, cache, src)
	if err != nil {
		return nil, fmt.Errorf("opening coastlines: %w", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading coastlines: %w", err)
	}
	coast, err := render.LoadCoastlines(data)
	if err != nil {
		return nil, fmt.Errorf("coastlines %s: %w", src, err)
	}
	log.Info().Str("component", "viewer").Int("segments", coast.Segments()).Msg("loaded coastlines")
	return coast, nil
}
