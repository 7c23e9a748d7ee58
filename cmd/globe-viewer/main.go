package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "github.com/silbinarywolf/preferdiscretegpu"
	"github.com/sudorandom/debris-globe/internal/config"
	"github.com/sudorandom/debris-globe/pkg/globe"
	"github.com/sudorandom/debris-globe/pkg/observability"
	"github.com/sudorandom/debris-globe/pkg/render"
	"github.com/sudorandom/debris-globe/pkg/sources"
	"github.com/sudorandom/debris-globe/pkg/utils"
)

// Globals are accepted by every command.
type Globals struct {
	Config   string `help:"JSON config file. Defaults to ./globe.json when present." type:"path"`
	LogLevel string `help:"Log level: trace, debug, info, warn or error." name:"log-level"`
}

// SceneFlags override the config values that shape the globe.
type SceneFlags struct {
	Data       string  `help:"Records file or URL (.json or .geojson)."`
	Format     string  `help:"Record format: magnitude or legend."`
	Coastlines string  `help:"GeoJSON file or URL with coastlines to draw on the globe."`
	FramesDB   string  `help:"Frame store directory. Stored frames become morph targets." name:"frames-db"`
	Width      int     `help:"Window width."`
	Height     int     `help:"Window height."`
	Follow     float64 `help:"Share of the way the rotation eases toward the drag target each frame."`
}

func (f *SceneFlags) apply(cfg *config.Config) {
	if f.Data != "" {
		cfg.Data = f.Data
	}
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.Coastlines != "" {
		cfg.Coastlines = f.Coastlines
	}
	if f.FramesDB != "" {
		cfg.FramesDB = f.FramesDB
	}
	if f.Width > 0 {
		cfg.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Height = f.Height
	}
	if f.Follow > 0 {
		cfg.Follow = f.Follow
	}
}

// CLI is the command line of globe-viewer.
type CLI struct {
	Globals

	View     ViewCmd     `cmd:"" default:"withargs" help:"Open the globe in a window."`
	Snapshot SnapshotCmd `cmd:"" help:"Render a number of frames and save the last one as a PNG."`
	Import   ImportCmd   `cmd:"" help:"Store a records file in the frame store."`
	Frames   FramesCmd   `cmd:"" help:"List the frames in the frame store."`
}

// ViewCmd opens an interactive window.
type ViewCmd struct {
	SceneFlags
	Feed        string `help:"Websocket URL streaming frames."`
	MetricsAddr string `help:"Serve Prometheus metrics on this address, e.g. :9090." name:"metrics-addr"`
	TPS         int    `help:"Ticks per second." name:"tps"`
	CaptureDir  string `help:"Directory for screenshots taken with P." name:"capture-dir" default:"captures"`
}

func (c *ViewCmd) Run(ctx context.Context, cfg *config.Config) error {
	c.apply(cfg)
	if c.Feed != "" {
		cfg.Feed = c.Feed
	}
	if c.MetricsAddr != "" {
		cfg.MetricsAddr = c.MetricsAddr
	}
	if c.TPS > 0 {
		cfg.TPS = c.TPS
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("component", "metrics").Msg("metrics server stopped")
			}
		}()
	}

	v, err := newViewer(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer v.Close()

	if cfg.Feed != "" {
		v.startFeed(ctx, cfg.Feed)
	}
	v.game.CaptureDir = c.CaptureDir
	v.globe.Animate()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return run(v.game, cfg, "Space Debris Globe")
}

// SnapshotCmd renders without user input and writes the final frame.
type SnapshotCmd struct {
	SceneFlags
	Count  int     `help:"Frames to render before capturing." name:"count" default:"60"`
	Time   float64 `help:"Morph time to render at." default:"0"`
	Output string  `help:"PNG path. Defaults to a timestamped name in the working directory." short:"o" type:"path"`
}

func (c *SnapshotCmd) Run(ctx context.Context, cfg *config.Config) error {
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}

	v, err := newViewer(ctx, cfg, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer v.Close()

	out := c.Output
	if out == "" {
		out = render.CaptureFileName(time.Now(), "snapshot")
	}
	var saveErr error
	v.game.MaxFrames = c.Count
	v.game.OnCapture = func(screen *ebiten.Image) {
		saveErr = render.SavePNG(render.ReadImage(screen), out)
	}
	v.globe.SetTime(c.Time)
	v.globe.Animate()

	if err := run(v.game, cfg, "Space Debris Globe (snapshot)"); err != nil {
		return err
	}
	if saveErr != nil {
		return saveErr
	}
	if v.game.Frames() < c.Count {
		return fmt.Errorf("stopped after %d of %d frames", v.game.Frames(), c.Count)
	}
	return nil
}

// ImportCmd loads records and stores them as frames.
type ImportCmd struct {
	Source   string `arg:"" help:"Records file or URL (.json or .geojson)."`
	Name     string `help:"Frame name for a single-frame source. Series keep their own names."`
	Format   string `help:"Record format: magnitude or legend."`
	FramesDB string `help:"Frame store directory." name:"frames-db"`
}

func (c *ImportCmd) Run(ctx context.Context, cfg *config.Config) error {
	format := globe.Format(cfg.Format)
	if c.Format != "" {
		format = globe.Format(c.Format)
	}
	if _, err := format.Stride(); err != nil {
		return err
	}
	db := firstNonEmpty(c.FramesDB, cfg.FramesDB)
	if db == "" {
		return errors.New("no frame store: set --frames-db or frames_db in the config")
	}

	frames, err := sources.LoadFrames(ctx, utils.NewCache(cfg.CacheDir), c.Source, format)
	if err != nil {
		return err
	}
	if len(frames) == 1 {
		switch {
		case c.Name != "":
			frames[0].Name = c.Name
		case frames[0].Name == sources.DefaultFrameName:
			frames[0].Name = trimExt(filepath.Base(c.Source))
		}
	}

	store, err := sources.OpenFrameStore(db)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("closing frame store")
		}
	}()
	if err := store.PutAll(frames); err != nil {
		return err
	}
	for _, f := range frames {
		log.Info().Str("frame", f.Name).Str("format", string(f.Format)).Int("values", len(f.Data)).Msg("stored frame")
	}
	return nil
}

// FramesCmd prints the stored frame names.
type FramesCmd struct {
	FramesDB string `help:"Frame store directory." name:"frames-db"`
}

func (c *FramesCmd) Run(cfg *config.Config) error {
	db := firstNonEmpty(c.FramesDB, cfg.FramesDB)
	if db == "" {
		return errors.New("no frame store: set --frames-db or frames_db in the config")
	}
	store, err := sources.OpenFrameStore(db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return store.ForEach(func(f sources.Frame) error {
		stride, err := f.Format.Stride()
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%s\t%s\t%d points\n", f.Name, f.Format, len(f.Data)/stride)
		return err
	})
}

func run(game *render.Game, cfg *config.Config, title string) error {
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(game)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func setupLogging(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}).With().Timestamp().Logger()
}

func main() {
	setupLogging(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("globe-viewer"),
		kong.Description("Plot space debris records on an interactive 3D globe."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	setupLogging(cfg.Level())

	if err := kctx.Run(cfg); err != nil {
		log.Fatal().Err(err).Str("command", kctx.Command()).Msg("command failed")
	}
}
