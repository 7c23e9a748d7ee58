package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the viewer.
type Metrics struct {
	Registry *prometheus.Registry

	FramesRendered prometheus.Counter
	FrameDuration  prometheus.Histogram
	Triangles      prometheus.Gauge

	PointsIngested *prometheus.CounterVec // labels: format={magnitude,legend}
	MorphTargets   prometheus.Gauge
	AnimationTime  prometheus.Gauge

	FeedFrames  prometheus.Counter
	FeedRunning prometheus.Gauge
}

// NewMetrics creates all viewer metrics and registers them with a fresh
// registry, so several instances can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globe",
			Name:      "frames_rendered_total",
			Help:      "Total frames rasterized.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globe",
			Name:      "frame_render_duration_seconds",
			Help:      "Time spent rasterizing one frame.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.0167, 0.033, 0.05, 0.1, 0.25},
		}),
		Triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe",
			Name:      "frame_triangles",
			Help:      "Triangles drawn in the last frame.",
		}),
		PointsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe",
			Name:      "points_ingested_total",
			Help:      "Data points merged into point geometry, by record format.",
		}, []string{"format"}),
		MorphTargets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe",
			Name:      "morph_targets",
			Help:      "Morph targets on the visible points mesh.",
		}),
		AnimationTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe",
			Name:      "animation_time",
			Help:      "Current position of the morph animation in [0,1].",
		}),
		FeedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globe",
			Name:      "feed_frames_total",
			Help:      "Frames received from the websocket feed.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe",
			Name:      "feed_running",
			Help:      "1 while the websocket feed is active, 0 otherwise.",
		}),
	}

	m.Registry.MustRegister(
		m.FramesRendered,
		m.FrameDuration,
		m.Triangles,
		m.PointsIngested,
		m.MorphTargets,
		m.AnimationTime,
		m.FeedFrames,
		m.FeedRunning,
	)
	return m
}

// ObserveRender records one rasterized frame.
func (m *Metrics) ObserveRender(triangles int, elapsed time.Duration) {
	m.FramesRendered.Inc()
	m.FrameDuration.Observe(elapsed.Seconds())
	m.Triangles.Set(float64(triangles))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "metrics").Str("addr", addr).Msg("http server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
