package observability

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.FeedFrames.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FeedFrames))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FeedFrames))
}

func TestObserveRender(t *testing.T) {
	m := NewMetrics()
	m.ObserveRender(1200, 4*time.Millisecond)
	m.ObserveRender(900, 6*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesRendered))
	assert.Equal(t, 900.0, testutil.ToFloat64(m.Triangles))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FrameDuration))

	m.PointsIngested.WithLabelValues("legend").Add(3)
	m.PointsIngested.WithLabelValues("magnitude").Add(5)
	assert.Equal(t, 2, testutil.CollectAndCount(m.PointsIngested))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PointsIngested.WithLabelValues("legend")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.MorphTargets.Set(8)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "globe_morph_targets 8")
	assert.Contains(t, body, "globe_frames_rendered_total 0")
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/healthz")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", strings.TrimSpace(string(body)))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
