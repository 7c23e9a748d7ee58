package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		cur, want time.Duration
	}{
		{time.Second, 2 * time.Second},
		{16 * time.Second, 32 * time.Second},
		{32 * time.Second, 60 * time.Second},
		{60 * time.Second, 60 * time.Second},
	}
	for _, tt := range tests {
		if got := nextBackoff(tt.cur, 60*time.Second); got != tt.want {
			t.Errorf("nextBackoff(%v) = %v; want %v", tt.cur, got, tt.want)
		}
	}
}

func TestFeedDecode(t *testing.T) {
	f := &Feed{Format: globe.FormatLegend}

	frame, err := f.decode([]byte(`{"name": "live", "data": [1, 2, 0.5, 0]}`))
	require.NoError(t, err)
	assert.Equal(t, Frame{Name: "live", Format: globe.FormatLegend, Data: []float64{1, 2, 0.5, 0}}, frame)

	frame, err = f.decode([]byte(`{"name": "m", "format": "magnitude", "data": []}`))
	require.NoError(t, err)
	assert.Equal(t, globe.FormatMagnitude, frame.Format)

	_, err = f.decode([]byte(`{"name": "nodata"}`))
	assert.ErrorIs(t, err, errNoData)
	_, err = f.decode([]byte(`{"format": "xml", "data": [1]}`))
	assert.ErrorIs(t, err, globe.ErrUnsupportedFormat)
	_, err = f.decode([]byte(`not json`))
	assert.Error(t, err)

	frame, err = (&Feed{}).decode([]byte(`{"data": [1, 2, 3]}`))
	require.NoError(t, err)
	assert.Equal(t, globe.FormatMagnitude, frame.Format)
}

func TestFeedReconnects(t *testing.T) {
	var conns int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.Close() }()
		n := atomic.AddInt32(&conns, 1)
		_ = c.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"name": "c`+string(rune('0'+n))+`", "data": [1, 2, 0.5]}`))
		// Closing the connection makes the client reconnect.
	}))
	defer srv.Close()

	var seen int32
	feed := &Feed{
		URL:        "ws" + strings.TrimPrefix(srv.URL, "http"),
		MinBackoff: time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
		OnFrame:    func(Frame) { atomic.AddInt32(&seen, 1) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := make(chan Frame)
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx, out) }()

	first := <-out
	second := <-out
	assert.Equal(t, "c1", first.Name)
	assert.Equal(t, "c2", second.Name)
	assert.Equal(t, []float64{1, 2, 0.5}, second.Data)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop after cancel")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&seen), int32(2))
}

func TestFeedStopsWhileDialing(t *testing.T) {
	feed := &Feed{URL: "ws://127.0.0.1:1/unreachable", MinBackoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx, make(chan Frame)) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop after cancel")
	}
}
