package sources

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 60 * time.Second
)

// Feed receives frames from a websocket server. Each text message is a JSON
// object {"name": ..., "format": ..., "data": [...]}.
type Feed struct {
	URL string
	// Format is used for messages that do not name one.
	Format globe.Format

	Dialer     *websocket.Dialer
	Clock      clockwork.Clock
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// OnFrame, if set, is called for every frame received.
	OnFrame func(Frame)
}

// nextBackoff doubles cur up to limit.
func nextBackoff(cur, limit time.Duration) time.Duration {
	cur *= 2
	if cur > limit {
		cur = limit
	}
	return cur
}

// Run connects and delivers frames to out until ctx is cancelled. Dropped
// connections are retried with a doubling backoff that resets after every
// successful connect.
func (f *Feed) Run(ctx context.Context, out chan<- Frame) error {
	dialer := f.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	clock := f.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	minBackoff, maxBackoff := f.MinBackoff, f.MaxBackoff
	if minBackoff <= 0 {
		minBackoff = defaultMinBackoff
	}
	if maxBackoff < minBackoff {
		maxBackoff = defaultMaxBackoff
	}
	logger := log.With().Str("component", "feed").Str("url", f.URL).Logger()

	backoff := minBackoff
	for {
		logger.Info().Msg("connecting")
		c, _, err := dialer.DialContext(ctx, f.URL, nil)
		if err == nil {
			backoff = minBackoff
			err = f.read(ctx, c, out)
			_ = c.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Dur("retry_in", backoff).Msg("feed disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(backoff):
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (f *Feed) read(ctx context.Context, c *websocket.Conn, out chan<- Frame) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			return err
		}
		frame, err := f.decode(message)
		if err != nil {
			log.Debug().Str("component", "feed").Err(err).Msg("skipping message")
			continue
		}
		if f.OnFrame != nil {
			f.OnFrame(frame)
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

var errNoData = errors.New("message has no data")

func (f *Feed) decode(message []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return Frame{}, err
	}
	if frame.Data == nil {
		return Frame{}, errNoData
	}
	if frame.Format == "" {
		frame.Format = f.Format
	}
	if frame.Format == "" {
		frame.Format = globe.FormatMagnitude
	}
	if _, err := frame.Format.Stride(); err != nil {
		return Frame{}, err
	}
	return frame, nil
}
