// Package sources loads point records for the globe from files, URLs, a
// local frame store and a live websocket feed.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sudorandom/debris-globe/pkg/globe"
	"github.com/sudorandom/debris-globe/pkg/utils"
)

// DefaultFrameName names the frame of a flat record array.
const DefaultFrameName = "default"

var ErrEmptySeries = errors.New("series has no frames")

// Frame is one named set of flat records.
type Frame struct {
	Name   string       `json:"name"`
	Format globe.Format `json:"format"`
	Data   []float64    `json:"data"`
}

// DecodeFrames reads a JSON document of records. A flat number array is one
// frame named DefaultFrameName; an array of [name, [numbers...]] pairs is a
// series with one frame per pair.
func DecodeFrames(r io.Reader, format globe.Format) ([]Frame, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	if len(raw) == 0 || !bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte("[")) {
		data := make([]float64, len(raw))
		for i, v := range raw {
			if err := json.Unmarshal(v, &data[i]); err != nil {
				return nil, fmt.Errorf("decoding record %d: %w", i, err)
			}
		}
		return []Frame{{Name: DefaultFrameName, Format: format, Data: data}}, nil
	}

	frames := make([]Frame, 0, len(raw))
	for i, entry := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("series entry %d: want [name, data]", i)
		}
		f := Frame{Format: format}
		if err := json.Unmarshal(pair[0], &f.Name); err != nil {
			// Series names are often years written as numbers.
			f.Name = strings.Trim(string(bytes.TrimSpace(pair[0])), `"`)
		}
		if err := json.Unmarshal(pair[1], &f.Data); err != nil {
			return nil, fmt.Errorf("series entry %q: %w", f.Name, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// IsURL reports whether src should be fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open returns a reader for a local path or an HTTP(S) URL. URLs are read
// through cache.
func Open(ctx context.Context, cache *utils.Cache, src string) (io.ReadCloser, error) {
	if IsURL(src) {
		return cache.GetCachedReader(ctx, src, true, "records")
	}
	return os.Open(src)
}

// LoadFrames reads src as GeoJSON when its name ends in .geojson and as JSON
// records otherwise.
func LoadFrames(ctx context.Context, cache *utils.Cache, src string, format globe.Format) ([]Frame, error) {
	rc, err := Open(ctx, cache, src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = rc.Close() }()

	if isGeoJSON(src) {
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src, err)
		}
		records, err := GeoJSONRecords(data, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		return []Frame{{Name: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), Format: format, Data: records}}, nil
	}

	frames, err := DecodeFrames(rc, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return frames, nil
}

func isGeoJSON(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 && IsURL(src) {
		src = src[:i]
	}
	return strings.EqualFold(filepath.Ext(src), ".geojson")
}

// Apply feeds frames to g. One frame replaces the point layer; several become
// morph targets of a new animated layer, in order. A series is checked before
// any frame reaches g, and a failed series leaves no pending data behind.
func Apply(g *globe.Globe, frames []Frame) error {
	if len(frames) == 0 {
		return ErrEmptySeries
	}
	animated := len(frames) > 1
	if animated {
		if err := checkSeries(frames); err != nil {
			return err
		}
		g.ClearData()
	}
	for _, f := range frames {
		opts := globe.Options{Format: f.Format, Animated: animated}
		if animated {
			opts.Name = f.Name
		}
		if err := g.AddData(f.Data, opts); err != nil {
			if animated {
				g.ClearData()
			}
			return fmt.Errorf("frame %q: %w", f.Name, err)
		}
	}
	g.CreatePoints()
	return nil
}

// checkSeries verifies that every frame of a series has a known format, the
// same number of points as the first frame and a name of its own.
func checkSeries(frames []Frame) error {
	seen := make(map[string]bool, len(frames))
	count := -1
	for _, f := range frames {
		format := f.Format
		if format == "" {
			format = globe.FormatMagnitude
		}
		stride, err := format.Stride()
		if err != nil {
			return fmt.Errorf("frame %q: %w", f.Name, err)
		}
		n := len(f.Data) / stride
		if count < 0 {
			count = n
		} else if n != count {
			return fmt.Errorf("frame %q: %w: %d points, first frame has %d", f.Name, globe.ErrFrameMismatch, n, count)
		}
		if f.Name != "" {
			if seen[f.Name] {
				return fmt.Errorf("frame %q: %w", f.Name, globe.ErrDuplicateTarget)
			}
			seen[f.Name] = true
		}
	}
	return nil
}
