package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
)

// CaptureFileName is the name a frame captured at ts is saved under.
func CaptureFileName(ts time.Time, suffix string) string {
	return fmt.Sprintf("globe-%s-%s.png", ts.Format("20060102-150405"), suffix)
}

// ReadImage copies the pixels of img into memory.
func ReadImage(img *ebiten.Image) *image.RGBA {
	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)
	return rgba
}

// SavePNG writes img to path, creating its directory.
func SavePNG(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating capture directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating capture file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding capture: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("component", "capture").Str("path", path).Msg("captured frame")
	return nil
}

// CaptureAsync copies img and saves it in dir in the background, so the
// frame is not held up by disk writes.
func CaptureAsync(img *ebiten.Image, dir, suffix string) {
	if dir == "" {
		return
	}
	rgba := ReadImage(img)
	path := filepath.Join(dir, CaptureFileName(time.Now(), suffix))
	go func() {
		if err := SavePNG(rgba, path); err != nil {
			log.Error().Err(err).Str("component", "capture").Msg("saving frame")
		}
	}()
}
