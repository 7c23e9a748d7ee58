package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/space_junk.json", cfg.Data)
	assert.Equal(t, "legend", cfg.Format)
	assert.Equal(t, []string{"#34cb57", "#666666", "#db0b00"}, cfg.Palette)
	assert.Equal(t, []string{"Active", "Inactive", "Debris"}, cfg.Labels)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 60, cfg.TPS)
	assert.Equal(t, 0.0, cfg.Follow)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.FramesDB)
	assert.Equal(t, "", cfg.Feed)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, "data/cache", cfg.CacheDir)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewer.json")
	body := `{
		"format": "magnitude",
		"width": 640,
		"follow": 0.1,
		"frames_db": "/tmp/frames",
		"palette": ["#ffffff"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "magnitude", cfg.Format)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 0.1, cfg.Follow)
	assert.Equal(t, "/tmp/frames", cfg.FramesDB)
	assert.Equal(t, []string{"#ffffff"}, cfg.Palette)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "globe.json"), []byte(`{"tps": 30}`), 0644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TPS)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GLOBE_FRAMES_DB", "env-frames")
	t.Setenv("GLOBE_HEIGHT", "480")
	t.Setenv("GLOBE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-frames", cfg.FramesDB)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/globe.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"format":  `{"format": "csv"}`,
		"size":    `{"width": 0}`,
		"tps":     `{"tps": -1}`,
		"palette": `{"palette": ["not-a-color"]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "globe.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestPaletteColors(t *testing.T) {
	cfg := &Config{Palette: []string{"#34cb57", "#666666", "#db0b00"}}
	got, err := cfg.PaletteColors()
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{
		{0x34, 0xcb, 0x57, 255},
		{0x66, 0x66, 0x66, 255},
		{0xdb, 0x0b, 0x00, 255},
	}, got)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := (&Config{LogLevel: tt.in}).Level(); got != tt.want {
			t.Errorf("Level(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
