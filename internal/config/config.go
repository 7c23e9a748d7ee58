// Package config loads viewer settings from defaults, an optional JSON file
// and GLOBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/sudorandom/debris-globe/pkg/globe"
)

// EnvPrefix prefixes environment overrides, e.g. GLOBE_FRAMES_DB.
const EnvPrefix = "GLOBE"

// Config holds the viewer settings.
type Config struct {
	Data       string   `mapstructure:"data"`
	Format     string   `mapstructure:"format"`
	Palette    []string `mapstructure:"palette"`
	Labels     []string `mapstructure:"labels"`
	Coastlines string   `mapstructure:"coastlines"`

	Width  int     `mapstructure:"width"`
	Height int     `mapstructure:"height"`
	TPS    int     `mapstructure:"tps"`
	Follow float64 `mapstructure:"follow"`

	LogLevel    string `mapstructure:"log_level"`
	FramesDB    string `mapstructure:"frames_db"`
	Feed        string `mapstructure:"feed"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	CacheDir    string `mapstructure:"cache_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data", "data/space_junk.json")
	v.SetDefault("format", string(globe.FormatLegend))
	v.SetDefault("palette", []string{"#34cb57", "#666666", "#db0b00"})
	v.SetDefault("labels", []string{"Active", "Inactive", "Debris"})
	v.SetDefault("coastlines", "")

	v.SetDefault("width", 1280)
	v.SetDefault("height", 720)
	v.SetDefault("tps", 60)
	v.SetDefault("follow", 0.0)

	v.SetDefault("log_level", "info")
	v.SetDefault("frames_db", "")
	v.SetDefault("feed", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("cache_dir", "data/cache")
}

// Load reads defaults, then the JSON file at path, then GLOBE_* environment
// variables. With an empty path an optional globe.json in the working
// directory is read instead.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("json")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("globe")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if _, err := globe.Format(c.Format).Stride(); err != nil {
		return fmt.Errorf("config format: %w", err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config size %dx%d: width and height must be positive", c.Width, c.Height)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("config tps %d: must be positive", c.TPS)
	}
	if _, err := c.PaletteColors(); err != nil {
		return err
	}
	return nil
}

// PaletteColors parses the hex palette.
func (c *Config) PaletteColors() ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(c.Palette))
	for _, hex := range c.Palette {
		col, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("config palette %q: %w", hex, err)
		}
		r, g, b := col.RGB255()
		out = append(out, color.RGBA{r, g, b, 255})
	}
	return out, nil
}

// Level parses LogLevel. Unknown names fall back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
