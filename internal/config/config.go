// Package config loads orthoglobe settings from YAML files, ORTHOGLOBE_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"orthoglobe/hittest"
	"orthoglobe/internal/logging"
)

// envPrefix is the environment variable prefix: land.coarse resolves to
// ORTHOGLOBE_LAND_COARSE.
const envPrefix = "ORTHOGLOBE"

// Config is the full runtime configuration.
type Config struct {
	Width        int            `mapstructure:"width"`
	Height       int            `mapstructure:"height"`
	Scale        float64        `mapstructure:"scale"`
	TranslateX   float64        `mapstructure:"translate_x"`
	TranslateY   float64        `mapstructure:"translate_y"`
	Rotation     RotationConfig `mapstructure:"rotation"`
	Land         LandConfig     `mapstructure:"land"`
	MarkersFile  string         `mapstructure:"markers_file"`
	MarkerRadius float64        `mapstructure:"marker_radius"`
	HoverRadius  float64        `mapstructure:"hover_radius"`
	OutlineWidth float64        `mapstructure:"outline_width"`
	Buffer       float64        `mapstructure:"buffer"`
	HitMode      string         `mapstructure:"hit_mode"`
	Log          LogConfig      `mapstructure:"log"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
	Headless     HeadlessConfig `mapstructure:"headless"`
}

// RotationConfig is the initial rotation in degrees.
type RotationConfig struct {
	Lambda float64 `mapstructure:"lambda"`
	Phi    float64 `mapstructure:"phi"`
	Gamma  float64 `mapstructure:"gamma"`
}

// LandConfig locates the landmass documents. Locations are file paths or
// http(s) URLs.
type LandConfig struct {
	Coarse string `mapstructure:"coarse"`
	Fine   string `mapstructure:"fine"`
	Object string `mapstructure:"object"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string `mapstructure:"addr"`
}

// HeadlessConfig drives the windowless runner.
type HeadlessConfig struct {
	Hz    int `mapstructure:"hz"`
	Ticks int `mapstructure:"ticks"`
}

var defaults = map[string]interface{}{
	"width":           1050,
	"height":          1200,
	"scale":           480.0,
	"translate_x":     520.0,
	"translate_y":     600.0,
	"rotation.lambda": 0.0,
	"rotation.phi":    0.0,
	"rotation.gamma":  0.0,
	"land.coarse":     "land-110m.json",
	"land.fine":       "land-50m.json",
	"land.object":     "land",
	"markers_file":    "",
	"marker_radius":   3.0,
	"hover_radius":    8.0,
	"outline_width":   5.0,
	"buffer":          400.0,
	"hit_mode":        "pixel",
	"log.level":       "info",
	"log.format":      "console",
	"metrics.addr":    "",
	"headless.hz":     60,
	"headless.ticks":  0,
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"width":         "width",
	"height":        "height",
	"scale":         "scale",
	"translate-x":   "translate_x",
	"translate-y":   "translate_y",
	"lambda":        "rotation.lambda",
	"phi":           "rotation.phi",
	"gamma":         "rotation.gamma",
	"land-coarse":   "land.coarse",
	"land-fine":     "land.fine",
	"land-object":   "land.object",
	"markers":       "markers_file",
	"marker-radius": "marker_radius",
	"hover-radius":  "hover_radius",
	"outline-width": "outline_width",
	"buffer":        "buffer",
	"hit-mode":      "hit_mode",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"metrics-addr":  "metrics.addr",
	"hz":            "headless.hz",
	"ticks":         "headless.ticks",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Default returns the configuration with no file, environment or flags.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return cfg
}

// RegisterFlags defines the configuration flags on fs. Flags that are not set
// on the command line do not override files or the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("width", d.Width, "surface width in pixels")
	fs.Int("height", d.Height, "surface height in pixels")
	fs.Float64("scale", d.Scale, "globe radius in pixels")
	fs.Float64("translate-x", d.TranslateX, "globe center x in pixels")
	fs.Float64("translate-y", d.TranslateY, "globe center y in pixels")
	fs.Float64("lambda", d.Rotation.Lambda, "initial yaw in degrees")
	fs.Float64("phi", d.Rotation.Phi, "initial pitch in degrees")
	fs.Float64("gamma", d.Rotation.Gamma, "initial roll in degrees")
	fs.String("land-coarse", d.Land.Coarse, "coarse landmass document (path or URL)")
	fs.String("land-fine", d.Land.Fine, "fine landmass document (path or URL)")
	fs.String("land-object", d.Land.Object, "topology object holding the landmass")
	fs.String("markers", d.MarkersFile, "YAML marker registry; empty uses the built-in markers")
	fs.Float64("marker-radius", d.MarkerRadius, "marker radius in pixels")
	fs.Float64("hover-radius", d.HoverRadius, "highlighted marker radius in pixels")
	fs.Float64("outline-width", d.OutlineWidth, "sphere outline width in pixels")
	fs.Float64("buffer", d.Buffer, "distance outside the surface within which markers are drawn")
	fs.String("hit-mode", d.HitMode, "hit testing mode: pixel or index")
	fs.String("log-level", d.Log.Level, "log level")
	fs.String("log-format", d.Log.Format, "log format: console or json")
	fs.String("metrics-addr", d.Metrics.Addr, "listen address for /metrics; empty disables it")
	fs.Int("hz", d.Headless.Hz, "headless event loop rate")
	fs.Int("ticks", d.Headless.Ticks, "headless turns to run; 0 runs until interrupted")
}

// Load reads the YAML file at path (skipped when empty), merges ORTHOGLOBE_*
// environment overrides and any flags set on fs, and validates the result.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}
	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("config: bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("surface size %dx%d must be positive", c.Width, c.Height))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale %v must be positive", c.Scale))
	}
	if c.Land.Coarse == "" || c.Land.Fine == "" {
		errs = append(errs, errors.New("land.coarse and land.fine are required"))
	}
	if c.MarkerRadius <= 0 {
		errs = append(errs, fmt.Errorf("marker_radius %v must be positive", c.MarkerRadius))
	}
	if c.HoverRadius < c.MarkerRadius {
		errs = append(errs, fmt.Errorf("hover_radius %v is smaller than marker_radius %v", c.HoverRadius, c.MarkerRadius))
	}
	if c.OutlineWidth < 0 {
		errs = append(errs, fmt.Errorf("outline_width %v must not be negative", c.OutlineWidth))
	}
	if c.Buffer < 0 {
		errs = append(errs, fmt.Errorf("buffer %v must not be negative", c.Buffer))
	}
	if _, err := hittest.ParseMode(c.HitMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(c.Log.Format) {
	case "", logging.Console, logging.JSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Headless.Hz <= 0 {
		errs = append(errs, fmt.Errorf("headless.hz %d must be positive", c.Headless.Hz))
	}
	if c.Headless.Ticks < 0 {
		errs = append(errs, fmt.Errorf("headless.ticks %d must not be negative", c.Headless.Ticks))
	}
	return errors.Join(errs...)
}
