package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/render"
	"github.com/signalgrid/nodescope/internal/stream"
)

const (
	SinkANSI   SinkType = "ansi"
	SinkFrames SinkType = "frames"
	SinkGIF    SinkType = "gif"
	SinkOff    SinkType = "off"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type SinkType string

type ImageFormat string

var validSinkTypes = map[SinkType]struct{}{
	SinkANSI:   {},
	SinkFrames: {},
	SinkGIF:    {},
	SinkOff:    {},
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// Config represents the main application configuration
type Config struct {
	Settings Settings     `yaml:"settings"`
	Frame    FrameConfig  `yaml:"frame"`
	View     ViewConfig   `yaml:"view"`
	Source   SourceConfig `yaml:"source"`
	Sink     SinkConfig   `yaml:"sink"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level maps the configured log level onto slog's scale, defaulting to
// info for anything unrecognized.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FrameConfig sets the composed frame geometry and cadence.
type FrameConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// ViewConfig tunes the two views and the shared display window.
type ViewConfig struct {
	Theme           string  `yaml:"theme"`
	Scheme          string  `yaml:"scheme"`
	Window          float64 `yaml:"window"` // Seconds; 0 keeps automatic control
	Gain            float64 `yaml:"gain"`
	Trail           int     `yaml:"trail"`
	CalibrationFile string  `yaml:"calibrationFile"`
}

// SourceConfig tunes the built-in loopback source.
type SourceConfig struct {
	Channels   int     `yaml:"channels"`
	PacketRate float64 `yaml:"packetRate"`
	BaseFreq   float64 `yaml:"baseFreq"`
	LatestRate float64 `yaml:"latestRate"`
}

// SinkConfig selects where composed frames go.
type SinkConfig struct {
	Type      SinkType    `yaml:"type"`
	Directory string      `yaml:"directory"` // frames sink
	File      string      `yaml:"file"`      // gif sink
	Format    ImageFormat `yaml:"format"`    // frames sink
	MaxFrames int         `yaml:"maxFrames"` // gif sink capture bound
}

func NewConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Frame:    FrameConfig{Width: 1280, Height: 720, FPS: 20},
		View:     ViewConfig{Theme: string(render.ThemeClassic), Scheme: string(layout.SchemeGrid)},
		Source:   SourceConfig{Channels: 21, PacketRate: 200, BaseFreq: 0.5, LatestRate: 30},
		Sink: SinkConfig{
			Type:      SinkANSI,
			Directory: "frames",
			File:      "nodescope.gif",
			Format:    ImagePNG,
			MaxFrames: 600,
		},
	}
}

// LoadConfig reads the YAML configuration file at path over the defaults
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every field that later stages consume without their own
// guards.
func (c *Config) Validate() error {
	if c.Frame.Width < 320 || c.Frame.Width > 4096 {
		return fmt.Errorf("frame width %d out of range [320, 4096]", c.Frame.Width)
	}
	if c.Frame.Height < 240 || c.Frame.Height > 4096 {
		return fmt.Errorf("frame height %d out of range [240, 4096]", c.Frame.Height)
	}
	if c.Frame.FPS < 1 || c.Frame.FPS > 120 {
		return fmt.Errorf("frame rate %d out of range [1, 120]", c.Frame.FPS)
	}

	if _, err := render.ParseTheme(c.View.Theme); err != nil {
		return err
	}
	if _, err := layout.ParseScheme(c.View.Scheme); err != nil {
		return err
	}
	if w := c.View.Window; w != 0 && (w < stream.MinWindow || w > stream.MaxWindow) {
		return fmt.Errorf("display window %.1f out of range [%.1f, %.1f]", w, stream.MinWindow, stream.MaxWindow)
	}
	if c.View.Gain < 0 {
		return fmt.Errorf("gain must not be negative, got %.3f", c.View.Gain)
	}
	if c.View.Trail < 0 {
		return fmt.Errorf("trail length must not be negative, got %d", c.View.Trail)
	}

	if c.Source.Channels < 1 || c.Source.Channels > 256 {
		return fmt.Errorf("source channels %d out of range [1, 256]", c.Source.Channels)
	}
	if c.Source.PacketRate <= 0 || c.Source.PacketRate > 100000 {
		return fmt.Errorf("source packet rate %.1f out of range (0, 100000]", c.Source.PacketRate)
	}
	if c.Source.BaseFreq <= 0 {
		return fmt.Errorf("source base frequency must be positive, got %.3f", c.Source.BaseFreq)
	}
	if c.Source.LatestRate <= 0 || c.Source.LatestRate > 1000 {
		return fmt.Errorf("source latest rate %.1f out of range (0, 1000]", c.Source.LatestRate)
	}

	if _, ok := validSinkTypes[c.Sink.Type]; !ok {
		return fmt.Errorf("invalid sink type: %s", c.Sink.Type)
	}
	if _, ok := validImageFormats[c.Sink.Format]; !ok {
		return fmt.Errorf("invalid image format: %s", c.Sink.Format)
	}
	if c.Sink.Type == SinkFrames && c.Sink.Directory == "" {
		return errors.New("frames sink requires a directory")
	}
	if c.Sink.Type == SinkGIF {
		if c.Sink.File == "" {
			return errors.New("gif sink requires an output file")
		}
		if c.Sink.MaxFrames < 1 {
			return fmt.Errorf("gif sink frame bound must be positive, got %d", c.Sink.MaxFrames)
		}
	}
	return nil
}

// Theme returns the parsed view theme. Call after Validate.
func (c *Config) Theme() render.Theme {
	t, _ := render.ParseTheme(c.View.Theme)
	return t
}

// Scheme returns the parsed layout scheme. Call after Validate.
func (c *Config) Scheme() layout.Scheme {
	s, _ := layout.ParseScheme(c.View.Scheme)
	return s
}
