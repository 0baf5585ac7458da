package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/render"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	Scheme          layout.Scheme
	Channels        int
	CalibrationFile string
	OutputFile      string
	Format          ImageFormat
	Theme           render.Theme
	Width           int
	Height          int
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Scheme:   layout.SchemeGrid,
		Channels: 21,
		Format:   ImagePNG,
		Theme:    render.ThemeClassic,
		Width:    960,
		Height:   720,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var scheme, theme, imageFormat string
	flag.StringVar(&scheme, "scheme", string(layout.SchemeGrid), "Layout scheme. [grid, helix, sphere, cylinder]")
	flag.IntVar(&c.Channels, "n", c.Channels, "Channel count to lay out")
	flag.StringVar(&c.CalibrationFile, "cal", "", "Path to a calibration CSV overriding base positions")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&theme, "theme", string(render.ThemeClassic), "Surface color theme. [classic, thermal, grayscale, marine]")
	flag.IntVar(&c.Width, "width", c.Width, "Image width in pixels")
	flag.IntVar(&c.Height, "height", c.Height, "Image height in pixels")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.Channels < 1 || c.Channels > 1024 {
		err = fmt.Errorf("channel count %d out of range [1, 1024]", c.Channels)
	} else if c.Width < 64 || c.Height < 64 {
		err = fmt.Errorf("image size %dx%d is too small", c.Width, c.Height)
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}
	if err == nil {
		c.Scheme, err = layout.ParseScheme(strings.ToLower(scheme))
	}
	if err == nil {
		c.Theme, err = render.ParseTheme(strings.ToLower(theme))
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
