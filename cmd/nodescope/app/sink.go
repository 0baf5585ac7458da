package app

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
)

// jpegQuality matches the offline render tools.
const jpegQuality = 98

// Sink consumes composed frames. Write may keep no reference to the
// image; the composer reuses it.
type Sink interface {
	Write(img *image.RGBA) error
	Close() error
}

// NewSink builds the configured sink. fps sets the gif frame delay.
func NewSink(config SinkConfig, fps int, logger *slog.Logger) (Sink, error) {
	switch config.Type {
	case SinkOff:
		return offSink{}, nil

	case SinkFrames:
		if err := os.MkdirAll(config.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("creating frames directory: %w", err)
		}
		return &frameSink{dir: config.Directory, format: config.Format}, nil

	case SinkGIF:
		return &gifSink{
			file:      config.File,
			delay:     max(100/max(fps, 1), 2),
			maxFrames: config.MaxFrames,
			logger:    logger,
		}, nil

	case SinkANSI:
		return newANSISink(os.Stdout)
	}
	return nil, fmt.Errorf("invalid sink type: %s", config.Type)
}

type offSink struct{}

func (offSink) Write(*image.RGBA) error { return nil }
func (offSink) Close() error            { return nil }

// frameSink writes every frame as a numbered image file.
type frameSink struct {
	dir    string
	format ImageFormat
	n      int
}

func frameName(n int, format ImageFormat) string {
	return fmt.Sprintf("frame_%06d.%s", n, format)
}

func (s *frameSink) Write(img *image.RGBA) error {
	out, err := os.Create(filepath.Join(s.dir, frameName(s.n, s.format)))
	if err != nil {
		return err
	}

	switch s.format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: jpegQuality,
		})
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	s.n++
	return nil
}

func (s *frameSink) Close() error { return nil }

// gifSink captures frames into a bounded animated GIF, encoded once at
// shutdown. Frames past the bound are discarded so a long session cannot
// grow the capture without limit.
type gifSink struct {
	file      string
	delay     int // Centiseconds between frames
	maxFrames int
	frames    []*image.Paletted
	full      bool
	logger    *slog.Logger
}

func (s *gifSink) Write(img *image.RGBA) error {
	if len(s.frames) >= s.maxFrames {
		if !s.full {
			s.full = true
			s.logger.Info("gif capture bound reached, later frames are discarded",
				slog.Int("frames", s.maxFrames))
		}
		return nil
	}

	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	s.frames = append(s.frames, p)
	return nil
}

func (s *gifSink) Close() error {
	if len(s.frames) == 0 {
		return nil
	}

	out, err := os.Create(s.file)
	if err != nil {
		return fmt.Errorf("creating gif file: %w", err)
	}

	delays := make([]int, len(s.frames))
	for i := range delays {
		delays[i] = s.delay
	}
	err = gif.EncodeAll(out, &gif.GIF{Image: s.frames, Delay: delays})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encoding gif: %w", err)
	}

	s.logger.Info("gif capture written",
		slog.String("destination", s.file),
		slog.Int("frames", len(s.frames)),
	)
	return nil
}
