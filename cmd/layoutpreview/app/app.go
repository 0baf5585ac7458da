package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
)

// Run renders one frame of the spatial view at rest: every channel on
// its base position under the configured scheme and calibration, no
// data. It exists so a calibration table can be checked before wiring a
// live stream to the viewer.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	sess := stream.NewSession(
		stream.WithLogger(logger),
		stream.WithScheme(config.Scheme),
	)
	sess.SetChannelCount(config.Channels)

	if config.CalibrationFile != "" {
		if err := applyCalibration(sess, config, logger); err != nil {
			return err
		}
	}

	sc := scene.New(scene.Config{Theme: config.Theme})
	sc.Advance(time.Now(), sess)

	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	sc.Render(img, sess)

	logger.Info("rendering layout preview",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("scheme", string(config.Scheme)),
			slog.Int("channels", config.Channels),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

func applyCalibration(sess *stream.Session, config *Config, logger *slog.Logger) error {
	cal, skipped, err := layout.LoadCalibration(config.CalibrationFile)
	if err != nil {
		return fmt.Errorf("loading calibration: %w", err)
	}
	if skipped > 0 {
		logger.Warn("calibration rows skipped", slog.Int("rows", skipped))
	}

	sess.SetCalibration(cal)

	covered, beyond := cal.Coverage(config.Channels)
	if beyond > 0 || covered < config.Channels {
		logger.Warn("calibration coverage mismatch",
			slog.Int("channels", config.Channels),
			slog.Int("covered", covered),
			slog.Int("beyondCount", beyond),
		)
	}
	return nil
}
