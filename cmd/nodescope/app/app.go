package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/source"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

// eventQueueDepth bounds the producer-to-loop channel. Producers drop
// their oldest queued event instead of blocking when the loop lags.
const eventQueueDepth = 256

// sourceStopTimeout bounds the shutdown wait for the producer goroutine.
const sourceStopTimeout = 2 * time.Second

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	sess := stream.NewSession(
		stream.WithLogger(logger),
		stream.WithScheme(config.Scheme()),
	)
	sess.SetChannelCount(config.Source.Channels)
	if config.View.Window > 0 {
		sess.SetWindow(config.View.Window)
	}

	sc := scene.New(scene.Config{
		Gain:        config.View.Gain,
		FPS:         config.Frame.FPS,
		TrailLength: config.View.Trail,
		Theme:       config.Theme(),
	})

	composer, err := NewComposer(config.Frame.Width, config.Frame.Height, sc)
	if err != nil {
		return fmt.Errorf("creating composer: %w", err)
	}
	defer composer.Close()

	sink, err := NewSink(config.Sink, config.Frame.FPS, logger)
	if err != nil {
		return fmt.Errorf("creating sink: %w", err)
	}

	events := make(chan telemetry.Event, eventQueueDepth)
	src := source.NewSynth(source.SynthConfig{
		Channels:   config.Source.Channels,
		PacketRate: config.Source.PacketRate,
		BaseFreq:   config.Source.BaseFreq,
		LatestRate: config.Source.LatestRate,
	}, source.WithLogger(logger))

	srcCtx, cancelSource := context.WithCancel(ctx)
	defer cancelSource()

	done, err := src.Begin(srcCtx, events)
	if err != nil {
		sink.Close()
		return fmt.Errorf("starting source: %w", err)
	}

	keysCtx, cancelKeys := context.WithCancel(ctx)
	defer cancelKeys()

	loop := &Loop{
		logger:          logger,
		sess:            sess,
		scene:           sc,
		composer:        composer,
		sink:            sink,
		pacing:          NewPacing(),
		events:          events,
		keys:            StartKeys(keysCtx, logger),
		fps:             config.Frame.FPS,
		calibrationFile: config.View.CalibrationFile,
		reported:        make(map[string]struct{}),
	}
	if config.View.CalibrationFile != "" {
		loop.applyCalibration()
	}

	logger.Info("viewer started",
		slog.String("frame", composer.Size()),
		slog.Int("fps", config.Frame.FPS),
		slog.String("sink", string(config.Sink.Type)),
		slog.String("scheme", config.View.Scheme),
		slog.String("theme", config.View.Theme),
	)

	runErr := loop.Run(ctx)

	cancelSource()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("source stopped with error", slog.String("error", err.Error()))
		}
	case <-time.After(sourceStopTimeout):
		logger.Warn("source did not stop in time")
	}

	if err := sink.Close(); err != nil {
		logger.Error("closing sink", slog.String("error", err.Error()))
	}
	loop.pacing.LogSummary(logger)

	return runErr
}
