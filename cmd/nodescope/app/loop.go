package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

const (
	windowStep  = 0.5  // Seconds per [ or ] press
	orbitStep   = 0.15 // Radians per arrow press
	zoomInStep  = 0.87
	zoomOutStep = 1.15
)

// Loop is the viewer loop: the one goroutine that owns the session, the
// scene and the composed frame. Ingestion, operator commands and frame
// rendering interleave here, so a frame never observes a half-applied
// update and none of the shared state needs a lock.
type Loop struct {
	logger   *slog.Logger
	sess     *stream.Session
	scene    *scene.Scene
	composer *Composer
	sink     Sink
	pacing   *Pacing

	events <-chan telemetry.Event
	keys   <-chan Command

	fps             int
	calibrationFile string

	paused     bool
	diagnostic string
	reported   map[string]struct{}
}

// Run drives the loop until ctx is canceled or the operator quits.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-l.events:
			l.dispatch(ev)

		case cmd, ok := <-l.keys:
			if !ok {
				l.keys = nil
				continue
			}
			if l.apply(cmd) {
				return nil
			}

		case now := <-ticker.C:
			if l.paused {
				continue
			}
			l.frame(now)
		}
	}
}

// dispatch routes one producer event to its ingestion entry point.
func (l *Loop) dispatch(ev telemetry.Event) {
	switch {
	case ev.Single != nil:
		l.sess.PushSingle(ev.Single)
	case ev.Batch != nil:
		l.sess.PushBatch(ev.Batch)
	case ev.SetCount != nil:
		l.sess.SetChannelCount(*ev.SetCount)
	case ev.Latest != nil:
		l.sess.UpdateLatest(ev.Latest)
	}
}

// apply executes one operator command. It reports whether the loop
// should exit.
func (l *Loop) apply(cmd Command) bool {
	switch cmd.Kind {
	case CommandQuit:
		return true

	case CommandPause:
		l.paused = !l.paused
		if l.paused {
			l.logger.Info("render paused")
			// One more frame, so the strip shows the paused state
			// before the output freezes.
			l.frame(time.Now())
		} else {
			l.logger.Info("render resumed")
		}

	case CommandClear:
		l.sess.Clear()

	case CommandWindowDown:
		l.sess.SetWindow(l.sess.Window() - windowStep)

	case CommandWindowUp:
		l.sess.SetWindow(l.sess.Window() + windowStep)

	case CommandCycleScheme:
		l.sess.SetScheme(l.sess.Scheme().Next())

	case CommandReloadCalibration:
		if l.calibrationFile == "" {
			l.logger.Warn("no calibration file configured")
			break
		}
		l.applyCalibration()

	case CommandToggleChannel:
		l.sess.ToggleVisible(cmd.Channel)

	case CommandShowAll:
		l.sess.ShowAll()

	case CommandOrbitLeft:
		l.scene.Camera().Orbit(-orbitStep, 0)
	case CommandOrbitRight:
		l.scene.Camera().Orbit(orbitStep, 0)
	case CommandOrbitUp:
		l.scene.Camera().Orbit(0, orbitStep)
	case CommandOrbitDown:
		l.scene.Camera().Orbit(0, -orbitStep)

	case CommandZoomIn:
		l.scene.Camera().Zoom(zoomInStep)
	case CommandZoomOut:
		l.scene.Camera().Zoom(zoomOutStep)

	case CommandResetCamera:
		l.scene.ResetCamera()
	}
	return false
}

// applyCalibration loads the configured table into the session and
// reports its coverage against the current channel count.
func (l *Loop) applyCalibration() {
	cal, skipped, err := layout.LoadCalibration(l.calibrationFile)
	if err != nil {
		l.logger.Error("calibration load failed", slog.String("error", err.Error()))
		l.diagnostic = fmt.Sprintf("calibration: %s", err)
		return
	}

	l.sess.SetCalibration(cal)
	l.logger.Info("calibration applied",
		slog.String("file", l.calibrationFile),
		slog.Int("entries", len(cal)),
		slog.Int("skippedRows", skipped),
	)

	covered, beyond := cal.Coverage(l.sess.ChannelCount())
	if beyond > 0 || covered < l.sess.ChannelCount() {
		l.logger.Warn("calibration coverage mismatch",
			slog.Int("channels", l.sess.ChannelCount()),
			slog.Int("covered", covered),
			slog.Int("beyondCount", beyond),
		)
	}
}

func (l *Loop) frame(now time.Time) {
	start := time.Now()
	if l.renderFrame(now) {
		l.diagnostic = ""
	}
	l.pacing.Record(time.Now(), time.Since(start))
}

// renderFrame advances and draws one frame. A panic in any render stage
// is contained to this frame: it surfaces on the diagnostic line and the
// loop keeps running.
func (l *Loop) renderFrame(now time.Time) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.note(fmt.Sprintf("frame failed: %v", r))
			ok = false
		}
	}()

	l.scene.Advance(now, l.sess)
	img := l.composer.Compose(l.sess, l.hudInfo())
	if err := l.sink.Write(img); err != nil {
		l.note(fmt.Sprintf("sink: %s", err))
		return false
	}
	return true
}

// note puts a failure on the diagnostic line, logging each distinct
// message once so a fault repeating at frame rate cannot flood the log.
func (l *Loop) note(msg string) {
	if _, seen := l.reported[msg]; !seen {
		l.reported[msg] = struct{}{}
		l.logger.Error(msg)
	}
	l.diagnostic = msg
}

func (l *Loop) hudInfo() HUDInfo {
	stats := l.sess.Stats()
	return HUDInfo{
		State:      l.scene.State(),
		Paused:     l.paused,
		RateHz:     l.sess.RateHz(),
		Window:     l.sess.Window(),
		WindowMode: l.sess.WindowMode(),
		Visible:    l.sess.VisibleCount(),
		Total:      l.sess.ChannelCount(),
		FPS:        l.pacing.FPS(),
		P99:        l.pacing.P99(),
		Scheme:     l.sess.Scheme(),
		Samples:    stats.Samples,
		Dropped:    stats.Dropped + stats.Ignored,
		Diagnostic: l.diagnostic,
	}
}
