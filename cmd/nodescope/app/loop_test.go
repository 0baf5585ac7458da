package app

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalgrid/nodescope/internal/geom"
	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

type panicSink struct{}

func (panicSink) Write(*image.RGBA) error { panic("sink exploded") }
func (panicSink) Close() error            { return nil }

type failSink struct{ err error }

func (s failSink) Write(*image.RGBA) error { return s.err }
func (s failSink) Close() error            { return nil }

func newTestLoop(t *testing.T) *Loop {
	t.Helper()

	sc := scene.New(scene.Config{FPS: 30})
	composer, err := NewComposer(320, 240, sc)
	if err != nil {
		t.Fatalf("Failed to create composer: %v", err)
	}
	t.Cleanup(func() { composer.Close() })

	return &Loop{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sess:     stream.NewSession(),
		scene:    sc,
		composer: composer,
		sink:     offSink{},
		pacing:   NewPacing(),
		fps:      30,
		reported: make(map[string]struct{}),
	}
}

func TestLoop_DispatchRoutesEveryPayload(t *testing.T) {
	l := newTestLoop(t)

	count := 3
	l.dispatch(telemetry.Event{SetCount: &count})
	if l.sess.ChannelCount() != 3 {
		t.Fatalf("Expected 3 channels after SetCount, got %d", l.sess.ChannelCount())
	}

	ts := 10.0
	l.dispatch(telemetry.Event{Single: &telemetry.Single{Timestamp: &ts, Nodes: []float64{1, 2, 3}}})
	l.dispatch(telemetry.Event{Batch: &telemetry.Batch{
		TS:     []float64{10.1, 10.2},
		Frames: [][]float64{{4, 5, 6}, {7, 8, 9}},
	}})
	if got := l.sess.Stats().Samples; got != 9 {
		t.Errorf("Expected 9 samples ingested, got %d", got)
	}

	l.dispatch(telemetry.Event{Latest: &telemetry.LatestUpdate{
		Nodes: []telemetry.NodeAmplitude{{ID: 0, Amplitude: 42}},
	}})
	if got := l.sess.Channel(0).Latest; got != 42 {
		t.Errorf("Expected latest 42 on channel 0, got %f", got)
	}
}

func TestLoop_ApplyCommands(t *testing.T) {
	l := newTestLoop(t)
	l.sess.SetChannelCount(4)

	if l.apply(Command{Kind: CommandPause}); !l.paused {
		t.Error("Expected pause to engage")
	}
	if l.apply(Command{Kind: CommandPause}); l.paused {
		t.Error("Expected pause to release")
	}

	start := l.sess.Window()
	l.apply(Command{Kind: CommandWindowDown})
	if got := l.sess.Window(); got != start-windowStep {
		t.Errorf("Expected window %.1f, got %.1f", start-windowStep, got)
	}
	if l.sess.WindowMode() != stream.WindowLocked {
		t.Error("Expected an operator window change to lock the window")
	}
	l.apply(Command{Kind: CommandWindowUp})
	if got := l.sess.Window(); got != start {
		t.Errorf("Expected window back at %.1f, got %.1f", start, got)
	}

	l.apply(Command{Kind: CommandCycleScheme})
	if got := l.sess.Scheme(); got != layout.SchemeHelix {
		t.Errorf("Expected helix after one cycle, got %s", got)
	}

	l.apply(Command{Kind: CommandToggleChannel, Channel: 1})
	if l.sess.Channel(1).Visible {
		t.Error("Expected channel 1 hidden")
	}
	l.apply(Command{Kind: CommandShowAll})
	if l.sess.VisibleCount() != 4 {
		t.Errorf("Expected all 4 channels visible, got %d", l.sess.VisibleCount())
	}

	before := *l.scene.Camera()
	l.apply(Command{Kind: CommandOrbitLeft})
	l.apply(Command{Kind: CommandZoomOut})
	if *l.scene.Camera() == before {
		t.Error("Expected orbit and zoom to move the camera")
	}
	l.apply(Command{Kind: CommandResetCamera})
	if *l.scene.Camera() != geom.DefaultCamera() {
		t.Error("Expected reset to restore the default camera")
	}

	if !l.apply(Command{Kind: CommandQuit}) {
		t.Error("Expected quit to stop the loop")
	}
}

func TestLoop_FrameContainsPanics(t *testing.T) {
	l := newTestLoop(t)
	l.sink = panicSink{}

	// The same fault at frame rate must not grow the log.
	l.frame(time.Now())
	l.frame(time.Now())
	if l.diagnostic == "" {
		t.Fatal("Expected a diagnostic after a render panic")
	}
	if len(l.reported) != 1 {
		t.Errorf("Expected one distinct fault reported, got %d", len(l.reported))
	}

	// Recovery clears the diagnostic line.
	l.sink = offSink{}
	l.frame(time.Now())
	if l.diagnostic != "" {
		t.Errorf("Expected a clean frame to clear the diagnostic, got %q", l.diagnostic)
	}
}

func TestLoop_SinkErrorsSurfaceOnce(t *testing.T) {
	l := newTestLoop(t)
	l.sink = failSink{err: errors.New("disk full")}

	l.frame(time.Now())
	l.frame(time.Now())
	if l.diagnostic != "sink: disk full" {
		t.Errorf("Unexpected diagnostic %q", l.diagnostic)
	}
	if len(l.reported) != 1 {
		t.Errorf("Expected one distinct error reported, got %d", len(l.reported))
	}
}

func TestLoop_ApplyCalibration(t *testing.T) {
	l := newTestLoop(t)
	l.sess.SetChannelCount(2)

	path := filepath.Join(t.TempDir(), "nodes.csv")
	if err := os.WriteFile(path, []byte("index,x,y,z\n0, 5.0, 6.0, 7.0\n"), 0o644); err != nil {
		t.Fatalf("Failed to write calibration file: %v", err)
	}
	l.calibrationFile = path

	l.applyCalibration()
	if got := l.sess.Channel(0).Base; got != (geom.Vec3{X: 5, Y: 7, Z: 6}) {
		t.Errorf("Expected calibrated base {5 7 6}, got %+v", got)
	}

	l.calibrationFile = filepath.Join(t.TempDir(), "absent.csv")
	l.applyCalibration()
	if l.diagnostic == "" {
		t.Error("Expected a diagnostic after a failed calibration load")
	}
}

func TestLoop_RunStopsOnCancelAndQuit(t *testing.T) {
	l := newTestLoop(t)
	l.events = make(chan telemetry.Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Expected a clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Loop did not stop after cancellation")
	}

	l2 := newTestLoop(t)
	keys := make(chan Command, 1)
	l2.keys = keys
	keys <- Command{Kind: CommandQuit}
	go func() { done <- l2.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Expected a clean quit, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Loop did not stop on the quit command")
	}
}
