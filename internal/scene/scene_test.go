package scene

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/signalgrid/nodescope/internal/geom"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.t
}

func liveSession(t *testing.T, clock *testClock, amps ...float64) *stream.Session {
	t.Helper()
	sess := stream.NewSession(stream.WithClock(clock.Now))
	nodes := make([]telemetry.NodeAmplitude, len(amps))
	for i, a := range amps {
		nodes[i] = telemetry.NodeAmplitude{ID: i, Amplitude: a}
	}
	sess.UpdateLatest(&telemetry.LatestUpdate{Timestamp: 1, Nodes: nodes})
	return sess
}

func TestScene_LivenessTransition(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 0.5)
	sc := New(Config{})

	sc.Advance(clock.Now().Add(100*time.Millisecond), sess)
	if sc.State() != StateLive {
		t.Fatalf("Expected live within the freshness window, got %s", sc.State())
	}

	sc.Advance(clock.Now().Add(600*time.Millisecond), sess)
	if sc.State() != StateIdle {
		t.Fatalf("Expected idle after the freshness window, got %s", sc.State())
	}

	// A fresh update while idle flips the scene back to live.
	clock.t = clock.t.Add(time.Second)
	sess.UpdateLatest(&telemetry.LatestUpdate{
		Timestamp: 2,
		Nodes:     []telemetry.NodeAmplitude{{ID: 0, Amplitude: 0.1}},
	})
	sc.Advance(clock.Now().Add(50*time.Millisecond), sess)
	if sc.State() != StateLive {
		t.Errorf("Expected live after a new update, got %s", sc.State())
	}
}

func TestScene_LiveOffsetTracksAmplitude(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 1.5)
	sc := New(Config{})

	sc.Advance(clock.Now(), sess)
	if got := sc.offsets[0]; math.Abs(got-1.5*DefaultGain) > 1e-9 {
		t.Errorf("Expected offset %f, got %f", 1.5*DefaultGain, got)
	}
}

func TestScene_IdleSettlesToBase(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 1.5)
	sc := New(Config{})

	// Two live frames so the spring velocity reflects a steady signal.
	sc.Advance(clock.Now(), sess)
	sc.Advance(clock.Now(), sess)
	liveOffset := sc.offsets[0]

	// First idle frame: moving toward base, not snapped, not frozen.
	idleTime := clock.Now().Add(time.Second)
	sc.Advance(idleTime, sess)
	if sc.State() != StateIdle {
		t.Fatalf("Expected idle, got %s", sc.State())
	}
	if got := sc.offsets[0]; got <= 0 || got >= liveOffset {
		t.Errorf("Expected a gradual settle from %f, got %f", liveOffset, got)
	}

	for i := 0; i < 200; i++ {
		sc.Advance(idleTime.Add(time.Duration(i)*50*time.Millisecond), sess)
	}
	if got := sc.offsets[0]; math.Abs(got) > 1e-2 {
		t.Errorf("Offset did not settle to base: %f", got)
	}
}

func TestScene_TrailsAreBounded(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 0.2, -0.4)
	sc := New(Config{TrailLength: 8})

	for i := 0; i < 5; i++ {
		sc.Advance(clock.Now(), sess)
	}
	if got := sc.trails[0].Len(); got != 5 {
		t.Errorf("Expected 5 trail points, got %d", got)
	}

	for i := 0; i < 20; i++ {
		sc.Advance(clock.Now(), sess)
	}
	if got := sc.trails[1].Len(); got != 8 {
		t.Errorf("Expected trail capped at 8, got %d", got)
	}
}

func TestScene_EpochRestartsTrails(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 0.2)
	sc := New(Config{})

	for i := 0; i < 10; i++ {
		sc.Advance(clock.Now(), sess)
	}
	if sc.trails[0].Len() != 10 {
		t.Fatalf("Expected 10 trail points, got %d", sc.trails[0].Len())
	}

	sess.SetScheme(sess.Scheme().Next())
	sc.Advance(clock.Now(), sess)
	if got := sc.trails[0].Len(); got != 1 {
		t.Errorf("Expected trails restarted after a scheme change, got %d points", got)
	}
}

func TestScene_GrowsWithSession(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 0.1, 0.2)
	sc := New(Config{})

	sc.Advance(clock.Now(), sess)
	if len(sc.trails) != 2 {
		t.Fatalf("Expected 2 trails, got %d", len(sc.trails))
	}

	sess.SetChannelCount(6)
	sc.Advance(clock.Now(), sess)
	if len(sc.trails) != 6 || len(sc.offsets) != 6 {
		t.Errorf("Scene arrays did not follow channel growth: %d trails, %d offsets",
			len(sc.trails), len(sc.offsets))
	}
}

func TestScene_RenderSmoke(t *testing.T) {
	clock := newTestClock()
	sess := liveSession(t, clock, 0.5, -0.5, 0.8, 0.1)
	sess.SetVisible(2, false)
	sc := New(Config{})

	for i := 0; i < 10; i++ {
		sc.Advance(clock.Now(), sess)
	}

	img := image.NewRGBA(image.Rect(0, 0, 240, 200))
	sc.Render(img, sess)

	var lit int
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0x20 || img.Pix[i+1] > 0x20 || img.Pix[i+2] > 0x20 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("Scene render left the image blank")
	}

	// Degenerate target must not panic.
	tiny := image.NewRGBA(image.Rect(0, 0, 4, 4))
	sc.Render(tiny, sess)
}

func TestScene_CameraControls(t *testing.T) {
	sc := New(Config{})

	sc.Camera().Orbit(0.3, 0.1)
	sc.Camera().Zoom(1.5)
	if *sc.Camera() == geom.DefaultCamera() {
		t.Fatal("Camera controls had no effect")
	}

	sc.ResetCamera()
	if *sc.Camera() != geom.DefaultCamera() {
		t.Error("ResetCamera must restore the default framing")
	}
}
