package app

import (
	"image"
	"testing"
	"time"

	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

func newTestComposer(t *testing.T) (*Composer, *scene.Scene) {
	t.Helper()
	sc := scene.New(scene.Config{FPS: 30})
	composer, err := NewComposer(400, 300, sc)
	if err != nil {
		t.Fatalf("Failed to create composer: %v", err)
	}
	t.Cleanup(func() { composer.Close() })
	return composer, sc
}

func TestComposer_Compose(t *testing.T) {
	composer, sc := newTestComposer(t)

	sess := stream.NewSession()
	sess.SetChannelCount(3)
	ts := 0.0
	for i := 0; i < 50; i++ {
		ts += 0.05
		sess.PushSingle(&telemetry.Single{Timestamp: &ts, Nodes: []float64{0.1, 0.5, -0.3}})
	}
	sc.Advance(time.Now(), sess)

	img := composer.Compose(sess, HUDInfo{State: scene.StateLive, Window: 5})
	if got, want := img.Bounds(), image.Rect(0, 0, 400, 300); got != want {
		t.Fatalf("Expected frame bounds %v, got %v", want, got)
	}

	// The composer reuses one buffer across frames.
	if second := composer.Compose(sess, HUDInfo{}); second != img {
		t.Error("Expected the same frame buffer on the next compose")
	}
}

func TestComposer_ComposeEmptySession(t *testing.T) {
	composer, sc := newTestComposer(t)

	sess := stream.NewSession()
	sc.Advance(time.Now(), sess)
	img := composer.Compose(sess, HUDInfo{})
	if img == nil {
		t.Fatal("Expected a frame even with no channels")
	}
}

func TestLatestAcross(t *testing.T) {
	sess := stream.NewSession()
	sess.SetChannelCount(2)

	if got := latestAcross(sess); got != 0 {
		t.Errorf("Expected 0 before any data, got %f", got)
	}

	// Channel 0 runs ahead of channel 1; the shared timeline follows it.
	sess.PushBatch(&telemetry.Batch{
		TS:     []float64{100.0, 100.5},
		Frames: [][]float64{{1, 1}, {2, 2}},
	})
	ts := 101.0
	sess.PushSingle(&telemetry.Single{Timestamp: &ts, Nodes: []float64{7}})

	if got := latestAcross(sess); got != 1.0 {
		t.Errorf("Expected shared latest 1.0, got %f", got)
	}
}
