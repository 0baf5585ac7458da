package scene

import (
	"image"
	"math"
	"testing"

	"github.com/signalgrid/nodescope/internal/geom"
	"github.com/signalgrid/nodescope/internal/render"
)

func TestInterpolateOffsets(t *testing.T) {
	if got := interpolateOffsets(nil, 0.5); got != 0 {
		t.Errorf("No channels must interpolate to 0, got %f", got)
	}
	if got := interpolateOffsets([]float64{0.7}, 0.9); got != 0.7 {
		t.Errorf("Single channel must hold everywhere, got %f", got)
	}

	offsets := []float64{0, 1}
	if got := interpolateOffsets(offsets, 0); got != 0 {
		t.Errorf("u=0 must hit the first channel, got %f", got)
	}
	if got := interpolateOffsets(offsets, 1); got != 1 {
		t.Errorf("u=1 must hit the last channel, got %f", got)
	}
	// Smoothstep is symmetric, so the midpoint is the plain average.
	if got := interpolateOffsets(offsets, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Midpoint between two channels: got %f", got)
	}

	// Smoothstep flattens near the channels: a quarter of the way in,
	// the blend must lag the linear value.
	if got := interpolateOffsets(offsets, 0.25); got >= 0.25 {
		t.Errorf("Expected sub-linear blend near a channel, got %f", got)
	}

	three := []float64{1, 2, 3}
	if got := interpolateOffsets(three, 0.5); got != 2 {
		t.Errorf("u=0.5 over three channels must hit the middle one, got %f", got)
	}
}

func TestSurface_AdvanceConverges(t *testing.T) {
	s := NewSurface(16, 20)
	targets := []float64{0.4, 0.4, 0.4}

	for i := 0; i < 200; i++ {
		s.Advance(targets)
	}
	for i, h := range s.Heights() {
		if math.Abs(h-0.4) > 1e-3 {
			t.Errorf("Vertex %d did not settle on the target: %f", i, h)
		}
	}
}

func TestSurface_AdvanceIsGradual(t *testing.T) {
	s := NewSurface(8, 20)

	s.Advance([]float64{1, 1})
	first := append([]float64(nil), s.Heights()...)
	for i, h := range first {
		if h <= 0 || h >= 1 {
			t.Errorf("Vertex %d must ease toward the target, got %f", i, h)
		}
	}

	s.Advance([]float64{1, 1})
	for i, h := range s.Heights() {
		if h <= first[i] {
			t.Errorf("Vertex %d stopped moving: %f then %f", i, first[i], h)
		}
	}
}

func TestSurface_Reset(t *testing.T) {
	s := NewSurface(8, 20)
	for i := 0; i < 50; i++ {
		s.Advance([]float64{0.5})
	}

	s.Reset()
	for i, h := range s.Heights() {
		if h != 0 {
			t.Errorf("Vertex %d kept height %f after reset", i, h)
		}
	}
}

func TestSurface_RenderSmoke(t *testing.T) {
	s := NewSurface(32, 20)
	for i := 0; i < 30; i++ {
		s.Advance([]float64{0.3, -0.2, 0.4})
	}

	img := image.NewRGBA(image.Rect(0, 0, 200, 160))
	mapper := render.NewAmplitudeMapper(render.ThemeClassic, -0.4, 0.4)
	s.Render(img, geom.DefaultCamera(), mapper)

	var lit int
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("Surface render left the image blank")
	}
}
