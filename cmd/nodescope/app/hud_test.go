package app

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/signalgrid/nodescope/internal/scene"
)

func TestHUD_Draw(t *testing.T) {
	hud, err := NewHUD()
	if err != nil {
		t.Fatalf("Failed to create HUD: %v", err)
	}
	defer hud.Close()

	if hud.Height() <= 0 {
		t.Fatalf("Expected a positive strip height, got %d", hud.Height())
	}

	img := image.NewRGBA(image.Rect(0, 0, 800, hud.Height()))
	hud.Draw(img, img.Bounds(), HUDInfo{
		State:      scene.StateLive,
		RateHz:     1234.5,
		Window:     5,
		Visible:    8,
		Total:      21,
		FPS:        20,
		P99:        3 * time.Millisecond,
		Samples:    123456,
		Dropped:    7,
		Diagnostic: "sink: disk full",
	})

	var lit bool
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i-3] != hudBackground.R || img.Pix[i-2] != hudBackground.G {
			lit = true
			break
		}
	}
	if !lit {
		t.Error("Expected the strip to draw over the background")
	}
}

func TestHUD_RateFormatting(t *testing.T) {
	hud, err := NewHUD()
	if err != nil {
		t.Fatalf("Failed to create HUD: %v", err)
	}
	defer hud.Close()

	if got := hud.rate(0); got != "rate --" {
		t.Errorf("Expected placeholder for unknown rate, got %q", got)
	}
	if got := hud.rate(1500); !strings.Contains(got, "kHz") {
		t.Errorf("Expected SI-scaled rate, got %q", got)
	}
	if got := hud.rate(12); !strings.HasPrefix(got, "12.00") {
		t.Errorf("Expected plain Hz formatting, got %q", got)
	}
}

func TestFormatFrameTime(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "--"},
		{250 * time.Microsecond, "250us"},
		{3100 * time.Microsecond, "3.1ms"},
		{45 * time.Millisecond, "45.0ms"},
	}
	for _, tc := range cases {
		if got := formatFrameTime(tc.in); got != tc.want {
			t.Errorf("formatFrameTime(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
