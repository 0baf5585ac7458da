package render

import (
	"image"
	"image/color"
	"testing"
)

func TestText_Measure(t *testing.T) {
	txt, err := NewText(12)
	if err != nil {
		t.Fatalf("NewText failed: %v", err)
	}
	defer txt.Close()

	one := txt.Width("8")
	if one <= 0 {
		t.Fatalf("Expected positive glyph width, got %d", one)
	}
	// Go Mono is monospace, so width scales with rune count.
	if got := txt.Width("8888"); got != 4*one {
		t.Errorf("Expected width %d for four glyphs, got %d", 4*one, got)
	}
	if txt.LineHeight() <= 0 || txt.Ascent() <= 0 {
		t.Errorf("Expected positive metrics, got height %d ascent %d",
			txt.LineHeight(), txt.Ascent())
	}
}

func TestText_DrawTouchesPixels(t *testing.T) {
	txt, err := NewText(14)
	if err != nil {
		t.Fatalf("NewText failed: %v", err)
	}
	defer txt.Close()

	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	txt.Draw(img, 4, 28, color.White, "abc")

	var lit int
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i-3] != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("Drawing text left the image untouched")
	}

	// Off-image draws clip instead of panicking.
	txt.Draw(img, -500, -500, color.White, "clipped")
	txt.Draw(img, 1000, 1000, color.White, "clipped")
}
