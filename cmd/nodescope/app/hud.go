package app

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/render"
	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
)

const hudFontSize = 9.0

var (
	hudBackground = color.RGBA{R: 0x16, G: 0x18, B: 0x1d, A: 0xff}
	hudText       = color.RGBA{R: 0xc8, G: 0xcd, B: 0xd6, A: 0xff}
	hudDim        = color.RGBA{R: 0x7a, G: 0x80, B: 0x8a, A: 0xff}
	hudAlert      = color.RGBA{R: 0xe0, G: 0x5a, B: 0x4f, A: 0xff}

	ledLive   = color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	ledIdle   = color.RGBA{R: 0xe6, G: 0xa2, B: 0x3c, A: 0xff}
	ledPaused = color.RGBA{R: 0x8a, G: 0x90, B: 0x9a, A: 0xff}
)

// HUDInfo is everything the status strip shows for one frame.
type HUDInfo struct {
	State      scene.State
	Paused     bool
	RateHz     float64
	Window     float64
	WindowMode stream.WindowMode
	Visible    int
	Total      int
	FPS        int
	P99        time.Duration
	Scheme     layout.Scheme
	Samples    uint64
	Dropped    uint64
	Diagnostic string
}

// HUD draws the two-line status strip across the top of the frame: the
// state line, and a diagnostic line that stays empty in normal operation.
type HUD struct {
	text   *render.Text
	height int
}

func NewHUD() (*HUD, error) {
	text, err := render.NewText(hudFontSize)
	if err != nil {
		return nil, fmt.Errorf("creating hud face: %w", err)
	}
	return &HUD{
		text:   text,
		height: 2*text.LineHeight() + 10,
	}, nil
}

func (h *HUD) Close() error {
	return h.text.Close()
}

// Height returns the strip height in pixels.
func (h *HUD) Height() int {
	return h.height
}

// Draw renders the strip into the given region of img.
func (h *HUD) Draw(img *image.RGBA, region image.Rectangle, info HUDInfo) {
	render.FillRect(img, region, hudBackground)

	lineH := h.text.LineHeight()
	baseline := region.Min.Y + 4 + h.text.Ascent()

	// State LED
	led := ledIdle
	label := "IDLE"
	if info.State == scene.StateLive {
		led = ledLive
		label = "LIVE"
	}
	if info.Paused {
		led = ledPaused
		label = "PAUSED"
	}
	cx := region.Min.X + 12
	cy := region.Min.Y + 4 + lineH/2
	render.Disc(img, cx, cy, 4, led)

	x := cx + 12
	x = h.segment(img, x, baseline, label, hudText)
	x = h.segment(img, x, baseline, h.rate(info.RateHz), hudText)
	x = h.segment(img, x, baseline, fmt.Sprintf("win %.1fs %s", info.Window, info.WindowMode), hudText)
	x = h.segment(img, x, baseline, fmt.Sprintf("ch %d/%d", info.Visible, info.Total), hudText)
	x = h.segment(img, x, baseline, fmt.Sprintf("fps %d", info.FPS), hudText)
	x = h.segment(img, x, baseline, fmt.Sprintf("p99 %s", formatFrameTime(info.P99)), hudText)
	x = h.segment(img, x, baseline, string(info.Scheme), hudText)
	x = h.segment(img, x, baseline, fmt.Sprintf("%s samples", humanize.Comma(int64(info.Samples))), hudDim)
	if info.Dropped > 0 {
		h.segment(img, x, baseline, fmt.Sprintf("%s dropped", humanize.Comma(int64(info.Dropped))), hudDim)
	}

	if info.Diagnostic != "" {
		h.text.Draw(img, region.Min.X+12, baseline+lineH+2, hudAlert, info.Diagnostic)
	}
}

// segment draws s and returns the x where the next segment starts.
func (h *HUD) segment(img *image.RGBA, x, baseline int, s string, c color.RGBA) int {
	h.text.Draw(img, x, baseline, c, s)
	return x + h.text.Width(s) + 18
}

func (h *HUD) rate(hz float64) string {
	if hz <= 0 {
		return "rate --"
	}
	fract, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%0.2f %sHz", fract, suffix)
}

func formatFrameTime(d time.Duration) string {
	if d == 0 {
		return "--"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}
