package chart

import (
	"fmt"
	"image"
	"image/color"

	"github.com/signalgrid/nodescope/internal/render"
	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

const (
	yPaddingFraction  = 0.15
	fallbackHalfRange = 0.5

	xTickCount = 5
	yTickCount = 2

	labelFontSize = 8.0

	// Panel insets; labels need the left and bottom strips.
	insetLeft   = 48
	insetRight  = 8
	insetTop    = 6
	insetBottom = 16
)

var (
	panelBackground = color.RGBA{R: 0x12, G: 0x14, B: 0x18, A: 0xff}
	panelFrame      = color.RGBA{R: 0x2a, G: 0x2e, B: 0x36, A: 0xff}
	tickColor       = color.RGBA{R: 0x55, G: 0x5a, B: 0x64, A: 0xff}
	labelColor      = color.RGBA{R: 0x9a, G: 0xa0, B: 0xaa, A: 0xff}
	placeholderText = color.RGBA{R: 0x6a, G: 0x70, B: 0x7a, A: 0xff}
)

// Range is a closed interval on one chart axis.
type Range struct {
	Lo, Hi float64
}

// Width returns Hi - Lo.
func (r Range) Width() float64 {
	return r.Hi - r.Lo
}

// frac maps v onto [0, 1] across the range.
func (r Range) frac(v float64) float64 {
	w := r.Width()
	if w == 0 {
		return 0.5
	}
	return (v - r.Lo) / w
}

// TimeRange places the window-wide X axis for one channel. The visible
// segment is the intersection of [latest-window, latest] with the
// channel's data span; when the segment is narrower than the window the
// axis centers on it instead of pinning data to one edge. latest is the
// newest timestamp across all channels, so charts share one timeline.
func TimeRange(t0, t1, latest, window float64) Range {
	lo := max(t0, latest-window)
	hi := min(t1, latest)

	if hi < lo {
		// Stale channel: everything it has predates the shared window.
		lo, hi = t0, t1
	}
	if hi-lo >= window {
		return Range{Lo: hi - window, Hi: hi}
	}
	mid := (lo + hi) / 2
	return Range{Lo: mid - window/2, Hi: mid + window/2}
}

// ValueRange autoscales the Y axis to the buffered min/max with padding
// on both sides. It reports false when the data is degenerate (absent,
// a single sample, or a flat line); the returned fallback range is then
// a fixed symmetric band so the placeholder still has axes.
func ValueRange(minY, maxY float64, sampleCount int) (Range, bool) {
	if sampleCount < 2 || minY == maxY {
		center := 0.0
		if sampleCount > 0 {
			center = minY
		}
		return Range{Lo: center - fallbackHalfRange, Hi: center + fallbackHalfRange}, false
	}
	pad := (maxY - minY) * yPaddingFraction
	return Range{Lo: minY - pad, Hi: maxY + pad}, true
}

// Renderer draws one channel's strip chart into an image region. Scaling
// is fully independent per channel; nothing here persists between frames
// except the font.
type Renderer struct {
	labels *render.Text
}

func NewRenderer() (*Renderer, error) {
	labels, err := render.NewText(labelFontSize)
	if err != nil {
		return nil, fmt.Errorf("creating chart labels: %w", err)
	}
	return &Renderer{labels: labels}, nil
}

func (r *Renderer) Close() error {
	return r.labels.Close()
}

// Draw renders the channel into img. latest is the newest timestamp
// across all channels and window the shared display window in seconds.
func (r *Renderer) Draw(img *image.RGBA, ch *stream.Channel, latest, window float64) {
	bounds := img.Bounds()
	render.FillRect(img, bounds, panelBackground)

	plot := image.Rect(
		bounds.Min.X+insetLeft,
		bounds.Min.Y+insetTop,
		bounds.Max.X-insetRight,
		bounds.Max.Y-insetBottom,
	)
	if plot.Dx() < 16 || plot.Dy() < 8 {
		return
	}

	samples := ch.Buffer.Samples()
	minY, maxY, _ := ch.Buffer.MinMaxY()
	yRange, haveLine := ValueRange(minY, maxY, len(samples))

	var xRange Range
	if t0, t1, ok := ch.Buffer.Span(); ok {
		xRange = TimeRange(t0, t1, latest, window)
	} else {
		xRange = Range{Lo: latest - window, Hi: latest}
	}

	r.drawFrame(img, plot)
	r.drawYAxis(img, plot, yRange)
	r.drawXAxis(img, plot, xRange)

	if haveLine {
		r.drawLine(img, plot, samples, xRange, yRange, ch.Color)
	} else {
		r.drawPlaceholder(img, plot)
	}

	r.drawTag(img, plot, ch)
}

func (r *Renderer) drawFrame(img *image.RGBA, plot image.Rectangle) {
	render.HLine(img, plot.Min.X, plot.Max.X-1, plot.Max.Y-1, panelFrame)
	render.VLine(img, plot.Min.X, plot.Min.Y, plot.Max.Y-1, panelFrame)
}

func (r *Renderer) drawYAxis(img *image.RGBA, plot image.Rectangle, yRange Range) {
	for _, tick := range Ticks(yRange, yTickCount) {
		y := plot.Max.Y - 1 - int(tick.Frac*float64(plot.Dy()-1))
		render.HLine(img, plot.Min.X-3, plot.Min.X-1, y, tickColor)

		label := FormatValue(tick.Value)
		baseline := y + r.labels.Ascent()/2
		r.labels.Draw(img, plot.Min.X-4-r.labels.Width(label), baseline, labelColor, label)
	}
}

func (r *Renderer) drawXAxis(img *image.RGBA, plot image.Rectangle, xRange Range) {
	for i, tick := range Ticks(xRange, xTickCount) {
		x := plot.Min.X + int(tick.Frac*float64(plot.Dx()-1))
		render.VLine(img, x, plot.Max.Y, plot.Max.Y+2, tickColor)

		label := FormatSeconds(tick.Value)
		tx := x - r.labels.Width(label)/2
		// Keep the first and last labels inside the panel.
		if i == 0 {
			tx = max(tx, plot.Min.X-insetLeft/2)
		}
		if i == xTickCount-1 {
			tx = min(tx, plot.Max.X-r.labels.Width(label))
		}
		r.labels.Draw(img, tx, plot.Max.Y+3+r.labels.Ascent(), labelColor, label)
	}
}

func (r *Renderer) drawLine(img *image.RGBA, plot image.Rectangle, samples []telemetry.Sample, xRange, yRange Range, c color.RGBA) {
	prevX, prevY := 0, 0
	havePrev := false

	for _, s := range samples {
		fx := xRange.frac(s.T)
		if fx < 0 || fx > 1 {
			havePrev = false
			continue
		}
		x := plot.Min.X + int(fx*float64(plot.Dx()-1))
		y := plot.Max.Y - 1 - int(yRange.frac(s.Y)*float64(plot.Dy()-1))

		if havePrev {
			render.Line(img, prevX, prevY, x, y, c)
		}
		prevX, prevY = x, y
		havePrev = true
	}
}

func (r *Renderer) drawPlaceholder(img *image.RGBA, plot image.Rectangle) {
	const msg = "waiting for data"
	x := plot.Min.X + (plot.Dx()-r.labels.Width(msg))/2
	y := plot.Min.Y + plot.Dy()/2 + r.labels.Ascent()/2
	r.labels.Draw(img, x, y, placeholderText, msg)
}

func (r *Renderer) drawTag(img *image.RGBA, plot image.Rectangle, ch *stream.Channel) {
	tag := fmt.Sprintf("ch %d  %s", ch.Index, FormatValue(ch.Latest))
	render.FillRect(img, image.Rect(plot.Min.X+3, plot.Min.Y+2, plot.Min.X+9, plot.Min.Y+8), ch.Color)
	r.labels.Draw(img, plot.Min.X+12, plot.Min.Y+2+r.labels.Ascent(), labelColor, tag)
}
