package app

import (
	"log/slog"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// HDR histogram range: 1µs to 10s per frame, 3 significant figures
const (
	pacingMinUs  = 1
	pacingMaxUs  = 10_000_000
	pacingSigFig = 3
)

// Pacing tracks render cost over the run: an HDR histogram of frame
// durations for the HUD's p99 readout and the shutdown summary, plus a
// frames-per-second counter over one-second windows.
type Pacing struct {
	hist *hdrhistogram.Histogram

	fps        int // Frames completed in the last full window
	frames     int
	windowFrom time.Time
}

func NewPacing() *Pacing {
	return &Pacing{
		hist: hdrhistogram.New(pacingMinUs, pacingMaxUs, pacingSigFig),
	}
}

// Record adds one completed frame.
func (p *Pacing) Record(now time.Time, d time.Duration) {
	us := d.Microseconds()
	if us < pacingMinUs {
		us = pacingMinUs
	} else if us > pacingMaxUs {
		us = pacingMaxUs
	}
	_ = p.hist.RecordValue(us)

	if p.windowFrom.IsZero() {
		p.windowFrom = now
	}
	if elapsed := now.Sub(p.windowFrom); elapsed >= time.Second {
		p.fps = int(float64(p.frames) / elapsed.Seconds())
		p.frames = 0
		p.windowFrom = now
	}
	p.frames++
}

// FPS returns the frame count of the last full one-second window, 0
// until the first window completes.
func (p *Pacing) FPS() int {
	return p.fps
}

// P99 returns the 99th percentile frame duration so far.
func (p *Pacing) P99() time.Duration {
	if p.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(p.hist.ValueAtQuantile(99)) * time.Microsecond
}

// LogSummary reports the run's frame statistics.
func (p *Pacing) LogSummary(logger *slog.Logger) {
	if p.hist.TotalCount() == 0 {
		return
	}
	logger.Info("frame pacing",
		slog.Group("duration",
			slog.String("mean", (time.Duration(p.hist.Mean())*time.Microsecond).String()),
			slog.String("p50", (time.Duration(p.hist.ValueAtQuantile(50))*time.Microsecond).String()),
			slog.String("p99", (time.Duration(p.hist.ValueAtQuantile(99))*time.Microsecond).String()),
			slog.String("max", (time.Duration(p.hist.Max())*time.Microsecond).String()),
		),
		slog.Int64("frames", p.hist.TotalCount()),
	)
}
