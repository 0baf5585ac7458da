package chart

import (
	"fmt"
	"math"
)

// Tick is one axis mark: the labelled value and its fractional position
// along the range (0 at Lo, 1 at Hi).
type Tick struct {
	Value float64
	Frac  float64
}

// Ticks spreads count marks evenly across the range, endpoints included.
func Ticks(r Range, count int) []Tick {
	if count < 2 {
		return []Tick{{Value: r.Lo + r.Width()/2, Frac: 0.5}}
	}
	ticks := make([]Tick, count)
	for i := range ticks {
		f := float64(i) / float64(count-1)
		ticks[i] = Tick{Value: r.Lo + r.Width()*f, Frac: f}
	}
	return ticks
}

// FormatValue renders an amplitude label with precision scaled to its
// magnitude, so axis labels stay short across autoscale jumps.
func FormatValue(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	case av >= 0.01 || v == 0:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.1e", v)
	}
}

// FormatSeconds renders a time-axis label.
func FormatSeconds(v float64) string {
	if math.Abs(v) >= 100 {
		return fmt.Sprintf("%.0fs", v)
	}
	return fmt.Sprintf("%.1fs", v)
}
