package stream

import (
	"image/color"
	"math"

	"github.com/signalgrid/nodescope/internal/geom"
)

// Channel is one telemetry source and everything either view needs from
// it. Keeping the per-channel state in one aggregate makes capacity
// growth a single append; there are no parallel arrays to fall out of
// sync.
type Channel struct {
	Index    int
	Buffer   *Buffer
	Base     geom.Vec3  // Layout position before any amplitude offset
	Color    color.RGBA // Recomputed across the set when the count changes
	Visible  bool
	Latest   float64 // Newest amplitude, drives the spatial view
	Waveform Waveform
}

// Waveform holds the synthetic-signal parameters a channel is born with.
// Only the built-in loopback source reads them; live producers never do.
type Waveform struct {
	Amplitude float64 // Peak amplitude
	FreqMult  float64 // Multiplier on the source base frequency
	Phase     float64 // Radians
}

// DefaultWaveform spreads amplitude, frequency and phase across the
// channel set so neighbouring channels stay visually distinct when the
// loopback source drives them.
func DefaultWaveform(index, count int) Waveform {
	if count < 1 {
		count = 1
	}
	return Waveform{
		Amplitude: 0.5 + 1.5*float64(index)/float64(max(1, count-1)),
		FreqMult:  1 + 0.2*float64(index),
		Phase:     2 * math.Pi * float64(index) / float64(count),
	}
}
