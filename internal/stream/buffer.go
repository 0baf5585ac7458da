package stream

import (
	"slices"
	"sort"

	"github.com/signalgrid/nodescope/internal/telemetry"
)

// DefaultHardCap bounds a channel buffer regardless of the display window.
// It is a small multiple of the per-channel sample budget the window aims
// for, so a burst at a high rate can never grow a buffer without limit.
const DefaultHardCap = 5 * TargetSamples

// Buffer stores one channel's samples in time order, bounded by the shared
// display window and a fixed hard sample cap. Both bounds evict from the
// front, oldest first.
//
// A Buffer is not safe for concurrent use. Ingestion and rendering share
// the viewer loop goroutine, so a render frame always observes the result
// of complete pushes.
type Buffer struct {
	samples []telemetry.Sample
	hardCap int    // Maximum samples held regardless of window
	evicted uint64 // Total samples trimmed from the front
}

// NewBuffer creates an empty buffer bounded by hardCap samples.
// Non-positive caps fall back to DefaultHardCap.
func NewBuffer(hardCap int) *Buffer {
	if hardCap <= 0 {
		hardCap = DefaultHardCap
	}
	return &Buffer{hardCap: hardCap}
}

// Push stores one sample and evicts from the front, first anything older
// than the display window behind the newest timestamp, then anything over
// the hard cap. Non-finite samples are dropped silently.
// Returns true if the sample was stored.
func (b *Buffer) Push(t, y, window float64) bool {
	if !telemetry.IsFinite(t) || !telemetry.IsFinite(y) {
		return false
	}

	s := telemetry.Sample{T: t, Y: y}
	if n := len(b.samples); n == 0 || t >= b.samples[n-1].T {
		b.samples = append(b.samples, s)
	} else {
		// Late arrival: producers usually push in time order, but that is
		// their convention, not a rule. Keep the buffer sorted.
		i := sort.Search(n, func(i int) bool { return b.samples[i].T > t })
		b.samples = slices.Insert(b.samples, i, s)
	}

	b.evict(window)
	return true
}

func (b *Buffer) evict(window float64) {
	cutoff := b.samples[len(b.samples)-1].T - window

	start := 0
	for start < len(b.samples) && b.samples[start].T < cutoff {
		start++
	}
	if over := len(b.samples) - start - b.hardCap; over > 0 {
		start += over
	}
	if start > 0 {
		b.evicted += uint64(start)
		// Re-slice instead of copying; append reallocates and compacts
		// once the tail capacity runs out.
		b.samples = b.samples[start:]
	}
}

// Samples returns the buffer's backing slice in time order. It is only
// valid until the next mutation and must not be retained.
func (b *Buffer) Samples() []telemetry.Sample {
	return b.samples
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Latest returns the newest sample, if any.
func (b *Buffer) Latest() (telemetry.Sample, bool) {
	if len(b.samples) == 0 {
		return telemetry.Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// Span returns the oldest and newest timestamps currently held.
func (b *Buffer) Span() (t0, t1 float64, ok bool) {
	if len(b.samples) == 0 {
		return 0, 0, false
	}
	return b.samples[0].T, b.samples[len(b.samples)-1].T, true
}

// MinMaxY returns the amplitude extremes across the buffered samples.
func (b *Buffer) MinMaxY() (lo, hi float64, ok bool) {
	if len(b.samples) == 0 {
		return 0, 0, false
	}
	lo, hi = b.samples[0].Y, b.samples[0].Y
	for _, s := range b.samples[1:] {
		lo = min(lo, s.Y)
		hi = max(hi, s.Y)
	}
	return lo, hi, true
}

// Evicted returns the total number of samples trimmed since creation.
func (b *Buffer) Evicted() uint64 {
	return b.evicted
}

// Clear drops all samples. Capacity bounds and eviction counters survive.
func (b *Buffer) Clear() {
	b.samples = nil
}
