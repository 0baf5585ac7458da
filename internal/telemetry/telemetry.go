package telemetry

import "math"

// Sample represents a single buffered measurement on one channel.
// T is in seconds relative to the session clock origin, so the first
// accepted source timestamp always maps to T == 0.
type Sample struct {
	T float64 `json:"t"` // Seconds since the session clock origin
	Y float64 `json:"y"` // Amplitude value
}

// Single carries one amplitude per channel index for a single instant.
// Producers populate either Nodes or Amps; the two names are aliases from
// different capture tools. A nil Timestamp means the producer has no
// source clock and the session substitutes its local monotonic clock.
type Single struct {
	Timestamp *float64  `json:"timestamp,omitempty"` // Producer clock in seconds
	Nodes     []float64 `json:"nodes,omitempty"`     // One amplitude per channel index, in order
	Amps      []float64 `json:"amps,omitempty"`      // Alias for Nodes
}

// Values returns whichever amplitude vector the payload carries, Nodes
// winning when both are present.
func (s *Single) Values() []float64 {
	if len(s.Nodes) > 0 {
		return s.Nodes
	}
	return s.Amps
}

// Batch carries a dense run of frames: Frames[k] is the amplitude vector
// observed at TS[k]. The slices are parallel and applied in index order.
type Batch struct {
	TS     []float64   `json:"ts"`
	Frames [][]float64 `json:"frames"`
}

// NodeAmplitude addresses one channel by index for a latest-value update.
type NodeAmplitude struct {
	ID        int     `json:"id"`
	Amplitude float64 `json:"amplitude"`
}

// LatestUpdate refreshes the latest-amplitude vector driving the spatial
// view without touching the time-window buffers.
type LatestUpdate struct {
	Timestamp float64         `json:"timestamp"` // Producer clock in seconds
	Nodes     []NodeAmplitude `json:"nodes"`
}

// Event is the unit producers hand to the viewer loop. Exactly one field
// is non-nil; malformed events are dropped whole at the ingestion boundary.
type Event struct {
	Single   *Single
	Batch    *Batch
	SetCount *int // Pre-grows the channel set ahead of data
	Latest   *LatestUpdate
}

// Valid reports whether the payload carries the fields ingestion requires.
// An invalid payload is ignored whole and mutates no channel state.
func (s *Single) Valid() bool {
	return s != nil && (len(s.Nodes) > 0 || len(s.Amps) > 0)
}

// Valid reports whether TS and Frames are present and parallel.
func (b *Batch) Valid() bool {
	return b != nil && len(b.TS) > 0 && len(b.TS) == len(b.Frames)
}

// Width returns the widest amplitude vector in the batch, which is the
// channel capacity the batch implies.
func (b *Batch) Width() int {
	var w int
	for _, frame := range b.Frames {
		w = max(w, len(frame))
	}
	return w
}

// Valid reports whether the update carries at least one node entry.
func (u *LatestUpdate) Valid() bool {
	return u != nil && len(u.Nodes) > 0
}

// IsFinite reports whether v is an ordinary number. NaN and infinities are
// dropped at ingestion without affecting sibling values in the same payload.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
