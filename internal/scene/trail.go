package scene

import "github.com/signalgrid/nodescope/internal/geom"

// Trail is a fixed-length circular history of one channel's rendered
// positions. Pushing past capacity overwrites the oldest entry; the
// backing array never grows after construction.
type Trail struct {
	points []geom.Vec3
	next   int
	count  int
}

func NewTrail(length int) *Trail {
	if length < 1 {
		length = 1
	}
	return &Trail{points: make([]geom.Vec3, length)}
}

// Push records the newest position, overwriting the oldest when full.
func (t *Trail) Push(p geom.Vec3) {
	t.points[t.next] = p
	t.next = (t.next + 1) % len(t.points)
	if t.count < len(t.points) {
		t.count++
	}
}

// Len returns the number of recorded positions.
func (t *Trail) Len() int {
	return t.count
}

// Cap returns the fixed history length.
func (t *Trail) Cap() int {
	return len(t.points)
}

// Reset forgets all history without reallocating.
func (t *Trail) Reset() {
	t.next = 0
	t.count = 0
}

// Points appends the recorded positions to out in oldest-to-newest order
// and returns the extended slice. Passing a reused buffer avoids a
// per-frame allocation.
func (t *Trail) Points(out []geom.Vec3) []geom.Vec3 {
	if t.count == 0 {
		return out
	}
	start := 0
	if t.count == len(t.points) {
		start = t.next
	}
	for i := 0; i < t.count; i++ {
		out = append(out, t.points[(start+i)%len(t.points)])
	}
	return out
}
