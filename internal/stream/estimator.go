package stream

import (
	"math"
	"slices"

	"github.com/signalgrid/nodescope/internal/telemetry"
)

const (
	// TargetSamples is the per-channel point budget the display window is
	// sized for: at the estimated rate, one window holds about this many.
	TargetSamples = 300

	// MinWindow and MaxWindow bound the display window in seconds.
	MinWindow = 0.5
	MaxWindow = 60.0

	intervalHistory = 20   // Most recent accepted intervals kept
	minIntervals    = 10   // Required before an estimate exists
	maxInterval     = 10.0 // Seconds; anything longer is a gap or clock reset
)

// RateEstimator derives the incoming sample rate from arrival timestamps.
// Observe is called once per arrival event (a batch counts as one event,
// however many channels it carries). The estimate is the reciprocal of the
// median inter-arrival interval; the median holds steady under jitter
// where a mean would drift.
type RateEstimator struct {
	last      float64
	hasLast   bool
	intervals []float64
}

// Observe feeds one arrival timestamp, in seconds on the producer clock.
// Intervals outside (0, 10) seconds are discarded: zero or negative means
// a duplicate or reordered event, longer means a stream gap or clock
// reset, and neither says anything about the true rate.
func (e *RateEstimator) Observe(t float64) {
	if !telemetry.IsFinite(t) {
		return
	}
	if e.hasLast {
		if dt := t - e.last; dt > 0 && dt < maxInterval {
			e.intervals = append(e.intervals, dt)
			if len(e.intervals) > intervalHistory {
				e.intervals = e.intervals[1:]
			}
		}
	}
	e.last = t
	e.hasLast = true
}

// RateHz returns the estimated sample rate, or 0 until at least 10
// intervals have been accepted.
func (e *RateEstimator) RateHz() float64 {
	if len(e.intervals) < minIntervals {
		return 0
	}
	m := median(e.intervals)
	if m <= 0 {
		return 0
	}
	return 1 / m
}

// RecommendedWindow converts the rate estimate into a display window that
// holds about TargetSamples samples, rounded to the nearest half second
// and clamped to the window bounds. Returns 0 until an estimate exists.
func (e *RateEstimator) RecommendedWindow() float64 {
	rate := e.RateHz()
	if rate <= 0 {
		return 0
	}
	w := math.Round(TargetSamples / rate * 2) / 2
	return clampWindow(w)
}

// Reset discards all estimator state. Only a full session reload calls
// this; an operator "clear" keeps the estimate.
func (e *RateEstimator) Reset() {
	e.last = 0
	e.hasLast = false
	e.intervals = nil
}

func median(values []float64) float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// WindowMode says who controls the display window.
type WindowMode string

const (
	// WindowAutomatic means the estimator may still shrink the window once.
	WindowAutomatic WindowMode = "automatic"

	// WindowLocked means the one shot fired or the operator took over.
	WindowLocked WindowMode = "locked"
)

// WindowControl owns the shared display window scalar and the one-shot
// automatic adjustment. Only two named events move it: EstimatorSuggests
// and OperatorOverrides. Both renderers read Window each frame; writes and
// reads share the viewer loop goroutine, so no frame sees a half-applied
// change.
type WindowControl struct {
	window float64
	mode   WindowMode
}

// NewWindowControl creates the control in automatic mode at the given
// initial window, clamped to the window bounds.
func NewWindowControl(initial float64) *WindowControl {
	return &WindowControl{window: clampWindow(initial), mode: WindowAutomatic}
}

// Window returns the current display window in seconds.
func (w *WindowControl) Window() float64 {
	return w.window
}

// Mode returns the current control mode.
func (w *WindowControl) Mode() WindowMode {
	return w.mode
}

// EstimatorSuggests applies a recommended window if the control is still
// automatic, the difference exceeds one second, and the move is a shrink.
// A session's window never grows automatically and never shrinks twice:
// applying the suggestion locks the control.
// Returns true if the window changed.
func (w *WindowControl) EstimatorSuggests(recommended float64) bool {
	if recommended <= 0 || w.mode != WindowAutomatic {
		return false
	}
	if recommended >= w.window || w.window-recommended <= 1 {
		return false
	}
	w.window = clampWindow(recommended)
	w.mode = WindowLocked
	return true
}

// OperatorOverrides sets the window directly and locks the control for the
// rest of the session, whether or not the one shot has fired.
func (w *WindowControl) OperatorOverrides(window float64) {
	w.window = clampWindow(window)
	w.mode = WindowLocked
}

func clampWindow(v float64) float64 {
	return math.Min(math.Max(v, MinWindow), MaxWindow)
}
