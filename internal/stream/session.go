package stream

import (
	"io"
	"log/slog"
	"time"

	"github.com/signalgrid/nodescope/internal/layout"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

// DefaultWindow is the display window a session starts with, in seconds.
const DefaultWindow = 5.0

// Stats aggregates the session's ingestion counters.
type Stats struct {
	Samples uint64 // Accepted samples across all channels
	Dropped uint64 // Non-finite values dropped at ingestion
	Ignored uint64 // Whole payloads ignored as malformed
	Evicted uint64 // Samples trimmed by window or hard cap
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for session events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock replaces the wall clock used for liveness and the local-clock
// fallback. Tests use this to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithInitialWindow sets the display window the session starts with.
func WithInitialWindow(seconds float64) Option {
	return func(s *Session) {
		s.initialWindow = seconds
	}
}

// WithScheme sets the initial layout scheme.
func WithScheme(scheme layout.Scheme) Option {
	return func(s *Session) {
		s.scheme = scheme
	}
}

// Session owns the channel set and all shared stream state: the session
// clock origin, the display window control, the rate estimator and the
// ingestion counters.
//
// A Session is not safe for concurrent use. Ingestion and rendering share
// the viewer loop goroutine; every ingestion call runs to completion
// before a frame renders, so a frame never observes a half-applied push.
type Session struct {
	channels []*Channel

	window        *WindowControl
	initialWindow float64
	est           *RateEstimator

	scheme      layout.Scheme
	calibration layout.Calibration

	// The first accepted source timestamp becomes the clock origin; all
	// buffered timestamps are stored relative to it. Payloads without a
	// source clock fall back to seconds since session start.
	origin    float64
	hasOrigin bool
	started   time.Time

	lastUpdate time.Time // Wall clock of the newest ingestion
	hasUpdate  bool

	epoch uint64 // Bumped when derived visual state must restart

	samples uint64
	dropped uint64
	ignored uint64

	now    func() time.Time
	logger *slog.Logger
}

// NewSession creates an empty session. Channels appear lazily as payloads
// declare them, or eagerly through SetChannelCount.
func NewSession(opts ...Option) *Session {
	s := &Session{
		initialWindow: DefaultWindow,
		est:           &RateEstimator{},
		scheme:        layout.SchemeGrid,
		now:           time.Now,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.window = NewWindowControl(s.initialWindow)
	s.started = s.now()
	return s
}

// PushSingle ingests one amplitude vector for a single instant. Malformed
// payloads are ignored whole; non-finite entries are dropped per channel
// without affecting their siblings.
func (s *Session) PushSingle(p *telemetry.Single) {
	if !p.Valid() {
		s.ignored++
		return
	}

	amps := p.Values()
	s.EnsureCapacity(len(amps))

	t := s.resolveTime(p.Timestamp)
	s.est.Observe(t)
	for i, y := range amps {
		s.write(i, t, y)
	}

	s.autoAdjustWindow()
	s.markLive()
}

// PushBatch ingests a dense run of frames. The whole batch counts as one
// arrival event for the rate estimator, keyed on its first timestamp.
func (s *Session) PushBatch(b *telemetry.Batch) {
	if !b.Valid() {
		s.ignored++
		return
	}

	s.EnsureCapacity(b.Width())

	first := b.TS[0]
	s.est.Observe(s.resolveTime(&first))

	for k, ts := range b.TS {
		if !telemetry.IsFinite(ts) {
			s.dropped += uint64(len(b.Frames[k]))
			continue
		}
		t := s.resolveTime(&ts)
		for i, y := range b.Frames[k] {
			s.write(i, t, y)
		}
	}

	s.autoAdjustWindow()
	s.markLive()
}

// SetChannelCount pre-grows the channel set ahead of data. Counts at or
// below the current size are no-ops.
func (s *Session) SetChannelCount(n int) {
	s.EnsureCapacity(n)
}

// UpdateLatest refreshes latest amplitudes for the spatial view without
// touching the time-window buffers, and marks the session live now.
func (s *Session) UpdateLatest(u *telemetry.LatestUpdate) {
	if !u.Valid() {
		s.ignored++
		return
	}

	maxID := -1
	for _, n := range u.Nodes {
		maxID = max(maxID, n.ID)
	}
	s.EnsureCapacity(maxID + 1)

	for _, n := range u.Nodes {
		if n.ID < 0 || !telemetry.IsFinite(n.Amplitude) {
			s.dropped++
			continue
		}
		s.channels[n.ID].Latest = n.Amplitude
	}

	s.markLive()
}

// EnsureCapacity grows the channel set to n, creating each new channel
// with an empty buffer, default visibility, a base position under the
// active scheme and fresh waveform parameters. Existing channels keep
// their buffers and visibility untouched; only colors and base positions
// are recomputed for the new total.
func (s *Session) EnsureCapacity(n int) {
	if n <= len(s.channels) {
		return
	}

	from := len(s.channels)
	for i := from; i < n; i++ {
		s.channels = append(s.channels, &Channel{
			Index:    i,
			Buffer:   NewBuffer(DefaultHardCap),
			Visible:  true,
			Waveform: DefaultWaveform(i, n),
		})
	}

	s.applyLayout()
	s.recolor()

	s.logger.Info("channel set grown",
		slog.Int("from", from),
		slog.Int("to", n),
	)
}

// Clear empties every buffer and resets the derived visual state, keeping
// channel count, layout, visibility, the window and the rate estimate.
// The session drops back to idle until the next update arrives.
func (s *Session) Clear() {
	for _, ch := range s.channels {
		ch.Buffer.Clear()
		ch.Latest = 0
	}
	s.hasUpdate = false
	s.epoch++

	s.logger.Info("session cleared", slog.Int("channels", len(s.channels)))
}

// SetScheme switches the procedural layout and recomputes every base
// position. Trails restart from the new positions.
func (s *Session) SetScheme(scheme layout.Scheme) {
	if scheme == s.scheme {
		return
	}
	s.scheme = scheme
	s.applyLayout()
	s.epoch++

	s.logger.Info("layout scheme changed", slog.String("scheme", string(scheme)))
}

// SetCalibration overrides base positions for every calibrated index.
// Passing nil drops back to fully procedural placement.
func (s *Session) SetCalibration(cal layout.Calibration) {
	s.calibration = cal
	s.applyLayout()
	s.epoch++
}

// SetVisible shows or hides one channel. Hiding is refused when it would
// leave no channel visible; buffered data is never discarded by hiding.
// Returns true if the flag changed.
func (s *Session) SetVisible(i int, visible bool) bool {
	if i < 0 || i >= len(s.channels) || s.channels[i].Visible == visible {
		return false
	}
	if !visible && s.VisibleCount() == 1 {
		return false
	}
	s.channels[i].Visible = visible
	return true
}

// ToggleVisible flips one channel's visibility under the same rules as
// SetVisible.
func (s *Session) ToggleVisible(i int) bool {
	if i < 0 || i >= len(s.channels) {
		return false
	}
	return s.SetVisible(i, !s.channels[i].Visible)
}

// ShowAll makes every channel visible.
func (s *Session) ShowAll() {
	for _, ch := range s.channels {
		ch.Visible = true
	}
}

// VisibleCount returns the number of currently visible channels.
func (s *Session) VisibleCount() int {
	var n int
	for _, ch := range s.channels {
		if ch.Visible {
			n++
		}
	}
	return n
}

// Channels returns the live channel slice in index order. Callers must
// not grow or reorder it.
func (s *Session) Channels() []*Channel {
	return s.channels
}

// Channel returns the channel at index i, or nil when out of range.
func (s *Session) Channel(i int) *Channel {
	if i < 0 || i >= len(s.channels) {
		return nil
	}
	return s.channels[i]
}

// ChannelCount returns the current channel count.
func (s *Session) ChannelCount() int {
	return len(s.channels)
}

// Window returns the current display window in seconds.
func (s *Session) Window() float64 {
	return s.window.Window()
}

// WindowMode reports whether the window is still under automatic control.
func (s *Session) WindowMode() WindowMode {
	return s.window.Mode()
}

// SetWindow applies an operator window change, locking automatic
// adjustment for the rest of the session.
func (s *Session) SetWindow(seconds float64) {
	s.window.OperatorOverrides(seconds)

	s.logger.Info("display window set",
		slog.Float64("window", s.window.Window()),
		slog.String("mode", string(s.window.Mode())),
	)
}

// RateHz returns the estimated sample rate, or 0 while unknown.
func (s *Session) RateHz() float64 {
	return s.est.RateHz()
}

// Scheme returns the active layout scheme.
func (s *Session) Scheme() layout.Scheme {
	return s.scheme
}

// LastUpdate returns the wall-clock time of the newest ingestion.
func (s *Session) LastUpdate() (time.Time, bool) {
	return s.lastUpdate, s.hasUpdate
}

// Epoch increments whenever derived visual state (trails, surface) must
// restart: scheme changes, calibration loads and clears.
func (s *Session) Epoch() uint64 {
	return s.epoch
}

// Stats returns the session's ingestion counters.
func (s *Session) Stats() Stats {
	st := Stats{
		Samples: s.samples,
		Dropped: s.dropped,
		Ignored: s.ignored,
	}
	for _, ch := range s.channels {
		st.Evicted += ch.Buffer.Evicted()
	}
	return st
}

// write stores one sample on channel i and keeps the channel's latest
// amplitude aligned with the newest buffered timestamp.
func (s *Session) write(i int, t, y float64) {
	if !telemetry.IsFinite(y) {
		s.dropped++
		return
	}
	ch := s.channels[i]
	if !ch.Buffer.Push(t, y, s.window.Window()) {
		s.dropped++
		return
	}
	s.samples++
	if last, ok := ch.Buffer.Latest(); ok {
		ch.Latest = last.Y
	}
}

func (s *Session) markLive() {
	s.lastUpdate = s.now()
	s.hasUpdate = true
}

// resolveTime rebases a producer timestamp onto the session clock origin.
// The first finite source timestamp pins the origin; payloads without one
// fall back to seconds since session start.
func (s *Session) resolveTime(ts *float64) float64 {
	if ts != nil && telemetry.IsFinite(*ts) {
		if !s.hasOrigin {
			s.origin = *ts
			s.hasOrigin = true
		}
		return *ts - s.origin
	}
	return s.now().Sub(s.started).Seconds()
}

func (s *Session) autoAdjustWindow() {
	rec := s.est.RecommendedWindow()
	if rec <= 0 {
		return
	}
	if s.window.EstimatorSuggests(rec) {
		s.logger.Info("display window auto-adjusted",
			slog.Float64("window", s.window.Window()),
			slog.Float64("rateHz", s.est.RateHz()),
		)
	}
}

func (s *Session) applyLayout() {
	positions := layout.Compute(s.scheme, len(s.channels))
	for i, ch := range s.channels {
		base := positions[i]
		if cal, ok := s.calibration[i]; ok {
			base = cal
		}
		ch.Base = base
	}
}

func (s *Session) recolor() {
	palette := ChannelPalette(len(s.channels))
	for i, ch := range s.channels {
		ch.Color = palette[i]
	}
}
