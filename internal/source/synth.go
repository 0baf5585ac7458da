package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/signalgrid/nodescope/internal/stream"
	"github.com/signalgrid/nodescope/internal/telemetry"
)

const (
	defaultChannels   = 21
	defaultPacketRate = 200.0
	defaultBaseFreq   = 0.5
	defaultLatestRate = 30.0
)

// ErrAlreadyRunning is returned by Begin on a source that is producing.
var ErrAlreadyRunning = errors.New("source is already running")

// SynthConfig tunes the loopback generator. Zero values take defaults.
type SynthConfig struct {
	Channels   int     // Channel count announced up front
	PacketRate float64 // Amplitude frames per second across the batch stream
	BaseFreq   float64 // Waveform base frequency in Hz
	LatestRate float64 // Latest-only updates per second for the spatial view
}

func (c *SynthConfig) applyDefaults() {
	if c.Channels <= 0 {
		c.Channels = defaultChannels
	}
	if c.PacketRate <= 0 {
		c.PacketRate = defaultPacketRate
	}
	if c.BaseFreq <= 0 {
		c.BaseFreq = defaultBaseFreq
	}
	if c.LatestRate <= 0 {
		c.LatestRate = defaultLatestRate
	}
}

// WithLogger sets the logger for source events.
func WithLogger(logger *slog.Logger) func(*Synth) {
	return func(s *Synth) {
		s.logger = logger
	}
}

// Synth is the built-in loopback source: deterministic per-channel sine
// waveforms derived from the same waveform parameters every channel is
// born with. It announces the channel count, streams dense batches at
// the configured packet rate, and sends latest-only updates on a faster
// cadence for the spatial view.
type Synth struct {
	cfg     SynthConfig
	logger  *slog.Logger
	running atomic.Bool
}

func NewSynth(cfg SynthConfig, options ...func(*Synth)) *Synth {
	cfg.applyDefaults()

	s := &Synth{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Begin starts the generator goroutine.
func (s *Synth) Begin(ctx context.Context, out chan telemetry.Event) (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	stopped := make(chan error)
	go s.run(ctx, out, stopped)
	return stopped, nil
}

func (s *Synth) run(ctx context.Context, out chan telemetry.Event, stopped chan error) {
	defer close(stopped)
	defer s.running.Store(false)

	waves := make([]stream.Waveform, s.cfg.Channels)
	for i := range waves {
		waves[i] = stream.DefaultWaveform(i, s.cfg.Channels)
	}

	count := s.cfg.Channels
	offer(out, telemetry.Event{SetCount: &count})

	frames := batchFrames(s.cfg.PacketRate)
	batchTicker := time.NewTicker(time.Duration(float64(frames) / s.cfg.PacketRate * float64(time.Second)))
	defer batchTicker.Stop()
	latestTicker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.LatestRate))
	defer latestTicker.Stop()

	s.logger.Info("loopback source started",
		slog.Int("channels", s.cfg.Channels),
		slog.Float64("packetRate", s.cfg.PacketRate),
		slog.Int("framesPerBatch", frames),
	)

	start := time.Now()
	var frameIndex uint64
	var emitted, dropped uint64

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("loopback source stopped",
				slog.Uint64("events", emitted),
				slog.Uint64("dropped", dropped),
			)
			return

		case <-batchTicker.C:
			batch := s.makeBatch(waves, frames, frameIndex)
			frameIndex += uint64(frames)
			if offer(out, telemetry.Event{Batch: batch}) {
				emitted++
			} else {
				dropped++
			}

		case <-latestTicker.C:
			update := s.makeLatest(waves, time.Since(start).Seconds())
			if offer(out, telemetry.Event{Latest: update}) {
				emitted++
			} else {
				dropped++
			}
		}
	}
}

// makeBatch synthesizes the next frames of the waveform stream. Frame
// timestamps advance on the exact packet cadence, so the viewer's rate
// estimator sees the configured rate rather than ticker jitter.
func (s *Synth) makeBatch(waves []stream.Waveform, frames int, frameIndex uint64) *telemetry.Batch {
	batch := &telemetry.Batch{
		TS:     make([]float64, frames),
		Frames: make([][]float64, frames),
	}
	for k := 0; k < frames; k++ {
		t := float64(frameIndex+uint64(k)) / s.cfg.PacketRate
		batch.TS[k] = t

		vec := make([]float64, len(waves))
		for i, w := range waves {
			vec[i] = sampleWave(w, s.cfg.BaseFreq, t)
		}
		batch.Frames[k] = vec
	}
	return batch
}

func (s *Synth) makeLatest(waves []stream.Waveform, t float64) *telemetry.LatestUpdate {
	update := &telemetry.LatestUpdate{
		Timestamp: t,
		Nodes:     make([]telemetry.NodeAmplitude, len(waves)),
	}
	for i, w := range waves {
		update.Nodes[i] = telemetry.NodeAmplitude{ID: i, Amplitude: sampleWave(w, s.cfg.BaseFreq, t)}
	}
	return update
}

func sampleWave(w stream.Waveform, baseFreq, t float64) float64 {
	return w.Amplitude * math.Sin(2*math.Pi*baseFreq*w.FreqMult*t+w.Phase)
}

// batchFrames sizes a batch from the packet rate, keeping the dispatch
// cadence between 10 and 50 batches per second across the usable range.
func batchFrames(rate float64) int {
	var frames float64
	switch {
	case rate <= 100:
		frames = 0.10 * rate
	case rate <= 1000:
		frames = 0.05 * rate
	default:
		frames = 0.02 * rate
	}
	if frames < 1 {
		return 1
	}
	return int(frames)
}
