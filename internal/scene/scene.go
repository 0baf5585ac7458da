package scene

import (
	"image"
	"image/color"
	"sort"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/signalgrid/nodescope/internal/geom"
	"github.com/signalgrid/nodescope/internal/render"
	"github.com/signalgrid/nodescope/internal/stream"
)

// State is the scene's liveness: Live while an update arrived within the
// freshness window, Idle otherwise.
type State string

const (
	StateIdle State = "idle"
	StateLive State = "live"
)

const (
	// FreshnessWindow bounds how old the newest ingestion may be before
	// the scene drops back to Idle. Evaluated against the wall clock
	// every frame.
	FreshnessWindow = 500 * time.Millisecond

	// DefaultGain scales latest amplitude into a vertical offset.
	DefaultGain = 0.2

	defaultFPS         = 20
	defaultTrailLength = 32
	defaultVertices    = 64

	// Settle spring: underdamped enough to ease, stiff enough to come
	// to rest within about a second.
	settleFreq    = 10.0
	settleDamping = 0.7

	// amplitudeSpan is the raw amplitude magnitude mapped onto the full
	// surface gradient.
	amplitudeSpan = 2.0

	nodeScale     = 9.0
	minNodeRadius = 2
	maxNodeRadius = 9
)

var sceneBackground = color.RGBA{R: 0x0b, G: 0x0d, B: 0x10, A: 0xff}

// Config tunes the scene. Zero values take defaults.
type Config struct {
	Gain        float64      // Vertical offset per amplitude unit
	FPS         int          // Frame rate the springs are tuned for
	TrailLength int          // Positions kept per channel trail
	Vertices    int          // Surface ribbon resolution
	Theme       render.Theme // Surface shading gradient
}

func (c *Config) applyDefaults() {
	if c.Gain == 0 {
		c.Gain = DefaultGain
	}
	if c.FPS <= 0 {
		c.FPS = defaultFPS
	}
	if c.TrailLength <= 0 {
		c.TrailLength = defaultTrailLength
	}
	if c.Vertices <= 0 {
		c.Vertices = defaultVertices
	}
	if c.Theme == "" {
		c.Theme = render.ThemeClassic
	}
}

// Scene owns all derived visual state for the spatial view: per-channel
// vertical offsets and their spring velocities, the trail histories, the
// surface ribbon, the camera and the Idle/Live state. It reads the
// session every frame and never mutates it.
type Scene struct {
	cfg    Config
	camera geom.Camera
	settle harmonica.Spring
	mapper *render.AmplitudeMapper

	offsets []float64
	vels    []float64
	trails  []*Trail
	surface *Surface

	state State
	epoch uint64

	// Scratch buffers reused across frames.
	trailScratch []geom.Vec3
	drawScratch  []nodeDraw
}

type nodeDraw struct {
	x, y    int
	depth   float64
	radius  int
	color   color.RGBA
	visible bool
}

func New(cfg Config) *Scene {
	cfg.applyDefaults()
	return &Scene{
		cfg:     cfg,
		camera:  geom.DefaultCamera(),
		settle:  harmonica.NewSpring(harmonica.FPS(cfg.FPS), settleFreq, settleDamping),
		mapper:  render.NewAmplitudeMapper(cfg.Theme, -amplitudeSpan*cfg.Gain, amplitudeSpan*cfg.Gain),
		surface: NewSurface(cfg.Vertices, cfg.FPS),
		state:   StateIdle,
	}
}

// Camera exposes the orbit camera for operator controls.
func (s *Scene) Camera() *geom.Camera {
	return &s.camera
}

// ResetCamera restores the default framing.
func (s *Scene) ResetCamera() {
	s.camera = geom.DefaultCamera()
}

// State returns the current liveness state.
func (s *Scene) State() State {
	return s.state
}

// Advance runs one frame of scene dynamics: liveness, channel offsets,
// trails and the surface ribbon. Call it once per frame before Render,
// whether or not data arrived.
func (s *Scene) Advance(now time.Time, sess *stream.Session) {
	s.syncCount(sess.ChannelCount())
	if e := sess.Epoch(); e != s.epoch {
		s.epoch = e
		s.resetDerived()
	}

	s.state = StateIdle
	if last, ok := sess.LastUpdate(); ok && now.Sub(last) < FreshnessWindow {
		s.state = StateLive
	}

	for i, ch := range sess.Channels() {
		if s.state == StateLive {
			// Live offsets track the data directly; the measured velocity
			// seeds the settle spring when the stream goes quiet.
			target := ch.Latest * s.cfg.Gain
			s.vels[i] = (target - s.offsets[i]) * float64(s.cfg.FPS)
			s.offsets[i] = target
		} else {
			s.offsets[i], s.vels[i] = s.settle.Update(s.offsets[i], s.vels[i], 0)
		}
		s.trails[i].Push(ch.Base.Add(geom.Vec3{Y: s.offsets[i]}))
	}

	s.surface.Advance(s.offsets)
}

// Render draws the scene into img: surface ribbon, trails, then nodes
// sorted far to near.
func (s *Scene) Render(img *image.RGBA, sess *stream.Session) {
	render.Fill(img, sceneBackground)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 8 || h < 8 {
		return
	}

	s.surface.Render(img, s.camera, s.mapper)
	s.renderTrails(img, sess, w, h)
	s.renderNodes(img, sess, w, h)
}

func (s *Scene) renderTrails(img *image.RGBA, sess *stream.Session, w, h int) {
	for i, ch := range sess.Channels() {
		if !ch.Visible || s.trails[i].Len() < 2 {
			continue
		}
		s.trailScratch = s.trails[i].Points(s.trailScratch[:0])

		prevX, prevY := 0, 0
		havePrev := false
		for j, p := range s.trailScratch {
			x, y, _, ok := s.camera.Project(p, w, h)
			if !ok {
				havePrev = false
				continue
			}
			if havePrev {
				// Older segments fade toward the background.
				age := float64(j) / float64(len(s.trailScratch)-1)
				render.Line(img, prevX, prevY, int(x), int(y), render.Scale(ch.Color, 0.25+0.75*age))
			}
			prevX, prevY = int(x), int(y)
			havePrev = true
		}
	}
}

func (s *Scene) renderNodes(img *image.RGBA, sess *stream.Session, w, h int) {
	s.drawScratch = s.drawScratch[:0]

	for i, ch := range sess.Channels() {
		p := ch.Base.Add(geom.Vec3{Y: s.offsets[i]})
		x, y, depth, ok := s.camera.Project(p, w, h)
		if !ok {
			continue
		}

		radius := int(nodeScale / depth)
		if radius < minNodeRadius {
			radius = minNodeRadius
		} else if radius > maxNodeRadius {
			radius = maxNodeRadius
		}

		c := ch.Color
		if s.state == StateIdle {
			c = render.Scale(c, 0.6)
		}
		if !ch.Visible {
			c = render.Scale(c, 0.35)
		}

		s.drawScratch = append(s.drawScratch, nodeDraw{
			x: int(x), y: int(y), depth: depth, radius: radius, color: c, visible: ch.Visible,
		})
	}

	sort.Slice(s.drawScratch, func(a, b int) bool {
		return s.drawScratch[a].depth > s.drawScratch[b].depth
	})

	for _, n := range s.drawScratch {
		render.Disc(img, n.x, n.y, n.radius, n.color)
		if n.visible && s.state == StateLive {
			render.Ring(img, n.x, n.y, n.radius+2, render.Scale(n.color, 0.5))
		}
	}
}

func (s *Scene) syncCount(n int) {
	for len(s.trails) < n {
		s.offsets = append(s.offsets, 0)
		s.vels = append(s.vels, 0)
		s.trails = append(s.trails, NewTrail(s.cfg.TrailLength))
	}
}

func (s *Scene) resetDerived() {
	for i := range s.offsets {
		s.offsets[i] = 0
		s.vels[i] = 0
		s.trails[i].Reset()
	}
	s.surface.Reset()
}
