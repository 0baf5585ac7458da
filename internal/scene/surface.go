package scene

import (
	"image"
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/signalgrid/nodescope/internal/geom"
	"github.com/signalgrid/nodescope/internal/render"
)

// Surface world placement: a ribbon along the channel-index axis, in
// front of the node cloud, rising from a fixed baseline.
const (
	surfaceSpan    = 1.1
	surfaceBaseY   = -0.55
	surfaceZ       = 0.55
	surfaceFreq    = 10.0
	surfaceDamping = 1.0 // Critically damped
)

// Surface is the continuously-interpolated amplitude ribbon. Each vertex
// carries its own spring state, so the ribbon eases toward the latest
// amplitudes instead of snapping, and keeps easing while the scene is
// idle.
type Surface struct {
	spring harmonica.Spring

	heights    []float64
	velocities []float64
}

func NewSurface(vertices, fps int) *Surface {
	if vertices < 2 {
		vertices = 2
	}
	return &Surface{
		spring:     harmonica.NewSpring(harmonica.FPS(fps), surfaceFreq, surfaceDamping),
		heights:    make([]float64, vertices),
		velocities: make([]float64, vertices),
	}
}

// Advance springs every vertex toward the height interpolated from the
// current channel offsets. The target at parametric coordinate u blends
// the two nearest channels with a smoothstep across the index axis.
func (s *Surface) Advance(offsets []float64) {
	for i := range s.heights {
		u := float64(i) / float64(len(s.heights)-1)
		target := interpolateOffsets(offsets, u)
		s.heights[i], s.velocities[i] = s.spring.Update(s.heights[i], s.velocities[i], target)
	}
}

// Reset drops the ribbon back to the baseline with no velocity.
func (s *Surface) Reset() {
	for i := range s.heights {
		s.heights[i] = 0
		s.velocities[i] = 0
	}
}

// Heights exposes the current vertex heights. Read-only for callers.
func (s *Surface) Heights() []float64 {
	return s.heights
}

// Render projects the ribbon with cam and fills it column by column,
// shading each column by its height through the mapper.
func (s *Surface) Render(img *image.RGBA, cam geom.Camera, mapper *render.AmplitudeMapper) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for i := 0; i < len(s.heights)-1; i++ {
		u0 := float64(i) / float64(len(s.heights)-1)
		u1 := float64(i+1) / float64(len(s.heights)-1)

		top0, bot0, ok0 := s.projectColumn(cam, u0, s.heights[i], w, h)
		top1, bot1, ok1 := s.projectColumn(cam, u1, s.heights[i+1], w, h)
		if !ok0 || !ok1 {
			continue
		}

		steps := max(2, abs(int(top1.X-top0.X)))
		for st := 0; st <= steps; st++ {
			f := float64(st) / float64(steps)
			top := lerpPoint(top0, top1, f)
			bot := lerpPoint(bot0, bot1, f)
			c := mapper.Color(s.heights[i] + (s.heights[i+1]-s.heights[i])*f)
			render.Line(img, int(top.X), int(top.Y), int(bot.X), int(bot.Y), c)
		}
	}
}

type screenPoint struct {
	X, Y float64
}

func (s *Surface) projectColumn(cam geom.Camera, u, height float64, w, h int) (top, bot screenPoint, ok bool) {
	x := (u - 0.5) * surfaceSpan
	tx, ty, _, okTop := cam.Project(geom.Vec3{X: x, Y: surfaceBaseY + height, Z: surfaceZ}, w, h)
	bx, by, _, okBot := cam.Project(geom.Vec3{X: x, Y: surfaceBaseY, Z: surfaceZ}, w, h)
	if !okTop || !okBot {
		return screenPoint{}, screenPoint{}, false
	}
	return screenPoint{X: tx, Y: ty}, screenPoint{X: bx, Y: by}, true
}

// interpolateOffsets maps u in [0, 1] onto the channel index axis and
// blends the two nearest offsets.
func interpolateOffsets(offsets []float64, u float64) float64 {
	switch len(offsets) {
	case 0:
		return 0
	case 1:
		return offsets[0]
	}

	x := u * float64(len(offsets)-1)
	i := int(math.Floor(x))
	if i >= len(offsets)-1 {
		return offsets[len(offsets)-1]
	}
	f := smoothstep(x - float64(i))
	return offsets[i] + (offsets[i+1]-offsets[i])*f
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerpPoint(a, b screenPoint, f float64) screenPoint {
	return screenPoint{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
