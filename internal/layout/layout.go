package layout

import (
	"fmt"
	"math"

	"github.com/signalgrid/nodescope/internal/geom"
)

const (
	SchemeGrid     Scheme = "grid"     // Square lattice in the horizontal plane
	SchemeHelix    Scheme = "helix"    // Rising spiral, three turns
	SchemeSphere   Scheme = "sphere"   // Golden-angle spiral over a sphere
	SchemeCylinder Scheme = "cylinder" // Rings stacked on the vertical axis

	// SphereRadius is the radius every sphere-scheme position lies on.
	SphereRadius = 0.5

	helixTurns      = 3     // Angle sweeps 0..6pi across the index range
	helixBaseRadius = 0.12  // Radius at index fraction 0
	helixGrowRadius = 0.38  // Added radius at index fraction 1
	helixHeight     = 1.0   // Vertical extent, centered on the origin
	cylinderRadius  = 0.5
	cylinderHeight  = 1.0
)

// Scheme selects the procedural rule mapping a channel index to its base
// position.
type Scheme string

// Schemes lists every procedural scheme in cycling order.
var Schemes = []Scheme{SchemeGrid, SchemeHelix, SchemeSphere, SchemeCylinder}

// ParseScheme validates a configured scheme name.
func ParseScheme(s string) (Scheme, error) {
	for _, known := range Schemes {
		if Scheme(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown layout scheme %q", s)
}

// Next returns the scheme after s in cycling order.
func (s Scheme) Next() Scheme {
	for i, known := range Schemes {
		if s == known {
			return Schemes[(i+1)%len(Schemes)]
		}
	}
	return SchemeGrid
}

// Compute returns one base position per channel index. It is pure in
// (scheme, count): the same inputs always yield the same layout, so a
// recompute after capacity growth moves every channel onto the lattice
// for the new total.
func Compute(s Scheme, count int) []geom.Vec3 {
	if count <= 0 {
		return nil
	}
	switch s {
	case SchemeHelix:
		return helixLayout(count)
	case SchemeSphere:
		return sphereLayout(count)
	case SchemeCylinder:
		return cylinderLayout(count)
	default:
		return gridLayout(count)
	}
}

// gridLayout places channels row by row on a square-ish lattice spanning
// [-0.5, 0.5] in X and Z, at Y zero.
func gridLayout(n int) []geom.Vec3 {
	side := int(math.Ceil(math.Sqrt(float64(n))))
	div := float64(max(1, side-1))
	half := float64(side-1) / 2

	pos := make([]geom.Vec3, n)
	for i := range pos {
		r, c := i/side, i%side
		pos[i] = geom.Vec3{
			X: (float64(c) - half) / div,
			Z: (float64(r) - half) / div,
		}
	}
	return pos
}

// helixLayout sweeps the angle over three full turns while radius and
// height grow linearly with the index fraction.
func helixLayout(n int) []geom.Vec3 {
	div := float64(max(1, n-1))

	pos := make([]geom.Vec3, n)
	for i := range pos {
		f := float64(i) / div
		angle := helixTurns * 2 * math.Pi * f
		radius := helixBaseRadius + helixGrowRadius*f
		pos[i] = geom.Vec3{
			X: radius * math.Cos(angle),
			Y: (f - 0.5) * helixHeight,
			Z: radius * math.Sin(angle),
		}
	}
	return pos
}

// sphereLayout distributes channels with the golden-angle spiral, which
// keeps neighbouring points near-uniformly spaced for any count.
func sphereLayout(n int) []geom.Vec3 {
	golden := math.Pi * (3 - math.Sqrt(5))

	pos := make([]geom.Vec3, n)
	for i := range pos {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		ring := math.Sqrt(1 - y*y)
		angle := golden * float64(i)
		pos[i] = geom.Vec3{
			X: SphereRadius * ring * math.Cos(angle),
			Y: SphereRadius * y,
			Z: SphereRadius * ring * math.Sin(angle),
		}
	}
	return pos
}

// cylinderLayout wraps rows of channels around the vertical axis, one
// ring per row.
func cylinderLayout(n int) []geom.Vec3 {
	perRing := int(math.Ceil(math.Sqrt(float64(n))))
	rings := (n + perRing - 1) / perRing

	pos := make([]geom.Vec3, n)
	for i := range pos {
		ring, k := i/perRing, i%perRing
		angle := 2 * math.Pi * float64(k) / float64(perRing)

		var y float64
		if rings > 1 {
			y = (float64(ring)/float64(rings-1) - 0.5) * cylinderHeight
		}
		pos[i] = geom.Vec3{
			X: cylinderRadius * math.Cos(angle),
			Y: y,
			Z: cylinderRadius * math.Sin(angle),
		}
	}
	return pos
}
