package geom

import "math"

const (
	minPitch    = -1.45 // Radians; stops short of the poles so the view
	maxPitch    = 1.45  // basis never degenerates
	minDistance = 0.8
	maxDistance = 10.0
	nearPlane   = 0.05
)

// Camera orbits a target point and projects world positions onto the
// image plane with a simple perspective transform.
type Camera struct {
	Target   Vec3
	Yaw      float64 // Radians around the Y axis
	Pitch    float64 // Radians above the horizontal plane
	Distance float64
	FOV      float64 // Vertical field of view in radians
}

// DefaultCamera returns the framing the viewer resets to: slightly above
// the layout plane, looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Yaw:      0.65,
		Pitch:    0.52,
		Distance: 2.6,
		FOV:      50 * math.Pi / 180,
	}
}

// Orbit turns the camera around its target, clamping pitch short of the
// poles.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = math.Min(math.Max(c.Pitch+dpitch, minPitch), maxPitch)
}

// Zoom scales the orbit distance, clamped to a sane range.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = math.Min(math.Max(c.Distance*factor, minDistance), maxDistance)
}

// Eye returns the camera position in world space.
func (c Camera) Eye() Vec3 {
	cp := math.Cos(c.Pitch)
	return c.Target.Add(Vec3{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	})
}

// Project maps a world point onto a w-by-h pixel plane. It returns the
// pixel coordinates, the view-space depth, and whether the point lies in
// front of the near plane.
func (c Camera) Project(p Vec3, w, h int) (x, y, depth float64, ok bool) {
	eye := c.Eye()
	forward := c.Target.Sub(eye).Normalize()
	right := forward.Cross(Vec3{Y: 1}).Normalize()
	up := right.Cross(forward)

	d := p.Sub(eye)
	vz := d.Dot(forward)
	if vz < nearPlane {
		return 0, 0, vz, false
	}

	f := float64(h) / 2 / math.Tan(c.FOV/2)
	x = float64(w)/2 + d.Dot(right)*f/vz
	y = float64(h)/2 - d.Dot(up)*f/vz
	return x, y, vz, true
}
