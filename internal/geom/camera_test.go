package geom

import (
	"math"
	"testing"
)

func TestCamera_Eye(t *testing.T) {
	c := Camera{Distance: 2}

	eye := c.Eye()
	if math.Abs(eye.X) > 1e-12 || math.Abs(eye.Y) > 1e-12 || math.Abs(eye.Z-2) > 1e-12 {
		t.Errorf("Yaw 0, pitch 0: expected eye on +Z, got %+v", eye)
	}

	c.Yaw = math.Pi / 2
	eye = c.Eye()
	if math.Abs(eye.X-2) > 1e-12 || math.Abs(eye.Z) > 1e-12 {
		t.Errorf("Yaw pi/2: expected eye on +X, got %+v", eye)
	}

	c.Target = Vec3{X: 1, Y: 1, Z: 1}
	if got := c.Eye().Sub(c.Target).Len(); math.Abs(got-2) > 1e-12 {
		t.Errorf("Eye must stay Distance from target, got %f", got)
	}
}

func TestCamera_OrbitClampsPitch(t *testing.T) {
	c := DefaultCamera()

	c.Orbit(0, 10)
	if c.Pitch != maxPitch {
		t.Errorf("Expected pitch clamped to %f, got %f", maxPitch, c.Pitch)
	}
	c.Orbit(0, -20)
	if c.Pitch != minPitch {
		t.Errorf("Expected pitch clamped to %f, got %f", minPitch, c.Pitch)
	}

	c.Orbit(100, 0)
	if c.Yaw < -2*math.Pi || c.Yaw > 2*math.Pi {
		t.Errorf("Yaw not wrapped: %f", c.Yaw)
	}
}

func TestCamera_ZoomClamps(t *testing.T) {
	c := DefaultCamera()

	c.Zoom(1e-6)
	if c.Distance != minDistance {
		t.Errorf("Expected distance clamped to %f, got %f", minDistance, c.Distance)
	}
	c.Zoom(1e6)
	if c.Distance != maxDistance {
		t.Errorf("Expected distance clamped to %f, got %f", maxDistance, c.Distance)
	}

	before := c.Distance
	c.Zoom(0)
	c.Zoom(-2)
	if c.Distance != before {
		t.Errorf("Non-positive factors must be ignored, got %f", c.Distance)
	}
}

func TestCamera_ProjectCenter(t *testing.T) {
	c := DefaultCamera()
	w, h := 640, 480

	x, y, depth, ok := c.Project(c.Target, w, h)
	if !ok {
		t.Fatal("Target must be projectable")
	}
	if math.Abs(x-320) > 1e-6 || math.Abs(y-240) > 1e-6 {
		t.Errorf("Target must project to screen center, got (%f, %f)", x, y)
	}
	if math.Abs(depth-c.Distance) > 1e-9 {
		t.Errorf("Target depth must equal orbit distance, got %f", depth)
	}
}

func TestCamera_ProjectDirections(t *testing.T) {
	// Camera on +Z looking at the origin: +Y in world is up on screen,
	// +X in world is right on screen.
	c := Camera{Distance: 3, FOV: math.Pi / 3}
	w, h := 200, 200

	_, yUp, _, ok := c.Project(Vec3{Y: 0.2}, w, h)
	if !ok || yUp >= 100 {
		t.Errorf("Point above target must land above center, got y=%f ok=%v", yUp, ok)
	}

	xRight, _, _, ok := c.Project(Vec3{X: 0.2}, w, h)
	if !ok || xRight <= 100 {
		t.Errorf("Point right of target must land right of center, got x=%f ok=%v", xRight, ok)
	}
}

func TestCamera_ProjectRejectsBehind(t *testing.T) {
	c := DefaultCamera()

	eye := c.Eye()
	back := eye.Sub(c.Target).Normalize()
	behind := eye.Add(back.Scale(1))

	if _, _, _, ok := c.Project(behind, 100, 100); ok {
		t.Error("Point behind the camera must be rejected")
	}
}
