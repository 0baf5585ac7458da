package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Drawing primitives for frame composition. All of them clip against the
// image bounds through SetRGBA, so callers may draw partially off-screen
// geometry without pre-clipping.

// Fill paints the whole image.
func Fill(img *image.RGBA, c color.RGBA) {
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// FillRect paints the rectangle r.
func FillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// HLine draws a horizontal line from (x0, y) to (x1, y) inclusive.
func HLine(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, c)
	}
}

// VLine draws a vertical line from (x, y0) to (x, y1) inclusive.
func VLine(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, c)
	}
}

// Line draws a straight segment with Bresenham stepping.
func Line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Disc draws a filled circle of radius r centered on (cx, cy).
func Disc(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r <= 0 {
		img.SetRGBA(cx, cy, c)
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

// Ring draws a one-pixel circle outline of radius r centered on (cx, cy).
func Ring(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r <= 0 {
		img.SetRGBA(cx, cy, c)
		return
	}
	x, y := r, 0
	err := 1 - r
	for x >= y {
		img.SetRGBA(cx+x, cy+y, c)
		img.SetRGBA(cx-x, cy+y, c)
		img.SetRGBA(cx+x, cy-y, c)
		img.SetRGBA(cx-x, cy-y, c)
		img.SetRGBA(cx+y, cy+x, c)
		img.SetRGBA(cx-y, cy+x, c)
		img.SetRGBA(cx+y, cy-x, c)
		img.SetRGBA(cx-y, cy-x, c)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// Scale darkens c by factor t in [0, 1]; 1 keeps c, 0 is black. Trails
// use it to fade with age.
func Scale(c color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * t),
		G: uint8(float64(c.G) * t),
		B: uint8(float64(c.B) * t),
		A: c.A,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
