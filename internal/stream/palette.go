package stream

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	paletteSaturation = 0.62
	paletteValue      = 0.95
)

// ChannelPalette returns one color per channel with hues spread evenly
// around the wheel for the given total. A channel's color is a function
// of (index, count), so growing the channel set re-hues the whole palette
// rather than squeezing new colors in at one end.
func ChannelPalette(count int) []color.RGBA {
	if count <= 0 {
		return nil
	}
	colors := make([]color.RGBA, count)
	for i := range colors {
		hue := 360 * float64(i) / float64(count)
		r, g, b := colorful.Hsv(hue, paletteSaturation, paletteValue).RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return colors
}
