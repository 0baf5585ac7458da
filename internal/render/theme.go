package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme selects the gradient used to shade amplitude on the surface
// ribbon and in preview renders:
//   - ThemeClassic: blue to red transition
//   - ThemeThermal: black to red to yellow to white
//   - ThemeGrayscale: black to white
//   - ThemeMarine: deep blue to cyan to white
type Theme string

const (
	ThemeClassic   Theme = "classic"
	ThemeThermal   Theme = "thermal"
	ThemeGrayscale Theme = "grayscale"
	ThemeMarine    Theme = "marine"

	themeSteps = 256
)

// Themes lists every gradient theme.
var Themes = []Theme{ThemeClassic, ThemeThermal, ThemeGrayscale, ThemeMarine}

// ParseTheme validates a configured theme name.
func ParseTheme(s string) (Theme, error) {
	for _, known := range Themes {
		if Theme(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown color theme %q", s)
}

// AmplitudeMapper maps amplitudes onto a theme gradient through a
// precomputed table, so per-vertex shading costs one index per lookup.
type AmplitudeMapper struct {
	table    []color.RGBA
	min      float64
	perIndex float64
}

// NewAmplitudeMapper builds the gradient table for one amplitude range.
// Values outside [min, max] clamp to the gradient ends.
func NewAmplitudeMapper(theme Theme, min, max float64) *AmplitudeMapper {
	if max <= min {
		max = min + 1
	}

	m := &AmplitudeMapper{
		table:    make([]color.RGBA, themeSteps),
		min:      min,
		perIndex: (max - min) / float64(themeSteps-1),
	}
	gradient := themeGradient(theme)
	for i := range m.table {
		m.table[i] = gradient(float64(i) / float64(themeSteps-1))
	}
	return m
}

// Color returns the gradient color for v.
func (m *AmplitudeMapper) Color(v float64) color.RGBA {
	index := int((v - m.min) / m.perIndex)
	if index < 0 {
		return m.table[0]
	}
	if index >= len(m.table) {
		return m.table[len(m.table)-1]
	}
	return m.table[index]
}

// channel converts a [0, 1] fraction to one 8-bit color channel.
func channel(t float64) uint8 {
	return uint8(math.Min(1, math.Max(0, t)) * 255)
}

func themeGradient(theme Theme) func(float64) color.RGBA {
	switch theme {
	case ThemeThermal:
		return func(t float64) color.RGBA {
			switch {
			case t < 0.33:
				return color.RGBA{R: channel(t / 0.33), A: 0xff}
			case t < 0.66:
				return color.RGBA{R: 255, G: channel((t - 0.33) / 0.33), A: 0xff}
			default:
				return color.RGBA{R: 255, G: 255, B: channel((t - 0.66) / 0.34), A: 0xff}
			}
		}

	case ThemeGrayscale:
		return func(t float64) color.RGBA {
			v := uint8(math.Pow(t, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 0xff}
		}

	case ThemeMarine:
		return func(t float64) color.RGBA {
			c := colorful.Hsv(240-t*60, 1-t*0.8, 0.3+math.Pow(t, 0.6)*0.7)
			r, g, b := c.RGB255()
			return color.RGBA{R: r, G: g, B: b, A: 0xff}
		}

	default: // ThemeClassic
		return func(t float64) color.RGBA {
			c := colorful.Hsv(240-t*240, 0.9+t*0.1, math.Pow(t, 0.7))
			r, g, b := c.RGB255()
			return color.RGBA{R: r, G: g, B: b, A: 0xff}
		}
	}
}
