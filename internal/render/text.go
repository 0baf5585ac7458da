package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const dpi = 120.0

// Text rasterizes labels with the Go Mono face. The face ships as TTF
// bytes in golang.org/x/image, so there is no font asset to carry in the
// repository. Monospace keeps HUD columns and axis labels aligned without
// per-string measurement.
type Text struct {
	context *freetype.Context
	face    font.Face
	size    float64
}

// NewText creates a drawer for one font size. A frame typically carries
// two: one for the HUD, a smaller one for axis labels.
func NewText(size float64) (*Text, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)

	return &Text{
		context: ctx,
		face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
		size: size,
	}, nil
}

func (t *Text) Close() error {
	if t.face != nil {
		return t.face.Close()
	}
	return nil
}

// Draw renders s with its baseline starting at (x, y). Glyphs falling
// outside the image are clipped, not an error.
func (t *Text) Draw(img *image.RGBA, x, y int, c color.Color, s string) {
	t.context.SetClip(img.Bounds())
	t.context.SetDst(img)
	t.context.SetSrc(image.NewUniform(c))
	_, _ = t.context.DrawString(s, freetype.Pt(x, y))
}

// Width returns the advance width of s in pixels.
func (t *Text) Width(s string) int {
	return font.MeasureString(t.face, s).Round()
}

// LineHeight returns ascent plus descent in pixels.
func (t *Text) LineHeight() int {
	m := t.face.Metrics()
	return (m.Ascent + m.Descent).Round()
}

// Ascent returns the baseline offset from the top of a line in pixels.
func (t *Text) Ascent() int {
	return t.face.Metrics().Ascent.Round()
}
