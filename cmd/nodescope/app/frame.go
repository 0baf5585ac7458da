package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/signalgrid/nodescope/internal/chart"
	"github.com/signalgrid/nodescope/internal/scene"
	"github.com/signalgrid/nodescope/internal/stream"
)

// maxChartRows caps the strip chart bank; visibility beyond the first
// eight visible channels still affects the spatial view.
const maxChartRows = 8

var bankBackground = color.RGBA{R: 0x0e, G: 0x10, B: 0x14, A: 0xff}

// Composer owns the composed frame and its layout: HUD strip on top,
// spatial view on the left half, strip chart bank on the right. The
// frame buffer and the scene buffer are allocated once and reused.
type Composer struct {
	hud    *HUD
	charts *chart.Renderer
	scene  *scene.Scene

	frame    *image.RGBA
	sceneBuf *image.RGBA

	hudRect   image.Rectangle
	sceneRect image.Rectangle
	bankRect  image.Rectangle
}

func NewComposer(width, height int, sc *scene.Scene) (*Composer, error) {
	hud, err := NewHUD()
	if err != nil {
		return nil, err
	}
	charts, err := chart.NewRenderer()
	if err != nil {
		hud.Close()
		return nil, err
	}

	hudRect := image.Rect(0, 0, width, hud.Height())
	sceneRect := image.Rect(0, hud.Height(), width/2, height)
	bankRect := image.Rect(width/2, hud.Height(), width, height)

	return &Composer{
		hud:       hud,
		charts:    charts,
		scene:     sc,
		frame:     image.NewRGBA(image.Rect(0, 0, width, height)),
		sceneBuf:  image.NewRGBA(image.Rect(0, 0, sceneRect.Dx(), sceneRect.Dy())),
		hudRect:   hudRect,
		sceneRect: sceneRect,
		bankRect:  bankRect,
	}, nil
}

func (c *Composer) Close() error {
	if err := c.hud.Close(); err != nil {
		return err
	}
	return c.charts.Close()
}

// Compose renders one full frame: HUD, scene, then the chart bank for
// the first visible channels. The returned image is reused next frame.
func (c *Composer) Compose(sess *stream.Session, info HUDInfo) *image.RGBA {
	c.hud.Draw(c.frame, c.hudRect, info)

	c.scene.Render(c.sceneBuf, sess)
	draw.Draw(c.frame, c.sceneRect, c.sceneBuf, image.Point{}, draw.Src)

	c.composeBank(sess)
	return c.frame
}

func (c *Composer) composeBank(sess *stream.Session) {
	rows := make([]*stream.Channel, 0, maxChartRows)
	for _, ch := range sess.Channels() {
		if !ch.Visible {
			continue
		}
		rows = append(rows, ch)
		if len(rows) == maxChartRows {
			break
		}
	}

	if len(rows) == 0 {
		draw.Draw(c.frame, c.bankRect, image.NewUniform(bankBackground), image.Point{}, draw.Src)
		return
	}

	latest := latestAcross(sess)
	window := sess.Window()

	rowH := c.bankRect.Dy() / len(rows)
	for i, ch := range rows {
		r := image.Rect(
			c.bankRect.Min.X,
			c.bankRect.Min.Y+i*rowH,
			c.bankRect.Max.X,
			c.bankRect.Min.Y+(i+1)*rowH,
		)
		if i == len(rows)-1 {
			r.Max.Y = c.bankRect.Max.Y
		}
		c.charts.Draw(c.frame.SubImage(r).(*image.RGBA), ch, latest, window)
	}
}

// latestAcross returns the newest buffered timestamp over all channels,
// so every chart shares one timeline.
func latestAcross(sess *stream.Session) float64 {
	var latest float64
	var have bool
	for _, ch := range sess.Channels() {
		if s, ok := ch.Buffer.Latest(); ok && (!have || s.T > latest) {
			latest = s.T
			have = true
		}
	}
	return latest
}

// Size returns the composed frame geometry as a display string.
func (c *Composer) Size() string {
	b := c.frame.Bounds()
	return fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
}
