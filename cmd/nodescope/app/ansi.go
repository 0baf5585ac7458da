package app

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/term"
)

// ansiSink paints frames straight into the terminal using half-block
// cells: one character carries two vertical pixels, the upper one as the
// foreground color and the lower one as the background. The terminal is
// resampled against every frame, so resizing just works.
type ansiSink struct {
	out *os.File
	fd  int
	buf bytes.Buffer
}

func newANSISink(out *os.File) (*ansiSink, error) {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("ansi sink requires a terminal on stdout")
	}

	s := &ansiSink{out: out, fd: fd}
	s.buf.WriteString("\x1b[?1049h") // Alternate screen
	s.buf.WriteString("\x1b[2J")
	s.buf.WriteString("\x1b[?25l") // Hide cursor
	return s, s.flush()
}

func (s *ansiSink) Write(img *image.RGBA) error {
	cols, rows, err := term.GetSize(s.fd)
	if err != nil {
		return fmt.Errorf("reading terminal size: %w", err)
	}
	if cols < 2 || rows < 2 {
		return nil
	}

	b := img.Bounds()
	s.buf.WriteString("\x1b[H")

	var lastFg, lastBg color.RGBA
	for r := 0; r < rows; r++ {
		havePrev := false
		for c := 0; c < cols; c++ {
			px := b.Min.X + c*b.Dx()/cols
			fg := img.RGBAAt(px, b.Min.Y+(2*r)*b.Dy()/(2*rows))
			bg := img.RGBAAt(px, b.Min.Y+(2*r+1)*b.Dy()/(2*rows))

			if !havePrev || fg != lastFg {
				fmt.Fprintf(&s.buf, "\x1b[38;2;%d;%d;%dm", fg.R, fg.G, fg.B)
			}
			if !havePrev || bg != lastBg {
				fmt.Fprintf(&s.buf, "\x1b[48;2;%d;%d;%dm", bg.R, bg.G, bg.B)
			}
			s.buf.WriteRune('▀')
			lastFg, lastBg = fg, bg
			havePrev = true
		}
		s.buf.WriteString("\x1b[0m")
		if r < rows-1 {
			s.buf.WriteString("\r\n")
		}
	}
	return s.flush()
}

func (s *ansiSink) Close() error {
	s.buf.WriteString("\x1b[0m")
	s.buf.WriteString("\x1b[?25h")   // Show cursor
	s.buf.WriteString("\x1b[?1049l") // Leave the alternate screen
	return s.flush()
}

func (s *ansiSink) flush() error {
	_, err := s.out.Write(s.buf.Bytes())
	s.buf.Reset()
	return err
}
