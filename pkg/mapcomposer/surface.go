package mapcomposer

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const (
	// FigureInches is the width of the rendered figure.
	FigureInches = 10.0
	// DefaultDPI gives a 6000 pixel wide figure.
	DefaultDPI = 600.0
)

// Surface is the drawing target of a map. It is owned by the caller, reset
// by every Compose call and must be released once the map has been saved.
type Surface struct {
	dpi float64
	dc  *gg.Context
}

func NewSurface(dpi float64) *Surface {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Surface{dpi: dpi}
}

func (s *Surface) DPI() float64 {
	return s.dpi
}

// WidthPixels is the pixel width of a figure on this surface.
func (s *Surface) WidthPixels() int {
	return int(math.Round(FigureInches * s.dpi))
}

// begin discards anything previously drawn and starts a blank figure.
func (s *Surface) begin(width, height int) *gg.Context {
	s.dc = gg.NewContext(width, height)
	s.dc.SetRGB(1, 1, 1)
	s.dc.Clear()
	return s.dc
}

// Release drops the figure. It is safe to call more than once.
func (s *Surface) Release() {
	s.dc = nil
}

func (s *Surface) Released() bool {
	return s.dc == nil
}

// Image returns the current figure, or nil once released.
func (s *Surface) Image() image.Image {
	if s.dc == nil {
		return nil
	}
	return s.dc.Image()
}

// points converts a size in typographic points to pixels.
func (s *Surface) points(pt float64) float64 {
	return pt * s.dpi / 72
}

// Frame maps the viewport onto the pixel grid of the figure.
type Frame struct {
	MinX, MaxX, MinY, MaxY float64
	Width, Height          int
	// SRID of the map coordinates.
	SRID int
}

func newFrame(v Viewport, width int, srid int) Frame {
	f := Frame{MinX: v.MinX, MaxX: v.MaxX, MinY: v.MinY, MaxY: v.MaxY, Width: width, SRID: srid}

	// A horizontal run of data has no height of its own; frame it at the
	// target aspect ratio.
	if v.Height() <= 0 {
		pad := v.Width() / TargetAspect / 2
		f.MinY -= pad
		f.MaxY += pad
	}

	f.Height = int(math.Round(float64(width) * (f.MaxY - f.MinY) / (f.MaxX - f.MinX)))
	if f.Height < 1 {
		f.Height = 1
	}
	return f
}

// Pixel converts map coordinates to pixel coordinates (origin top left).
func (f Frame) Pixel(x, y float64) (float64, float64) {
	px := (x - f.MinX) / (f.MaxX - f.MinX) * float64(f.Width)
	py := (f.MaxY - y) / (f.MaxY - f.MinY) * float64(f.Height)
	return px, py
}

// Map converts pixel coordinates back to map coordinates.
func (f Frame) Map(px, py float64) (float64, float64) {
	x := f.MinX + px/float64(f.Width)*(f.MaxX-f.MinX)
	y := f.MaxY - py/float64(f.Height)*(f.MaxY-f.MinY)
	return x, y
}

// Scale is the number of pixels per map unit.
func (f Frame) Scale() float64 {
	return float64(f.Width) / (f.MaxX - f.MinX)
}
