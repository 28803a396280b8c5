package mapcomposer

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/twpayne/go-geom"
	xdraw "golang.org/x/image/draw"
)

// style of a drawn layer. Width is in points.
type style struct {
	color color.Color
	alpha float64
	width float64
}

var (
	referenceStyle = style{color: ReferenceColor, alpha: 0.7, width: 1}
	black          = color.Black
)

const (
	layerWidth      = 2.0
	layerAlpha      = 0.5
	markerRadius    = 3.0
	scaleFontSize   = 12.0
	arrowFontSize   = 15.0
	legendFontSize  = 10.0
	arrowShaftWidth = 5.0
	arrowHeadWidth  = 15.0
	arrowHeadLength = 12.0
)

func setColor(dc *gg.Context, c color.Color, alpha float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	dc.SetRGBA(float64(n.R)/255, float64(n.G)/255, float64(n.B)/255, alpha*float64(n.A)/255)
}

func drawBasemap(dc *gg.Context, img image.Image, frame Frame) {
	if b := img.Bounds(); b.Dx() != frame.Width || b.Dy() != frame.Height {
		scaled := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		img = scaled
	}
	dc.DrawImage(img, 0, 0)
}

func drawGeometry(dc *gg.Context, s *Surface, frame Frame, g geom.T, st style) {
	switch g := g.(type) {
	case *geom.Point:
		if !g.Empty() {
			drawMarker(dc, s, frame, g.Coords(), st)
		}
	case *geom.MultiPoint:
		for _, c := range g.Coords() {
			if c != nil {
				drawMarker(dc, s, frame, c, st)
			}
		}
	case *geom.LineString:
		drawLine(dc, s, frame, g.Coords(), st)
	case *geom.LinearRing:
		drawLine(dc, s, frame, g.Coords(), st)
	case *geom.MultiLineString:
		for _, line := range g.Coords() {
			drawLine(dc, s, frame, line, st)
		}
	case *geom.Polygon:
		drawPolygon(dc, s, frame, g.Coords(), st)
	case *geom.MultiPolygon:
		for _, polygon := range g.Coords() {
			drawPolygon(dc, s, frame, polygon, st)
		}
	case *geom.GeometryCollection:
		for _, child := range g.Geoms() {
			drawGeometry(dc, s, frame, child, st)
		}
	}
}

func drawMarker(dc *gg.Context, s *Surface, frame Frame, c geom.Coord, st style) {
	if !geodata.Finite(c) {
		return
	}
	x, y := frame.Pixel(c.X(), c.Y())
	setColor(dc, st.color, st.alpha)
	dc.DrawCircle(x, y, s.points(markerRadius))
	dc.Fill()
}

func drawLine(dc *gg.Context, s *Surface, frame Frame, coords []geom.Coord, st style) {
	if len(coords) == 0 {
		return
	}
	dc.NewSubPath()
	for i, c := range coords {
		x, y := frame.Pixel(c.X(), c.Y())
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	setColor(dc, st.color, st.alpha)
	dc.SetLineWidth(s.points(st.width))
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.Stroke()
}

func drawPolygon(dc *gg.Context, s *Surface, frame Frame, rings [][]geom.Coord, st style) {
	for _, ring := range rings {
		dc.NewSubPath()
		for i, c := range ring {
			x, y := frame.Pixel(c.X(), c.Y())
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
	setColor(dc, st.color, st.alpha)
	dc.SetFillRuleEvenOdd()
	dc.FillPreserve()
	dc.SetLineWidth(s.points(st.width))
	dc.Stroke()
}

func drawScaleBar(dc *gg.Context, s *Surface, frame Frame, bar ScaleBar) error {
	x, y := frame.Pixel(bar.X, bar.Y+bar.Thickness)
	w := bar.Length * frame.Scale()
	h := bar.Thickness * frame.Scale()

	setColor(dc, black, 1)
	dc.DrawRectangle(x, y, w, h)
	dc.FillPreserve()
	dc.SetLineWidth(s.points(0.5))
	dc.Stroke()

	face, err := fontFace(scaleFontSize, s.dpi)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	lx, ly := frame.Pixel(bar.LabelX, bar.LabelY)
	dc.DrawStringAnchored(bar.Label, lx, ly, 0.5, 0)
	return nil
}

func drawNorthArrow(dc *gg.Context, s *Surface, frame Frame, arrow NorthArrow) error {
	w, h := float64(frame.Width), float64(frame.Height)
	x := arrow.X * w
	tipY := (1 - arrow.TipY) * h
	tailY := (1 - arrow.TailY) * h

	face, err := fontFace(arrowFontSize, s.dpi)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	setColor(dc, black, 1)
	dc.DrawStringAnchored("N", x, tailY, 0.5, 0.5)

	// The arrow starts just above the letter and ends at the tip.
	start := tailY - s.points(arrowFontSize)/2 - s.points(2)
	headLength := s.points(arrowHeadLength)
	if start-tipY < headLength {
		headLength = start - tipY
	}
	if headLength <= 0 {
		return nil
	}

	shaft := s.points(arrowShaftWidth) / 2
	head := s.points(arrowHeadWidth) / 2
	base := tipY + headLength

	dc.NewSubPath()
	dc.MoveTo(x, tipY)
	dc.LineTo(x+head, base)
	dc.LineTo(x+shaft, base)
	dc.LineTo(x+shaft, start)
	dc.LineTo(x-shaft, start)
	dc.LineTo(x-shaft, base)
	dc.LineTo(x-head, base)
	dc.ClosePath()
	dc.Fill()
	return nil
}

// legend layout in font-size units, as matplotlib lays it out.
const (
	legendBorderPad     = 0.4
	legendBorderAxesPad = 0.5
	legendHandleLength  = 2.0
	legendHandlePad     = 0.8
	legendLabelSpacing  = 0.5
)

func drawLegend(dc *gg.Context, s *Surface, entries []LegendEntry, anchor LegendAnchor) error {
	if len(entries) == 0 {
		return nil
	}

	face, err := fontFace(legendFontSize, s.dpi)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	em := s.points(legendFontSize)
	var textWidth float64
	for _, e := range entries {
		if w, _ := dc.MeasureString(e.Label); w > textWidth {
			textWidth = w
		}
	}

	n := float64(len(entries))
	boxW := em*(2*legendBorderPad+legendHandleLength+legendHandlePad) + textWidth
	boxH := em * (2*legendBorderPad + n + (n-1)*legendLabelSpacing)
	x, y := legendOrigin(anchor, float64(dc.Width()), float64(dc.Height()), boxW, boxH, em*legendBorderAxesPad)

	dc.DrawRoundedRectangle(x, y, boxW, boxH, em*0.2)
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.FillPreserve()
	dc.SetRGBA(0.8, 0.8, 0.8, 1)
	dc.SetLineWidth(s.points(0.8))
	dc.Stroke()

	for i, e := range entries {
		cy := y + em*legendBorderPad + em*(float64(i)*(1+legendLabelSpacing)+0.5)
		hx := x + em*legendBorderPad

		setColor(dc, e.Color, e.Alpha)
		dc.SetLineWidth(s.points(e.Width))
		dc.DrawLine(hx, cy, hx+em*legendHandleLength, cy)
		dc.Stroke()

		setColor(dc, black, 1)
		dc.DrawStringAnchored(e.Label, hx+em*(legendHandleLength+legendHandlePad), cy, 0, 0.35)
	}
	return nil
}

// legendOrigin returns the top left corner of a legend box of the given size.
func legendOrigin(anchor LegendAnchor, width, height, boxW, boxH, pad float64) (float64, float64) {
	var x, y float64

	switch anchor {
	case UpperLeft, CenterLeft, LowerLeft:
		x = pad
	case UpperRight, CenterRight, LowerRight:
		x = width - boxW - pad
	default:
		x = (width - boxW) / 2
	}

	switch anchor {
	case UpperLeft, UpperCenter, UpperRight:
		y = pad
	case LowerLeft, LowerCenter, LowerRight:
		y = height - boxH - pad
	default:
		y = (height - boxH) / 2
	}

	return x, y
}
