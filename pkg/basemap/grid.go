package basemap

import (
	"image"
	"math"

	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// gridStep is the spacing in frame pixels of the nodes that are projected
// exactly. Pixels in between follow an affine fit of their cell.
const gridStep = 128

// controlGrid holds the Web Mercator position of a lattice of frame pixels.
type controlGrid struct {
	xs, ys []float64
	// World positions in [0, 1], row major.
	wx, wy []float64
}

func newControlGrid(frame mapcomposer.Frame) (*controlGrid, error) {
	transform, err := geodata.Transform(frame.SRID, geodata.WGS84)
	if err != nil {
		return nil, err
	}

	g := &controlGrid{xs: gridSteps(frame.Width), ys: gridSteps(frame.Height)}
	g.wx = make([]float64, 0, len(g.xs)*len(g.ys))
	g.wy = make([]float64, 0, len(g.xs)*len(g.ys))

	for _, py := range g.ys {
		for _, px := range g.xs {
			lon, lat, err := transform(frame.Map(px, py))
			if err != nil {
				return nil, err
			}
			wx, wy := worldPixel(lon, lat)
			g.wx = append(g.wx, wx)
			g.wy = append(g.wy, wy)
		}
	}
	return g, nil
}

func gridSteps(n int) []float64 {
	steps := make([]float64, 0, n/gridStep+2)
	for p := 0; p < n; p += gridStep {
		steps = append(steps, float64(p))
	}
	return append(steps, float64(n))
}

func (g *controlGrid) at(i, j int) (float64, float64) {
	k := j*len(g.xs) + i
	return g.wx[k], g.wy[k]
}

func (g *controlGrid) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for k := range g.wx {
		minX, maxX = math.Min(minX, g.wx[k]), math.Max(maxX, g.wx[k])
		minY, maxY = math.Min(minY, g.wy[k]), math.Max(maxY, g.wy[k])
	}
	return
}

// worldSpan is the horizontal extent of the frame as a fraction of the world.
func (g *controlGrid) worldSpan() float64 {
	minX, _, maxX, _ := g.bounds()
	return maxX - minX
}

// tileRange lists the tiles covering the frame at a zoom. X may fall outside
// [0, 2^zoom) near the antimeridian; Y is clamped to the world.
func (g *controlGrid) tileRange(zoom int) image.Rectangle {
	n := float64(int(1) << zoom)
	minX, minY, maxX, maxY := g.bounds()

	r := image.Rect(
		int(math.Floor(minX*n)),
		int(math.Floor(minY*n)),
		int(math.Floor(maxX*n))+1,
		int(math.Floor(maxY*n))+1,
	)
	return r.Intersect(image.Rect(r.Min.X, 0, r.Max.X, int(n)))
}

// warp resamples the tile mosaic, addressed in global pixels at zoom, into
// the frame.
func (g *controlGrid) warp(mosaic *image.RGBA, zoom int, frame mapcomposer.Frame) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	scale := float64(int(1)<<zoom) * tileSize

	for j := 0; j+1 < len(g.ys); j++ {
		for i := 0; i+1 < len(g.xs); i++ {
			cell := image.Rect(int(g.xs[i]), int(g.ys[j]), int(g.xs[i+1]), int(g.ys[j+1]))
			if cell.Empty() {
				continue
			}

			x0, y0 := g.at(i, j)
			x1, y1 := g.at(i+1, j)
			x2, y2 := g.at(i, j+1)
			s2d, ok := cellTransform(
				[2]float64{x0 * scale, y0 * scale},
				[2]float64{x1 * scale, y1 * scale},
				[2]float64{x2 * scale, y2 * scale},
				g.xs[i], g.ys[j], g.xs[i+1]-g.xs[i], g.ys[j+1]-g.ys[j],
			)
			if !ok {
				continue
			}

			xdraw.BiLinear.Transform(dst.SubImage(cell).(*image.RGBA), s2d, mosaic, mosaic.Bounds(), xdraw.Src, nil)
		}
	}
	return dst
}

// cellTransform returns the affine map from source to destination pixels
// that sends s0, s1 and s2 to the top left, top right and bottom left
// corners of a w by h cell at (x, y).
func cellTransform(s0, s1, s2 [2]float64, x, y, w, h float64) (f64.Aff3, bool) {
	ux, uy := s1[0]-s0[0], s1[1]-s0[1]
	vx, vy := s2[0]-s0[0], s2[1]-s0[1]
	det := ux*vy - uy*vx
	if det == 0 {
		return f64.Aff3{}, false
	}

	m00, m01 := w*vy/det, -w*vx/det
	m10, m11 := -h*uy/det, h*ux/det
	return f64.Aff3{
		m00, m01, x - m00*s0[0] - m01*s0[1],
		m10, m11, y - m10*s0[0] - m11*s0[1],
	}, true
}
