package mapcomposer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/twpayne/go-geom"
)

func pointLayer(name, condition string, coords ...geom.Coord) geodata.Layer {
	layer := geodata.Layer{Name: name, SRID: geodata.CRS}
	for _, c := range coords {
		layer.Features = append(layer.Features, geodata.Feature{
			Geometry:   geom.NewPoint(geom.XY).MustSetCoords(c),
			Properties: map[string]any{"Condição": condition},
		})
	}
	return layer
}

func TestComputeExtent(t *testing.T) {
	a := pointLayer("a", "Ruim", geom.Coord{10, 20}, geom.Coord{30, 5})
	b := pointLayer("b", "Regular", geom.Coord{-5, 40})

	e, err := ComputeExtent(a, b)
	require.NoError(t, err)
	assert.Equal(t, Extent{MinX: -5, MaxX: 30, MinY: 5, MaxY: 40}, e)

	// Layer order does not matter
	reversed, err := ComputeExtent(b, a)
	require.NoError(t, err)
	assert.Equal(t, e, reversed)
}

func mixedLayer(t *testing.T) geodata.Layer {
	t.Helper()

	mls := geom.NewMultiLineString(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {10, 5}},
		{{20, -3}, {25, 2}},
	})
	mpoly := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{-4, 10}, {0, 10}, {0, 14}, {-4, 10}}},
		{{{30, 30}, {31, 30}, {31, 31}, {30, 30}}},
	})
	collection := geom.NewGeometryCollection()
	require.NoError(t, collection.Push(
		geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{5, -8}),
		geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{12, 12}, {14, 40}}),
	))
	point := geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{8, 8})

	layer := geodata.Layer{Name: "mixed", SRID: geodata.CRS}
	for _, g := range []geom.T{mls, mpoly, collection, point} {
		layer.Features = append(layer.Features, geodata.Feature{Geometry: g, Properties: map[string]any{"Condição": "Ruim"}})
	}
	return layer
}

func TestComputeExtentMultiPart(t *testing.T) {
	layer := mixedLayer(t)

	// Every multi-part geometry is split into its parts
	assert.Equal(t, 7, len(layer.Coords()))

	e, err := ComputeExtent(layer)
	require.NoError(t, err)
	assert.Equal(t, Extent{MinX: -4, MaxX: 31, MinY: -8, MaxY: 40}, e)

	// Feature order within a layer does not matter
	n := len(layer.Features)
	for shift := 1; shift < n; shift++ {
		rotated := geodata.Layer{Name: layer.Name, SRID: layer.SRID}
		for i := range layer.Features {
			rotated.Features = append(rotated.Features, layer.Features[(i+shift)%n])
		}
		got, err := ComputeExtent(rotated)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	reversed := geodata.Layer{Name: layer.Name, SRID: layer.SRID}
	for i := n - 1; i >= 0; i-- {
		reversed.Features = append(reversed.Features, layer.Features[i])
	}
	got, err := ComputeExtent(reversed)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	// Split across layers in any order
	a := geodata.Layer{Name: "a", SRID: layer.SRID, Features: layer.Features[:2]}
	b := geodata.Layer{Name: "b", SRID: layer.SRID, Features: layer.Features[2:]}
	got, err = ComputeExtent(b, a)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestComputeExtentNonFinite(t *testing.T) {
	// Empty GeoPackage points are stored as NaN coordinates
	layer := pointLayer("a", "Ruim", geom.Coord{0, 0}, geom.Coord{1000, 500}, geom.Coord{math.NaN(), math.NaN()})

	e, err := ComputeExtent(layer)
	require.NoError(t, err)
	assert.Equal(t, Extent{MinX: 0, MaxX: 1000, MinY: 0, MaxY: 500}, e)

	_, err = ComputeExtent(pointLayer("a", "Ruim", geom.Coord{math.NaN(), math.NaN()}, geom.Coord{math.Inf(1), 3}))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestComputeExtentErrors(t *testing.T) {
	_, err := ComputeExtent(pointLayer("a", "Ruim", geom.Coord{1, 1}), geodata.Layer{Name: "empty"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = ComputeExtent(pointLayer("a", "Ruim", geom.Coord{1, 1}, geom.Coord{1, 1}))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = ComputeExtent()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestFitViewport(t *testing.T) {
	// Too tall: widened around the horizontal midpoint
	v := FitViewport(Extent{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100})
	assert.True(t, v.Widened)
	assert.InDelta(t, 100*TargetAspect, v.Width(), 1e-9)
	assert.InDelta(t, 50, (v.MinX+v.MaxX)/2, 1e-9)
	assert.Equal(t, 0.0, v.MinY)
	assert.Equal(t, 100.0, v.MaxY)

	// Wide enough: untouched
	v = FitViewport(Extent{MinX: 0, MaxX: 1600, MinY: 0, MaxY: 800})
	assert.False(t, v.Widened)
	assert.Equal(t, Viewport{MinX: 0, MaxX: 1600, MinY: 0, MaxY: 800}, v)

	// Vertical line
	v = FitViewport(Extent{MinX: 5, MaxX: 5, MinY: 0, MaxY: 90})
	assert.True(t, v.Widened)
	assert.InDelta(t, 160, v.Width(), 1e-9)
	assert.InDelta(t, -75, v.MinX, 1e-9)
}

func TestNewFrame(t *testing.T) {
	f := newFrame(Viewport{MinX: 0, MaxX: 1600, MinY: 0, MaxY: 800}, 200, geodata.CRS)
	assert.Equal(t, 100, f.Height)
	assert.Equal(t, 0.125, f.Scale())

	x, y := f.Pixel(800, 800)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 0.0, y)

	mx, my := f.Map(x, y)
	assert.Equal(t, 800.0, mx)
	assert.Equal(t, 800.0, my)

	// A horizontal run is framed at the target aspect ratio
	f = newFrame(Viewport{MinX: 0, MaxX: 1600, MinY: 10, MaxY: 10}, 200, geodata.CRS)
	assert.InDelta(t, 112.5, float64(f.Height), 1)
	assert.InDelta(t, 10, (f.MinY+f.MaxY)/2, 1e-9)
}
