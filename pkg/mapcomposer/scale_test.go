package mapcomposer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAutoScale(t *testing.T) {
	c := AutoScale(9500)
	assert.Equal(t, 950.0, c.Length)
	assert.Equal(t, "950 m", c.Label)
	assert.Equal(t, 95.0, c.Thickness)
	assert.Equal(t, 47.5, c.VerticalOffset)
	assert.Equal(t, UpperLeft, c.Legend)
	assert.Equal(t, BarLower, c.Bar)
	assert.Equal(t, 0.15, c.ArrowLength)

	c = AutoScale(25000)
	assert.Equal(t, 2500.0, c.Length)
	assert.Equal(t, "2 km", c.Label)

	c = AutoScale(9999)
	assert.Equal(t, 999.0, c.Length)
	assert.Equal(t, "999 m", c.Label)

	c = AutoScale(10000)
	assert.Equal(t, "1 km", c.Label)
}

func TestParseScaleConfig(t *testing.T) {
	c, err := ParseScaleConfig("4000,4 km,125,300,lower center,lower,0.3")
	require.NoError(t, err)
	assert.Equal(t, &ScaleConfig{
		Length:         4000,
		Label:          "4 km",
		Thickness:      125,
		VerticalOffset: 300,
		Legend:         LowerCenter,
		Bar:            BarLower,
		ArrowLength:    0.3,
	}, c)

	c, err = ParseScaleConfig("auto")
	assert.NoError(t, err)
	assert.Nil(t, c)

	tests := []string{
		"4000,4 km,125,300,lower center,lower",
		"x,4 km,125,300,lower center,lower,0.3",
		"4000,4 km,125,300,somewhere,lower,0.3",
		"4000,4 km,125,300,lower center,middle,0.3",
	}
	for _, s := range tests {
		_, err := ParseScaleConfig(s)
		assert.ErrorIs(t, err, ErrConfiguration, s)
	}
}

func TestBarAnchor(t *testing.T) {
	b, err := ParseBarAnchor(" Upper ")
	require.NoError(t, err)
	assert.Equal(t, BarUpper, b)
	assert.Equal(t, "upper", b.String())

	_, err = ParseBarAnchor("center")
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.ErrorIs(t, ScaleConfig{Legend: UpperLeft}.Validate(), ErrConfiguration)
	assert.NoError(t, ScaleConfig{Legend: UpperLeft, Bar: BarLower}.Validate())
}

func TestScaleConfigYAML(t *testing.T) {
	var configs map[string]ScaleConfig
	err := yaml.Unmarshal([]byte(`
PSV-001-CE-040-001:
  length: 4000
  label: 4 km
  thickness: 125
  vertical_offset: 300
  legend: lower center
  bar: upper
  arrow_length: 0.3
`), &configs)
	require.NoError(t, err)

	c := configs["PSV-001-CE-040-001"]
	assert.Equal(t, LowerCenter, c.Legend)
	assert.Equal(t, BarUpper, c.Bar)
	assert.NoError(t, c.Validate())

	err = yaml.Unmarshal([]byte("x:\n  bar: sideways\n"), &configs)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPlaceScaleBar(t *testing.T) {
	extent := Extent{MinX: 100, MaxX: 1700, MinY: 50, MaxY: 850}
	c := ScaleConfig{Length: 160, Label: "160 m", Thickness: 16, VerticalOffset: 8.5, Legend: UpperLeft, Bar: BarLower}

	bar := PlaceScaleBar(extent, FitViewport(extent), c)
	assert.Equal(t, 100.0, bar.X)
	assert.Equal(t, 50.0, bar.Y)
	assert.Equal(t, 180.0, bar.LabelX)
	assert.Equal(t, 58.0, bar.LabelY)

	c.Bar = BarUpper
	bar = PlaceScaleBar(extent, FitViewport(extent), c)
	assert.Equal(t, 833.0, bar.Y)

	// A widened viewport insets the bar from the frame edge
	tall := Extent{MinX: 0, MaxX: 90, MinY: 0, MaxY: 90}
	v := FitViewport(tall)
	bar = PlaceScaleBar(tall, v, c)
	assert.InDelta(t, v.MinX+v.Width()*0.025, bar.X, 1e-9)
}

func TestPlaceNorthArrow(t *testing.T) {
	a := PlaceNorthArrow(0.3)
	assert.Equal(t, 0.95, a.X)
	assert.Equal(t, 0.95, a.TipY)
	assert.InDelta(t, 0.65, a.TailY, 1e-9)
}

func TestLegendOrigin(t *testing.T) {
	x, y := legendOrigin(UpperLeft, 200, 100, 20, 10, 1)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1.0, y)

	x, y = legendOrigin(LowerRight, 200, 100, 20, 10, 1)
	assert.Equal(t, 179.0, x)
	assert.Equal(t, 89.0, y)

	x, y = legendOrigin(Center, 200, 100, 20, 10, 1)
	assert.Equal(t, 90.0, x)
	assert.Equal(t, 45.0, y)

	x, y = legendOrigin(LowerCenter, 200, 100, 20, 10, 1)
	assert.Equal(t, 90.0, x)
	assert.Equal(t, 89.0, y)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("red")
	require.NoError(t, err)
	r, g, b, _ := c.RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})

	c, err = ParseColor("#a080ff")
	require.NoError(t, err)
	r, g, b, _ = c.RGBA()
	assert.Equal(t, []uint32{0xa0a0, 0x8080, 0xffff}, []uint32{r, g, b})

	_, err = ParseColor("notacolor")
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, len(DefaultPaletteNames), len(DefaultPalette()))
}
