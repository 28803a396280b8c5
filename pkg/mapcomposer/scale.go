package mapcomposer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LegendAnchor is a legend location, named as in matplotlib.
type LegendAnchor string

const (
	UpperLeft   LegendAnchor = "upper left"
	UpperCenter LegendAnchor = "upper center"
	UpperRight  LegendAnchor = "upper right"
	CenterLeft  LegendAnchor = "center left"
	Center      LegendAnchor = "center"
	CenterRight LegendAnchor = "center right"
	LowerLeft   LegendAnchor = "lower left"
	LowerCenter LegendAnchor = "lower center"
	LowerRight  LegendAnchor = "lower right"
)

var legendAnchors = []LegendAnchor{UpperLeft, UpperCenter, UpperRight, CenterLeft, Center, CenterRight, LowerLeft, LowerCenter, LowerRight}

func ParseLegendAnchor(s string) (LegendAnchor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range legendAnchors {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown legend location %q", ErrConfiguration, s)
}

func (a *LegendAnchor) UnmarshalText(text []byte) error {
	parsed, err := ParseLegendAnchor(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// BarAnchor is the vertical edge of the extent the scale bar is attached to.
// The zero value is not a valid anchor.
type BarAnchor int

const (
	BarLower BarAnchor = iota + 1
	BarUpper
)

func ParseBarAnchor(s string) (BarAnchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower":
		return BarLower, nil
	case "upper":
		return BarUpper, nil
	}
	return 0, fmt.Errorf("%w: scale bar anchor must be lower or upper, got %q", ErrConfiguration, s)
}

func (b BarAnchor) String() string {
	switch b {
	case BarLower:
		return "lower"
	case BarUpper:
		return "upper"
	}
	return fmt.Sprintf("BarAnchor(%d)", int(b))
}

func (b BarAnchor) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BarAnchor) UnmarshalText(text []byte) error {
	parsed, err := ParseBarAnchor(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ScaleConfig fixes the scale bar and annotation layout of a map. Lengths are
// in map units (metres).
type ScaleConfig struct {
	Length         float64      `yaml:"length" json:"length"`
	Label          string       `yaml:"label" json:"label"`
	Thickness      float64      `yaml:"thickness" json:"thickness"`
	VerticalOffset float64      `yaml:"vertical_offset" json:"vertical_offset"`
	Legend         LegendAnchor `yaml:"legend" json:"legend"`
	Bar            BarAnchor    `yaml:"bar" json:"bar"`
	// ArrowLength is the north arrow shaft length as a fraction of the frame height.
	ArrowLength float64 `yaml:"arrow_length" json:"arrow_length"`
}

func (c ScaleConfig) Validate() error {
	if c.Bar != BarLower && c.Bar != BarUpper {
		return fmt.Errorf("%w: scale bar anchor must be lower or upper", ErrConfiguration)
	}
	if _, err := ParseLegendAnchor(string(c.Legend)); err != nil {
		return err
	}
	return nil
}

// AutoScale derives the scale bar from the horizontal span of the data: a
// tenth of the span, floored to whole metres.
func AutoScale(lonSize float64) ScaleConfig {
	length := math.Floor(lonSize / 10)

	var label string
	if length < 1000 {
		label = fmt.Sprintf("%d m", int(length))
	} else {
		label = fmt.Sprintf("%d km", int(math.Floor(length/1000)))
	}

	return ScaleConfig{
		Length:         length,
		Label:          label,
		Thickness:      math.Floor(length / 10),
		VerticalOffset: length / 20,
		Legend:         UpperLeft,
		Bar:            BarLower,
		ArrowLength:    0.15,
	}
}

// ParseScaleConfig reads the compact seven field form
// "length,label,thickness,vertical offset,legend,bar,arrow length",
// e.g. "4000,4 km,125,300,lower center,lower,0.3". "auto" yields nil.
func ParseScaleConfig(s string) (*ScaleConfig, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	if len(fields) != 7 {
		return nil, fmt.Errorf("%w: scale config needs 7 fields, got %d", ErrConfiguration, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	c := ScaleConfig{Label: fields[1]}
	var err error
	if c.Length, err = parseScaleNumber(fields, 0); err != nil {
		return nil, err
	}
	if c.Thickness, err = parseScaleNumber(fields, 2); err != nil {
		return nil, err
	}
	if c.VerticalOffset, err = parseScaleNumber(fields, 3); err != nil {
		return nil, err
	}
	if c.ArrowLength, err = parseScaleNumber(fields, 6); err != nil {
		return nil, err
	}

	if c.Legend, err = ParseLegendAnchor(fields[4]); err != nil {
		return nil, err
	}
	if c.Bar, err = ParseBarAnchor(fields[5]); err != nil {
		return nil, err
	}

	return &c, nil
}

func parseScaleNumber(fields []string, i int) (float64, error) {
	v, err := strconv.ParseFloat(fields[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: scale config field %d: %v", ErrConfiguration, i+1, err)
	}
	return v, nil
}

// ScaleBar is the placed scale bar, in map units.
type ScaleBar struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Length         float64 `json:"length"`
	Thickness      float64 `json:"thickness"`
	VerticalOffset float64 `json:"vertical_offset"`
	Label          string  `json:"label"`
	// Label position, truncated to whole map units.
	LabelX float64 `json:"label_x"`
	LabelY float64 `json:"label_y"`
}

// PlaceScaleBar anchors the bar at the left of the frame (inset when the
// viewport was widened) and at the lower or upper edge of the data.
func PlaceScaleBar(extent Extent, viewport Viewport, c ScaleConfig) ScaleBar {
	x := extent.MinX
	if viewport.Widened {
		x = viewport.MinX + viewport.Width()*0.025
	}

	var y float64
	switch c.Bar {
	case BarLower:
		y = extent.MinY
	case BarUpper:
		y = extent.MaxY - 2*c.VerticalOffset
	}

	return ScaleBar{
		X:              x,
		Y:              y,
		Length:         c.Length,
		Thickness:      c.Thickness,
		VerticalOffset: c.VerticalOffset,
		Label:          c.Label,
		LabelX:         math.Trunc(x + c.Length/2),
		LabelY:         math.Trunc(y + c.VerticalOffset),
	}
}

// NorthArrow is positioned in axes fractions: (0, 0) is the lower left
// corner of the frame and (1, 1) the upper right.
type NorthArrow struct {
	X      float64 `json:"x"`
	TipY   float64 `json:"tip_y"`
	TailY  float64 `json:"tail_y"`
	Length float64 `json:"length"`
}

func PlaceNorthArrow(length float64) NorthArrow {
	return NorthArrow{X: 0.95, TipY: 0.95, TailY: 0.95 - length, Length: length}
}
