package mapcomposer

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// DefaultPaletteNames are assigned to layers in order.
var DefaultPaletteNames = []string{"red", "green", "blue", "orange", "cyan", "yellow", "purple", "pink", "lime", "olive", "gold"}

// ReferenceColor draws the reference (road segment) layer.
var ReferenceColor = MustParseColor("#a080ff")

func DefaultPalette() []color.Color {
	palette := make([]color.Color, len(DefaultPaletteNames))
	for i, name := range DefaultPaletteNames {
		palette[i] = MustParseColor(name)
	}
	return palette
}

// ParseColor accepts CSS color names and #rrggbb hex strings.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return c, nil
	}

	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown color %q", ErrConfiguration, s)
	}
	return c, nil
}

func MustParseColor(s string) color.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic("MustParseColor: " + err.Error())
	}
	return c
}

// ParsePalette parses a list of colors, e.g. from a comma separated flag.
func ParsePalette(names []string) ([]color.Color, error) {
	palette := make([]color.Color, 0, len(names))
	for _, name := range names {
		c, err := ParseColor(name)
		if err != nil {
			return nil, err
		}
		palette = append(palette, c)
	}
	return palette, nil
}
