package geodata

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// CRS is the projected reference system every layer is drawn in
// (SIRGAS 2000 / UTM zone 24S).
const CRS = 31984

// WGS84 is the geographic reference system of GeoJSON input.
const WGS84 = 4326

var ErrEmptyLayer = errors.New("layer has no features")

// A Feature is a single geometry with its attribute table row.
type Feature struct {
	Geometry   geom.T         `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Property returns the attribute as a string, or "" if it is absent.
func (f Feature) Property(name string) string {
	v, ok := f.Properties[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// A Layer is an ordered set of features sharing one reference system.
type Layer struct {
	Name     string    `json:"name"`
	SRID     int       `json:"srid"`
	Features []Feature `json:"features"`
}

func (l Layer) IsEmpty() bool {
	return len(l.Features) == 0
}

// Label is the legend label of the layer: the attribute value of its first feature.
func (l Layer) Label(attr string) string {
	if l.IsEmpty() {
		return ""
	}
	return l.Features[0].Property(attr)
}

// Filter keeps the features whose attribute matches one of the values.
func (l Layer) Filter(attr string, values ...string) Layer {
	keep := make(map[string]struct{}, len(values))
	for _, v := range values {
		keep[v] = struct{}{}
	}

	out := Layer{Name: l.Name, SRID: l.SRID}
	for _, f := range l.Features {
		if _, ok := keep[f.Property(attr)]; ok {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// Coords decomposes every feature into its single-part coordinate sequences.
func (l Layer) Coords() [][]geom.Coord {
	var parts [][]geom.Coord
	for _, f := range l.Features {
		parts = append(parts, Parts(f.Geometry)...)
	}
	return parts
}

// Parts splits a geometry into flat coordinate sequences, one per simple part
// (point, line or ring). Non-finite coordinates are dropped, as are parts
// left without any.
func Parts(g geom.T) [][]geom.Coord {
	var out [][]geom.Coord
	for _, part := range splitParts(g) {
		finite := make([]geom.Coord, 0, len(part))
		for _, c := range part {
			if Finite(c) {
				finite = append(finite, c)
			}
		}
		if len(finite) > 0 {
			out = append(out, finite)
		}
	}
	return out
}

// Finite reports whether both planar ordinates of c are finite numbers.
func Finite(c geom.Coord) bool {
	if len(c) < 2 {
		return false
	}
	for _, v := range c[:2] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func splitParts(g geom.T) [][]geom.Coord {
	switch g := g.(type) {
	case nil:
		return nil
	case *geom.Point:
		if g.Empty() {
			return nil
		}
		return [][]geom.Coord{{g.Coords()}}
	case *geom.MultiPoint:
		var parts [][]geom.Coord
		for _, c := range g.Coords() {
			if c != nil {
				parts = append(parts, []geom.Coord{c})
			}
		}
		return parts
	case *geom.LineString:
		return [][]geom.Coord{g.Coords()}
	case *geom.LinearRing:
		return [][]geom.Coord{g.Coords()}
	case *geom.MultiLineString:
		return g.Coords()
	case *geom.Polygon:
		return g.Coords()
	case *geom.MultiPolygon:
		var parts [][]geom.Coord
		for _, p := range g.Coords() {
			parts = append(parts, p...)
		}
		return parts
	case *geom.GeometryCollection:
		var parts [][]geom.Coord
		for _, child := range g.Geoms() {
			parts = append(parts, splitParts(child)...)
		}
		return parts
	}
	return nil
}
