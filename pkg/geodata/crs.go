package geodata

import (
	"fmt"

	"github.com/ctessum/geom/proj"
	"github.com/twpayne/go-geom"
)

// proj4 definitions of the reference systems the survey data is delivered in.
var definitions = map[int]string{
	WGS84: "+proj=longlat +datum=WGS84 +no_defs",
	4674:  "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	3857:  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +no_defs",
	31982: "+proj=utm +zone=22 +south +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	31983: "+proj=utm +zone=23 +south +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	31984: "+proj=utm +zone=24 +south +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	31985: "+proj=utm +zone=25 +south +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
}

// Transform returns a coordinate transformation between two EPSG codes.
func Transform(from, to int) (proj.Transformer, error) {
	src, err := spatialReference(from)
	if err != nil {
		return nil, err
	}
	dst, err := spatialReference(to)
	if err != nil {
		return nil, err
	}
	return src.NewTransform(dst)
}

func spatialReference(srid int) (*proj.SR, error) {
	def, ok := definitions[srid]
	if !ok {
		return nil, fmt.Errorf("unsupported reference system EPSG:%d", srid)
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EPSG:%d: %w", srid, err)
	}
	return sr, nil
}

// Reproject returns a copy of the layer in the target reference system.
func (l Layer) Reproject(srid int) (Layer, error) {
	if l.SRID == srid {
		return l, nil
	}

	transform, err := Transform(l.SRID, srid)
	if err != nil {
		return Layer{}, err
	}

	out := Layer{Name: l.Name, SRID: srid, Features: make([]Feature, 0, len(l.Features))}
	for i, f := range l.Features {
		g, err := reprojectGeom(f.Geometry, transform)
		if err != nil {
			return Layer{}, fmt.Errorf("feature %d: %w", i, err)
		}
		out.Features = append(out.Features, Feature{Geometry: g, Properties: f.Properties})
	}
	return out, nil
}

func reprojectGeom(g geom.T, transform proj.Transformer) (geom.T, error) {
	var clone geom.T
	switch g := g.(type) {
	case nil:
		return nil, nil
	case *geom.Point:
		clone = g.Clone()
	case *geom.MultiPoint:
		clone = g.Clone()
	case *geom.LineString:
		clone = g.Clone()
	case *geom.LinearRing:
		clone = g.Clone()
	case *geom.MultiLineString:
		clone = g.Clone()
	case *geom.Polygon:
		clone = g.Clone()
	case *geom.MultiPolygon:
		clone = g.Clone()
	case *geom.GeometryCollection:
		collection := geom.NewGeometryCollection()
		for _, child := range g.Geoms() {
			c, err := reprojectGeom(child, transform)
			if err != nil {
				return nil, err
			}
			if err := collection.Push(c); err != nil {
				return nil, err
			}
		}
		return collection, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}

	flat := clone.FlatCoords()
	stride := clone.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		x, y, err := transform(flat[i], flat[i+1])
		if err != nil {
			return nil, err
		}
		flat[i], flat[i+1] = x, y
	}
	return clone, nil
}
