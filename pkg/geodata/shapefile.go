package geodata

import (
	"fmt"
	"os"

	"github.com/everystreet/go-shapefile"
	"github.com/everystreet/go-shapefile/shp"
	"github.com/twpayne/go-geom"
)

// LoadShapefile reads a zipped Shapefile. Every dBase field is read unless
// opts.Attributes names a subset. Records flagged as deleted are skipped.
func LoadShapefile(path string, opts LoadOptions) (Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return Layer{}, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Layer{}, err
	}

	scanner, err := shapefile.NewZipScanner(file, stat.Size(), "", shapefile.PointPrecision(6))
	if err != nil {
		return Layer{}, err
	}

	if err := scanner.Scan(); err != nil {
		return Layer{}, err
	}

	layer := Layer{SRID: opts.SRID}
	for {
		record := scanner.Record()
		if record == nil {
			break
		}

		if record.Attributes.Deleted() {
			continue
		}

		g, err := shapeGeometry(record.Shape)
		if err != nil {
			return Layer{}, err
		}

		props := map[string]any{}
		if len(opts.Attributes) == 0 {
			for _, field := range record.Attributes.Fields() {
				props[field.Name()] = field.Value()
			}
		}
		for _, name := range opts.Attributes {
			if field, ok := record.Attributes.Field(name); ok {
				props[name] = field.Value()
			}
		}

		layer.Features = append(layer.Features, Feature{Geometry: g, Properties: props})
	}

	// Err() returns the first error encountered during calls to Record()
	return layer, scanner.Err()
}

// shapeGeometry copies a shape into go-geom. Points are copied directly
// rather than through Shape.GeoJSONFeature, which swaps X and Y for points
// and round-trips projected coordinates through radians.
func shapeGeometry(shape shp.Shape) (geom.T, error) {
	switch s := shape.(type) {
	case shp.Point:
		return geom.NewPoint(geom.XY).SetCoords(geom.Coord{s.X, s.Y})
	case shp.Polyline:
		return geom.NewMultiLineString(geom.XY).SetCoords(shapeParts(s.Parts))
	case shp.Polygon:
		return geom.NewPolygon(geom.XY).SetCoords(shapeParts(s.Parts))
	default:
		return nil, fmt.Errorf("unsupported shape type %d", shape.Type())
	}
}

func shapeParts(parts []shp.Part) [][]geom.Coord {
	out := make([][]geom.Coord, len(parts))
	for i, part := range parts {
		out[i] = make([]geom.Coord, len(part))
		for j, p := range part {
			out[i][j] = geom.Coord{p.X, p.Y}
		}
	}
	return out
}
