package geodata

import (
	"fmt"
	"path/filepath"
	"strings"
)

type LoadOptions struct {
	// Layer selects a table in multi-layer containers (GeoPackage). Empty
	// selects the first feature table.
	Layer string
	// Attributes to keep. Every property is kept when this is empty.
	Attributes []string
	// SRID of sources that do not declare one (GeoJSON, Shapefile).
	SRID int
}

// Load reads a vector file into a Layer, picking the decoder from the extension.
func Load(path string, opts LoadOptions) (Layer, error) {
	if opts.SRID == 0 {
		opts.SRID = WGS84
	}

	var layer Layer
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		layer, err = LoadGeoJSON(path, opts)
	case ".gpkg":
		layer, err = LoadGeoPackage(path, opts)
	case ".zip":
		layer, err = LoadShapefile(path, opts)
	default:
		return Layer{}, fmt.Errorf("unsupported geometry file %q", ext)
	}
	if err != nil {
		return Layer{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if layer.Name == "" {
		layer.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	layer.Features = selectAttributes(layer.Features, opts.Attributes)

	return layer, nil
}

func selectAttributes(features []Feature, attrs []string) []Feature {
	if len(attrs) == 0 {
		return features
	}
	for i, f := range features {
		props := make(map[string]any, len(attrs))
		for _, a := range attrs {
			if v, ok := f.Properties[a]; ok {
				props[a] = v
			}
		}
		features[i].Properties = props
	}
	return features
}
