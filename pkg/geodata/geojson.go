package geodata

import (
	"encoding/json"
	"os"

	"github.com/twpayne/go-geom/encoding/geojson"
)

func LoadGeoJSON(path string, opts LoadOptions) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, err
	}

	fc := geojson.FeatureCollection{}
	if err := json.Unmarshal(data, &fc); err != nil {
		return Layer{}, err
	}

	layer := Layer{SRID: opts.SRID}
	for _, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		layer.Features = append(layer.Features, Feature{Geometry: f.Geometry, Properties: props})
	}

	return layer, nil
}

// WriteGeoJSON encodes the layer as a FeatureCollection.
func WriteGeoJSON(path string, layer Layer) error {
	fc := geojson.FeatureCollection{}
	for _, f := range layer.Features {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   f.Geometry,
			Properties: f.Properties,
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
