package geodata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const lightingGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"Condição": "Apagado", "poste": 12},
     "geometry": {"type": "Point", "coordinates": [-38.52, -3.72]}},
    {"type": "Feature", "properties": {"Condição": "Apagado", "poste": 13},
     "geometry": {"type": "LineString", "coordinates": [[-38.53, -3.73], [-38.54, -3.74]]}}
  ]
}`

func TestLoadGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "M1-S01-CE-350-1-ILU.geojson")
	require.NoError(t, os.WriteFile(path, []byte(lightingGeoJSON), 0o644))

	layer, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "M1-S01-CE-350-1-ILU", layer.Name)
	assert.Equal(t, 4326, layer.SRID)
	assert.Equal(t, 2, len(layer.Features))
	assert.Equal(t, "Apagado", layer.Label("Condição"))
	assert.IsType(t, &geom.LineString{}, layer.Features[1].Geometry)

	layer, err = Load(path, LoadOptions{SRID: 4674})
	require.NoError(t, err)
	assert.Equal(t, 4674, layer.SRID)
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geojson")
	require.NoError(t, WriteGeoJSON(path, testLayer()))

	layer, err := LoadGeoJSON(path, LoadOptions{SRID: CRS})
	require.NoError(t, err)
	assert.Equal(t, 3, len(layer.Features))
	assert.Equal(t, "350ECE0030", layer.Features[1].Property("SRE"))
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("trecho.kml", LoadOptions{})
	assert.Error(t, err)
}
