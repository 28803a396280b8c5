package oficio

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
)

func TestRenderMap(t *testing.T) {
	dir := t.TempDir()
	defects := filepath.Join(dir, "defeitos.geojson")
	sre := filepath.Join(dir, "sre.geojson")
	require.NoError(t, os.WriteFile(defects, []byte(defectsGeoJSON), 0o644))
	require.NoError(t, os.WriteFile(sre, []byte(sreGeoJSON), 0o644))

	out := filepath.Join(dir, "map.png")
	err := RenderMap(MapOptions{
		Layers:         []string{defects},
		Reference:      sre,
		LabelAttribute: LabelAttribute,
		Colors:         []string{"red"},
		Legend:         []string{"Trecho", "Defeitos"},
		Anchor:         "upper left",
		Out:            out,
		DPI:            20,
		NoBasemap:      true,
	}, zerolog.Disabled)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.InDelta(t, 112.5, img.Bounds().Dy(), 1)
}

func TestRenderMapErrors(t *testing.T) {
	dir := t.TempDir()
	defects := filepath.Join(dir, "defeitos.geojson")
	require.NoError(t, os.WriteFile(defects, []byte(defectsGeoJSON), 0o644))

	err := RenderMap(MapOptions{Layers: []string{defects}, Scale: "1,2", NoBasemap: true}, zerolog.Disabled)
	assert.ErrorIs(t, err, mapcomposer.ErrConfiguration)

	err = RenderMap(MapOptions{Layers: []string{defects}, Anchor: "somewhere", NoBasemap: true}, zerolog.Disabled)
	assert.ErrorIs(t, err, mapcomposer.ErrConfiguration)

	err = RenderMap(MapOptions{Layers: []string{filepath.Join(dir, "missing.geojson")}, NoBasemap: true}, zerolog.Disabled)
	assert.Error(t, err)
}

func TestLocalNoFiles(t *testing.T) {
	err := Local(LocalOptions{}, zerolog.Disabled)
	assert.ErrorIs(t, err, mapcomposer.ErrConfiguration)
}

func TestLocal(t *testing.T) {
	f := newFixture(t)
	path := f.survey(t, testID, Iluminacao, true)

	t.Setenv("TEMPLATE_DIR", f.cfg.TemplateDir)
	t.Setenv("REPORT_DIR", f.cfg.ReportDir)
	t.Setenv("TRECHOS_PATH", f.cfg.TrechosPath)
	t.Setenv("TRECHOS_SHEET", f.cfg.TrechosSheet)
	t.Setenv("SINISTROS_PATH", f.cfg.AccidentsPath)
	t.Setenv("SINISTROS_SHEET", f.cfg.AccidentsSheet)
	t.Setenv("SRE_PATH", f.cfg.SegmentsPath)
	t.Setenv("MAP_DPI", "20")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OUTPUT_BUCKET", "")
	t.Setenv("SCALE_CONFIG", "")
	t.Setenv("METRICS_FILE", filepath.Join(t.TempDir(), "oficios.prom"))

	err := Local(LocalOptions{SetupOptions: SetupOptions{NoBasemap: true}, Paths: []string{path}}, zerolog.Disabled)
	require.NoError(t, err)

	id, err := ParseID(path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.cfg.ReportDir, id, DocumentName(id, Iluminacao)))
	assert.FileExists(t, os.Getenv("METRICS_FILE"))

	err = Local(LocalOptions{SetupOptions: SetupOptions{NoBasemap: true}, Paths: []string{path}, Type: "nope"}, zerolog.Disabled)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestExportTrechos(t *testing.T) {
	f := newFixture(t)
	t.Setenv("TRECHOS_PATH", f.cfg.TrechosPath)
	t.Setenv("TRECHOS_SHEET", f.cfg.TrechosSheet)
	t.Setenv("SRE_PATH", f.cfg.SegmentsPath)
	t.Setenv("DATABASE_URL", "")

	out := filepath.Join(t.TempDir(), "trechos.json")
	require.NoError(t, ExportTrechos(out, 25, zerolog.Disabled))

	layer, err := geodata.Load(out, geodata.LoadOptions{})
	require.NoError(t, err)
	assert.False(t, layer.IsEmpty())
	assert.Equal(t, testID, layer.Features[0].Property("ID PSV"))
}
