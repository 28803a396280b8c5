package oficio

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitee.com/gooffice/gooffice/document"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testID = "M1-S01-CE-350-1"

var testDate = time.Date(2025, 5, 5, 9, 30, 0, 0, time.UTC)

const sreGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"SRE": "350ECE0010"}, "geometry": {"type": "LineString", "coordinates": [[-38.560, -3.760], [-38.540, -3.745]]}},
    {"type": "Feature", "properties": {"SRE": "350ECE0030"}, "geometry": {"type": "LineString", "coordinates": [[-38.540, -3.745], [-38.515, -3.735]]}},
    {"type": "Feature", "properties": {"SRE": "060ECE0010"}, "geometry": {"type": "LineString", "coordinates": [[-38.700, -3.900], [-38.720, -3.950]]}}
  ]
}`

const defectsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"Condição": "Ponto apagado"}, "geometry": {"type": "Point", "coordinates": [-38.552, -3.755]}},
    {"type": "Feature", "properties": {"Condição": "Ponto apagado"}, "geometry": {"type": "Point", "coordinates": [-38.531, -3.741]}},
    {"type": "Feature", "properties": {"Condição": "Ponto apagado"}, "geometry": {"type": "Point", "coordinates": [-38.520, -3.737]}}
  ]
}`

type fixture struct {
	cfg       Config
	surveyDir string
}

func writeSheet(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeTemplate(t *testing.T, path, imageKey string) {
	t.Helper()

	doc := document.New()
	lines := []string{
		"{{ city_day_month_year }}",
		"Rodovia {{ road_name }}: {{ count_segments }} trechos ({{ SRE_list }}).",
		"{{ img_" + imageKey + "_map }}",
		"{{ img_" + imageKey + " }}",
		"Sinistros: {{ count_total_accidents }} no total, {{ count_serious_accidents }} com feridos, {{ count_fatal_accidents }} fatais.",
	}
	for _, line := range lines {
		doc.AddParagraph().AddRun().AddText(line)
	}
	require.NoError(t, doc.SaveToFile(path))
}

func writePhoto(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, 24, color.RGBA{255, 0, 0, 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	cfg := Config{
		TemplateDir:    filepath.Join(root, "template"),
		ReportDir:      filepath.Join(root, "report"),
		TrechosPath:    filepath.Join(root, "support", "1. Acompanhamento Base.xlsx"),
		TrechosSheet:   "Trechos",
		AccidentsPath:  filepath.Join(root, "support", "Sinistros Consolidados (2022 - 2024) - PSV.xlsx"),
		AccidentsSheet: "sinistros_22-24",
		SegmentsPath:   filepath.Join(root, "support", "sre.geojson"),
		City:           "Fortaleza",
		DPI:            20,
		Workers:        2,
	}
	for _, dir := range []string{cfg.TemplateDir, cfg.ReportDir, filepath.Dir(cfg.TrechosPath)} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	writeSheet(t, cfg.TrechosPath, cfg.TrechosSheet, [][]any{
		{"ID PSV", "SRE", "Município"},
		{testID, "350ECE0010", "Fortaleza"},
		{testID, "350ECE0030", "Fortaleza"},
		{"M1-S02-CE-060-1", "060ECE0010", "Maranguape"},
	})
	writeSheet(t, cfg.AccidentsPath, cfg.AccidentsSheet, [][]any{
		{"SRE", "data", "gravidade"},
		{"350ECE0010", "2023-02-01", "Grave"},
		{"350ECE0010", "2023-06-11", "FATAL"},
		{"350ECE0030", "2024-01-20", "LEVE"},
		{"350ECE0030", "2024-03-02", "Sem vítima"},
		{"060ECE0010", "2022-08-15", "Fatal"},
	})
	require.NoError(t, os.WriteFile(cfg.SegmentsPath, []byte(sreGeoJSON), 0o644))

	for _, typ := range AllTypes {
		writeTemplate(t, filepath.Join(cfg.TemplateDir, typ.Template()), typ.ImageKey())
	}

	surveyDir := filepath.Join(root, "shape")
	require.NoError(t, os.MkdirAll(surveyDir, 0o755))

	return &fixture{cfg: cfg, surveyDir: surveyDir}
}

// survey writes a defect file for the memo and, when withPhoto is set, the
// photo the memo embeds.
func (f *fixture) survey(t *testing.T, id string, typ DocumentType, withPhoto bool) string {
	t.Helper()

	path := filepath.Join(f.surveyDir, id+"-"+typ.Suffix()+".geojson")
	require.NoError(t, os.WriteFile(path, []byte(defectsGeoJSON), 0o644))
	if withPhoto {
		writePhoto(t, filepath.Join(f.cfg.ReportDir, id, typ.Photo()))
	}
	return path
}
