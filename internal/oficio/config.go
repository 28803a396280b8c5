package oficio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
	"gopkg.in/yaml.v3"
)

// Config locates the inputs and outputs of memo generation. It is read from
// the environment, usually populated from a .env file.
type Config struct {
	TemplateDir    string
	ReportDir      string
	TrechosPath    string
	TrechosSheet   string
	AccidentsPath  string
	AccidentsSheet string
	SegmentsPath   string
	SegmentsLayer  string
	SegmentsTable  string
	DatabaseURL    string
	TileURL        string
	TileCacheDir   string
	ScaleConfig    string
	City           string
	OutputBucket   string
	OutputPrefix   string
	MetricsFile    string
	DPI            float64
	Workers        int
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring invalid integer")
		return fallback
	}
	return n
}

func ConfigFromEnv() Config {
	return Config{
		TemplateDir:    getEnv("TEMPLATE_DIR", filepath.Join("internal_data", "template")),
		ReportDir:      getEnv("REPORT_DIR", filepath.Join("internal_data", "report")),
		TrechosPath:    getEnv("TRECHOS_PATH", filepath.Join("internal_data", "support", "1. Acompanhamento Base.xlsx")),
		TrechosSheet:   getEnv("TRECHOS_SHEET", "Trechos"),
		AccidentsPath:  getEnv("SINISTROS_PATH", filepath.Join("internal_data", "support", "Sinistros Consolidados (2022 - 2024) - PSV.xlsx")),
		AccidentsSheet: getEnv("SINISTROS_SHEET", "sinistros_22-24"),
		SegmentsPath:   getEnv("SRE_PATH", filepath.Join("internal_data", "support", "Shape_SRE_15_04_2025_Compatibilizado.gpkg")),
		SegmentsLayer:  os.Getenv("SRE_LAYER"),
		SegmentsTable:  os.Getenv("SRE_TABLE"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		TileURL:        os.Getenv("TILE_URL"),
		TileCacheDir:   os.Getenv("TILE_CACHE_DIR"),
		ScaleConfig:    os.Getenv("SCALE_CONFIG"),
		City:           getEnv("CITY", "Fortaleza"),
		OutputBucket:   os.Getenv("OUTPUT_BUCKET"),
		OutputPrefix:   os.Getenv("OUTPUT_PREFIX"),
		MetricsFile:    os.Getenv("METRICS_FILE"),
		DPI:            float64(getEnvInt("MAP_DPI", int(mapcomposer.DefaultDPI))),
		Workers:        getEnvInt("WORKERS", 2),
	}
}

// DefaultScales are the hand tuned scale bars of memos whose automatic
// bar does not fit.
var DefaultScales = map[string]mapcomposer.ScaleConfig{
	"M1-S01-CE-350-1": {
		Length:         4000,
		Label:          "4 km",
		Thickness:      125,
		VerticalOffset: 300,
		Legend:         mapcomposer.LowerCenter,
		Bar:            mapcomposer.BarLower,
		ArrowLength:    0.3,
	},
}

// LoadScales reads per memo scale bars from a YAML file keyed by memo id.
// Entries override DefaultScales. An empty path returns the defaults.
func LoadScales(path string) (map[string]mapcomposer.ScaleConfig, error) {
	scales := make(map[string]mapcomposer.ScaleConfig, len(DefaultScales))
	for id, c := range DefaultScales {
		scales[id] = c
	}
	if path == "" {
		return scales, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file map[string]mapcomposer.ScaleConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for id, c := range file {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		scales[id] = c
	}
	return scales, nil
}
