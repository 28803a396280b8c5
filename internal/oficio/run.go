package oficio

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/internal/db"
	"github.com/trechoscriticos/oficios/internal/trechos"
	"github.com/trechoscriticos/oficios/pkg/basemap"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
	"github.com/trechoscriticos/oficios/pkg/tabular"
)

// LocalOptions select the survey files of a generate run: Paths, or every
// survey file of Dir.
type LocalOptions struct {
	SetupOptions
	Paths  []string
	Dir    string
	Type   string
	Scale  string
	Bundle bool
}

func parseScale(s string) (*mapcomposer.ScaleConfig, error) {
	if s == "" {
		return nil, nil
	}
	return mapcomposer.ParseScaleConfig(s)
}

// Local generates memos from local survey files until done or interrupted.
func Local(opts LocalOptions, logLevel zerolog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.SetGlobalLevel(logLevel)

	if opts.Dir == "" && len(opts.Paths) == 0 {
		return fmt.Errorf("%w: no survey files given", mapcomposer.ErrConfiguration)
	}

	scale, err := parseScale(opts.Scale)
	if err != nil {
		return err
	}

	var docType DocumentType
	if opts.Type != "" {
		if docType, err = ParseDocumentType(opts.Type); err != nil {
			return err
		}
	}

	cfg := ConfigFromEnv()
	gen, closer, err := Setup(ctx, cfg, opts.SetupOptions)
	if err != nil {
		return err
	}
	defer closer()
	defer writeMetrics(gen, cfg)

	if opts.Dir != "" {
		summary, err := gen.Batch(ctx, opts.Dir, opts.Bundle)
		if err != nil {
			return err
		}
		log.Info().Int("generated", len(summary.Generated)).Int("skipped", len(summary.Skipped)).Int("failed", len(summary.Failures)).Msg("batch finished")
		return summary.Err()
	}

	summary := NewSummary()
	for _, path := range opts.Paths {
		t := docType
		if opts.Type == "" {
			if t, err = TypeFromPath(path); err != nil {
				summary.fail(path, err)
				continue
			}
		}

		res, err := gen.Generate(ctx, Request{Type: t, Path: path, Scale: scale, Bundle: opts.Bundle})
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to generate memo")
			summary.fail(path, err)
			continue
		}
		log.Info().Str("document", res.Document).Str("map", res.Map).Strs("sre", res.SRE).Msg("memo generated")
		summary.ok(res)
	}
	return summary.Err()
}

func writeMetrics(gen *Generator, cfg Config) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := gen.Health().WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn().Err(err).Msg("failed to write metrics")
	}
}

// MapOptions describe a standalone map: one layer per file, each labelled by
// LabelAttribute unless Legend overrides the labels.
type MapOptions struct {
	Layers         []string
	Reference      string
	LabelAttribute string
	Colors         []string
	Legend         []string
	Anchor         string
	Scale          string
	Out            string
	DPI            float64
	NoBasemap      bool
}

// RenderMap draws the layers of opts to a PNG file.
func RenderMap(opts MapOptions, logLevel zerolog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.SetGlobalLevel(logLevel)

	scale, err := parseScale(opts.Scale)
	if err != nil {
		return err
	}

	req := mapcomposer.Request{LabelAttribute: opts.LabelAttribute, Scale: scale}
	for _, path := range opts.Layers {
		layer, err := loadProjected(path)
		if err != nil {
			return err
		}
		req.Layers = append(req.Layers, layer)
	}
	if opts.Reference != "" {
		reference, err := loadProjected(opts.Reference)
		if err != nil {
			return err
		}
		req.Reference = &reference
	}
	if len(opts.Colors) > 0 {
		if req.Colors, err = mapcomposer.ParsePalette(opts.Colors); err != nil {
			return err
		}
	}

	var anchor mapcomposer.LegendAnchor
	if opts.Anchor != "" {
		if anchor, err = mapcomposer.ParseLegendAnchor(opts.Anchor); err != nil {
			return err
		}
	}

	var composerOpts []mapcomposer.Option
	if !opts.NoBasemap {
		cfg := ConfigFromEnv()
		tiles, err := basemap.New(basemap.Options{URL: cfg.TileURL, CacheDir: cfg.TileCacheDir, UserAgent: "oficios"})
		if err != nil {
			return err
		}
		composerOpts = append(composerOpts, mapcomposer.WithBasemap(tiles))
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = mapcomposer.DefaultDPI
	}
	surface := mapcomposer.NewSurface(dpi)
	defer surface.Release()

	m, err := mapcomposer.New(composerOpts...).Compose(ctx, surface, req)
	if err != nil {
		return err
	}
	m.SetLegend(opts.Legend, anchor)
	if err := m.SavePNG(opts.Out); err != nil {
		return err
	}

	log.Info().Str("path", opts.Out).Float64("scale", m.Scale.Length).Int("legend", len(m.Legend)).Msg("map saved")
	return nil
}

func loadProjected(path string) (geodata.Layer, error) {
	layer, err := geodata.Load(path, geodata.LoadOptions{})
	if err != nil {
		return geodata.Layer{}, err
	}
	return layer.Reproject(geodata.CRS)
}

// ExportTrechos writes the buffered segments of every tracked memo to out.
func ExportTrechos(out string, buffer float64, logLevel zerolog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.SetGlobalLevel(logLevel)

	cfg := ConfigFromEnv()
	sheet, err := tabular.ReadSheet(cfg.TrechosPath, cfg.TrechosSheet)
	if err != nil {
		return err
	}

	segments, closer, err := Segments(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	_, err = trechos.Export(ctx, segments, sheet, out, trechos.Options{Buffer: buffer})
	return err
}

// ImportSegments loads an SRE file into the database table of DATABASE_URL.
func ImportSegments(path, layerName string, logLevel zerolog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.SetGlobalLevel(logLevel)

	cfg := ConfigFromEnv()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is not set", mapcomposer.ErrConfiguration)
	}
	if path == "" {
		path = cfg.SegmentsPath
	}
	if layerName == "" {
		layerName = cfg.SegmentsLayer
	}

	layer, err := geodata.Load(path, geodata.LoadOptions{Layer: layerName})
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer pool.Close()

	_, err = db.NewPostGIS(pool, cfg.SegmentsTable).Import(ctx, layer)
	return err
}
