// Package oficio generates the memos (ofícios) that report road defects to
// the agencies responsible for each stretch of highway.
package oficio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/internal/db"
	"github.com/trechoscriticos/oficios/internal/storage"
	"github.com/trechoscriticos/oficios/pkg/docx"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
	"github.com/trechoscriticos/oficios/pkg/tabular"
)

const (
	// LabelAttribute holds the condition of each surveyed defect.
	LabelAttribute = "Condição"
	// ReferenceLegend labels the highway segments on the map.
	ReferenceLegend = "Trecho"

	idColumn       = "ID PSV"
	sreColumn      = "SRE"
	severityColumn = "gravidade"

	mapWidthMM   = 160
	photoWidthMM = 120
)

var (
	ErrNoSegments   = errors.New("memo has no segments in the tracking sheet")
	ErrMissingPhoto = errors.New("defect photo not found")

	seriousSeverities = []string{"Grave", "GRAVE", "Leve", "LEVE"}
	fatalSeverities   = []string{"Fatal", "FATAL"}
)

type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Request struct {
	Type DocumentType
	// Path of the surveyed defects, named after the memo id.
	Path string
	// Scale overrides the configured scale bar.
	Scale *mapcomposer.ScaleConfig
	// Bundle zips the report directory after the memo is saved.
	Bundle bool
}

type Accidents struct {
	Total   int
	Serious int
	Fatal   int
}

type Result struct {
	ID        string
	Type      DocumentType
	Document  string
	Map       string
	Bundle    string
	Keys      []string
	SRE       []string
	Accidents Accidents
	Missing   []string
}

type Generator struct {
	cfg      Config
	segments db.SegmentSource
	composer *mapcomposer.Composer
	scales   map[string]mapcomposer.ScaleConfig
	uploader Uploader
	health   *Health
	now      func() time.Time
	log      zerolog.Logger

	sheetsOnce sync.Once
	trechos    dataframe.DataFrame
	accidents  dataframe.DataFrame
	sheetsErr  error
}

type Option func(*Generator)

func WithComposer(c *mapcomposer.Composer) Option {
	return func(g *Generator) { g.composer = c }
}

func WithScales(scales map[string]mapcomposer.ScaleConfig) Option {
	return func(g *Generator) { g.scales = scales }
}

func WithUploader(u Uploader) Option {
	return func(g *Generator) { g.uploader = u }
}

func WithHealth(h *Health) Option {
	return func(g *Generator) { g.health = h }
}

// WithClock fixes the date printed on memos.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(cfg Config, segments db.SegmentSource, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		segments: segments,
		composer: mapcomposer.New(),
		scales:   DefaultScales,
		health:   NewHealth(),
		now:      time.Now,
		log:      zlog.With().Str("component", "oficio").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Health() *Health {
	return g.health
}

func (g *Generator) loadSheets() {
	g.trechos, g.sheetsErr = tabular.ReadSheet(g.cfg.TrechosPath, g.cfg.TrechosSheet)
	if g.sheetsErr != nil {
		return
	}
	g.accidents, g.sheetsErr = tabular.ReadSheet(g.cfg.AccidentsPath, g.cfg.AccidentsSheet)
}

// scale picks the request override, then the configured bar of the memo,
// then nil for an automatic bar.
func (g *Generator) scale(id string, override *mapcomposer.ScaleConfig) *mapcomposer.ScaleConfig {
	if override != nil {
		return override
	}
	if c, ok := g.scales[id]; ok {
		return &c
	}
	return nil
}

// SegmentsOf lists the SRE codes the tracking sheet assigns to a memo.
func (g *Generator) SegmentsOf(id string) ([]string, error) {
	g.sheetsOnce.Do(g.loadSheets)
	if g.sheetsErr != nil {
		return nil, g.sheetsErr
	}

	rows, err := tabular.Equal(g.trechos, idColumn, id)
	if err != nil {
		return nil, err
	}
	sres, err := tabular.Column(rows, sreColumn)
	if err != nil {
		return nil, err
	}
	if len(sres) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSegments, id)
	}
	return sres, nil
}

// CountAccidents totals the accidents recorded on the segments.
func (g *Generator) CountAccidents(sres []string) (Accidents, error) {
	g.sheetsOnce.Do(g.loadSheets)
	if g.sheetsErr != nil {
		return Accidents{}, g.sheetsErr
	}

	rows, err := tabular.In(g.accidents, sreColumn, sres)
	if err != nil {
		return Accidents{}, err
	}

	var a Accidents
	a.Total = rows.Nrow()
	if a.Serious, err = tabular.Count(rows, severityColumn, seriousSeverities...); err != nil {
		return Accidents{}, err
	}
	if a.Fatal, err = tabular.Count(rows, severityColumn, fatalSeverities...); err != nil {
		return Accidents{}, err
	}
	return a, nil
}

// Generate renders the map of one survey file and fills the memo template
// of its type.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := g.generate(ctx, req)
	if err != nil {
		g.health.Failures.WithLabelValues(req.Type.String()).Inc()
		return nil, err
	}
	g.health.Documents.WithLabelValues(req.Type.String()).Inc()
	g.health.Duration.Observe(time.Since(start).Seconds())
	return res, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	id, err := ParseID(req.Path)
	if err != nil {
		return nil, err
	}
	if _, ok := typeInfos[req.Type]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(req.Type))
	}

	log := g.log.With().Str("id", id).Str("type", req.Type.String()).Logger()

	reportDir := filepath.Join(g.cfg.ReportDir, id)
	photo := filepath.Join(reportDir, req.Type.Photo())
	if _, err := os.Stat(photo); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPhoto, photo)
	}

	sres, err := g.SegmentsOf(id)
	if err != nil {
		return nil, err
	}

	segments, err := g.segments.Segments(ctx, sres)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments of %s: %w", id, err)
	}

	accidents, err := g.CountAccidents(sres)
	if err != nil {
		return nil, err
	}

	defects, err := geodata.Load(req.Path, geodata.LoadOptions{})
	if err != nil {
		return nil, err
	}
	defects, err = defects.Reproject(geodata.CRS)
	if err != nil {
		return nil, err
	}

	log.Debug().Strs("sre", sres).Int("defects", len(defects.Features)).Msg("inputs loaded")

	mapPath := filepath.Join(reportDir, req.Type.MapImage())
	if err := g.renderMap(ctx, id, req, defects, segments, mapPath); err != nil {
		return nil, err
	}
	g.health.Maps.Inc()

	tpl, err := docx.Open(filepath.Join(g.cfg.TemplateDir, req.Type.Template()))
	if err != nil {
		return nil, err
	}

	key := "img_" + req.Type.ImageKey()
	err = tpl.Render(docx.Context{
		"city_day_month_year":     docx.Text(DateLine(g.cfg.City, g.now())),
		"count_segments":          docx.Text(strconv.Itoa(len(sres))),
		"road_name":               docx.Text(RoadName(id)),
		"SRE_list":                docx.Text(JoinSRE(sres)),
		key + "_map":              docx.InlineImage{Path: mapPath, WidthMM: mapWidthMM},
		key:                       docx.InlineImage{Path: photo, WidthMM: photoWidthMM},
		"count_total_accidents":   docx.Text(strconv.Itoa(accidents.Total)),
		"count_serious_accidents": docx.Text(strconv.Itoa(accidents.Serious)),
		"count_fatal_accidents":   docx.Text(strconv.Itoa(accidents.Fatal)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", req.Type.Template(), err)
	}
	if missing := tpl.Missing(); len(missing) > 0 {
		log.Warn().Strs("placeholders", missing).Msg("template has placeholders without values")
	}

	docPath := filepath.Join(reportDir, DocumentName(id, req.Type))
	if err := tpl.Save(docPath); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", docPath, err)
	}
	log.Info().Str("path", docPath).Msg("memo saved")

	res := &Result{
		ID:        id,
		Type:      req.Type,
		Document:  docPath,
		Map:       mapPath,
		SRE:       sres,
		Accidents: accidents,
		Missing:   tpl.Missing(),
	}

	if g.uploader != nil {
		objectKey, err := g.uploader.Upload(ctx, docPath)
		if err != nil {
			return nil, err
		}
		res.Keys = append(res.Keys, objectKey)
	}

	if req.Bundle {
		bundle, objectKey, err := g.bundle(ctx, id)
		if err != nil {
			return nil, err
		}
		res.Bundle = bundle
		if objectKey != "" {
			res.Keys = append(res.Keys, objectKey)
		}
	}

	return res, nil
}

// bundle zips the report directory of a memo id and uploads the archive
// when an uploader is set. The object key is empty otherwise.
func (g *Generator) bundle(ctx context.Context, id string) (string, string, error) {
	dst := filepath.Join(g.cfg.ReportDir, id+".zip")
	if err := storage.Bundle(filepath.Join(g.cfg.ReportDir, id), dst); err != nil {
		return "", "", err
	}
	if g.uploader == nil {
		return dst, "", nil
	}
	objectKey, err := g.uploader.Upload(ctx, dst)
	if err != nil {
		return "", "", err
	}
	return dst, objectKey, nil
}

func (g *Generator) renderMap(ctx context.Context, id string, req Request, defects, segments geodata.Layer, path string) error {
	surface := mapcomposer.NewSurface(g.cfg.DPI)
	defer surface.Release()

	m, err := g.composer.Compose(ctx, surface, mapcomposer.Request{
		Layers:         []geodata.Layer{defects},
		LabelAttribute: LabelAttribute,
		Scale:          g.scale(id, req.Scale),
		Reference:      &segments,
	})
	if err != nil {
		return fmt.Errorf("failed to compose map of %s: %w", id, err)
	}

	m.SetLegend([]string{ReferenceLegend, req.Type.Legend()}, "")

	if err := m.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save map %s: %w", path, err)
	}
	return nil
}
