package mapcomposer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/pkg/geodata"
)

// ReferenceLabel is the legend label of the reference layer.
const ReferenceLabel = "Trecho"

// Basemap renders a raster backdrop for a frame. The returned image covers
// exactly the frame's map bounds.
type Basemap interface {
	Render(ctx context.Context, frame Frame) (image.Image, error)
}

type Request struct {
	// Layers are drawn in order, each in its own color.
	Layers []geodata.Layer
	// LabelAttribute names the attribute holding each layer's legend label.
	LabelAttribute string
	// Colors assigned to Layers in order. Nil uses DefaultPalette.
	Colors []color.Color
	// Scale fixes the scale bar. Nil computes it from the data.
	Scale *ScaleConfig
	// Reference is drawn beneath the layers, e.g. the road segment itself.
	Reference *geodata.Layer
	// SRID of every layer. Zero uses geodata.CRS.
	SRID int
}

type LegendEntry struct {
	Label     string      `json:"label"`
	Color     color.Color `json:"-"`
	Alpha     float64     `json:"alpha"`
	Width     float64     `json:"width"`
	Reference bool        `json:"reference"`
}

// Layout is everything derived from the request before drawing.
type Layout struct {
	Extent   Extent        `json:"extent"`
	Viewport Viewport      `json:"viewport"`
	Scale    ScaleConfig   `json:"scale"`
	Bar      ScaleBar      `json:"bar"`
	Arrow    NorthArrow    `json:"arrow"`
	Legend   []LegendEntry `json:"legend"`
	colors   []color.Color
}

// Plan validates the request and computes its layout. It has no side effects.
func Plan(req Request) (Layout, error) {
	if len(req.Layers) == 0 {
		return Layout{}, fmt.Errorf("%w: no layers to draw", ErrConfiguration)
	}

	colors := req.Colors
	if colors == nil {
		colors = DefaultPalette()
	}
	if len(req.Layers) > len(colors) {
		return Layout{}, fmt.Errorf("%w: %d colors for %d layers", ErrConfiguration, len(colors), len(req.Layers))
	}

	if req.Scale != nil {
		if err := req.Scale.Validate(); err != nil {
			return Layout{}, err
		}
	}

	all := req.Layers
	if req.Reference != nil {
		all = append(append([]geodata.Layer{}, req.Layers...), *req.Reference)
	}
	extent, err := ComputeExtent(all...)
	if err != nil {
		return Layout{}, err
	}

	viewport := FitViewport(extent)

	var scale ScaleConfig
	if req.Scale == nil {
		// The span of the data, not of the widened viewport.
		scale = AutoScale(extent.Width())
	} else {
		scale = *req.Scale
	}

	layout := Layout{
		Extent:   extent,
		Viewport: viewport,
		Scale:    scale,
		Bar:      PlaceScaleBar(extent, viewport, scale),
		Arrow:    PlaceNorthArrow(scale.ArrowLength),
		colors:   colors[:len(req.Layers)],
	}

	if req.Reference != nil {
		layout.Legend = append(layout.Legend, LegendEntry{
			Label:     ReferenceLabel,
			Color:     referenceStyle.color,
			Alpha:     referenceStyle.alpha,
			Width:     referenceStyle.width,
			Reference: true,
		})
	}
	for i, layer := range req.Layers {
		layout.Legend = append(layout.Legend, LegendEntry{
			Label: layer.Label(req.LabelAttribute),
			Color: layout.colors[i],
			Alpha: layerAlpha,
			Width: layerWidth,
		})
	}

	return layout, nil
}

// Map is a composed map. Its legend is drawn when the map is encoded, so
// SetLegend may still change it.
type Map struct {
	Layout
	Frame        Frame        `json:"frame"`
	LegendAnchor LegendAnchor `json:"legend_anchor"`
	surface      *Surface
}

// SetLegend replaces the legend labels in order. Entries beyond the given
// labels are dropped; no labels at all keeps the legend as it is. An empty
// anchor keeps the current one.
func (m *Map) SetLegend(labels []string, anchor LegendAnchor) {
	if anchor != "" {
		m.LegendAnchor = anchor
	}
	if len(labels) == 0 {
		return
	}

	n := min(len(labels), len(m.Legend))
	entries := make([]LegendEntry, n)
	for i := range n {
		entries[i] = m.Legend[i]
		entries[i].Label = labels[i]
	}
	m.Legend = entries
}

func (m *Map) finish() (*gg.Context, error) {
	img := m.surface.Image()
	if img == nil {
		return nil, ErrReleased
	}
	dc := gg.NewContextForImage(img)
	if err := drawLegend(dc, m.surface, m.Legend, m.LegendAnchor); err != nil {
		return nil, err
	}
	return dc, nil
}

func (m *Map) WritePNG(w io.Writer) error {
	dc, err := m.finish()
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func (m *Map) SavePNG(path string) error {
	dc, err := m.finish()
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

// Composer draws maps. The zero value draws without a backdrop.
type Composer struct {
	basemap Basemap
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*Composer)

func WithBasemap(b Basemap) Option {
	return func(c *Composer) { c.basemap = b }
}

// WithBasemapTimeout bounds the backdrop fetch of a single map.
func WithBasemapTimeout(d time.Duration) Option {
	return func(c *Composer) { c.timeout = d }
}

func New(opts ...Option) *Composer {
	c := &Composer{
		timeout: 2 * time.Minute,
		log:     zlog.With().Str("component", "mapcomposer").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose draws the request onto the surface. The surface is reset first
// and released again if composing fails; on success the caller releases it
// after saving the map.
func (c *Composer) Compose(ctx context.Context, surface *Surface, req Request) (*Map, error) {
	layout, err := Plan(req)
	if err != nil {
		return nil, err
	}

	srid := req.SRID
	if srid == 0 {
		srid = geodata.CRS
	}
	frame := newFrame(layout.Viewport, surface.WidthPixels(), srid)

	c.log.Debug().
		Interface("extent", layout.Extent).
		Bool("widened", layout.Viewport.Widened).
		Str("scale", layout.Scale.Label).
		Int("width", frame.Width).
		Int("height", frame.Height).
		Msg("composing map")

	var backdrop image.Image
	if c.basemap != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
		backdrop, err = c.basemap.Render(fetchCtx, frame)
		cancel()
		if err != nil {
			surface.Release()
			return nil, fmt.Errorf("%w: %w", ErrBasemapUnavailable, err)
		}
	}

	dc := surface.begin(frame.Width, frame.Height)
	fail := func(err error) (*Map, error) {
		surface.Release()
		return nil, err
	}

	if backdrop != nil {
		drawBasemap(dc, backdrop, frame)
	}

	if req.Reference != nil {
		for _, f := range req.Reference.Features {
			drawGeometry(dc, surface, frame, f.Geometry, referenceStyle)
		}
	}
	for i, layer := range req.Layers {
		st := style{color: layout.colors[i], alpha: layerAlpha, width: layerWidth}
		for _, f := range layer.Features {
			drawGeometry(dc, surface, frame, f.Geometry, st)
		}
	}

	if err := drawScaleBar(dc, surface, frame, layout.Bar); err != nil {
		return fail(err)
	}
	if err := drawNorthArrow(dc, surface, frame, layout.Arrow); err != nil {
		return fail(err)
	}

	return &Map{
		Layout:       layout,
		Frame:        frame,
		LegendAnchor: layout.Scale.Legend,
		surface:      surface,
	}, nil
}
