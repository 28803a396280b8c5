// Package basemap draws slippy map tiles behind projected maps.
package basemap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"
	"strings"

	sm "github.com/flopp/go-staticmaps"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultURL      = "https://worldtiles3.waze.com/tiles/{z}/{x}/{y}.png"
	DefaultMaxZoom  = 19
	DefaultMaxTiles = 256
	DefaultWorkers  = 8
	tileSize        = 256
)

var ErrNoTiles = errors.New("no tiles cover the frame")

type Options struct {
	// URL is an XYZ template with {z}, {x}, {y} and optionally {s}.
	URL        string
	Subdomains []string
	// CacheDir keeps downloaded tiles on disk. Empty disables the cache.
	CacheDir  string
	UserAgent string
	MaxZoom   int
	MaxTiles  int
	Workers   int
}

// Tiles renders a basemap from an XYZ tile server.
type Tiles struct {
	fetcher  fetcher
	maxZoom  int
	maxTiles int
	workers  int
	log      zerolog.Logger
}

type fetcher interface {
	Fetch(zoom, x, y int) (image.Image, error)
}

func New(opts Options) (*Tiles, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if !strings.Contains(opts.URL, "{z}") || !strings.Contains(opts.URL, "{x}") || !strings.Contains(opts.URL, "{y}") {
		return nil, fmt.Errorf("tile url %q needs {z}, {x} and {y}", opts.URL)
	}
	if opts.MaxZoom <= 0 || opts.MaxZoom > DefaultMaxZoom {
		opts.MaxZoom = DefaultMaxZoom
	}
	if opts.MaxTiles <= 0 {
		opts.MaxTiles = DefaultMaxTiles
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	provider := &sm.TileProvider{
		Name:       "basemap",
		TileSize:   tileSize,
		URLPattern: URLPattern(opts.URL),
		Shards:     opts.Subdomains,
	}

	var cache sm.TileCache
	if opts.CacheDir != "" {
		cache = sm.NewTileCache(opts.CacheDir, os.ModePerm)
	}

	f := sm.NewTileFetcher(provider, cache, true)
	if opts.UserAgent != "" {
		f.SetUserAgent(opts.UserAgent)
	}

	return &Tiles{
		fetcher:  f,
		maxZoom:  opts.MaxZoom,
		maxTiles: opts.MaxTiles,
		workers:  opts.Workers,
		log:      zlog.With().Str("component", "basemap").Logger(),
	}, nil
}

// URLPattern converts an XYZ template into the positional format the tile
// fetcher expands: shard, zoom, x, y.
func URLPattern(template string) string {
	r := strings.NewReplacer(
		"%", "%%",
		"{s}", "%[1]s",
		"{z}", "%[2]d",
		"{x}", "%[3]d",
		"{y}", "%[4]d",
	)
	return r.Replace(template)
}

type tile struct {
	x, y int
	img  image.Image
}

func (t *Tiles) Render(ctx context.Context, frame mapcomposer.Frame) (image.Image, error) {
	grid, err := newControlGrid(frame)
	if err != nil {
		return nil, err
	}

	zoom := chooseZoom(grid, frame.Width, t.maxZoom, t.maxTiles)
	r := grid.tileRange(zoom)
	if r.Empty() {
		return nil, ErrNoTiles
	}

	t.log.Debug().Int("zoom", zoom).Int("tiles", r.Dx()*r.Dy()).Msg("fetching tiles")

	tiles := make([]tile, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			tiles = append(tiles, tile{x: x, y: y})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	n := 1 << zoom
	for i := range tiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Tiles wrap around the antimeridian.
			x := ((tiles[i].x % n) + n) % n
			img, err := t.fetcher.Fetch(zoom, x, tiles[i].y)
			if err != nil {
				return fmt.Errorf("tile %d/%d/%d: %w", zoom, x, tiles[i].y, err)
			}
			tiles[i].img = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mosaic := image.NewRGBA(image.Rect(r.Min.X*tileSize, r.Min.Y*tileSize, r.Max.X*tileSize, r.Max.Y*tileSize))
	for _, tl := range tiles {
		dst := image.Rect(tl.x*tileSize, tl.y*tileSize, (tl.x+1)*tileSize, (tl.y+1)*tileSize)
		draw.Draw(mosaic, dst, tl.img, tl.img.Bounds().Min, draw.Src)
	}

	return grid.warp(mosaic, zoom, frame), nil
}

// chooseZoom picks the zoom whose pixels best match the frame resolution,
// then lowers it until the tile count fits.
func chooseZoom(grid *controlGrid, width, maxZoom, maxTiles int) int {
	span := grid.worldSpan()
	zoom := maxZoom
	if span > 0 {
		zoom = int(math.Ceil(math.Log2(float64(width) / (span * tileSize))))
	}
	zoom = max(0, min(zoom, maxZoom))

	for zoom > 0 {
		r := grid.tileRange(zoom)
		if r.Dx()*r.Dy() <= maxTiles {
			break
		}
		zoom--
	}
	return zoom
}

// worldPixel projects a WGS84 coordinate onto the Web Mercator plane scaled
// to [0, 1] on both axes.
func worldPixel(lon, lat float64) (float64, float64) {
	x := (lon + 180) / 360
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)
	return x, y
}

var _ mapcomposer.Basemap = (*Tiles)(nil)

