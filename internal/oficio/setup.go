package oficio

import (
	"context"
	"fmt"

	"github.com/trechoscriticos/oficios/internal/db"
	"github.com/trechoscriticos/oficios/internal/storage"
	"github.com/trechoscriticos/oficios/pkg/basemap"
	"github.com/trechoscriticos/oficios/pkg/mapcomposer"
)

// SetupOptions are the command line switches that shape a generator.
type SetupOptions struct {
	NoBasemap bool
	NoUpload  bool
}

// Segments opens the SRE geometry source: PostGIS when DATABASE_URL is set
// and the SRE file otherwise. The returned function releases the database pool.
func Segments(ctx context.Context, cfg Config) (db.SegmentSource, func(), error) {
	if cfg.DatabaseURL == "" {
		return db.NewFileSource(cfg.SegmentsPath, cfg.SegmentsLayer), func() {}, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise database: %w", err)
	}
	return db.NewPostGIS(pool, cfg.SegmentsTable), pool.Close, nil
}

// Setup wires a generator from the configuration. The returned function
// releases the segment source.
func Setup(ctx context.Context, cfg Config, opts SetupOptions) (*Generator, func(), error) {
	segments, closer, err := Segments(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	scales, err := LoadScales(cfg.ScaleConfig)
	if err != nil {
		closer()
		return nil, nil, err
	}

	var composerOpts []mapcomposer.Option
	if !opts.NoBasemap {
		tiles, err := basemap.New(basemap.Options{
			URL:       cfg.TileURL,
			CacheDir:  cfg.TileCacheDir,
			UserAgent: "oficios",
		})
		if err != nil {
			closer()
			return nil, nil, err
		}
		composerOpts = append(composerOpts, mapcomposer.WithBasemap(tiles))
	}

	genOpts := []Option{
		WithComposer(mapcomposer.New(composerOpts...)),
		WithScales(scales),
	}

	if cfg.OutputBucket != "" && !opts.NoUpload {
		uploader, err := storage.NewUploader(ctx, cfg.OutputBucket, cfg.OutputPrefix)
		if err != nil {
			closer()
			return nil, nil, err
		}
		genOpts = append(genOpts, WithUploader(uploader))
	}

	return NewGenerator(cfg, segments, genOpts...), closer, nil
}
