// Package trechos exports the priority segments of the tracking sheet as
// buffered polygons.
package trechos

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/internal/db"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/trechoscriticos/oficios/pkg/tabular"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

const (
	DefaultBuffer = 25.0
	IDAttribute   = "ID PSV"
	quadSegs      = 8
)

type Options struct {
	// Buffer distance in metres.
	Buffer float64
	// SRID of the written file.
	SRID int
}

// Join pairs every row of the tracking sheet with the geometries of its
// segment. Rows whose segment has no geometry are dropped.
func Join(segments geodata.Layer, trechos dataframe.DataFrame) (geodata.Layer, error) {
	ids, err := tabular.Column(trechos, IDAttribute)
	if err != nil {
		return geodata.Layer{}, err
	}
	sres, err := tabular.Column(trechos, db.SREAttribute)
	if err != nil {
		return geodata.Layer{}, err
	}

	index := map[string][]geom.T{}
	for _, f := range segments.Features {
		sre := f.Property(db.SREAttribute)
		index[sre] = append(index[sre], f.Geometry)
	}

	out := geodata.Layer{Name: "trechos", SRID: segments.SRID}
	var dropped int
	for i, sre := range sres {
		geoms, ok := index[sre]
		if !ok {
			dropped++
			continue
		}
		for _, g := range geoms {
			out.Features = append(out.Features, geodata.Feature{
				Geometry:   g,
				Properties: map[string]any{db.SREAttribute: sre, IDAttribute: ids[i]},
			})
		}
	}
	if dropped > 0 {
		log.Warn().Int("rows", dropped).Msg("tracked segments without geometry")
	}
	return out, nil
}

// Buffer grows every geometry of a projected layer by distance metres.
func Buffer(layer geodata.Layer, distance float64) (geodata.Layer, error) {
	ctx := geos.NewContext()

	out := geodata.Layer{Name: layer.Name, SRID: layer.SRID, Features: make([]geodata.Feature, 0, len(layer.Features))}
	for i, f := range layer.Features {
		if f.Geometry == nil {
			continue
		}
		b, err := wkb.Marshal(f.Geometry, wkb.NDR)
		if err != nil {
			return geodata.Layer{}, fmt.Errorf("feature %d: %w", i, err)
		}
		g, err := ctx.NewGeomFromWKB(b)
		if err != nil {
			return geodata.Layer{}, fmt.Errorf("feature %d: %w", i, err)
		}
		buffered, err := wkb.Unmarshal(g.Buffer(distance, quadSegs).ToWKB())
		if err != nil {
			return geodata.Layer{}, fmt.Errorf("feature %d: %w", i, err)
		}
		out.Features = append(out.Features, geodata.Feature{Geometry: buffered, Properties: f.Properties})
	}
	return out, nil
}

// Export writes the buffered segments of every tracked SRE to path as GeoJSON.
func Export(ctx context.Context, source db.SegmentSource, trechos dataframe.DataFrame, path string, opts Options) (geodata.Layer, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.SRID == 0 {
		opts.SRID = geodata.WGS84
	}

	sres, err := tabular.Column(trechos, db.SREAttribute)
	if err != nil {
		return geodata.Layer{}, err
	}

	segments, err := source.Segments(ctx, sres)
	if err != nil {
		return geodata.Layer{}, err
	}

	joined, err := Join(segments, trechos)
	if err != nil {
		return geodata.Layer{}, err
	}
	buffered, err := Buffer(joined, opts.Buffer)
	if err != nil {
		return geodata.Layer{}, err
	}
	buffered, err = buffered.Reproject(opts.SRID)
	if err != nil {
		return geodata.Layer{}, err
	}

	if err := geodata.WriteGeoJSON(path, buffered); err != nil {
		return geodata.Layer{}, err
	}
	log.Info().Str("path", path).Int("features", len(buffered.Features)).Msg("segments exported")
	return buffered, nil
}
