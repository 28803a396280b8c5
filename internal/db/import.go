package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

func (s *PostGIS) createTable() string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (sre text NOT NULL, geom geometry(Geometry, %d) NOT NULL)",
		pgx.Identifier{s.table}.Sanitize(), geodata.CRS,
	)
}

// importRows converts a projected layer into copy rows of (sre, geom).
// Features without an SRE code are skipped.
func importRows(layer geodata.Layer) ([][]any, error) {
	layer, err := layer.Reproject(geodata.CRS)
	if err != nil {
		return nil, err
	}

	ctx := geos.NewContext()
	rows := make([][]any, 0, len(layer.Features))
	for i, f := range layer.Features {
		sre := f.Property(SREAttribute)
		if sre == "" || f.Geometry == nil {
			continue
		}

		b, err := wkb.Marshal(f.Geometry, wkb.NDR)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		g, err := ctx.NewGeomFromWKB(b)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		rows = append(rows, []any{sre, g.SetSRID(geodata.CRS)})
	}
	return rows, nil
}

// Import replaces the segment table with the features of layer.
func (s *PostGIS) Import(ctx context.Context, layer geodata.Layer) (int64, error) {
	rows, err := importRows(layer)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, s.createTable()); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{s.table}.Sanitize()); err != nil {
		return 0, fmt.Errorf("failed to truncate %s: %w", s.table, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, []string{"sre", "geom"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy segments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	log.Info().Str("table", s.table).Int64("rows", n).Msg("segments imported")
	return n, nil
}
