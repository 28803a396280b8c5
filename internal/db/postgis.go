package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trechoscriticos/oficios/pkg/geodata"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
	pgxgeos "github.com/twpayne/pgx-geos"
)

// DefaultTable holds the SRE network in the database.
const DefaultTable = "sre"

func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := pgxgeos.Register(ctx, conn, geos.NewContext()); err != nil {
			return err
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PostGIS reads segments from a table with an "sre" code and a "geom" column.
type PostGIS struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostGIS(pool *pgxpool.Pool, table string) *PostGIS {
	if table == "" {
		table = DefaultTable
	}
	return &PostGIS{pool: pool, table: table}
}

func (s *PostGIS) query() string {
	return fmt.Sprintf(
		"SELECT sre, ST_Transform(geom, %d) FROM %s WHERE sre = ANY($1) ORDER BY sre",
		geodata.CRS, pgx.Identifier{s.table}.Sanitize(),
	)
}

func (s *PostGIS) Segments(ctx context.Context, sres []string) (geodata.Layer, error) {
	rows, err := s.pool.Query(ctx, s.query(), sres)
	if err != nil {
		return geodata.Layer{}, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	layer := geodata.Layer{Name: s.table, SRID: geodata.CRS}
	for rows.Next() {
		var sre string
		var g *geos.Geom
		if err := rows.Scan(&sre, &g); err != nil {
			return geodata.Layer{}, fmt.Errorf("failed to scan segment: %w", err)
		}
		if g == nil {
			continue
		}

		t, err := wkb.Unmarshal(g.ToWKB())
		if err != nil {
			return geodata.Layer{}, fmt.Errorf("segment %s: %w", sre, err)
		}
		layer.Features = append(layer.Features, geodata.Feature{
			Geometry:   t,
			Properties: map[string]any{SREAttribute: sre},
		})
	}
	if err := rows.Err(); err != nil {
		return geodata.Layer{}, err
	}

	if layer.IsEmpty() {
		return geodata.Layer{}, fmt.Errorf("%w: %v", ErrNoSegments, sres)
	}
	return layer, nil
}
