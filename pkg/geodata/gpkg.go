package geodata

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"
)

var ErrNotGeoPackageGeometry = errors.New("not a GeoPackage geometry blob")

// LoadGeoPackage reads one feature table of a GeoPackage.
func LoadGeoPackage(path string, opts LoadOptions) (Layer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Layer{}, err
	}
	defer db.Close()

	query := `SELECT table_name, column_name, srs_id FROM gpkg_geometry_columns`
	args := []any{}
	if opts.Layer != "" {
		query += ` WHERE table_name = ?`
		args = append(args, opts.Layer)
	}
	query += ` ORDER BY table_name LIMIT 1`

	var table, column string
	var srid int
	if err := db.QueryRow(query, args...).Scan(&table, &column, &srid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Layer{}, fmt.Errorf("no feature table %q", opts.Layer)
		}
		return Layer{}, err
	}

	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(table))
	if err != nil {
		return Layer{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Layer{}, err
	}

	layer := Layer{Name: table, SRID: srid}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Layer{}, err
		}

		f := Feature{Properties: map[string]any{}}
		for i, name := range columns {
			if name == column {
				blob, ok := values[i].([]byte)
				if !ok {
					continue
				}
				g, blobSRID, err := DecodeGeoPackageGeometry(blob)
				if err != nil {
					return Layer{}, err
				}
				if blobSRID > 0 {
					layer.SRID = blobSRID
				}
				f.Geometry = g
				continue
			}
			if b, ok := values[i].([]byte); ok {
				f.Properties[name] = string(b)
			} else {
				f.Properties[name] = values[i]
			}
		}
		layer.Features = append(layer.Features, f)
	}

	return layer, rows.Err()
}

// DecodeGeoPackageGeometry strips the GeoPackage binary header (magic,
// version, flags, srs id and optional envelope) and decodes the WKB body.
// An empty geometry decodes to nil.
func DecodeGeoPackageGeometry(b []byte) (geom.T, int, error) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return nil, 0, ErrNotGeoPackageGeometry
	}

	flags := b[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}

	var envelope int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelope = 0
	case 1:
		envelope = 32
	case 2, 3:
		envelope = 48
	case 4:
		envelope = 64
	default:
		return nil, 0, fmt.Errorf("%w: invalid envelope indicator", ErrNotGeoPackageGeometry)
	}

	srid := int(int32(order.Uint32(b[4:8])))
	offset := 8 + envelope
	if len(b) < offset {
		return nil, 0, fmt.Errorf("%w: truncated header", ErrNotGeoPackageGeometry)
	}

	// Empty geometries are stored with NaN coordinates.
	if flags&0x10 != 0 {
		return nil, srid, nil
	}

	g, err := wkb.Unmarshal(b[offset:])
	if err != nil {
		return nil, 0, err
	}
	return g, srid, nil
}

// EncodeGeoPackageGeometry writes a little-endian header without envelope.
func EncodeGeoPackageGeometry(g geom.T, srid int) ([]byte, error) {
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	header := []byte{'G', 'P', 0, 0x01, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(header[4:8], uint32(int32(srid)))
	return append(header, body...), nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
