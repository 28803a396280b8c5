package geodata

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

type shpRow struct {
	x, y    float64
	sre     string
	tipo    string
	deleted bool
}

// writeShapefile zips a point .shp and a .dbf with the character fields
// SRE and TIPO.
func writeShapefile(t *testing.T, path string, rows []shpRow) {
	t.Helper()

	var shpBuf bytes.Buffer
	header := make([]byte, 100)
	binary.BigEndian.PutUint32(header[0:4], 9994)
	binary.BigEndian.PutUint32(header[24:28], uint32(100+len(rows)*28)/2)
	binary.LittleEndian.PutUint32(header[28:32], 1000)
	binary.LittleEndian.PutUint32(header[32:36], 1)
	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, r := range rows {
		minX, minY = math.Min(minX, r.x), math.Min(minY, r.y)
		maxX, maxY = math.Max(maxX, r.x), math.Max(maxY, r.y)
	}
	for i, v := range []float64{minX, minY, maxX, maxY} {
		binary.LittleEndian.PutUint64(header[36+i*8:], math.Float64bits(v))
	}
	shpBuf.Write(header)
	for i, r := range rows {
		rec := make([]byte, 28)
		binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rec[4:8], 10)
		binary.LittleEndian.PutUint32(rec[8:12], 1)
		binary.LittleEndian.PutUint64(rec[12:20], math.Float64bits(r.x))
		binary.LittleEndian.PutUint64(rec[20:28], math.Float64bits(r.y))
		shpBuf.Write(rec)
	}

	fields := []struct {
		name string
		size int
	}{{"SRE", 10}, {"TIPO", 12}}
	recLen := 1
	for _, f := range fields {
		recLen += f.size
	}

	var dbfBuf bytes.Buffer
	dbfHeader := make([]byte, 32)
	dbfHeader[0] = 0x03
	binary.LittleEndian.PutUint32(dbfHeader[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(dbfHeader[8:10], uint16(32+32*len(fields)+1))
	binary.LittleEndian.PutUint16(dbfHeader[10:12], uint16(recLen))
	dbfBuf.Write(dbfHeader)
	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[0:11], f.name)
		desc[11] = 'C'
		desc[16] = byte(f.size)
		dbfBuf.Write(desc)
	}
	dbfBuf.WriteByte(0x0D)
	for _, r := range rows {
		if r.deleted {
			dbfBuf.WriteByte(0x2A)
		} else {
			dbfBuf.WriteByte(0x20)
		}
		for i, v := range []string{r.sre, r.tipo} {
			cell := bytes.Repeat([]byte(" "), fields[i].size)
			copy(cell, v)
			dbfBuf.Write(cell)
		}
	}
	dbfBuf.WriteByte(0x1A)

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	zw := zip.NewWriter(file)
	for name, data := range map[string][]byte{
		"trechos.shp": shpBuf.Bytes(),
		"trechos.dbf": dbfBuf.Bytes(),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trechos.zip")
	writeShapefile(t, path, []shpRow{
		{x: 550000.5, y: 9580000.25, sre: "116BCE0010", tipo: "Panela"},
		{x: 551000, y: 9581000, sre: "116BCE0030", tipo: "Trinca", deleted: true},
		{x: 552000, y: 9582000, sre: "350ECE0030", tipo: "Remendo"},
	})

	layer, err := Load(path, LoadOptions{SRID: CRS})
	require.NoError(t, err)
	assert.Equal(t, "trechos", layer.Name)
	assert.Equal(t, CRS, layer.SRID)
	require.Equal(t, 2, len(layer.Features))

	first := layer.Features[0]
	assert.Equal(t, "116BCE0010", first.Property("SRE"))
	assert.Equal(t, "Panela", first.Property("TIPO"))
	require.IsType(t, &geom.Point{}, first.Geometry)
	assert.Equal(t, geom.Coord{550000.5, 9580000.25}, first.Geometry.(*geom.Point).Coords())

	last := layer.Features[1]
	assert.Equal(t, "350ECE0030", last.Property("SRE"))
	assert.Equal(t, geom.Coord{552000, 9582000}, last.Geometry.(*geom.Point).Coords())

	layer, err = Load(path, LoadOptions{Attributes: []string{"SRE"}})
	require.NoError(t, err)
	require.Equal(t, 2, len(layer.Features))
	assert.Equal(t, map[string]any{"SRE": "116BCE0010"}, layer.Features[0].Properties)
}
