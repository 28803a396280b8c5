// Package db provides the road segment (SRE) geometries memos are drawn around.
package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/trechoscriticos/oficios/pkg/geodata"
)

// SREAttribute names the segment code in every segment source.
const SREAttribute = "SRE"

var ErrNoSegments = errors.New("no segment geometry found")

type SegmentSource interface {
	// Segments returns the geometries of the given SRE codes in geodata.CRS.
	Segments(ctx context.Context, sres []string) (geodata.Layer, error)
}

// FileSource reads segments from a vector file, typically the SRE GeoPackage.
// The file is loaded and reprojected once.
type FileSource struct {
	Path  string
	Layer string

	once  sync.Once
	layer geodata.Layer
	err   error
}

func NewFileSource(path, layer string) *FileSource {
	return &FileSource{Path: path, Layer: layer}
}

func (s *FileSource) load() {
	layer, err := geodata.Load(s.Path, geodata.LoadOptions{Layer: s.Layer})
	if err != nil {
		s.err = err
		return
	}
	s.layer, s.err = layer.Reproject(geodata.CRS)
}

func (s *FileSource) Segments(ctx context.Context, sres []string) (geodata.Layer, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return geodata.Layer{}, s.err
	}

	layer := s.layer.Filter(SREAttribute, sres...)
	if layer.IsEmpty() {
		return geodata.Layer{}, fmt.Errorf("%w: %v", ErrNoSegments, sres)
	}
	return layer, nil
}

// All returns every segment of the file.
func (s *FileSource) All() (geodata.Layer, error) {
	s.once.Do(s.load)
	return s.layer, s.err
}
