package mapcomposer

import (
	"fmt"
	"math"

	"github.com/trechoscriticos/oficios/pkg/geodata"
)

// TargetAspect is the width to height ratio maps are framed for.
const TargetAspect = 16.0 / 9.0

// Extent is the axis aligned bounding box of every coordinate of a set of layers.
type Extent struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

func (e Extent) Width() float64  { return e.MaxX - e.MinX }
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// ComputeExtent bounds the union of all layers. Every layer must have
// features and the union must span a non-zero, finite width or height.
// Non-finite coordinates (empty GeoPackage points) are skipped.
func ComputeExtent(layers ...geodata.Layer) (Extent, error) {
	e := Extent{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	var n int

	for i, layer := range layers {
		if layer.IsEmpty() {
			return Extent{}, fmt.Errorf("%w: layer %d (%s) has no features", ErrConfiguration, i, layer.Name)
		}
		for _, part := range layer.Coords() {
			for _, c := range part {
				e.MinX = math.Min(e.MinX, c[0])
				e.MaxX = math.Max(e.MaxX, c[0])
				e.MinY = math.Min(e.MinY, c[1])
				e.MaxY = math.Max(e.MaxY, c[1])
				n++
			}
		}
	}

	if n == 0 {
		return Extent{}, fmt.Errorf("%w: layers have no coordinates", ErrConfiguration)
	}
	if math.IsNaN(e.Width()) || math.IsInf(e.Width(), 0) || math.IsNaN(e.Height()) || math.IsInf(e.Height(), 0) {
		return Extent{}, fmt.Errorf("%w: extent is not finite", ErrConfiguration)
	}
	if e.Width() == 0 && e.Height() == 0 {
		return Extent{}, fmt.Errorf("%w: extent is a single point", ErrConfiguration)
	}

	return e, nil
}

// Viewport is the map area shown in the frame.
type Viewport struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
	// Widened reports whether the horizontal bounds were stretched to the
	// target aspect ratio.
	Widened bool `json:"widened"`
}

func (v Viewport) Width() float64  { return v.MaxX - v.MinX }
func (v Viewport) Height() float64 { return v.MaxY - v.MinY }

// FitViewport widens extents that are too tall for a 16:9 frame around
// their horizontal midpoint. Other extents are shown as they are.
func FitViewport(e Extent) Viewport {
	v := Viewport{MinX: e.MinX, MaxX: e.MaxX, MinY: e.MinY, MaxY: e.MaxY}

	if TargetAspect*e.Height() > e.Width() {
		w := e.Height() * TargetAspect
		mid := (e.MaxX + e.MinX) * 0.5
		v.MinX = mid - w*0.5
		v.MaxX = mid + w*0.5
		v.Widened = true
	}

	return v
}
