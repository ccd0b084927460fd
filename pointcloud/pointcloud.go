// Package pointcloud defines a dense point cloud and its serialization to the
// PCD format. Unlike a dictionary-backed cloud it has no point identity or
// spatial lookup; it holds compacted kernel output, where every slot is
// already a distinct accepted sample.
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/robosense/depthcloud/tensor"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// PointCloud is a dense, index-addressed set of points with optional
// per-point colors. Position i and color i always describe the same source
// sample.
type PointCloud struct {
	positions []r3.Vector
	colors    []color.NRGBA
}

// NewWithPrealloc returns an empty cloud with capacity for size points.
func NewWithPrealloc(size int, hasColor bool) *PointCloud {
	pc := &PointCloud{positions: make([]r3.Vector, 0, size)}
	if hasColor {
		pc.colors = make([]color.NRGBA, 0, size)
	}
	return pc
}

// FromTensors wraps kernel output tensors into a cloud. points must be N×3
// float32; colors may be nil, or N×3 float32 with channels in [0, 1].
func FromTensors(points, colors *tensor.Tensor) (*PointCloud, error) {
	if points == nil || points.Dims() != 2 || points.ShapeAt(1) != 3 {
		return nil, errors.New("points must be an N×3 tensor")
	}
	if points.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("points must be float32, got %v", points.Dtype())
	}
	n := points.ShapeAt(0)
	hasColor := !colors.IsEmpty()
	if hasColor {
		if colors.Dims() != 2 || colors.ShapeAt(1) != 3 || colors.ShapeAt(0) != n {
			return nil, errors.Errorf("colors must be an N×3 tensor matching %d points", n)
		}
		if colors.Dtype() != tensor.Float32 {
			return nil, errors.Errorf("colors must be float32, got %v", colors.Dtype())
		}
	}

	pc := NewWithPrealloc(n, hasColor)
	pointData := points.Float32s()
	var colorData []float32
	if hasColor {
		colorData = colors.Float32s()
	}
	for i := 0; i < n; i++ {
		off := i * points.StrideAt(0)
		pos := r3.Vector{
			X: float64(pointData[off]),
			Y: float64(pointData[off+1]),
			Z: float64(pointData[off+2]),
		}
		if hasColor {
			coff := i * colors.StrideAt(0)
			pc.Append(pos, color.NRGBA{
				R: channelToByte(colorData[coff]),
				G: channelToByte(colorData[coff+1]),
				B: channelToByte(colorData[coff+2]),
				A: 255,
			})
		} else {
			pc.Append(pos, color.NRGBA{})
		}
	}
	return pc, nil
}

func channelToByte(c float32) uint8 {
	switch {
	case c <= 0:
		return 0
	case c >= 1:
		return 255
	default:
		return uint8(c*255 + 0.5)
	}
}

// Append adds a point. The color is ignored for colorless clouds.
func (pc *PointCloud) Append(p r3.Vector, c color.NRGBA) {
	pc.positions = append(pc.positions, p)
	if pc.colors != nil {
		pc.colors = append(pc.colors, c)
	}
}

// Size returns the number of points in the cloud.
func (pc *PointCloud) Size() int {
	return len(pc.positions)
}

// HasColor reports whether the cloud carries per-point colors.
func (pc *PointCloud) HasColor() bool {
	return pc.colors != nil
}

// At returns point i and its color, if any.
func (pc *PointCloud) At(i int) (r3.Vector, color.NRGBA) {
	if pc.colors != nil {
		return pc.positions[i], pc.colors[i]
	}
	return pc.positions[i], color.NRGBA{}
}

// Iterate calls fn for every point in index order until it returns false.
func (pc *PointCloud) Iterate(fn func(p r3.Vector, c color.NRGBA) bool) {
	for i := range pc.positions {
		p, c := pc.At(i)
		if !fn(p, c) {
			return
		}
	}
}
