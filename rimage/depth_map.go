// Package rimage decodes depth and color images into the tensors the
// unprojection kernel consumes.
package rimage

import (
	"github.com/robosense/depthcloud/tensor"
)

// MaxDepth is the largest representable depth sample.
const MaxDepth = Depth(^uint16(0))

// Depth is a single depth sample in sensor units (typically millimeters).
type Depth uint16

// DepthMap is a 2-D grid of depth samples, stored row-major.
type DepthMap struct {
	width  int
	height int

	data []uint16
}

// NewEmptyDepthMap returns a zeroed depth map of the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]uint16, width*height),
	}
}

// HasData reports whether the map has been allocated with a real size.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.data != nil
}

// Width returns the horizontal dimension.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical dimension.
func (dm *DepthMap) Height() int {
	return dm.height
}

// GetDepth returns the sample at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return Depth(dm.data[y*dm.width+x])
}

// Set writes the sample at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = uint16(val)
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	out := NewEmptyDepthMap(dm.width, dm.height)
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest nonzero samples. Zero means "no
// reading" for depth sensors and is excluded.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min := MaxDepth
	max := Depth(0)

	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if Depth(z) < min {
			min = Depth(z)
		}
		if Depth(z) > max {
			max = Depth(z)
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ToTensor wraps the map's storage as an H×W uint16 tensor, sharing memory.
func (dm *DepthMap) ToTensor() *tensor.Tensor {
	t, err := tensor.FromUint16(dm.data, dm.height, dm.width)
	if err != nil {
		// dimensions and storage are kept consistent by construction
		panic(err)
	}
	return t
}
