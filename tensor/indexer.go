package tensor

import "fmt"

// Indexer maps n-dimensional coordinates to flat element offsets for one
// tensor, honoring its strides. The first activeDims dimensions are addressed
// by coordinate; any trailing dimensions are treated as a fixed-size element
// block starting at the returned offset (e.g. the 3 channels of an H×W×3
// image). Kernel code never does raw offset arithmetic itself.
type Indexer struct {
	shape   []int
	strides []int
	active  int
}

// NewIndexer builds an Indexer over the first activeDims dimensions of t.
func NewIndexer(t *Tensor, activeDims int) Indexer {
	if activeDims < 0 || activeDims > t.Dims() {
		panic(fmt.Sprintf("activeDims %d out of range for %d-d tensor", activeDims, t.Dims()))
	}
	return Indexer{
		shape:   t.shape,
		strides: t.strides,
		active:  activeDims,
	}
}

// ShapeAt returns the size of addressed dimension i.
func (ix Indexer) ShapeAt(i int) int { return ix.shape[i] }

// Offset returns the flat element offset of the given coordinates. The number
// of coordinates must equal the indexer's active dimension count, and each
// must be in bounds.
func (ix Indexer) Offset(coords ...int) int {
	if len(coords) != ix.active {
		panic(fmt.Sprintf("got %d coordinates, want %d", len(coords), ix.active))
	}
	off := 0
	for i, c := range coords {
		if c < 0 || c >= ix.shape[i] {
			panic(fmt.Sprintf("coordinate %d out of range [0, %d) in dimension %d", c, ix.shape[i], i))
		}
		off += c * ix.strides[i]
	}
	return off
}
