package transform

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Extrinsics is a 4×4 homogeneous rigid transform relating camera space and a
// reference frame. Whether it maps camera-from-world or world-from-camera is
// the caller's convention; Inverse flips it.
type Extrinsics struct {
	m *mat.Dense
}

// IdentityExtrinsics returns the identity pose.
func IdentityExtrinsics() *Extrinsics {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Extrinsics{m: m}
}

// NewExtrinsics builds a pose from 16 row-major elements.
func NewExtrinsics(elements []float64) (*Extrinsics, error) {
	if len(elements) != 16 {
		return nil, errors.Errorf("extrinsic matrix needs 16 elements, got %d", len(elements))
	}
	return &Extrinsics{m: mat.NewDense(4, 4, append([]float64(nil), elements...))}, nil
}

// NewExtrinsicsFromRotationTranslation builds a pose from a 3×3 rotation
// (row-major) and a translation vector.
func NewExtrinsicsFromRotationTranslation(rotation []float64, translation []float64) (*Extrinsics, error) {
	if len(rotation) != 9 {
		return nil, errors.Errorf("rotation needs 9 elements, got %d", len(rotation))
	}
	if len(translation) != 3 {
		return nil, errors.Errorf("translation needs 3 elements, got %d", len(translation))
	}
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rotation[3*i+j])
		}
		m.Set(i, 3, translation[i])
	}
	m.Set(3, 3, 1)
	return &Extrinsics{m: m}, nil
}

// At returns element (i, j) of the 4×4 matrix.
func (e *Extrinsics) At(i, j int) float64 { return e.m.At(i, j) }

// Rotation returns the 3×3 rotation block.
func (e *Extrinsics) Rotation() [3][3]float64 {
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = e.m.At(i, j)
		}
	}
	return r
}

// Translation returns the translation column.
func (e *Extrinsics) Translation() [3]float64 {
	return [3]float64{e.m.At(0, 3), e.m.At(1, 3), e.m.At(2, 3)}
}

// Inverse returns the inverted pose, or an error if the matrix is singular.
func (e *Extrinsics) Inverse() (*Extrinsics, error) {
	var inv mat.Dense
	if err := inv.Inverse(e.m); err != nil {
		return nil, errors.Wrap(err, "extrinsic matrix is not invertible")
	}
	return &Extrinsics{m: &inv}, nil
}

// TransformPoint applies the rigid transform to a 3D point.
func (e *Extrinsics) TransformPoint(x, y, z float64) (float64, float64, float64) {
	return e.m.At(0, 0)*x + e.m.At(0, 1)*y + e.m.At(0, 2)*z + e.m.At(0, 3),
		e.m.At(1, 0)*x + e.m.At(1, 1)*y + e.m.At(1, 2)*z + e.m.At(1, 3),
		e.m.At(2, 0)*x + e.m.At(2, 1)*y + e.m.At(2, 2)*z + e.m.At(2, 3)
}
