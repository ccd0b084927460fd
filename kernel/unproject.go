// Package kernel implements the depth-to-point-cloud unprojection operation.
// The per-pixel body is a single closure shared by every execution backend;
// compaction of the valid points uses a fetch-and-add counter instead of
// locks or a second counting pass.
package kernel

import (
	"github.com/pkg/errors"

	"github.com/robosense/depthcloud/exec"
	"github.com/robosense/depthcloud/tensor"
	"github.com/robosense/depthcloud/transform"
)

// Options tune an Unproject call.
type Options struct {
	// DepthScale divides raw depth samples into meters, e.g. 1000 for
	// millimeter uint16 depth.
	DepthScale float64
	// DepthMax is the exclusive far cutoff in meters; samples at or beyond it
	// are rejected as sensor noise.
	DepthMax float64
	// Stride subsamples both image axes. A stride that does not divide the
	// image dimensions crops the trailing partial row/column.
	Stride int
	// Launcher selects the execution backend. Nil means exec.Default().
	Launcher exec.Launcher
}

// Unproject converts a depth image, and optionally an aligned color image,
// into a compacted point cloud in the frame the extrinsics lead out of.
//
// depth must be an H×W Uint16 tensor. imageColors may be nil or empty (no
// colors requested) or an H×W×3 Float32 tensor aligned with depth. extrinsics
// is the camera pose, inverted once here; nil means identity. The returned
// points tensor is N×3 Float32 where N is the number of samples that passed
// the depth filter; the returned colors tensor is N×3 and index-aligned with
// points, or nil if no colors were requested.
//
// Output order is an arbitrary permutation under parallel execution; only the
// set of points is deterministic.
func Unproject(
	depth, imageColors *tensor.Tensor,
	intrinsics *transform.PinholeCameraIntrinsics,
	extrinsics *transform.Extrinsics,
	opts Options,
) (*tensor.Tensor, *tensor.Tensor, error) {
	if depth == nil || depth.Dims() != 2 {
		return nil, nil, errors.New("depth must be a 2-d tensor")
	}
	if depth.Dtype() != tensor.Uint16 {
		return nil, nil, errors.Errorf("depth must be uint16, got %v", depth.Dtype())
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, nil, err
	}
	if opts.DepthScale <= 0 {
		return nil, nil, errors.Errorf("depth scale must be positive, got %v", opts.DepthScale)
	}
	if opts.DepthMax <= 0 {
		return nil, nil, errors.Errorf("depth max must be positive, got %v", opts.DepthMax)
	}
	if opts.Stride < 1 {
		return nil, nil, errors.Errorf("stride must be >= 1, got %d", opts.Stride)
	}

	haveColors := !imageColors.IsEmpty()
	if haveColors {
		if imageColors.Dims() != 3 || imageColors.ShapeAt(2) != 3 {
			return nil, nil, errors.New("image colors must be an H×W×3 tensor")
		}
		if imageColors.Dtype() != tensor.Float32 {
			return nil, nil, errors.Errorf("image colors must be float32, got %v", imageColors.Dtype())
		}
		if imageColors.ShapeAt(0) != depth.ShapeAt(0) || imageColors.ShapeAt(1) != depth.ShapeAt(1) {
			return nil, nil, errors.Errorf("depth map and color dimensions don't match Depth(%d,%d) != Color(%d,%d)",
				depth.ShapeAt(0), depth.ShapeAt(1), imageColors.ShapeAt(0), imageColors.ShapeAt(1))
		}
	}

	if extrinsics == nil {
		extrinsics = transform.IdentityExtrinsics()
	}
	camToWorld, err := extrinsics.Inverse()
	if err != nil {
		return nil, nil, err
	}
	proj := transform.NewCameraProjection(intrinsics, camToWorld)

	depthIndexer := tensor.NewIndexer(depth, 2)
	rowsStrided := depth.ShapeAt(0) / opts.Stride
	colsStrided := depth.ShapeAt(1) / opts.Stride
	n := rowsStrided * colsStrided

	points := tensor.New([]int{n, 3}, tensor.Float32, depth.Device())
	pointIndexer := tensor.NewIndexer(points, 1)
	pointData := points.Float32s()

	var colors *tensor.Tensor
	var colorIndexer, imageColorIndexer tensor.Indexer
	var colorData, imageColorData []float32
	if haveColors {
		colors = tensor.New([]int{n, 3}, tensor.Float32, imageColors.Device())
		colorIndexer = tensor.NewIndexer(colors, 1)
		colorData = colors.Float32s()
		imageColorIndexer = tensor.NewIndexer(imageColors, 2)
		imageColorData = imageColors.Float32s()
	}

	// Workers claim slots through the one piece of shared mutable state; the
	// counter lives wherever the workers can address it.
	var counter exec.Counter
	if depth.Device() == tensor.CPU {
		counter = exec.NewCounter()
	} else {
		counter, _ = exec.NewCounterOn(depth.Device())
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = exec.Default()
	}

	depthData := depth.Uint16s()
	stride := opts.Stride
	launcher.Launch(n, func(i int) {
		y := (i / colsStrided) * stride
		x := (i % colsStrided) * stride

		d := float64(depthData[depthIndexer.Offset(y, x)]) / opts.DepthScale
		if d <= 0 || d >= opts.DepthMax {
			return
		}

		idx := int(counter.Add(1))

		xc, yc, zc := proj.Unproject(float64(x), float64(y), d)
		wx, wy, wz := proj.RigidTransform(xc, yc, zc)
		off := pointIndexer.Offset(idx)
		pointData[off] = float32(wx)
		pointData[off+1] = float32(wy)
		pointData[off+2] = float32(wz)

		if haveColors {
			dst := colorIndexer.Offset(idx)
			src := imageColorIndexer.Offset(y, x)
			colorData[dst] = imageColorData[src]
			colorData[dst+1] = imageColorData[src+1]
			colorData[dst+2] = imageColorData[src+2]
		}
	})

	total := int(counter.Value())
	points, err = points.Slice(0, total)
	if err != nil {
		return nil, nil, err
	}
	if haveColors {
		colors, err = colors.Slice(0, total)
		if err != nil {
			return nil, nil, err
		}
	}
	return points, colors, nil
}
