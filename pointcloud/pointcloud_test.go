package pointcloud

import (
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/robosense/depthcloud/tensor"
)

func TestPointCloudBasic(t *testing.T) {
	pc := NewWithPrealloc(2, true)
	test.That(t, pc.Size(), test.ShouldEqual, 0)
	test.That(t, pc.HasColor(), test.ShouldBeTrue)

	pc.Append(NewVector(1, 2, 3), color.NRGBA{R: 255, A: 255})
	pc.Append(NewVector(4, 5, 6), color.NRGBA{G: 128, A: 255})
	test.That(t, pc.Size(), test.ShouldEqual, 2)

	p, c := pc.At(1)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, c.G, test.ShouldEqual, uint8(128))

	count := 0
	pc.Iterate(func(p r3.Vector, c color.NRGBA) bool {
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 2)

	count = 0
	pc.Iterate(func(p r3.Vector, c color.NRGBA) bool {
		count++
		return false
	})
	test.That(t, count, test.ShouldEqual, 1)
}

func TestPointCloudColorless(t *testing.T) {
	pc := NewWithPrealloc(1, false)
	test.That(t, pc.HasColor(), test.ShouldBeFalse)
	pc.Append(NewVector(1, 1, 1), color.NRGBA{R: 9})
	_, c := pc.At(0)
	test.That(t, c, test.ShouldResemble, color.NRGBA{})
}

func TestFromTensors(t *testing.T) {
	points, err := tensor.FromFloat32([]float32{
		1, 2, 3,
		4, 5, 6,
	}, 2, 3)
	test.That(t, err, test.ShouldBeNil)
	colors, err := tensor.FromFloat32([]float32{
		1, 0, 0,
		0, 0.5, 2, // out-of-range channels clamp
	}, 2, 3)
	test.That(t, err, test.ShouldBeNil)

	pc, err := FromTensors(points, colors)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)
	test.That(t, pc.HasColor(), test.ShouldBeTrue)

	p, c := pc.At(0)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	_, c = pc.At(1)
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 0, G: 128, B: 255, A: 255})

	pc, err = FromTensors(points, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.HasColor(), test.ShouldBeFalse)
}

func TestFromTensorsInvalid(t *testing.T) {
	_, err := FromTensors(nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	bad := tensor.New([]int{2, 4}, tensor.Float32, tensor.CPU)
	_, err = FromTensors(bad, nil)
	test.That(t, err, test.ShouldNotBeNil)

	wrongDtype := tensor.New([]int{2, 3}, tensor.Uint16, tensor.CPU)
	_, err = FromTensors(wrongDtype, nil)
	test.That(t, err, test.ShouldNotBeNil)

	points := tensor.New([]int{2, 3}, tensor.Float32, tensor.CPU)
	mismatched := tensor.New([]int{3, 3}, tensor.Float32, tensor.CPU)
	_, err = FromTensors(points, mismatched)
	test.That(t, err, test.ShouldNotBeNil)
}
