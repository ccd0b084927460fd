package rimage

import (
	"bufio"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/robosense/depthcloud/tensor"

	// registered for image.Decode.
	_ "image/jpeg"
	_ "image/png"
)

// DecodeColorImage reads an image and converts it to an H×W×3 float32 tensor
// with channels scaled to [0, 1], the layout the kernel copies colors from.
func DecodeColorImage(r io.Reader) (*tensor.Tensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding color image")
	}
	return ColorImageToTensor(img)
}

// ColorImageToTensor converts any image to the kernel's H×W×3 color layout.
func ColorImageToTensor(img image.Image) (*tensor.Tensor, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("color image has no pixels")
	}
	t := tensor.New([]int{height, width, 3}, tensor.Float32, tensor.CPU)
	data := t.Float32s()
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			data[i] = float32(r>>8) / 255.
			data[i+1] = float32(g>>8) / 255.
			data[i+2] = float32(b>>8) / 255.
			i += 3
		}
	}
	return t, nil
}

// ParseColorImage reads a color image file into the kernel's color layout.
func ParseColorImage(fn string) (*tensor.Tensor, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return DecodeColorImage(bufio.NewReader(f))
}
