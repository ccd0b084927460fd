package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// magicNumIntVersionX is the magic number of the versioned raw depth format,
// the little-endian uint64 reading of the bytes "VERSIONX".
const magicNumIntVersionX = 6363110499870197078

const maxRawDimension = 100000

// ParseRawDepthMap parses a raw depth map from the given file, gzipped or not.
func ParseRawDepthMap(fn string) (*DepthMap, error) {
	var f io.Reader

	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.(*os.File).Close)

	if filepath.Ext(fn) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(gz.Close)
		f = gz
	}

	return ReadRawDepthMap(bufio.NewReader(f))
}

// ReadRawDepthMap reads a raw depth map from the given reader. Two layouts
// are understood: a bare little-endian uint64 width and height header followed
// by row-major uint16 samples, and the versioned layout behind a magic number
// that carries bytes-per-pixel and units lines.
func ReadRawDepthMap(f *bufio.Reader) (*DepthMap, error) {
	first, err := readNextUint64(f)
	if err != nil {
		return nil, err
	}
	if first == magicNumIntVersionX {
		return readDepthMapVersionX(f)
	}

	dm := DepthMap{width: int(first)}

	rawHeight, err := readNextUint64(f)
	if err != nil {
		return nil, err
	}
	dm.height = int(rawHeight)

	if err := checkRawDimensions(dm.width, dm.height); err != nil {
		return nil, err
	}
	dm.data = make([]uint16, dm.width*dm.height)
	if err := binary.Read(f, binary.LittleEndian, dm.data); err != nil {
		return nil, err
	}
	return &dm, nil
}

func readNextUint64(r io.Reader) (uint64, error) {
	data := make([]byte, 8)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

func checkRawDimensions(width, height int) error {
	if width <= 0 || width >= maxRawDimension || height <= 0 || height >= maxRawDimension {
		return errors.Errorf("bad width or height for depth map %v %v", width, height)
	}
	return nil
}

// readDepthMapVersionX handles the versioned layout: a rest-of-magic line,
// then bytes-per-pixel, units (meters per count), width, and height lines,
// then little-endian uint16 rows. Units are folded into the samples so that
// they come out in millimeters, matching the unversioned layout.
func readDepthMapVersionX(r *bufio.Reader) (*DepthMap, error) {
	// remainder of the magic line
	if _, err := r.ReadString('\n'); err != nil {
		return nil, err
	}

	bytesPerPixelString, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(bytesPerPixelString) != "2" {
		return nil, errors.Errorf("can only handle 2 bytes per pixel in versioned format, not %s",
			strings.TrimSpace(bytesPerPixelString))
	}

	unitsString, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	units, err := strconv.ParseFloat(strings.TrimSpace(unitsString), 64)
	if err != nil {
		return nil, err
	}
	units *= 1000 // m to mm

	dm := DepthMap{}
	if dm.width, err = readAsciiDimension(r); err != nil {
		return nil, err
	}
	if dm.height, err = readAsciiDimension(r); err != nil {
		return nil, err
	}
	if err := checkRawDimensions(dm.width, dm.height); err != nil {
		return nil, err
	}

	dm.data = make([]uint16, dm.width*dm.height)
	temp := make([]byte, 2)
	for i := range dm.data {
		if _, err := io.ReadFull(r, temp); err != nil {
			return nil, errors.Wrapf(err, "failed to read sample %d", i)
		}
		dm.data[i] = uint16(units * float64(binary.LittleEndian.Uint16(temp)))
	}
	return &dm, nil
}

func readAsciiDimension(r *bufio.Reader) (int, error) {
	s, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	x, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return int(x), nil
}

// WriteRawDepthMap writes the unversioned raw layout.
func (dm *DepthMap) WriteRawDepthMap(out io.Writer) error {
	buf := make([]byte, 8)

	binary.LittleEndian.PutUint64(buf, uint64(dm.width))
	if _, err := out.Write(buf); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf, uint64(dm.height))
	if _, err := out.Write(buf); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, dm.data)
}

// DecodeDepthPNG reads a 16-bit grayscale PNG into a depth map.
func DecodeDepthPNG(r io.Reader) (*DepthMap, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding depth png")
	}
	gray16, ok := img.(*image.Gray16)
	if !ok {
		return nil, errors.Errorf("depth png must be 16-bit grayscale, got %T", img)
	}
	bounds := gray16.Bounds()
	dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			dm.Set(x, y, Depth(gray16.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
		}
	}
	return dm, nil
}

// ParseDepthPNG reads a 16-bit grayscale PNG depth file.
func ParseDepthPNG(fn string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return DecodeDepthPNG(bufio.NewReader(f))
}
