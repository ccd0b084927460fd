// Package main is the depthcloud CLI, which unprojects depth images into PCD
// point clouds.
package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/robosense/depthcloud/exec"
	"github.com/robosense/depthcloud/kernel"
	"github.com/robosense/depthcloud/pointcloud"
	"github.com/robosense/depthcloud/rimage"
	"github.com/robosense/depthcloud/tensor"
	"github.com/robosense/depthcloud/transform"
)

const (
	// Flags.
	convertFlagDepth      = "depth"
	convertFlagColor      = "color"
	convertFlagIntrinsics = "intrinsics"
	convertFlagExtrinsics = "extrinsics"
	convertFlagScale      = "scale"
	convertFlagMaxDepth   = "max-depth"
	convertFlagStride     = "stride"
	convertFlagSerial     = "serial"
	convertFlagFormat     = "format"
	convertFlagOutput     = "output"

	formatAscii  = "ascii"
	formatBinary = "binary"
)

func main() {
	var logger golog.Logger

	app := &cli.App{
		Name:  "depthcloud",
		Usage: "convert depth images into point clouds",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("depthcloud")
			} else {
				logger = golog.NewLogger("depthcloud")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "convert",
				Usage: "unproject a depth image (plus optional aligned color image) to a PCD file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     convertFlagDepth,
						Usage:    "depth image path (16-bit grayscale png, or raw depth stream, optionally gzipped)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  convertFlagColor,
						Usage: "color image path aligned with the depth image",
					},
					&cli.StringFlag{
						Name:     convertFlagIntrinsics,
						Usage:    "JSON file with pinhole camera intrinsics",
						Required: true,
					},
					&cli.StringFlag{
						Name:  convertFlagExtrinsics,
						Usage: "camera pose as 16 comma-separated row-major values (default identity)",
					},
					&cli.Float64Flag{
						Name:  convertFlagScale,
						Usage: "depth units per meter",
						Value: 1000,
					},
					&cli.Float64Flag{
						Name:  convertFlagMaxDepth,
						Usage: "exclusive far cutoff in meters",
						Value: 3.0,
					},
					&cli.IntFlag{
						Name:  convertFlagStride,
						Usage: "pixel sampling stride",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  convertFlagSerial,
						Usage: "run the kernel on a single thread",
					},
					&cli.StringFlag{
						Name:  convertFlagFormat,
						Usage: "pcd output format (ascii or binary)",
						Value: formatBinary,
					},
					&cli.StringFlag{
						Name:     convertFlagOutput,
						Usage:    "output PCD path",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return convertAction(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}

func convertAction(c *cli.Context, logger golog.Logger) error {
	intrinsics, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(c.String(convertFlagIntrinsics))
	if err != nil {
		return err
	}

	extrinsics, err := parseExtrinsics(c.String(convertFlagExtrinsics))
	if err != nil {
		return err
	}

	dm, err := readDepth(c.String(convertFlagDepth))
	if err != nil {
		return err
	}
	logger.Debugw("loaded depth image", "width", dm.Width(), "height", dm.Height())

	var colors *tensor.Tensor
	if colorPath := c.String(convertFlagColor); colorPath != "" {
		colors, err = rimage.ParseColorImage(colorPath)
		if err != nil {
			return err
		}
	}

	var launcher exec.Launcher
	if c.Bool(convertFlagSerial) {
		launcher = exec.Serial{}
	}

	points, outColors, err := kernel.Unproject(dm.ToTensor(), colors, intrinsics, extrinsics, kernel.Options{
		DepthScale: c.Float64(convertFlagScale),
		DepthMax:   c.Float64(convertFlagMaxDepth),
		Stride:     c.Int(convertFlagStride),
		Launcher:   launcher,
	})
	if err != nil {
		return err
	}
	logger.Infow("unprojected depth image", "points", points.ShapeAt(0), "colored", outColors != nil)

	cloud, err := pointcloud.FromTensors(points, outColors)
	if err != nil {
		return err
	}

	var format pointcloud.PCDType
	switch c.String(convertFlagFormat) {
	case formatAscii:
		format = pointcloud.PCDAscii
	case formatBinary:
		format = pointcloud.PCDBinary
	default:
		return errors.Errorf("unknown pcd format %q", c.String(convertFlagFormat))
	}
	return writePCD(cloud, c.String(convertFlagOutput), format)
}

func parseExtrinsics(raw string) (*transform.Extrinsics, error) {
	if raw == "" {
		return transform.IdentityExtrinsics(), nil
	}
	parts := strings.Split(raw, ",")
	elements := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad extrinsic element %q", p)
		}
		elements = append(elements, v)
	}
	return transform.NewExtrinsics(elements)
}

func readDepth(fn string) (*rimage.DepthMap, error) {
	if filepath.Ext(fn) == ".png" {
		return rimage.ParseDepthPNG(fn)
	}
	return rimage.ParseRawDepthMap(fn)
}

func writePCD(cloud *pointcloud.PointCloud, fn string, format pointcloud.PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	defer func() {
		err = multierr.Combine(err, w.Flush(), f.Close())
	}()
	return pointcloud.ToPCD(cloud, w, format)
}
